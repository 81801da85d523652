package ledger

import (
	"context"

	"github.com/restohub/supply-service/internal/ledger/dto"
	"github.com/restohub/supply-service/internal/model"
)

type UseCase interface {
	// AdjustStock applies a signed delta to either ledger. It fails with
	// InsufficientStock when the result would break a balance invariant.
	AdjustStock(ctx context.Context, ns string, input *dto.AdjustStockInput) (*dto.StockLevel, error)

	// Reserve moves qty from available to reserved on a warehouse row.
	Reserve(ctx context.Context, ns, warehouseID, itemID string, qty float64, mv dto.Movement) error
	// Release reverses a reservation.
	Release(ctx context.Context, ns, warehouseID, itemID string, qty float64, mv dto.Movement) error
	// Fulfil removes qty from both current and reserved on delivery.
	Fulfil(ctx context.Context, ns, warehouseID, itemID string, qty float64, mv dto.Movement) error

	// Multi-item variants used by the order engine; all-or-nothing across
	// the set.
	ReserveItems(ctx context.Context, ns, warehouseID string, items []dto.ItemQuantity, mv dto.Movement) error
	ReleaseItems(ctx context.Context, ns, warehouseID string, items []dto.ItemQuantity, mv dto.Movement) error
	FulfilItems(ctx context.Context, ns, warehouseID string, items []dto.ItemQuantity, mv dto.Movement) error

	// Lock-free reads; an eventually consistent snapshot is acceptable.
	ListLowStockRestaurant(ctx context.Context, ns, restaurantID string) ([]model.RestaurantStock, error)
	ListLowStockWarehouse(ctx context.Context, ns, warehouseID string) ([]model.WarehouseStock, error)
	ListMovements(ctx context.Context, ns string, f *dto.MovementFilters) ([]model.StockMovement, int, error)
}
