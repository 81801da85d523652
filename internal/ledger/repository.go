package ledger

import (
	"context"

	"github.com/restohub/supply-service/internal/ledger/dto"
	"github.com/restohub/supply-service/internal/model"
)

// Repository serializes stock mutations per (location, item) row with
// row-level locks inside a single transaction; multi-item operations lock
// rows in ascending item-id order and are all-or-nothing. Domain checks
// (non-negative balances, reservation bounds) happen against the locked row.
type Repository interface {
	GetRestaurantStock(ctx context.Context, ns, restaurantID, itemID string) (*model.RestaurantStock, error)
	GetWarehouseStock(ctx context.Context, ns, warehouseID, itemID string) (*model.WarehouseStock, error)
	ListLowStockRestaurant(ctx context.Context, ns, restaurantID string) ([]model.RestaurantStock, error)
	ListLowStockWarehouse(ctx context.Context, ns, warehouseID string) ([]model.WarehouseStock, error)
	ListMovements(ctx context.Context, ns string, f *dto.MovementFilters) ([]model.StockMovement, int, error)

	AdjustRestaurantStock(ctx context.Context, ns, restaurantID, itemID string, delta float64, mv dto.Movement) (*model.RestaurantStock, error)
	AdjustWarehouseStock(ctx context.Context, ns, warehouseID, itemID string, delta float64, mv dto.Movement) (*model.WarehouseStock, error)

	Reserve(ctx context.Context, ns, warehouseID, itemID string, qty float64, mv dto.Movement) (*model.WarehouseStock, error)
	Release(ctx context.Context, ns, warehouseID, itemID string, qty float64, mv dto.Movement) (*model.WarehouseStock, error)
	Fulfil(ctx context.Context, ns, warehouseID, itemID string, qty float64, mv dto.Movement) (*model.WarehouseStock, error)

	ReserveAll(ctx context.Context, ns, warehouseID string, items []dto.ItemQuantity, mv dto.Movement) error
	ReleaseAll(ctx context.Context, ns, warehouseID string, items []dto.ItemQuantity, mv dto.Movement) error
	FulfilAll(ctx context.Context, ns, warehouseID string, items []dto.ItemQuantity, mv dto.Movement) error
}
