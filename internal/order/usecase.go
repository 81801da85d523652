package order

import (
	"context"

	"github.com/restohub/supply-service/internal/model"
	"github.com/restohub/supply-service/internal/order/dto"
)

type UseCase interface {
	// CreateOrder validates the restaurant-warehouse pairing, snapshots
	// catalog prices into the lines and persists the aggregate as draft.
	CreateOrder(ctx context.Context, ns string, input *dto.CreateOrderInput) (*model.Order, error)

	// UpdateStatus drives the state machine. Reservation, release and
	// fulfilment side effects run against the stock ledger; the transition
	// fails whole when any of them do.
	UpdateStatus(ctx context.Context, ns string, input *dto.UpdateStatusInput) (*model.Order, error)

	// UpdateItems rewrites requested quantities on a pending-group order and
	// recomputes totals.
	UpdateItems(ctx context.Context, ns string, input *dto.UpdateItemsInput) (*model.Order, error)

	GetOrder(ctx context.Context, ns, id string) (*model.Order, error)
	GetOrderByNumber(ctx context.Context, ns, number string) (*model.Order, error)
	ListOrders(ctx context.Context, ns string, f *dto.OrderFilters) ([]model.Order, int, error)
	GetHistory(ctx context.Context, ns, orderID string) ([]model.StatusHistory, error)
}
