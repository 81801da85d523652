package order

import (
	"context"

	"github.com/restohub/supply-service/internal/model"
	"github.com/restohub/supply-service/internal/order/dto"
)

// Repository persists the order aggregate. The aggregate owns its line items
// and status history; both are written inside the order's transaction and
// cascade-deleted with it.
type Repository interface {
	// Create persists the order and its line items in one transaction.
	Create(ctx context.Context, ns string, o *model.Order) error

	// FindByID loads the order with its line items.
	FindByID(ctx context.Context, ns, id string) (*model.Order, error)
	FindByNumber(ctx context.Context, ns, number string) (*model.Order, error)
	FindAll(ctx context.Context, ns string, f *dto.OrderFilters) ([]model.Order, int, error)

	// UpdateStatus writes the order's new status (and the transition's side
	// fields) plus exactly one immutable history row, atomically.
	UpdateStatus(ctx context.Context, ns string, o *model.Order, h *model.StatusHistory) error

	// UpdateItems rewrites line quantities and the recomputed totals in one
	// transaction.
	UpdateItems(ctx context.Context, ns string, o *model.Order) error

	ListHistory(ctx context.Context, ns, orderID string) ([]model.StatusHistory, error)
}

// EventPublisher is the outbound notification sink. Delivery is best-effort;
// a publish failure never rolls back a committed transition.
type EventPublisher interface {
	Publish(ctx context.Context, key, value []byte) error
}
