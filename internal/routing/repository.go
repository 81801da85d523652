package routing

import (
	"context"

	"github.com/restohub/supply-service/internal/model"
)

// Repository persists restaurant↔warehouse connections in a tenant namespace.
type Repository interface {
	// Upsert creates the edge or updates priority/settings on the unique
	// (restaurant, warehouse) pair, re-activating a soft-disabled edge.
	Upsert(ctx context.Context, ns string, c *model.Connection) error
	Delete(ctx context.Context, ns, restaurantID, warehouseID string) error
	SetActive(ctx context.Context, ns, restaurantID, warehouseID string, active bool) error

	// FindActiveByRestaurant returns active edges ranked best-first:
	// ascending priority (lower wins), ties broken by oldest creation.
	FindActiveByRestaurant(ctx context.Context, ns, restaurantID string) ([]model.Connection, error)
	FindByRestaurant(ctx context.Context, ns, restaurantID string) ([]model.Connection, error)
	FindByPair(ctx context.Context, ns, restaurantID, warehouseID string) (*model.Connection, error)
}
