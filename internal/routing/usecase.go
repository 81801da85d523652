package routing

import (
	"context"

	"github.com/restohub/supply-service/internal/model"
)

type UseCase interface {
	// ResolveWarehouse picks the active connection with the best (lowest)
	// priority for the restaurant, oldest first on ties. Returns NoRoute
	// when the restaurant has no active connection.
	ResolveWarehouse(ctx context.Context, ns, restaurantID string) (*model.Connection, error)

	Connect(ctx context.Context, ns, restaurantID, warehouseID string, priority int, settings model.DeliverySettings) (*model.Connection, error)
	// Disconnect hard-deletes the edge; a missing edge is not an error.
	Disconnect(ctx context.Context, ns, restaurantID, warehouseID string) error
	SetActive(ctx context.Context, ns, restaurantID, warehouseID string, active bool) error
	ListConnections(ctx context.Context, ns, restaurantID string) ([]model.Connection, error)
}
