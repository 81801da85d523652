package usecase

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/restohub/supply-service/internal/apperr"
	"github.com/restohub/supply-service/internal/model"
	"github.com/restohub/supply-service/internal/routing"
)

type routingUseCase struct {
	repo   routing.Repository
	logger *zap.Logger
}

func NewRoutingUseCase(repo routing.Repository, log *zap.Logger) routing.UseCase {
	return &routingUseCase{repo: repo, logger: log}
}

func (uc *routingUseCase) ResolveWarehouse(ctx context.Context, ns, restaurantID string) (*model.Connection, error) {
	conns, err := uc.repo.FindActiveByRestaurant(ctx, ns, restaurantID)
	if err != nil {
		return nil, err
	}
	if len(conns) == 0 {
		return nil, &apperr.Error{
			Kind: apperr.NoRoute, Entity: "restaurant", ID: restaurantID,
			Msg: "no active warehouse connection",
		}
	}
	// Repository returns best-first; take the head.
	return &conns[0], nil
}

func (uc *routingUseCase) Connect(ctx context.Context, ns, restaurantID, warehouseID string, priority int, settings model.DeliverySettings) (*model.Connection, error) {
	if priority < 1 {
		priority = 1
	}
	now := time.Now()
	c := &model.Connection{
		BaseModel:        model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		RestaurantID:     restaurantID,
		WarehouseID:      warehouseID,
		IsActive:         true,
		Priority:         priority,
		DeliverySettings: settings,
	}
	if err := uc.repo.Upsert(ctx, ns, c); err != nil {
		return nil, err
	}
	// The upsert may have kept an existing row's id and created_at; re-read
	// so callers see the stored edge.
	stored, err := uc.repo.FindByPair(ctx, ns, restaurantID, warehouseID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return c, nil
	}
	return stored, nil
}

func (uc *routingUseCase) Disconnect(ctx context.Context, ns, restaurantID, warehouseID string) error {
	return uc.repo.Delete(ctx, ns, restaurantID, warehouseID)
}

func (uc *routingUseCase) SetActive(ctx context.Context, ns, restaurantID, warehouseID string, active bool) error {
	err := uc.repo.SetActive(ctx, ns, restaurantID, warehouseID, active)
	if errors.Is(err, sql.ErrNoRows) {
		return &apperr.Error{
			Kind: apperr.NotFound, Entity: "connection",
			ID: restaurantID + ":" + warehouseID,
		}
	}
	return err
}

func (uc *routingUseCase) ListConnections(ctx context.Context, ns, restaurantID string) ([]model.Connection, error) {
	return uc.repo.FindByRestaurant(ctx, ns, restaurantID)
}
