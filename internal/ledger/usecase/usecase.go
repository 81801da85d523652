package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/restohub/supply-service/internal/apperr"
	"github.com/restohub/supply-service/internal/ledger"
	"github.com/restohub/supply-service/internal/ledger/dto"
	"github.com/restohub/supply-service/internal/model"
	"github.com/restohub/supply-service/internal/pkg/cache"
)

const (
	lockTTL      = 5 * time.Second
	lockAttempts = 3
	lockBackoff  = 100 * time.Millisecond
)

type ledgerUseCase struct {
	repo   ledger.Repository
	cache  *cache.RedisClient
	logger *zap.Logger
}

func NewLedgerUseCase(repo ledger.Repository, cache *cache.RedisClient, log *zap.Logger) ledger.UseCase {
	return &ledgerUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

// withLock serializes single-key mutations on (namespace, kind, location,
// item) across instances. The database row lock remains the correctness
// backstop; this keeps hot keys from piling up on the database.
func (uc *ledgerUseCase) withLock(ctx context.Context, key string, fn func() error) error {
	if uc.cache == nil {
		return fn()
	}

	lockValue := uuid.New().String()
	acquired := false
	for i := 0; i < lockAttempts; i++ {
		ok, err := uc.cache.AcquireLock(ctx, key, lockValue, lockTTL)
		if err != nil {
			uc.logger.Error("stock lock acquire failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			acquired = true
			break
		}
		time.Sleep(lockBackoff)
	}
	if !acquired {
		return fmt.Errorf("stock busy, try again later: %s", key)
	}
	defer uc.cache.ReleaseLock(ctx, key, lockValue)

	return fn()
}

func lockKey(ns string, kind model.LocationKind, locationID, itemID string) string {
	return fmt.Sprintf("lock:stock:%s:%s:%s:%s", ns, kind, locationID, itemID)
}

func (uc *ledgerUseCase) AdjustStock(ctx context.Context, ns string, input *dto.AdjustStockInput) (*dto.StockLevel, error) {
	mv := dto.Movement{
		Reason:        input.Reason,
		ReferenceType: input.ReferenceType,
		ReferenceID:   input.ReferenceID,
		Actor:         input.Actor,
	}

	var level *dto.StockLevel
	err := uc.withLock(ctx, lockKey(ns, input.Kind, input.LocationID, input.ItemID), func() error {
		switch input.Kind {
		case model.LocationRestaurant:
			s, err := uc.repo.AdjustRestaurantStock(ctx, ns, input.LocationID, input.ItemID, input.Delta, mv)
			if err != nil {
				return err
			}
			level = &dto.StockLevel{
				Kind: input.Kind, LocationID: input.LocationID, ItemID: input.ItemID,
				Current: s.CurrentStock,
			}
		case model.LocationWarehouse:
			s, err := uc.repo.AdjustWarehouseStock(ctx, ns, input.LocationID, input.ItemID, input.Delta, mv)
			if err != nil {
				return err
			}
			level = &dto.StockLevel{
				Kind: input.Kind, LocationID: input.LocationID, ItemID: input.ItemID,
				Current: s.CurrentStock, Reserved: s.ReservedStock, Available: s.AvailableStock,
			}
		default:
			return &apperr.Error{Kind: apperr.ValidationFailed, Entity: "stock", Field: "kind",
				Msg: fmt.Sprintf("unknown location kind %q", input.Kind)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return level, nil
}

func (uc *ledgerUseCase) Reserve(ctx context.Context, ns, warehouseID, itemID string, qty float64, mv dto.Movement) error {
	return uc.withLock(ctx, lockKey(ns, model.LocationWarehouse, warehouseID, itemID), func() error {
		_, err := uc.repo.Reserve(ctx, ns, warehouseID, itemID, qty, mv)
		return err
	})
}

func (uc *ledgerUseCase) Release(ctx context.Context, ns, warehouseID, itemID string, qty float64, mv dto.Movement) error {
	return uc.withLock(ctx, lockKey(ns, model.LocationWarehouse, warehouseID, itemID), func() error {
		_, err := uc.repo.Release(ctx, ns, warehouseID, itemID, qty, mv)
		return err
	})
}

func (uc *ledgerUseCase) Fulfil(ctx context.Context, ns, warehouseID, itemID string, qty float64, mv dto.Movement) error {
	return uc.withLock(ctx, lockKey(ns, model.LocationWarehouse, warehouseID, itemID), func() error {
		_, err := uc.repo.Fulfil(ctx, ns, warehouseID, itemID, qty, mv)
		return err
	})
}

// Multi-item operations lean on the repository's ordered row locking rather
// than the redis lock: the ascending lock order inside one transaction is
// what rules out deadlock between overlapping item sets.
func (uc *ledgerUseCase) ReserveItems(ctx context.Context, ns, warehouseID string, items []dto.ItemQuantity, mv dto.Movement) error {
	return uc.repo.ReserveAll(ctx, ns, warehouseID, items, mv)
}

func (uc *ledgerUseCase) ReleaseItems(ctx context.Context, ns, warehouseID string, items []dto.ItemQuantity, mv dto.Movement) error {
	return uc.repo.ReleaseAll(ctx, ns, warehouseID, items, mv)
}

func (uc *ledgerUseCase) FulfilItems(ctx context.Context, ns, warehouseID string, items []dto.ItemQuantity, mv dto.Movement) error {
	return uc.repo.FulfilAll(ctx, ns, warehouseID, items, mv)
}

func (uc *ledgerUseCase) ListLowStockRestaurant(ctx context.Context, ns, restaurantID string) ([]model.RestaurantStock, error) {
	return uc.repo.ListLowStockRestaurant(ctx, ns, restaurantID)
}

func (uc *ledgerUseCase) ListLowStockWarehouse(ctx context.Context, ns, warehouseID string) ([]model.WarehouseStock, error) {
	return uc.repo.ListLowStockWarehouse(ctx, ns, warehouseID)
}

func (uc *ledgerUseCase) ListMovements(ctx context.Context, ns string, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	return uc.repo.ListMovements(ctx, ns, f)
}
