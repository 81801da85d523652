package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/restohub/supply-service/internal/apperr"
	"github.com/restohub/supply-service/internal/ledger"
	"github.com/restohub/supply-service/internal/ledger/dto"
	"github.com/restohub/supply-service/internal/model"
)

// memRepo is an in-memory double enforcing the same balance rules as the
// database repository: available = current − reserved ≥ 0, all-or-nothing
// multi-item operations, one movement row per mutation.
type memRepo struct {
	mu         sync.Mutex
	restaurant map[string]*model.RestaurantStock
	warehouse  map[string]*model.WarehouseStock
	movements  []model.StockMovement
}

func newMemRepo() *memRepo {
	return &memRepo{
		restaurant: map[string]*model.RestaurantStock{},
		warehouse:  map[string]*model.WarehouseStock{},
	}
}

func key(locationID, itemID string) string { return locationID + "/" + itemID }

func (r *memRepo) seedWarehouse(warehouseID, itemID string, current, reserved float64) {
	r.warehouse[key(warehouseID, itemID)] = &model.WarehouseStock{
		WarehouseID: warehouseID, ItemID: itemID,
		CurrentStock: current, ReservedStock: reserved, AvailableStock: current - reserved,
		IsActive: true,
	}
}

func (r *memRepo) GetRestaurantStock(_ context.Context, _, restaurantID, itemID string) (*model.RestaurantStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.restaurant[key(restaurantID, itemID)], nil
}

func (r *memRepo) GetWarehouseStock(_ context.Context, _, warehouseID, itemID string) (*model.WarehouseStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warehouse[key(warehouseID, itemID)], nil
}

func (r *memRepo) ListLowStockRestaurant(_ context.Context, _, restaurantID string) ([]model.RestaurantStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.RestaurantStock
	for _, s := range r.restaurant {
		if s.RestaurantID == restaurantID && s.NeedsReorder() {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memRepo) ListLowStockWarehouse(_ context.Context, _, warehouseID string) ([]model.WarehouseStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.WarehouseStock
	for _, s := range r.warehouse {
		if s.WarehouseID == warehouseID && s.NeedsReorder() {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memRepo) ListMovements(_ context.Context, _ string, _ *dto.MovementFilters) ([]model.StockMovement, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.StockMovement, len(r.movements))
	copy(out, r.movements)
	return out, len(out), nil
}

func (r *memRepo) AdjustRestaurantStock(_ context.Context, _, restaurantID, itemID string, delta float64, mv dto.Movement) (*model.RestaurantStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.restaurant[key(restaurantID, itemID)]
	if !ok {
		if delta < 0 {
			return nil, &apperr.Error{Kind: apperr.InsufficientStock, Entity: "restaurant_stock", ID: itemID}
		}
		s = &model.RestaurantStock{RestaurantID: restaurantID, ItemID: itemID, IsActive: true}
		r.restaurant[key(restaurantID, itemID)] = s
	}
	if s.CurrentStock+delta < 0 {
		return nil, &apperr.Error{Kind: apperr.InsufficientStock, Entity: "restaurant_stock", ID: itemID}
	}
	s.CurrentStock += delta
	r.record(model.LocationRestaurant, restaurantID, itemID, model.MovementAdjustment, delta, mv)
	cp := *s
	return &cp, nil
}

func (r *memRepo) AdjustWarehouseStock(_ context.Context, _, warehouseID, itemID string, delta float64, mv dto.Movement) (*model.WarehouseStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyWarehouse(warehouseID, itemID, delta, mv, model.MovementAdjustment, true)
}

func (r *memRepo) Reserve(_ context.Context, _, warehouseID, itemID string, qty float64, mv dto.Movement) (*model.WarehouseStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyWarehouse(warehouseID, itemID, qty, mv, model.MovementReserve, false)
}

func (r *memRepo) Release(_ context.Context, _, warehouseID, itemID string, qty float64, mv dto.Movement) (*model.WarehouseStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyWarehouse(warehouseID, itemID, qty, mv, model.MovementRelease, false)
}

func (r *memRepo) Fulfil(_ context.Context, _, warehouseID, itemID string, qty float64, mv dto.Movement) (*model.WarehouseStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyWarehouse(warehouseID, itemID, qty, mv, model.MovementFulfil, false)
}

func (r *memRepo) applyWarehouse(warehouseID, itemID string, qty float64, mv dto.Movement, movementType string, createRow bool) (*model.WarehouseStock, error) {
	s, ok := r.warehouse[key(warehouseID, itemID)]
	if !ok {
		if !createRow || qty < 0 {
			kind := apperr.InsufficientStock
			if movementType == model.MovementRelease || movementType == model.MovementFulfil {
				kind = apperr.InvalidRelease
			}
			return nil, &apperr.Error{Kind: kind, Entity: "warehouse_stock", ID: itemID}
		}
		s = &model.WarehouseStock{WarehouseID: warehouseID, ItemID: itemID, IsActive: true}
		r.warehouse[key(warehouseID, itemID)] = s
	}

	switch movementType {
	case model.MovementAdjustment:
		if s.CurrentStock+qty < s.ReservedStock {
			return nil, &apperr.Error{Kind: apperr.InsufficientStock, Entity: "warehouse_stock", ID: itemID}
		}
		s.CurrentStock += qty
	case model.MovementReserve:
		if qty > s.CurrentStock-s.ReservedStock {
			return nil, &apperr.Error{Kind: apperr.InsufficientStock, Entity: "warehouse_stock", ID: itemID}
		}
		s.ReservedStock += qty
	case model.MovementRelease:
		if qty > s.ReservedStock {
			return nil, &apperr.Error{Kind: apperr.InvalidRelease, Entity: "warehouse_stock", ID: itemID}
		}
		s.ReservedStock -= qty
	case model.MovementFulfil:
		if qty > s.ReservedStock {
			return nil, &apperr.Error{Kind: apperr.InvalidRelease, Entity: "warehouse_stock", ID: itemID}
		}
		s.CurrentStock -= qty
		s.ReservedStock -= qty
	}
	s.AvailableStock = s.CurrentStock - s.ReservedStock
	r.record(model.LocationWarehouse, warehouseID, itemID, movementType, qty, mv)
	cp := *s
	return &cp, nil
}

func (r *memRepo) ReserveAll(_ context.Context, _, warehouseID string, items []dto.ItemQuantity, mv dto.Movement) error {
	return r.applyAll(warehouseID, items, mv, model.MovementReserve)
}

func (r *memRepo) ReleaseAll(_ context.Context, _, warehouseID string, items []dto.ItemQuantity, mv dto.Movement) error {
	return r.applyAll(warehouseID, items, mv, model.MovementRelease)
}

func (r *memRepo) FulfilAll(_ context.Context, _, warehouseID string, items []dto.ItemQuantity, mv dto.Movement) error {
	return r.applyAll(warehouseID, items, mv, model.MovementFulfil)
}

// applyAll mirrors the single-transaction semantics: a snapshot is taken up
// front and restored when any line fails.
func (r *memRepo) applyAll(warehouseID string, items []dto.ItemQuantity, mv dto.Movement, movementType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := map[string]model.WarehouseStock{}
	for k, s := range r.warehouse {
		snapshot[k] = *s
	}
	moves := len(r.movements)

	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		if _, err := r.applyWarehouse(warehouseID, it.ItemID, it.Quantity, mv, movementType, false); err != nil {
			for k := range r.warehouse {
				cp := snapshot[k]
				r.warehouse[k] = &cp
			}
			r.movements = r.movements[:moves]
			return err
		}
	}
	return nil
}

func (r *memRepo) record(kind model.LocationKind, locationID, itemID, movementType string, qty float64, mv dto.Movement) {
	r.movements = append(r.movements, model.StockMovement{
		LocationKind: kind, LocationID: locationID, ItemID: itemID,
		MovementType: movementType, QuantityChange: qty, Notes: mv.Reason,
	})
}

var _ ledger.Repository = (*memRepo)(nil)

func newUC(repo ledger.Repository) ledger.UseCase {
	return NewLedgerUseCase(repo, nil, zap.NewNop())
}

func (r *memRepo) checkInvariant(t *testing.T) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, s := range r.warehouse {
		if s.AvailableStock != s.CurrentStock-s.ReservedStock {
			t.Errorf("%s: available %v != current %v - reserved %v", k, s.AvailableStock, s.CurrentStock, s.ReservedStock)
		}
		if s.AvailableStock < 0 || s.ReservedStock < 0 || s.CurrentStock < 0 {
			t.Errorf("%s: negative balance %+v", k, s)
		}
	}
}

func mv() dto.Movement {
	return dto.Movement{Reason: "test", Actor: model.Actor{ID: "user-1"}}
}

func TestAdjustStockRestaurant(t *testing.T) {
	repo := newMemRepo()
	uc := newUC(repo)
	ctx := context.Background()

	level, err := uc.AdjustStock(ctx, "tenant_x", &dto.AdjustStockInput{
		Kind: model.LocationRestaurant, LocationID: "r1", ItemID: "i1", Delta: 25, Reason: "delivery",
	})
	if err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}
	if level.Current != 25 {
		t.Errorf("Current = %v, want 25", level.Current)
	}

	_, err = uc.AdjustStock(ctx, "tenant_x", &dto.AdjustStockInput{
		Kind: model.LocationRestaurant, LocationID: "r1", ItemID: "i1", Delta: -40,
	})
	if !apperr.IsKind(err, apperr.InsufficientStock) {
		t.Errorf("negative below zero: got %v, want InsufficientStock", err)
	}
}

func TestAdjustStockUnknownKind(t *testing.T) {
	uc := newUC(newMemRepo())
	_, err := uc.AdjustStock(context.Background(), "tenant_x", &dto.AdjustStockInput{
		Kind: "depot", LocationID: "d1", ItemID: "i1", Delta: 1,
	})
	if !apperr.IsKind(err, apperr.ValidationFailed) {
		t.Errorf("got %v, want ValidationFailed", err)
	}
}

func TestReserveMoreThanAvailable(t *testing.T) {
	repo := newMemRepo()
	repo.seedWarehouse("w1", "i1", 100, 20) // available 80
	uc := newUC(repo)

	err := uc.Reserve(context.Background(), "tenant_x", "w1", "i1", 90, mv())
	if !apperr.IsKind(err, apperr.InsufficientStock) {
		t.Fatalf("got %v, want InsufficientStock", err)
	}

	s, _ := repo.GetWarehouseStock(context.Background(), "tenant_x", "w1", "i1")
	if s.CurrentStock != 100 || s.ReservedStock != 20 {
		t.Errorf("failed reserve must not change balances: %+v", s)
	}
	repo.checkInvariant(t)
}

func TestReserveReleaseRoundTrip(t *testing.T) {
	repo := newMemRepo()
	repo.seedWarehouse("w1", "i1", 100, 0)
	uc := newUC(repo)
	ctx := context.Background()

	if err := uc.Reserve(ctx, "tenant_x", "w1", "i1", 30, mv()); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	s, _ := repo.GetWarehouseStock(ctx, "tenant_x", "w1", "i1")
	if s.AvailableStock != 70 || s.ReservedStock != 30 || s.CurrentStock != 100 {
		t.Errorf("after reserve: %+v", s)
	}

	if err := uc.Release(ctx, "tenant_x", "w1", "i1", 30, mv()); err != nil {
		t.Fatalf("Release: %v", err)
	}
	s, _ = repo.GetWarehouseStock(ctx, "tenant_x", "w1", "i1")
	if s.AvailableStock != 100 || s.ReservedStock != 0 || s.CurrentStock != 100 {
		t.Errorf("round trip must restore balances: %+v", s)
	}
	repo.checkInvariant(t)
}

func TestFulfilConsumesReservation(t *testing.T) {
	repo := newMemRepo()
	repo.seedWarehouse("w1", "i1", 100, 0)
	uc := newUC(repo)
	ctx := context.Background()

	if err := uc.Reserve(ctx, "tenant_x", "w1", "i1", 40, mv()); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := uc.Fulfil(ctx, "tenant_x", "w1", "i1", 40, mv()); err != nil {
		t.Fatalf("Fulfil: %v", err)
	}
	s, _ := repo.GetWarehouseStock(ctx, "tenant_x", "w1", "i1")
	if s.CurrentStock != 60 || s.ReservedStock != 0 || s.AvailableStock != 60 {
		t.Errorf("after fulfil: %+v", s)
	}
	repo.checkInvariant(t)
}

func TestReleaseMoreThanReserved(t *testing.T) {
	repo := newMemRepo()
	repo.seedWarehouse("w1", "i1", 100, 10)
	uc := newUC(repo)

	err := uc.Release(context.Background(), "tenant_x", "w1", "i1", 25, mv())
	if !apperr.IsKind(err, apperr.InvalidRelease) {
		t.Fatalf("got %v, want InvalidRelease", err)
	}
	repo.checkInvariant(t)
}

func TestReserveItemsAllOrNothing(t *testing.T) {
	repo := newMemRepo()
	repo.seedWarehouse("w1", "i1", 100, 0)
	repo.seedWarehouse("w1", "i2", 5, 0)
	uc := newUC(repo)

	err := uc.ReserveItems(context.Background(), "tenant_x", "w1", []dto.ItemQuantity{
		{ItemID: "i1", Quantity: 10},
		{ItemID: "i2", Quantity: 50},
	}, mv())
	if !apperr.IsKind(err, apperr.InsufficientStock) {
		t.Fatalf("got %v, want InsufficientStock", err)
	}

	s1, _ := repo.GetWarehouseStock(context.Background(), "tenant_x", "w1", "i1")
	if s1.ReservedStock != 0 {
		t.Errorf("i1 must not stay reserved after a failed set: %+v", s1)
	}
	repo.checkInvariant(t)
}

func TestConcurrentReservations(t *testing.T) {
	repo := newMemRepo()
	repo.seedWarehouse("w1", "i1", 100, 0)
	uc := newUC(repo)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- uc.Reserve(context.Background(), "tenant_x", "w1", "i1", 60, mv())
		}()
	}
	wg.Wait()
	close(results)

	var ok, failed int
	for err := range results {
		if err == nil {
			ok++
		} else if apperr.IsKind(err, apperr.InsufficientStock) {
			failed++
		} else {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || failed != 1 {
		t.Errorf("got %d successes and %d refusals, want exactly 1 of each", ok, failed)
	}

	s, _ := repo.GetWarehouseStock(context.Background(), "tenant_x", "w1", "i1")
	if s.ReservedStock != 60 {
		t.Errorf("reserved = %v, want 60", s.ReservedStock)
	}
	repo.checkInvariant(t)
}

func TestMovementPerMutation(t *testing.T) {
	repo := newMemRepo()
	repo.seedWarehouse("w1", "i1", 100, 0)
	uc := newUC(repo)
	ctx := context.Background()

	operations := []func() error{
		func() error { return uc.Reserve(ctx, "tenant_x", "w1", "i1", 10, mv()) },
		func() error { return uc.Release(ctx, "tenant_x", "w1", "i1", 5, mv()) },
		func() error { return uc.Fulfil(ctx, "tenant_x", "w1", "i1", 5, mv()) },
	}
	for i, op := range operations {
		if err := op(); err != nil {
			t.Fatalf("operation %d: %v", i, err)
		}
	}

	movements, total, err := uc.ListMovements(ctx, "tenant_x", &dto.MovementFilters{})
	if err != nil {
		t.Fatalf("ListMovements: %v", err)
	}
	if total != 3 || len(movements) != 3 {
		t.Fatalf("expected 3 movements, got %d", total)
	}
	wantTypes := []string{model.MovementReserve, model.MovementRelease, model.MovementFulfil}
	for i, m := range movements {
		if m.MovementType != wantTypes[i] {
			t.Errorf("movement %d type = %s, want %s", i, m.MovementType, wantTypes[i])
		}
	}
}

func TestLowStockListing(t *testing.T) {
	repo := newMemRepo()
	repo.seedWarehouse("w1", "low", 5, 0)
	repo.warehouse[key("w1", "low")].ReorderPoint = 10
	repo.seedWarehouse("w1", "fine", 100, 0)
	repo.warehouse[key("w1", "fine")].ReorderPoint = 10
	uc := newUC(repo)

	rows, err := uc.ListLowStockWarehouse(context.Background(), "tenant_x", "w1")
	if err != nil {
		t.Fatalf("ListLowStockWarehouse: %v", err)
	}
	if len(rows) != 1 || rows[0].ItemID != "low" {
		t.Errorf("unexpected low stock rows: %+v", rows)
	}
}

func TestLockKeyShape(t *testing.T) {
	got := lockKey("tenant_x", model.LocationWarehouse, "w1", "i1")
	want := fmt.Sprintf("lock:stock:%s:%s:%s:%s", "tenant_x", "warehouse", "w1", "i1")
	if got != want {
		t.Errorf("lockKey = %q, want %q", got, want)
	}
}
