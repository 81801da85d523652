package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"go.uber.org/zap"

	"github.com/restohub/supply-service/internal/apperr"
	"github.com/restohub/supply-service/internal/catalog"
	catalogdto "github.com/restohub/supply-service/internal/catalog/dto"
	"github.com/restohub/supply-service/internal/ledger"
	ledgerdto "github.com/restohub/supply-service/internal/ledger/dto"
	"github.com/restohub/supply-service/internal/model"
	"github.com/restohub/supply-service/internal/order"
	"github.com/restohub/supply-service/internal/order/dto"
	"github.com/restohub/supply-service/internal/routing"
)

type fakeOrderRepo struct {
	orders    map[string]*model.Order
	history   map[string][]model.StatusHistory
	updateErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:  map[string]*model.Order{},
		history: map[string][]model.StatusHistory{},
	}
}

func copyOrder(o *model.Order) *model.Order {
	cp := *o
	cp.Items = make([]model.OrderItem, len(o.Items))
	copy(cp.Items, o.Items)
	cp.StatusHistory = nil
	return &cp
}

func (r *fakeOrderRepo) Create(_ context.Context, _ string, o *model.Order) error {
	r.orders[o.ID] = copyOrder(o)
	r.history[o.ID] = append(r.history[o.ID], o.StatusHistory...)
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, _, id string) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return copyOrder(o), nil
}

func (r *fakeOrderRepo) FindByNumber(_ context.Context, _, number string) (*model.Order, error) {
	for _, o := range r.orders {
		if o.OrderNumber == number {
			return copyOrder(o), nil
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) FindAll(_ context.Context, _ string, _ *dto.OrderFilters) ([]model.Order, int, error) {
	out := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *copyOrder(o))
	}
	return out, len(out), nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, _ string, o *model.Order, h *model.StatusHistory) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.orders[o.ID] = copyOrder(o)
	r.history[o.ID] = append(r.history[o.ID], *h)
	return nil
}

func (r *fakeOrderRepo) UpdateItems(_ context.Context, _ string, o *model.Order) error {
	r.orders[o.ID] = copyOrder(o)
	return nil
}

func (r *fakeOrderRepo) ListHistory(_ context.Context, _, orderID string) ([]model.StatusHistory, error) {
	return r.history[orderID], nil
}

var _ order.Repository = (*fakeOrderRepo)(nil)

type fakeCatalog struct {
	items map[string]model.Item
}

func (c *fakeCatalog) CreateCategory(context.Context, string, *model.Category) error { return nil }
func (c *fakeCatalog) FindCategoryByID(context.Context, string, string) (*model.Category, error) {
	return nil, nil
}
func (c *fakeCatalog) FindAllCategories(context.Context, string) ([]model.Category, error) {
	return nil, nil
}
func (c *fakeCatalog) CreateItem(context.Context, string, *model.Item) error { return nil }
func (c *fakeCatalog) UpdateItem(context.Context, string, *model.Item) error { return nil }
func (c *fakeCatalog) FindItemByID(context.Context, string, string) (*model.Item, error) {
	return nil, nil
}
func (c *fakeCatalog) FindItemBySKU(context.Context, string, string) (*model.Item, error) {
	return nil, nil
}
func (c *fakeCatalog) FindItemByBarcode(context.Context, string, string) (*model.Item, error) {
	return nil, nil
}
func (c *fakeCatalog) FindAllItems(context.Context, string, *catalogdto.ItemFilters) ([]model.Item, int, error) {
	return nil, 0, nil
}

func (c *fakeCatalog) BatchGetItems(_ context.Context, _ string, ids []string) ([]model.Item, error) {
	var out []model.Item
	for _, id := range ids {
		if it, ok := c.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

var _ catalog.Repository = (*fakeCatalog)(nil)

type fakeRouting struct {
	conns []model.Connection
}

func (r *fakeRouting) ResolveWarehouse(_ context.Context, _, restaurantID string) (*model.Connection, error) {
	for i := range r.conns {
		if r.conns[i].RestaurantID == restaurantID && r.conns[i].IsActive {
			return &r.conns[i], nil
		}
	}
	return nil, &apperr.Error{Kind: apperr.NoRoute, Entity: "restaurant", ID: restaurantID}
}

func (r *fakeRouting) Connect(context.Context, string, string, string, int, model.DeliverySettings) (*model.Connection, error) {
	return nil, nil
}
func (r *fakeRouting) Disconnect(context.Context, string, string, string) error { return nil }
func (r *fakeRouting) SetActive(context.Context, string, string, string, bool) error {
	return nil
}

func (r *fakeRouting) ListConnections(_ context.Context, _, restaurantID string) ([]model.Connection, error) {
	var out []model.Connection
	for _, c := range r.conns {
		if c.RestaurantID == restaurantID {
			out = append(out, c)
		}
	}
	return out, nil
}

var _ routing.UseCase = (*fakeRouting)(nil)

type ledgerCall struct {
	op    string
	items []ledgerdto.ItemQuantity
}

type fakeLedger struct {
	calls      []ledgerCall
	reserveErr error
}

func (l *fakeLedger) AdjustStock(context.Context, string, *ledgerdto.AdjustStockInput) (*ledgerdto.StockLevel, error) {
	return nil, nil
}
func (l *fakeLedger) Reserve(context.Context, string, string, string, float64, ledgerdto.Movement) error {
	return nil
}
func (l *fakeLedger) Release(context.Context, string, string, string, float64, ledgerdto.Movement) error {
	return nil
}
func (l *fakeLedger) Fulfil(context.Context, string, string, string, float64, ledgerdto.Movement) error {
	return nil
}

func (l *fakeLedger) ReserveItems(_ context.Context, _, _ string, items []ledgerdto.ItemQuantity, _ ledgerdto.Movement) error {
	if l.reserveErr != nil {
		return l.reserveErr
	}
	l.calls = append(l.calls, ledgerCall{op: "reserve", items: items})
	return nil
}

func (l *fakeLedger) ReleaseItems(_ context.Context, _, _ string, items []ledgerdto.ItemQuantity, _ ledgerdto.Movement) error {
	l.calls = append(l.calls, ledgerCall{op: "release", items: items})
	return nil
}

func (l *fakeLedger) FulfilItems(_ context.Context, _, _ string, items []ledgerdto.ItemQuantity, _ ledgerdto.Movement) error {
	l.calls = append(l.calls, ledgerCall{op: "fulfil", items: items})
	return nil
}

func (l *fakeLedger) ListLowStockRestaurant(context.Context, string, string) ([]model.RestaurantStock, error) {
	return nil, nil
}
func (l *fakeLedger) ListLowStockWarehouse(context.Context, string, string) ([]model.WarehouseStock, error) {
	return nil, nil
}
func (l *fakeLedger) ListMovements(context.Context, string, *ledgerdto.MovementFilters) ([]model.StockMovement, int, error) {
	return nil, 0, nil
}

var _ ledger.UseCase = (*fakeLedger)(nil)

type fakePublisher struct {
	events []order.StatusChangedEvent
}

func (p *fakePublisher) Publish(_ context.Context, _, value []byte) error {
	var ev order.StatusChangedEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return err
	}
	p.events = append(p.events, ev)
	return nil
}

type fixture struct {
	repo      *fakeOrderRepo
	ledger    *fakeLedger
	publisher *fakePublisher
	uc        order.UseCase
}

func newFixture() *fixture {
	repo := newFakeOrderRepo()
	cat := &fakeCatalog{items: map[string]model.Item{
		"i1": {BaseModel: model.BaseModel{ID: "i1"}, SellingPrice: 2.50, TaxRate: 5, IsActive: true},
		"i2": {BaseModel: model.BaseModel{ID: "i2"}, SellingPrice: 5.00, TaxRate: 5, IsActive: true},
		"i3": {BaseModel: model.BaseModel{ID: "i3"}, SellingPrice: 1.00, IsActive: false},
	}}
	rt := &fakeRouting{conns: []model.Connection{
		{RestaurantID: "r1", WarehouseID: "w1", IsActive: true, Priority: 1},
		{RestaurantID: "r1", WarehouseID: "w-off", IsActive: false, Priority: 2},
	}}
	led := &fakeLedger{}
	pub := &fakePublisher{}
	return &fixture{
		repo:      repo,
		ledger:    led,
		publisher: pub,
		uc:        NewOrderUseCase(repo, cat, rt, led, pub, zap.NewNop()),
	}
}

func createInput() *dto.CreateOrderInput {
	return &dto.CreateOrderInput{
		RestaurantID: "r1",
		Items: []dto.OrderItemInput{
			{ItemID: "i1", Quantity: 10},
			{ItemID: "i2", Quantity: 3},
		},
		Actor: model.Actor{ID: "user-1"},
	}
}

func (f *fixture) createDraft(t *testing.T) *model.Order {
	t.Helper()
	o, err := f.uc.CreateOrder(context.Background(), "tenant_x", createInput())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return o
}

func (f *fixture) transition(t *testing.T, id string, statuses ...model.OrderStatus) *model.Order {
	t.Helper()
	var o *model.Order
	var err error
	for _, s := range statuses {
		o, err = f.uc.UpdateStatus(context.Background(), "tenant_x", &dto.UpdateStatusInput{
			OrderID: id, Status: s, Actor: model.Actor{ID: "user-1"},
		})
		if err != nil {
			t.Fatalf("UpdateStatus(%s): %v", s, err)
		}
	}
	return o
}

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{8}-[A-Z0-9]{6}$`)

func TestCreateOrder(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)

	if o.Status != model.StatusDraft {
		t.Errorf("status = %s, want draft", o.Status)
	}
	if o.WarehouseID != "w1" {
		t.Errorf("warehouse = %s, want w1 (resolved)", o.WarehouseID)
	}
	if !orderNumberPattern.MatchString(o.OrderNumber) {
		t.Errorf("order number %q has wrong shape", o.OrderNumber)
	}
	if o.Items[0].UnitPrice != 2.50 || o.Items[0].TaxRate != 5 {
		t.Errorf("price snapshot missing: %+v", o.Items[0])
	}
	if o.Subtotal != 40.00 || o.TaxAmount != 2.00 || o.TotalAmount != 42.00 {
		t.Errorf("totals = %v/%v/%v, want 40/2/42", o.Subtotal, o.TaxAmount, o.TotalAmount)
	}
}

func TestCreateOrderExplicitWarehouse(t *testing.T) {
	f := newFixture()
	in := createInput()
	in.WarehouseID = "w1"
	o, err := f.uc.CreateOrder(context.Background(), "tenant_x", in)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if o.WarehouseID != "w1" {
		t.Errorf("warehouse = %s", o.WarehouseID)
	}

	in = createInput()
	in.WarehouseID = "w-off"
	if _, err := f.uc.CreateOrder(context.Background(), "tenant_x", in); !apperr.IsKind(err, apperr.NoRoute) {
		t.Errorf("inactive edge: got %v, want NoRoute", err)
	}

	in = createInput()
	in.WarehouseID = "w-stranger"
	if _, err := f.uc.CreateOrder(context.Background(), "tenant_x", in); !apperr.IsKind(err, apperr.NoRoute) {
		t.Errorf("unconnected warehouse: got %v, want NoRoute", err)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in := createInput()
	in.Items = nil
	if _, err := f.uc.CreateOrder(ctx, "tenant_x", in); !apperr.IsKind(err, apperr.ValidationFailed) {
		t.Errorf("no items: got %v, want ValidationFailed", err)
	}

	in = createInput()
	in.Items[0].Quantity = 0
	if _, err := f.uc.CreateOrder(ctx, "tenant_x", in); !apperr.IsKind(err, apperr.ValidationFailed) {
		t.Errorf("zero quantity: got %v, want ValidationFailed", err)
	}

	in = createInput()
	in.Items[0].ItemID = "i-missing"
	if _, err := f.uc.CreateOrder(ctx, "tenant_x", in); !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("unknown item: got %v, want NotFound", err)
	}

	in = createInput()
	in.Items[0].ItemID = "i3"
	if _, err := f.uc.CreateOrder(ctx, "tenant_x", in); !apperr.IsKind(err, apperr.ValidationFailed) {
		t.Errorf("inactive item: got %v, want ValidationFailed", err)
	}
}

func TestConfirmReservesStock(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)

	got := f.transition(t, o.ID, model.StatusPending, model.StatusConfirmed)

	if len(f.ledger.calls) != 1 || f.ledger.calls[0].op != "reserve" {
		t.Fatalf("ledger calls = %+v, want one reserve", f.ledger.calls)
	}
	reserved := f.ledger.calls[0].items
	if len(reserved) != 2 || reserved[0].Quantity != 10 || reserved[1].Quantity != 3 {
		t.Errorf("reserved quantities = %+v", reserved)
	}
	if got.Items[0].QuantityConfirmed != 10 {
		t.Errorf("quantity_confirmed = %v, want 10", got.Items[0].QuantityConfirmed)
	}
	if got.ProcessedBy == nil || *got.ProcessedBy != "user-1" {
		t.Error("processor not recorded")
	}
}

func TestConfirmInsufficientStockFailsWhole(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)
	f.transition(t, o.ID, model.StatusPending)

	f.ledger.reserveErr = &apperr.Error{Kind: apperr.InsufficientStock, Entity: "warehouse_stock", ID: "i2"}
	_, err := f.uc.UpdateStatus(context.Background(), "tenant_x", &dto.UpdateStatusInput{
		OrderID: o.ID, Status: model.StatusConfirmed, Actor: model.Actor{ID: "user-1"},
	})
	if !apperr.IsKind(err, apperr.InsufficientStock) {
		t.Fatalf("got %v, want InsufficientStock", err)
	}

	stored, _ := f.uc.GetOrder(context.Background(), "tenant_x", o.ID)
	if stored.Status != model.StatusPending {
		t.Errorf("status = %s, want pending after failed confirmation", stored.Status)
	}
	if len(stored.StatusHistory) != 2 { // creation + pending
		t.Errorf("history rows = %d, want 2 (no row for failed transition)", len(stored.StatusHistory))
	}
}

func TestSkippingPendingRejected(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)

	_, err := f.uc.UpdateStatus(context.Background(), "tenant_x", &dto.UpdateStatusInput{
		OrderID: o.ID, Status: model.StatusConfirmed, Actor: model.Actor{ID: "user-1"},
	})
	if !apperr.IsKind(err, apperr.InvalidTransition) {
		t.Errorf("draft to confirmed: got %v, want InvalidTransition", err)
	}
	if len(f.ledger.calls) != 0 {
		t.Error("no reservation may happen on a rejected transition")
	}
}

func TestUnknownStatusRejected(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)

	_, err := f.uc.UpdateStatus(context.Background(), "tenant_x", &dto.UpdateStatusInput{
		OrderID: o.ID, Status: "shipped", Actor: model.Actor{ID: "user-1"},
	})
	if !apperr.IsKind(err, apperr.InvalidTransition) {
		t.Errorf("got %v, want InvalidTransition", err)
	}
}

func TestDeliveredFulfilsAndStampsDate(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)
	got := f.transition(t, o.ID,
		model.StatusPending, model.StatusConfirmed, model.StatusPreparing,
		model.StatusReady, model.StatusDispatched, model.StatusDelivered)

	if got.ActualDeliveryDate == nil {
		t.Error("actual delivery date not stamped")
	}
	if got.Items[0].QuantityDelivered != 10 {
		t.Errorf("quantity_delivered = %v, want 10", got.Items[0].QuantityDelivered)
	}

	last := f.ledger.calls[len(f.ledger.calls)-1]
	if last.op != "fulfil" {
		t.Errorf("last ledger call = %s, want fulfil", last.op)
	}
	if last.items[0].Quantity != 10 || last.items[1].Quantity != 3 {
		t.Errorf("fulfilled quantities = %+v", last.items)
	}
}

func TestCancelReleasesReservation(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)
	f.transition(t, o.ID, model.StatusPending, model.StatusConfirmed)

	reason := "supplier issue"
	got, err := f.uc.UpdateStatus(context.Background(), "tenant_x", &dto.UpdateStatusInput{
		OrderID: o.ID, Status: model.StatusCancelled, Note: &reason, Actor: model.Actor{ID: "mgr-1"},
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	last := f.ledger.calls[len(f.ledger.calls)-1]
	if last.op != "release" {
		t.Errorf("last ledger call = %s, want release", last.op)
	}
	if got.CancelledBy == nil || *got.CancelledBy != "mgr-1" {
		t.Error("canceller not recorded")
	}
	if got.CancellationReason == nil || *got.CancellationReason != reason {
		t.Error("cancellation reason not recorded")
	}
}

func TestCancelBeforeConfirmationSkipsLedger(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)
	f.transition(t, o.ID, model.StatusPending, model.StatusCancelled)

	if len(f.ledger.calls) != 0 {
		t.Errorf("pending order holds no reservation, ledger calls = %+v", f.ledger.calls)
	}
}

func TestCancelAfterDispatchRejected(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)
	f.transition(t, o.ID, model.StatusPending, model.StatusConfirmed, model.StatusDispatched)

	for _, s := range []model.OrderStatus{model.StatusCancelled, model.StatusRejected} {
		_, err := f.uc.UpdateStatus(context.Background(), "tenant_x", &dto.UpdateStatusInput{
			OrderID: o.ID, Status: s, Actor: model.Actor{ID: "user-1"},
		})
		if !apperr.IsKind(err, apperr.InvalidTransition) {
			t.Errorf("%s after dispatch: got %v, want InvalidTransition", s, err)
		}
	}
}

func TestHistoryAppendsPerTransition(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)
	f.transition(t, o.ID, model.StatusPending, model.StatusConfirmed, model.StatusPreparing)

	got, err := f.uc.GetOrder(context.Background(), "tenant_x", o.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	h := got.StatusHistory
	if len(h) != 4 { // creation + three transitions
		t.Fatalf("history rows = %d, want 4", len(h))
	}
	want := []struct{ from, to model.OrderStatus }{
		{model.StatusDraft, model.StatusDraft},
		{model.StatusDraft, model.StatusPending},
		{model.StatusPending, model.StatusConfirmed},
		{model.StatusConfirmed, model.StatusPreparing},
	}
	for i, w := range want {
		if h[i].FromStatus != w.from || h[i].ToStatus != w.to {
			t.Errorf("history[%d] = %s→%s, want %s→%s", i, h[i].FromStatus, h[i].ToStatus, w.from, w.to)
		}
	}
}

func TestEventPublishedAfterTransition(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)
	f.transition(t, o.ID, model.StatusPending)

	if len(f.publisher.events) != 1 {
		t.Fatalf("events = %d, want 1", len(f.publisher.events))
	}
	ev := f.publisher.events[0]
	if ev.EventType != order.EventTypeStatusChanged {
		t.Errorf("event type = %s", ev.EventType)
	}
	if ev.FromStatus != model.StatusDraft || ev.ToStatus != model.StatusPending {
		t.Errorf("event transition = %s→%s", ev.FromStatus, ev.ToStatus)
	}
	if ev.Namespace != "tenant_x" || ev.OrderID != o.ID {
		t.Errorf("event identity wrong: %+v", ev)
	}
}

func TestReservationCompensatedWhenStatusWriteFails(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)
	f.transition(t, o.ID, model.StatusPending)

	f.repo.updateErr = errors.New("connection lost")
	_, err := f.uc.UpdateStatus(context.Background(), "tenant_x", &dto.UpdateStatusInput{
		OrderID: o.ID, Status: model.StatusConfirmed, Actor: model.Actor{ID: "user-1"},
	})
	if err == nil {
		t.Fatal("expected error")
	}

	if len(f.ledger.calls) != 2 {
		t.Fatalf("ledger calls = %+v, want reserve then release", f.ledger.calls)
	}
	if f.ledger.calls[0].op != "reserve" || f.ledger.calls[1].op != "release" {
		t.Errorf("calls = %s, %s; want reserve, release", f.ledger.calls[0].op, f.ledger.calls[1].op)
	}
}

func TestUpdateItemsRecalculatesTotals(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)

	got, err := f.uc.UpdateItems(context.Background(), "tenant_x", &dto.UpdateItemsInput{
		OrderID: o.ID,
		Items:   []dto.OrderItemInput{{ItemID: "i1", Quantity: 4}},
		Actor:   model.Actor{ID: "user-1"},
	})
	if err != nil {
		t.Fatalf("UpdateItems: %v", err)
	}
	// 4×2.50 + 3×5.00 = 25.00, tax 1.25
	if got.Subtotal != 25.00 || got.TaxAmount != 1.25 || got.TotalAmount != 26.25 {
		t.Errorf("totals = %v/%v/%v, want 25/1.25/26.25", got.Subtotal, got.TaxAmount, got.TotalAmount)
	}
}

func TestUpdateItemsLockedAfterConfirmation(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)
	f.transition(t, o.ID, model.StatusPending, model.StatusConfirmed)

	_, err := f.uc.UpdateItems(context.Background(), "tenant_x", &dto.UpdateItemsInput{
		OrderID: o.ID,
		Items:   []dto.OrderItemInput{{ItemID: "i1", Quantity: 1}},
		Actor:   model.Actor{ID: "user-1"},
	})
	if !apperr.IsKind(err, apperr.InvalidTransition) {
		t.Errorf("got %v, want InvalidTransition", err)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	f := newFixture()
	if _, err := f.uc.GetOrder(context.Background(), "tenant_x", "nope"); !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("got %v, want NotFound", err)
	}
}
