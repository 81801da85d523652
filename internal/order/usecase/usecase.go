package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/restohub/supply-service/internal/apperr"
	"github.com/restohub/supply-service/internal/catalog"
	"github.com/restohub/supply-service/internal/ledger"
	ledgerdto "github.com/restohub/supply-service/internal/ledger/dto"
	"github.com/restohub/supply-service/internal/model"
	"github.com/restohub/supply-service/internal/order"
	"github.com/restohub/supply-service/internal/order/dto"
	"github.com/restohub/supply-service/internal/routing"
)

// allowedFrom lists the statuses an order may be in when transitioning into
// the key status. Cancellation and rejection are governed by CanCancel
// instead. Confirmation is reachable only from pending so that every order
// past pending holds a reservation.
var allowedFrom = map[model.OrderStatus][]model.OrderStatus{
	model.StatusPending:    {model.StatusDraft},
	model.StatusConfirmed:  {model.StatusPending},
	model.StatusPreparing:  {model.StatusConfirmed},
	model.StatusReady:      {model.StatusConfirmed, model.StatusPreparing},
	model.StatusDispatched: {model.StatusConfirmed, model.StatusPreparing, model.StatusReady},
	model.StatusDelivered:  {model.StatusConfirmed, model.StatusPreparing, model.StatusReady, model.StatusDispatched},
}

type orderUseCase struct {
	repo        order.Repository
	catalogRepo catalog.Repository
	routingUC   routing.UseCase
	ledgerUC    ledger.UseCase
	publisher   order.EventPublisher
	logger      *zap.Logger
}

func NewOrderUseCase(
	repo order.Repository,
	catalogRepo catalog.Repository,
	routingUC routing.UseCase,
	ledgerUC ledger.UseCase,
	publisher order.EventPublisher,
	log *zap.Logger,
) order.UseCase {
	return &orderUseCase{
		repo:        repo,
		catalogRepo: catalogRepo,
		routingUC:   routingUC,
		ledgerUC:    ledgerUC,
		publisher:   publisher,
		logger:      log,
	}
}

func (uc *orderUseCase) CreateOrder(ctx context.Context, ns string, input *dto.CreateOrderInput) (*model.Order, error) {
	if input.RestaurantID == "" {
		return nil, &apperr.Error{Kind: apperr.ValidationFailed, Entity: "order", Field: "restaurant_id", Msg: "required"}
	}
	if len(input.Items) == 0 {
		return nil, &apperr.Error{Kind: apperr.ValidationFailed, Entity: "order", Field: "items", Msg: "at least one item required"}
	}
	for _, it := range input.Items {
		if it.Quantity <= 0 {
			return nil, &apperr.Error{
				Kind: apperr.ValidationFailed, Entity: "order_item", ID: it.ItemID,
				Field: "quantity", Msg: "must be positive",
			}
		}
	}
	priority := input.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}
	if !priority.Valid() {
		return nil, &apperr.Error{Kind: apperr.ValidationFailed, Entity: "order", Field: "priority", Msg: "unknown priority"}
	}

	warehouseID, err := uc.resolveWarehouse(ctx, ns, input.RestaurantID, input.WarehouseID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(input.Items))
	for _, it := range input.Items {
		ids = append(ids, it.ItemID)
	}
	catalogItems, err := uc.catalogRepo.BatchGetItems(ctx, ns, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Item, len(catalogItems))
	for i := range catalogItems {
		byID[catalogItems[i].ID] = &catalogItems[i]
	}

	now := time.Now()
	o := &model.Order{
		BaseModel:             model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		RestaurantID:          input.RestaurantID,
		WarehouseID:           warehouseID,
		OrderNumber:           generateOrderNumber(now),
		Status:                model.StatusDraft,
		Priority:              priority,
		RequestedDeliveryDate: input.RequestedDeliveryDate,
		Notes:                 input.Notes,
		CreatedBy:             input.Actor.ID,
		DeliveryAddress:       input.DeliveryAddress,
		DeliveryInstructions:  input.DeliveryInstructions,
	}
	if o.DeliveryAddress == nil {
		o.DeliveryAddress = model.Settings{}
	}

	for _, line := range input.Items {
		ci, ok := byID[line.ItemID]
		if !ok {
			return nil, &apperr.Error{Kind: apperr.NotFound, Entity: "item", ID: line.ItemID}
		}
		if !ci.IsActive {
			return nil, &apperr.Error{
				Kind: apperr.ValidationFailed, Entity: "item", ID: line.ItemID,
				Msg: "item is inactive",
			}
		}
		o.Items = append(o.Items, model.OrderItem{
			BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			OrderID:           o.ID,
			ItemID:            line.ItemID,
			QuantityRequested: line.Quantity,
			UnitPrice:         ci.SellingPrice,
			TaxRate:           ci.TaxRate,
			Notes:             line.Notes,
		})
	}
	o.RecalculateTotals()

	o.StatusHistory = []model.StatusHistory{{
		ID:         uuid.New().String(),
		OrderID:    o.ID,
		FromStatus: model.StatusDraft,
		ToStatus:   model.StatusDraft,
		ChangedBy:  input.Actor.ID,
		Notes:      strPtr("order created"),
		ChangedAt:  now,
	}}

	if err := uc.repo.Create(ctx, ns, o); err != nil {
		return nil, err
	}
	uc.logger.Info("order created",
		zap.String("namespace", ns),
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("warehouse_id", warehouseID))
	return o, nil
}

// resolveWarehouse returns the warehouse to fulfil from. An explicit
// warehouse must be an active connection of the restaurant; otherwise the
// best-priority edge wins.
func (uc *orderUseCase) resolveWarehouse(ctx context.Context, ns, restaurantID, warehouseID string) (string, error) {
	if warehouseID == "" {
		conn, err := uc.routingUC.ResolveWarehouse(ctx, ns, restaurantID)
		if err != nil {
			return "", err
		}
		return conn.WarehouseID, nil
	}
	conns, err := uc.routingUC.ListConnections(ctx, ns, restaurantID)
	if err != nil {
		return "", err
	}
	for _, c := range conns {
		if c.WarehouseID == warehouseID && c.IsActive {
			return warehouseID, nil
		}
	}
	return "", &apperr.Error{
		Kind: apperr.NoRoute, Entity: "restaurant", ID: restaurantID,
		Msg: "warehouse " + warehouseID + " is not an active connection",
	}
}

func (uc *orderUseCase) UpdateStatus(ctx context.Context, ns string, input *dto.UpdateStatusInput) (*model.Order, error) {
	o, err := uc.repo.FindByID(ctx, ns, input.OrderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, &apperr.Error{Kind: apperr.NotFound, Entity: "order", ID: input.OrderID}
	}
	if !input.Status.Valid() {
		return nil, &apperr.Error{
			Kind: apperr.InvalidTransition, Entity: "order", ID: o.ID,
			Msg: "unknown status " + string(input.Status),
		}
	}
	from := o.Status
	if input.Status == from {
		return nil, &apperr.Error{
			Kind: apperr.InvalidTransition, Entity: "order", ID: o.ID,
			Msg: "order is already " + string(from),
		}
	}

	now := time.Now()
	var reserved, released []ledgerdto.ItemQuantity

	switch input.Status {
	case model.StatusCancelled, model.StatusRejected:
		if !o.CanCancel() {
			return nil, &apperr.Error{
				Kind: apperr.InvalidTransition, Entity: "order", ID: o.ID,
				Msg: "cannot cancel order in status " + string(from),
			}
		}
		if o.IsConfirmed() {
			released = confirmedQuantities(o)
			mv := ledgerdto.Movement{
				Reason:        "order " + string(input.Status),
				ReferenceType: "order",
				ReferenceID:   o.ID,
				Actor:         input.Actor,
			}
			if err := uc.ledgerUC.ReleaseItems(ctx, ns, o.WarehouseID, released, mv); err != nil {
				return nil, err
			}
		}
		o.CancelledBy = strPtr(input.Actor.ID)
		o.CancellationReason = input.Note

	case model.StatusConfirmed:
		if err := checkTransition(o, input.Status); err != nil {
			return nil, err
		}
		for i := range o.Items {
			it := &o.Items[i]
			if it.QuantityConfirmed <= 0 {
				it.QuantityConfirmed = it.QuantityRequested
			}
			it.UpdatedAt = now
		}
		reserved = confirmedQuantities(o)
		mv := ledgerdto.Movement{
			Reason:        "order confirmed",
			ReferenceType: "order",
			ReferenceID:   o.ID,
			Actor:         input.Actor,
		}
		if err := uc.ledgerUC.ReserveItems(ctx, ns, o.WarehouseID, reserved, mv); err != nil {
			return nil, err
		}
		o.ProcessedBy = strPtr(input.Actor.ID)
		if o.ConfirmedDeliveryDate == nil {
			o.ConfirmedDeliveryDate = o.RequestedDeliveryDate
		}

	case model.StatusDelivered:
		if err := checkTransition(o, input.Status); err != nil {
			return nil, err
		}
		for i := range o.Items {
			it := &o.Items[i]
			if it.QuantityDelivered <= 0 {
				if it.QuantityConfirmed > 0 {
					it.QuantityDelivered = it.QuantityConfirmed
				} else {
					it.QuantityDelivered = it.QuantityRequested
				}
			}
			it.UpdatedAt = now
		}
		mv := ledgerdto.Movement{
			Reason:        "order delivered",
			ReferenceType: "order",
			ReferenceID:   o.ID,
			Actor:         input.Actor,
		}
		if err := uc.ledgerUC.FulfilItems(ctx, ns, o.WarehouseID, deliveredQuantities(o), mv); err != nil {
			return nil, err
		}
		o.ActualDeliveryDate = &now

	default:
		if err := checkTransition(o, input.Status); err != nil {
			return nil, err
		}
	}

	o.Status = input.Status
	o.UpdatedAt = now
	h := &model.StatusHistory{
		ID:         uuid.New().String(),
		OrderID:    o.ID,
		FromStatus: from,
		ToStatus:   input.Status,
		ChangedBy:  input.Actor.ID,
		Notes:      input.Note,
		ChangedAt:  now,
	}

	if err := uc.repo.UpdateStatus(ctx, ns, o, h); err != nil {
		uc.compensate(ctx, ns, o, reserved, released, input.Actor)
		return nil, err
	}

	uc.publishStatusChanged(ctx, ns, o, from, input.Actor)
	return o, nil
}

// compensate undoes a committed ledger side effect when the status write
// itself failed afterwards. Fulfilments are not compensated; the stock left
// the warehouse either way, so that failure is only logged.
func (uc *orderUseCase) compensate(ctx context.Context, ns string, o *model.Order, reserved, released []ledgerdto.ItemQuantity, actor model.Actor) {
	mv := ledgerdto.Movement{
		Reason:        "status update failed, compensating",
		ReferenceType: "order",
		ReferenceID:   o.ID,
		Actor:         actor,
	}
	if len(reserved) > 0 {
		if err := uc.ledgerUC.ReleaseItems(ctx, ns, o.WarehouseID, reserved, mv); err != nil {
			uc.logger.Error("failed to release compensating reservation",
				zap.String("namespace", ns), zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	if len(released) > 0 {
		if err := uc.ledgerUC.ReserveItems(ctx, ns, o.WarehouseID, released, mv); err != nil {
			uc.logger.Error("failed to re-reserve after release",
				zap.String("namespace", ns), zap.String("order_id", o.ID), zap.Error(err))
		}
	}
}

func (uc *orderUseCase) publishStatusChanged(ctx context.Context, ns string, o *model.Order, from model.OrderStatus, actor model.Actor) {
	if uc.publisher == nil {
		return
	}
	ev := order.StatusChangedEvent{
		EventID:      uuid.New().String(),
		EventType:    order.EventTypeStatusChanged,
		Namespace:    ns,
		OrderID:      o.ID,
		OrderNumber:  o.OrderNumber,
		RestaurantID: o.RestaurantID,
		WarehouseID:  o.WarehouseID,
		FromStatus:   from,
		ToStatus:     o.Status,
		ChangedBy:    actor.ID,
		OccurredAt:   time.Now(),
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, order.EventItem{
			ItemID:            it.ItemID,
			QuantityRequested: it.QuantityRequested,
			QuantityConfirmed: it.QuantityConfirmed,
			QuantityDelivered: it.QuantityDelivered,
		})
	}
	value, err := json.Marshal(ev)
	if err != nil {
		uc.logger.Error("failed to encode status event", zap.String("order_id", o.ID), zap.Error(err))
		return
	}
	if err := uc.publisher.Publish(ctx, []byte(o.ID), value); err != nil {
		uc.logger.Warn("failed to publish status event",
			zap.String("namespace", ns),
			zap.String("order_id", o.ID),
			zap.String("to_status", string(o.Status)),
			zap.Error(err))
	}
}

func (uc *orderUseCase) UpdateItems(ctx context.Context, ns string, input *dto.UpdateItemsInput) (*model.Order, error) {
	o, err := uc.repo.FindByID(ctx, ns, input.OrderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, &apperr.Error{Kind: apperr.NotFound, Entity: "order", ID: input.OrderID}
	}
	if !o.IsPending() {
		return nil, &apperr.Error{
			Kind: apperr.InvalidTransition, Entity: "order", ID: o.ID,
			Msg: "line items are immutable once the order is " + string(o.Status),
		}
	}

	byItem := make(map[string]*model.OrderItem, len(o.Items))
	for i := range o.Items {
		byItem[o.Items[i].ItemID] = &o.Items[i]
	}
	now := time.Now()
	for _, in := range input.Items {
		if in.Quantity <= 0 {
			return nil, &apperr.Error{
				Kind: apperr.ValidationFailed, Entity: "order_item", ID: in.ItemID,
				Field: "quantity", Msg: "must be positive",
			}
		}
		line, ok := byItem[in.ItemID]
		if !ok {
			return nil, &apperr.Error{Kind: apperr.NotFound, Entity: "order_item", ID: in.ItemID}
		}
		line.QuantityRequested = in.Quantity
		if in.Notes != nil {
			line.Notes = in.Notes
		}
		line.UpdatedAt = now
	}

	o.RecalculateTotals()
	o.UpdatedAt = now
	if err := uc.repo.UpdateItems(ctx, ns, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, ns, id string) (*model.Order, error) {
	o, err := uc.repo.FindByID(ctx, ns, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, &apperr.Error{Kind: apperr.NotFound, Entity: "order", ID: id}
	}
	history, err := uc.repo.ListHistory(ctx, ns, o.ID)
	if err != nil {
		return nil, err
	}
	o.StatusHistory = history
	return o, nil
}

func (uc *orderUseCase) GetOrderByNumber(ctx context.Context, ns, number string) (*model.Order, error) {
	o, err := uc.repo.FindByNumber(ctx, ns, number)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, &apperr.Error{Kind: apperr.NotFound, Entity: "order", ID: number}
	}
	return o, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, ns string, f *dto.OrderFilters) ([]model.Order, int, error) {
	if f == nil {
		f = &dto.OrderFilters{}
	}
	return uc.repo.FindAll(ctx, ns, f)
}

func (uc *orderUseCase) GetHistory(ctx context.Context, ns, orderID string) ([]model.StatusHistory, error) {
	return uc.repo.ListHistory(ctx, ns, orderID)
}

func checkTransition(o *model.Order, to model.OrderStatus) error {
	for _, from := range allowedFrom[to] {
		if o.Status == from {
			return nil
		}
	}
	return &apperr.Error{
		Kind: apperr.InvalidTransition, Entity: "order", ID: o.ID,
		Msg: "cannot move from " + string(o.Status) + " to " + string(to),
	}
}

func confirmedQuantities(o *model.Order) []ledgerdto.ItemQuantity {
	out := make([]ledgerdto.ItemQuantity, 0, len(o.Items))
	for _, it := range o.Items {
		qty := it.QuantityConfirmed
		if qty <= 0 {
			qty = it.QuantityRequested
		}
		out = append(out, ledgerdto.ItemQuantity{ItemID: it.ItemID, Quantity: qty})
	}
	return out
}

func deliveredQuantities(o *model.Order) []ledgerdto.ItemQuantity {
	out := make([]ledgerdto.ItemQuantity, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, ledgerdto.ItemQuantity{ItemID: it.ItemID, Quantity: it.QuantityDelivered})
	}
	return out
}

// generateOrderNumber builds ORD-YYYYMMDD-XXXXXX with a random suffix. The
// unique index on order_number backstops the tiny collision window.
func generateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return "ORD-" + now.Format("20060102") + "-" + suffix
}

func strPtr(s string) *string { return &s }
