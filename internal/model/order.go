package model

import (
	"math"
	"time"
)

type OrderStatus string

const (
	StatusDraft      OrderStatus = "draft"
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusPreparing  OrderStatus = "preparing"
	StatusReady      OrderStatus = "ready"
	StatusDispatched OrderStatus = "dispatched"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRejected   OrderStatus = "rejected"
)

// OrderStatuses lists every valid status.
var OrderStatuses = []OrderStatus{
	StatusDraft, StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
	StatusDispatched, StatusDelivered, StatusCancelled, StatusRejected,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type OrderPriority string

const (
	PriorityLow    OrderPriority = "low"
	PriorityNormal OrderPriority = "normal"
	PriorityHigh   OrderPriority = "high"
	PriorityUrgent OrderPriority = "urgent"
)

func (p OrderPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Order is the aggregate root for one inventory order. It exclusively owns
// its line items and status history.
type Order struct {
	BaseModel
	RestaurantID          string          `db:"restaurant_id" json:"restaurant_id"`
	WarehouseID           string          `db:"warehouse_id" json:"warehouse_id"`
	OrderNumber           string          `db:"order_number" json:"order_number"`
	Status                OrderStatus     `db:"status" json:"status"`
	Priority              OrderPriority   `db:"priority" json:"priority"`
	RequestedDeliveryDate *time.Time      `db:"requested_delivery_date" json:"requested_delivery_date"`
	ConfirmedDeliveryDate *time.Time      `db:"confirmed_delivery_date" json:"confirmed_delivery_date"`
	ActualDeliveryDate    *time.Time      `db:"actual_delivery_date" json:"actual_delivery_date"`
	Subtotal              float64         `db:"subtotal" json:"subtotal"`
	TaxAmount             float64         `db:"tax_amount" json:"tax_amount"`
	TotalAmount           float64         `db:"total_amount" json:"total_amount"`
	Notes                 *string         `db:"notes" json:"notes"`
	InternalNotes         *string         `db:"internal_notes" json:"internal_notes"`
	CreatedBy             string          `db:"created_by" json:"created_by"`
	ProcessedBy           *string         `db:"processed_by" json:"processed_by"`
	CancelledBy           *string         `db:"cancelled_by" json:"cancelled_by"`
	CancellationReason    *string         `db:"cancellation_reason" json:"cancellation_reason"`
	DeliveryAddress       Settings        `db:"delivery_address" json:"delivery_address"`
	DeliveryInstructions  *string         `db:"delivery_instructions" json:"delivery_instructions"`
	Items                 []OrderItem     `db:"-" json:"items"`
	StatusHistory         []StatusHistory `db:"-" json:"status_history"`
}

type OrderItem struct {
	BaseModel
	OrderID           string  `db:"order_id" json:"order_id"`
	ItemID            string  `db:"item_id" json:"item_id"`
	QuantityRequested float64 `db:"quantity_requested" json:"quantity_requested"`
	QuantityConfirmed float64 `db:"quantity_confirmed" json:"quantity_confirmed"`
	QuantityDelivered float64 `db:"quantity_delivered" json:"quantity_delivered"`
	UnitPrice         float64 `db:"unit_price" json:"unit_price"`
	TaxRate           float64 `db:"tax_rate" json:"tax_rate"`
	LineTotal         float64 `db:"line_total" json:"line_total"`
	Notes             *string `db:"notes" json:"notes"`
}

// StatusHistory is one immutable audit record per status change.
type StatusHistory struct {
	ID         string      `db:"id" json:"id"`
	OrderID    string      `db:"order_id" json:"order_id"`
	FromStatus OrderStatus `db:"from_status" json:"from_status"`
	ToStatus   OrderStatus `db:"to_status" json:"to_status"`
	ChangedBy  string      `db:"changed_by" json:"changed_by"`
	Notes      *string     `db:"notes" json:"notes"`
	ChangedAt  time.Time   `db:"changed_at" json:"changed_at"`
}

// IsPending reports membership in the pending group {draft, pending}.
func (o *Order) IsPending() bool {
	return o.Status == StatusDraft || o.Status == StatusPending
}

// IsConfirmed reports membership in the confirmed group
// {confirmed, preparing, ready, dispatched}.
func (o *Order) IsConfirmed() bool {
	switch o.Status {
	case StatusConfirmed, StatusPreparing, StatusReady, StatusDispatched:
		return true
	}
	return false
}

// IsCompleted reports terminal success (delivered).
func (o *Order) IsCompleted() bool {
	return o.Status == StatusDelivered
}

// IsCancelled reports terminal failure (cancelled or rejected).
func (o *Order) IsCancelled() bool {
	return o.Status == StatusCancelled || o.Status == StatusRejected
}

// CanCancel reports whether the order may still be cancelled or rejected.
// Orders already on the road or in a terminal state cannot.
func (o *Order) CanCancel() bool {
	switch o.Status {
	case StatusDispatched, StatusDelivered, StatusCancelled, StatusRejected:
		return false
	}
	return true
}

// RecalculateTotals recomputes subtotal, tax and total from the line items.
// It is the only writer of the three total fields and also refreshes each
// line's total. Idempotent.
func (o *Order) RecalculateTotals() {
	var subtotal, tax float64
	for i := range o.Items {
		it := &o.Items[i]
		line := it.QuantityRequested * it.UnitPrice
		it.LineTotal = round2(line)
		subtotal += line
		tax += line * (it.TaxRate / 100)
	}
	o.Subtotal = round2(subtotal)
	o.TaxAmount = round2(tax)
	o.TotalAmount = round2(subtotal + tax)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
