package order

import (
	"time"

	"github.com/restohub/supply-service/internal/model"
)

// EventTypeStatusChanged is the event name carried on the order topic.
const EventTypeStatusChanged = "order.status_changed"

type EventItem struct {
	ItemID            string  `json:"item_id"`
	QuantityRequested float64 `json:"quantity_requested"`
	QuantityConfirmed float64 `json:"quantity_confirmed"`
	QuantityDelivered float64 `json:"quantity_delivered"`
}

// StatusChangedEvent is the JSON payload published after a committed status
// transition. Namespace lets consumers act in the right tenant schema.
type StatusChangedEvent struct {
	EventID      string            `json:"event_id"`
	EventType    string            `json:"event_type"`
	Namespace    string            `json:"namespace"`
	OrderID      string            `json:"order_id"`
	OrderNumber  string            `json:"order_number"`
	RestaurantID string            `json:"restaurant_id"`
	WarehouseID  string            `json:"warehouse_id"`
	FromStatus   model.OrderStatus `json:"from_status"`
	ToStatus     model.OrderStatus `json:"to_status"`
	ChangedBy    string            `json:"changed_by"`
	Items        []EventItem       `json:"items"`
	OccurredAt   time.Time         `json:"occurred_at"`
}
