package dto

import (
	"time"

	"github.com/restohub/supply-service/internal/model"
)

type OrderItemInput struct {
	ItemID   string  `json:"item_id"`
	Quantity float64 `json:"quantity"`
	Notes    *string `json:"notes"`
}

// CreateOrderInput captures a new order request. WarehouseID may be empty,
// in which case the routing graph picks the best-priority active connection.
type CreateOrderInput struct {
	RestaurantID          string              `json:"restaurant_id"`
	WarehouseID           string              `json:"warehouse_id"`
	Priority              model.OrderPriority `json:"priority"`
	RequestedDeliveryDate *time.Time          `json:"requested_delivery_date"`
	DeliveryAddress       model.Settings      `json:"delivery_address"`
	DeliveryInstructions  *string             `json:"delivery_instructions"`
	Notes                 *string             `json:"notes"`
	Items                 []OrderItemInput    `json:"items"`
	Actor                 model.Actor         `json:"-"`
}

type UpdateStatusInput struct {
	OrderID string            `json:"order_id"`
	Status  model.OrderStatus `json:"status"`
	Note    *string           `json:"note"`
	Actor   model.Actor       `json:"-"`
}

// UpdateItemsInput rewrites requested quantities on a pending-group order.
// Lines absent from Items keep their stored quantity.
type UpdateItemsInput struct {
	OrderID string           `json:"order_id"`
	Items   []OrderItemInput `json:"items"`
	Actor   model.Actor      `json:"-"`
}

type OrderFilters struct {
	RestaurantID string              `json:"restaurant_id"`
	WarehouseID  string              `json:"warehouse_id"`
	Status       model.OrderStatus   `json:"status"`
	Priority     model.OrderPriority `json:"priority"`
	Page         int                 `json:"page"`
	PageSize     int                 `json:"page_size"`
}

func (f *OrderFilters) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	return f.PageSize
}

func (f *OrderFilters) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}
