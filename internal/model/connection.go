package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// DeliverySettings are the per-edge delivery terms.
type DeliverySettings struct {
	DeliveryFee  float64 `json:"delivery_fee"`
	MinimumOrder float64 `json:"minimum_order"`
	LeadTimeDays int     `json:"lead_time_days"`
}

func (d DeliverySettings) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *DeliverySettings) Scan(value any) error {
	if value == nil {
		*d = DeliverySettings{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("delivery settings: cannot scan %T", value)
	}
}

// Connection is a restaurant↔warehouse delivery edge. At most one edge exists
// per (restaurant, warehouse) pair. Priority ranks warehouses for a
// restaurant: lower wins, ties break on oldest creation.
type Connection struct {
	BaseModel
	RestaurantID     string           `db:"restaurant_id" json:"restaurant_id"`
	WarehouseID      string           `db:"warehouse_id" json:"warehouse_id"`
	IsActive         bool             `db:"is_active" json:"is_active"`
	Priority         int              `db:"priority" json:"priority"`
	DeliverySettings DeliverySettings `db:"delivery_settings" json:"delivery_settings"`
}
