package model

import "time"

// RestaurantStock is one (restaurant, item) ledger row.
type RestaurantStock struct {
	BaseModel
	RestaurantID      string     `db:"restaurant_id" json:"restaurant_id"`
	ItemID            string     `db:"item_id" json:"item_id"`
	CurrentStock      float64    `db:"current_stock" json:"current_stock"`
	MinimumStock      float64    `db:"minimum_stock" json:"minimum_stock"`
	MaximumStock      float64    `db:"maximum_stock" json:"maximum_stock"`
	ReorderPoint      float64    `db:"reorder_point" json:"reorder_point"`
	ReorderQuantity   float64    `db:"reorder_quantity" json:"reorder_quantity"`
	AverageDailyUsage float64    `db:"average_daily_usage" json:"average_daily_usage"`
	LastRestockedAt   *time.Time `db:"last_restocked_at" json:"last_restocked_at"`
	ExpiryDate        *time.Time `db:"expiry_date" json:"expiry_date"`
	IsActive          bool       `db:"is_active" json:"is_active"`
}

// NeedsReorder reports whether the restaurant row is at or below its reorder
// point.
func (s *RestaurantStock) NeedsReorder() bool {
	return s.CurrentStock <= s.ReorderPoint
}

// WarehouseStock is one (warehouse, item) ledger row. The invariant
// available = current − reserved ≥ 0 holds after every mutation.
type WarehouseStock struct {
	BaseModel
	WarehouseID     string     `db:"warehouse_id" json:"warehouse_id"`
	ItemID          string     `db:"item_id" json:"item_id"`
	CurrentStock    float64    `db:"current_stock" json:"current_stock"`
	ReservedStock   float64    `db:"reserved_stock" json:"reserved_stock"`
	AvailableStock  float64    `db:"available_stock" json:"available_stock"`
	MinimumStock    float64    `db:"minimum_stock" json:"minimum_stock"`
	MaximumStock    float64    `db:"maximum_stock" json:"maximum_stock"`
	ReorderPoint    float64    `db:"reorder_point" json:"reorder_point"`
	ReorderQuantity float64    `db:"reorder_quantity" json:"reorder_quantity"`
	LastRestockedAt *time.Time `db:"last_restocked_at" json:"last_restocked_at"`
	IsActive        bool       `db:"is_active" json:"is_active"`
}

// NeedsReorder reports whether the warehouse row's available stock is at or
// below its reorder point.
func (s *WarehouseStock) NeedsReorder() bool {
	return s.AvailableStock <= s.ReorderPoint
}

// Stock movement types recorded in the audit trail.
const (
	MovementAdjustment = "adjustment"
	MovementReserve    = "reserve"
	MovementRelease    = "release"
	MovementFulfil     = "fulfil"
	MovementReceive    = "receive"
)

// StockMovement is one append-only audit row per ledger mutation.
type StockMovement struct {
	ID             string       `db:"id" json:"id"`
	LocationKind   LocationKind `db:"location_kind" json:"location_kind"`
	LocationID     string       `db:"location_id" json:"location_id"`
	ItemID         string       `db:"item_id" json:"item_id"`
	MovementType   string       `db:"movement_type" json:"movement_type"`
	QuantityChange float64      `db:"quantity_change" json:"quantity_change"`
	QuantityBefore float64      `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  float64      `db:"quantity_after" json:"quantity_after"`
	ReferenceType  *string      `db:"reference_type" json:"reference_type"`
	ReferenceID    *string      `db:"reference_id" json:"reference_id"`
	Notes          string       `db:"notes" json:"notes"`
	CreatedBy      *string      `db:"created_by" json:"created_by"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}
