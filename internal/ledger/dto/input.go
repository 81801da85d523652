package dto

import "github.com/restohub/supply-service/internal/model"

// AdjustStockInput applies a signed delta to one (location, item) row.
type AdjustStockInput struct {
	Kind          model.LocationKind
	LocationID    string
	ItemID        string
	Delta         float64
	Reason        string
	ReferenceType string
	ReferenceID   string
	Actor         model.Actor
}

// Movement carries the audit context for a ledger mutation; the repository
// fills in the before/after quantities inside the transaction.
type Movement struct {
	Reason        string
	ReferenceType string
	ReferenceID   string
	Actor         model.Actor
}

// ItemQuantity is one line of a multi-item warehouse operation.
type ItemQuantity struct {
	ItemID   string
	Quantity float64
}

// StockLevel is the kind-agnostic view of a ledger row returned to callers.
// Reserved and Available are zero for restaurant rows.
type StockLevel struct {
	Kind       model.LocationKind
	LocationID string
	ItemID     string
	Current    float64
	Reserved   float64
	Available  float64
}

type MovementFilters struct {
	Kind         model.LocationKind
	LocationID   string
	ItemID       string
	MovementType string
	Page         int
	PageSize     int
}
