package dto

import "github.com/restohub/supply-service/internal/model"

type CreateItemInput struct {
	CategoryID    string
	Name          string
	SKU           string
	Barcode       string
	Description   string
	UnitOfMeasure string
	CostPrice     float64
	SellingPrice  float64
	TaxRate       float64
	IsPerishable  bool
	ShelfLifeDays int
	StorageInfo   model.Settings
	AllergenInfo  model.Settings
	SupplierInfo  model.Settings
}

// UpdateItemInput never touches sku or barcode: item identity is immutable
// once referenced by stock rows or order lines.
type UpdateItemInput struct {
	ID            string
	CategoryID    *string
	Name          *string
	Description   *string
	CostPrice     *float64
	SellingPrice  *float64
	TaxRate       *float64
	IsPerishable  *bool
	ShelfLifeDays *int
	IsActive      *bool
}

type ItemFilters struct {
	CategoryID string
	IsActive   *bool
	Perishable *bool
	Page       int
	PageSize   int
}
