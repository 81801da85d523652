package model

type Category struct {
	BaseModel
	Name      string `db:"name" json:"name"`
	Slug      string `db:"slug" json:"slug"`
	Color     string `db:"color" json:"color"`
	Icon      string `db:"icon" json:"icon"`
	SortOrder int    `db:"sort_order" json:"sort_order"`
	IsActive  bool   `db:"is_active" json:"is_active"`
}

// Item is a catalog entry. SKU is unique; barcode is unique when present.
// Identity is immutable once the item is referenced by a stock row or an
// order line.
type Item struct {
	BaseModel
	CategoryID    *string  `db:"category_id" json:"category_id"`
	Name          string   `db:"name" json:"name"`
	Slug          string   `db:"slug" json:"slug"`
	SKU           string   `db:"sku" json:"sku"`
	Barcode       *string  `db:"barcode" json:"barcode"`
	Description   *string  `db:"description" json:"description"`
	UnitOfMeasure string   `db:"unit_of_measure" json:"unit_of_measure"`
	CostPrice     float64  `db:"cost_price" json:"cost_price"`
	SellingPrice  float64  `db:"selling_price" json:"selling_price"`
	TaxRate       float64  `db:"tax_rate" json:"tax_rate"`
	IsPerishable  bool     `db:"is_perishable" json:"is_perishable"`
	ShelfLifeDays int      `db:"shelf_life_days" json:"shelf_life_days"`
	StorageInfo   Settings `db:"storage_info" json:"storage_info"`
	AllergenInfo  Settings `db:"allergen_info" json:"allergen_info"`
	SupplierInfo  Settings `db:"supplier_info" json:"supplier_info"`
	IsActive      bool     `db:"is_active" json:"is_active"`
}

// IsExpiringSoon is a catalog policy check: it compares the item's static
// shelf-life against the threshold. It is not a countdown from a batch expiry
// date (flagged for product clarification).
func (i *Item) IsExpiringSoon(withinDays int) bool {
	if !i.IsPerishable || i.ShelfLifeDays <= 0 {
		return false
	}
	return i.ShelfLifeDays <= withinDays
}

// TaxAmount returns the tax owed on amount at this item's rate.
func (i *Item) TaxAmount(amount float64) float64 {
	return amount * (i.TaxRate / 100)
}
