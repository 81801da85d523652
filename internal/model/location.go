package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LocationKind distinguishes the two stock-holding site types.
type LocationKind string

const (
	LocationRestaurant LocationKind = "restaurant"
	LocationWarehouse  LocationKind = "warehouse"
)

type Restaurant struct {
	BaseModel
	TenantID   string   `db:"tenant_id" json:"tenant_id"`
	Name       string   `db:"name" json:"name"`
	Slug       string   `db:"slug" json:"slug"`
	Email      *string  `db:"email" json:"email"`
	Phone      *string  `db:"phone" json:"phone"`
	Address    *string  `db:"address" json:"address"`
	City       *string  `db:"city" json:"city"`
	Country    *string  `db:"country" json:"country"`
	PostalCode *string  `db:"postal_code" json:"postal_code"`
	Timezone   string   `db:"timezone" json:"timezone"`
	Currency   string   `db:"currency" json:"currency"`
	Settings   Settings `db:"settings" json:"settings"`
	IsActive   bool     `db:"is_active" json:"is_active"`
	ManagerID  *string  `db:"manager_id" json:"manager_id"`
}

type Warehouse struct {
	BaseModel
	TenantID       string         `db:"tenant_id" json:"tenant_id"`
	Name           string         `db:"name" json:"name"`
	Slug           string         `db:"slug" json:"slug"`
	Email          *string        `db:"email" json:"email"`
	Phone          *string        `db:"phone" json:"phone"`
	Address        *string        `db:"address" json:"address"`
	City           *string        `db:"city" json:"city"`
	Country        *string        `db:"country" json:"country"`
	PostalCode     *string        `db:"postal_code" json:"postal_code"`
	Timezone       string         `db:"timezone" json:"timezone"`
	OperatingHours OperatingHours `db:"operating_hours" json:"operating_hours"`
	DeliveryRadius float64        `db:"delivery_radius" json:"delivery_radius"`
	Settings       Settings       `db:"settings" json:"settings"`
	IsActive       bool           `db:"is_active" json:"is_active"`
	ManagerID      *string        `db:"manager_id" json:"manager_id"`
}

// DayHours is one weekday's opening window, times as "15:04" strings.
type DayHours struct {
	IsOpen bool   `json:"is_open"`
	Open   string `json:"open"`
	Close  string `json:"close"`
}

// OperatingHours maps lowercase weekday names ("monday") to opening windows.
type OperatingHours map[string]DayHours

func (h OperatingHours) Value() (driver.Value, error) {
	if h == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(h)
}

func (h *OperatingHours) Scan(value any) error {
	if value == nil {
		*h = OperatingHours{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return fmt.Errorf("operating hours: cannot scan %T", value)
	}
}

// IsOperatingAt reports whether the warehouse is open at t, evaluated in the
// warehouse's own timezone. Unknown timezones fall back to UTC.
func (w *Warehouse) IsOperatingAt(t time.Time) bool {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	day := strings.ToLower(local.Weekday().String())

	hours, ok := w.OperatingHours[day]
	if !ok || !hours.IsOpen {
		return false
	}
	now := local.Format("15:04")
	return now >= hours.Open && now <= hours.Close
}
