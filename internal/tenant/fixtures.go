package tenant

import (
	"strings"

	"github.com/restohub/supply-service/internal/model"
)

// defaultRoles is the fixed role set bootstrapped into every tenant
// namespace. tenant-admin carries the wildcard capability.
var defaultRoles = []model.Role{
	{Name: "tenant-admin", DisplayName: "Tenant Administrator", Permissions: model.StringSet{model.PermissionWildcard}},
	{Name: "restaurant-manager", DisplayName: "Restaurant Manager", Permissions: model.StringSet{
		"restaurant.manage", "inventory.read", "inventory.adjust", "orders.create", "orders.cancel",
	}},
	{Name: "restaurant-staff", DisplayName: "Restaurant Staff", Permissions: model.StringSet{
		"inventory.read", "orders.create",
	}},
	{Name: "warehouse-manager", DisplayName: "Warehouse Manager", Permissions: model.StringSet{
		"warehouse.manage", "inventory.read", "inventory.adjust", "orders.process",
	}},
	{Name: "warehouse-staff", DisplayName: "Warehouse Staff", Permissions: model.StringSet{
		"inventory.read", "orders.process",
	}},
}

// DefaultRoles returns a fresh copy of the fixture so callers can stamp ids
// and timestamps without mutating it.
func DefaultRoles() []model.Role {
	roles := make([]model.Role, len(defaultRoles))
	copy(roles, defaultRoles)
	return roles
}

// CategorySeed is one (name, color, icon) tuple of static seed configuration.
type CategorySeed struct {
	Name  string
	Color string
	Icon  string
}

// defaultCategories is static seed configuration, applied in order with
// sort_order 1..n and deterministic slugs.
var defaultCategories = []CategorySeed{
	{"Vegetables", "#10B981", "leaf"},
	{"Fruits", "#F59E0B", "apple"},
	{"Meat & Poultry", "#EF4444", "meat"},
	{"Seafood", "#3B82F6", "fish"},
	{"Dairy", "#8B5CF6", "milk"},
	{"Grains & Cereals", "#F97316", "grain"},
	{"Beverages", "#06B6D4", "cup"},
	{"Spices & Seasonings", "#84CC16", "spice"},
	{"Cleaning Supplies", "#6B7280", "spray"},
	{"Packaging", "#A855F7", "box"},
}

// DefaultCategories returns the seed category tuples in fixture order.
func DefaultCategories() []CategorySeed {
	seeds := make([]CategorySeed, len(defaultCategories))
	copy(seeds, defaultCategories)
	return seeds
}

// Slugify turns a display name into a url-safe slug: lowercase, runs of
// non-alphanumerics collapsed to single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	prev := '-'
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prev = r
		} else if prev != '-' {
			b.WriteRune('-')
			prev = '-'
		}
	}
	return strings.Trim(b.String(), "-")
}
