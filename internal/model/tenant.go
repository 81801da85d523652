package model

import "time"

const (
	TenantKindRestaurant = "restaurant"
	TenantKindWarehouse  = "warehouse"
)

// Tenant is a top-level isolated customer account. Namespace is the name of
// the tenant's storage schema; it is unique and immutable after creation.
type Tenant struct {
	BaseModel
	Name                  string     `db:"name" json:"name"`
	Domain                string     `db:"domain" json:"domain"`
	Namespace             string     `db:"namespace" json:"namespace"`
	Kind                  string     `db:"kind" json:"kind"` // restaurant | warehouse
	Settings              Settings   `db:"settings" json:"settings"`
	IsActive              bool       `db:"is_active" json:"is_active"`
	SubscriptionPlan      *string    `db:"subscription_plan" json:"subscription_plan"`
	SubscriptionExpiresAt *time.Time `db:"subscription_expires_at" json:"subscription_expires_at"`
	CreatedBy             *string    `db:"created_by" json:"created_by"`
}

// Active reports whether the tenant may be used: the flag is on and the
// subscription, when present, has not expired.
func (t *Tenant) Active(now time.Time) bool {
	if !t.IsActive {
		return false
	}
	return t.SubscriptionExpiresAt == nil || t.SubscriptionExpiresAt.After(now)
}

// PermissionWildcard grants every capability.
const PermissionWildcard = "*"

// Role is a named set of permission strings.
type Role struct {
	BaseModel
	Name        string   `db:"name" json:"name"`
	DisplayName string   `db:"display_name" json:"display_name"`
	Permissions StringSet `db:"permissions" json:"permissions"`
}

// HasPermission reports whether the role grants perm, either directly or via
// the wildcard.
func (r *Role) HasPermission(perm string) bool {
	return r.Permissions.Contains(PermissionWildcard) || r.Permissions.Contains(perm)
}

type User struct {
	BaseModel
	Name         string  `db:"name" json:"name"`
	Email        string  `db:"email" json:"email"`
	PasswordHash string  `db:"password_hash" json:"-"`
	Phone        *string `db:"phone" json:"phone"`
	IsActive     bool    `db:"is_active" json:"is_active"`
	Roles        []Role  `db:"-" json:"roles"`
}

// Can reports whether any of the user's roles grants perm.
func (u *User) Can(perm string) bool {
	for i := range u.Roles {
		if u.Roles[i].HasPermission(perm) {
			return true
		}
	}
	return false
}
