package dto

import (
	"time"

	"github.com/restohub/supply-service/internal/model"
)

type CreateTenantInput struct {
	Name                  string
	Domain                string
	Kind                  string // model.TenantKindRestaurant | model.TenantKindWarehouse
	Settings              model.Settings
	SubscriptionPlan      string
	SubscriptionExpiresAt *time.Time
	Actor                 model.Actor
}

// CreateTenantResult carries the provisioned tenant, the bootstrap admin and
// the admin's generated one-time password. The plaintext password is returned
// exactly once and stored only as a bcrypt hash.
type CreateTenantResult struct {
	Tenant          *model.Tenant
	Admin           *model.User
	InitialPassword string
}

type TenantFilters struct {
	Kind     string
	IsActive *bool
	Page     int
	PageSize int
}
