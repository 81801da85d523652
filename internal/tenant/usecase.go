package tenant

import (
	"context"

	"github.com/restohub/supply-service/internal/model"
	"github.com/restohub/supply-service/internal/tenant/dto"
)

type UseCase interface {
	// CreateTenant provisions a tenant end to end: registry row, isolated
	// storage namespace, schema migrations, default roles, the initial
	// administrator and seeded categories. It either fully succeeds or
	// leaves nothing behind.
	CreateTenant(ctx context.Context, input *dto.CreateTenantInput) (*dto.CreateTenantResult, error)

	// DeleteTenant drops the tenant's namespace and registry row. It refuses
	// while the tenant still owns restaurants or warehouses.
	DeleteTenant(ctx context.Context, id string) error

	ActivateTenant(ctx context.Context, id string) error
	DeactivateTenant(ctx context.Context, id string) error

	GetTenant(ctx context.Context, id string) (*model.Tenant, error)
	ListTenants(ctx context.Context, f *dto.TenantFilters) ([]model.Tenant, int, error)
}
