package tenant

import (
	"context"

	"github.com/restohub/supply-service/internal/model"
	"github.com/restohub/supply-service/internal/tenant/dto"
)

// Repository persists the tenant registry (shared schema) and the
// role/user bootstrap rows inside a tenant namespace.
type Repository interface {
	// Registry
	Create(ctx context.Context, t *model.Tenant) error
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
	FindByDomain(ctx context.Context, domain string) (*model.Tenant, error)
	NamespaceExists(ctx context.Context, ns string) (bool, error)
	FindAll(ctx context.Context, f *dto.TenantFilters) ([]model.Tenant, int, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error

	// CountDependents returns the number of restaurants plus warehouses that
	// exist inside the tenant's namespace.
	CountDependents(ctx context.Context, ns string) (int, error)

	// Namespace bootstrap
	EnsureRole(ctx context.Context, ns string, role *model.Role) error
	CreateUser(ctx context.Context, ns string, u *model.User) error
	AssignRole(ctx context.Context, ns, userID, roleName string) error
}

// StorageBackend is the isolated-storage capability the provisioner drives.
// Failures are reported to the caller, never retried silently.
type StorageBackend interface {
	CreateNamespace(ctx context.Context, ns string) error
	DropNamespace(ctx context.Context, ns string) error
	RunSchemaMigrations(ctx context.Context, ns string) error
}

// CategorySeeder is the slice of the catalog repository the provisioner needs
// to seed default categories into a fresh namespace.
type CategorySeeder interface {
	CreateCategory(ctx context.Context, ns string, c *model.Category) error
}
