package usecase

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/restohub/supply-service/internal/apperr"
	"github.com/restohub/supply-service/internal/model"
	"github.com/restohub/supply-service/internal/tenant"
	"github.com/restohub/supply-service/internal/tenant/dto"
)

type tenantUseCase struct {
	repo    tenant.Repository
	storage tenant.StorageBackend
	seeder  tenant.CategorySeeder
	logger  *zap.Logger
}

func NewTenantUseCase(repo tenant.Repository, storage tenant.StorageBackend, seeder tenant.CategorySeeder, log *zap.Logger) tenant.UseCase {
	return &tenantUseCase{
		repo:    repo,
		storage: storage,
		seeder:  seeder,
		logger:  log,
	}
}

func (uc *tenantUseCase) CreateTenant(ctx context.Context, input *dto.CreateTenantInput) (*dto.CreateTenantResult, error) {
	if input.Domain == "" {
		return nil, &apperr.Error{Kind: apperr.ValidationFailed, Entity: "tenant", Field: "domain", Msg: "domain is required"}
	}
	if input.Kind != model.TenantKindRestaurant && input.Kind != model.TenantKindWarehouse {
		return nil, &apperr.Error{Kind: apperr.ValidationFailed, Entity: "tenant", Field: "kind", Msg: "kind must be restaurant or warehouse"}
	}

	ns := tenant.NamespaceFromDomain(input.Domain)
	if !tenant.ValidNamespace(ns) {
		return nil, &apperr.Error{Kind: apperr.ValidationFailed, Entity: "tenant", Field: "domain", Msg: "domain does not yield a usable namespace"}
	}

	if existing, err := uc.repo.FindByDomain(ctx, input.Domain); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, &apperr.Error{Kind: apperr.Conflict, Entity: "tenant", Field: "domain", Msg: "domain already registered"}
	}
	if taken, err := uc.repo.NamespaceExists(ctx, ns); err != nil {
		return nil, err
	} else if taken {
		return nil, &apperr.Error{Kind: apperr.Conflict, Entity: "tenant", Field: "namespace", Msg: "namespace already allocated"}
	}

	now := time.Now()
	t := &model.Tenant{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:      input.Name,
		Domain:    input.Domain,
		Namespace: ns,
		Kind:      input.Kind,
		Settings:  input.Settings,
		IsActive:  true,
	}
	if input.SubscriptionPlan != "" {
		t.SubscriptionPlan = &input.SubscriptionPlan
	}
	t.SubscriptionExpiresAt = input.SubscriptionExpiresAt
	if input.Actor.ID != "" {
		actorID := input.Actor.ID
		t.CreatedBy = &actorID
	}

	if err := uc.repo.Create(ctx, t); err != nil {
		return nil, apperr.Wrap(apperr.ProvisioningFailed, "tenant", t.ID, err)
	}

	// Each later phase undoes everything earlier phases created. A failed
	// compensation leaves an inconsistent tenant and is escalated.
	if err := uc.storage.CreateNamespace(ctx, ns); err != nil {
		return nil, uc.compensate(ctx, t, false, err)
	}
	if err := uc.storage.RunSchemaMigrations(ctx, ns); err != nil {
		return nil, uc.compensate(ctx, t, true, err)
	}

	admin, password, err := uc.bootstrap(ctx, t)
	if err != nil {
		return nil, uc.compensate(ctx, t, true, err)
	}

	uc.logger.Info("tenant provisioned",
		zap.String("tenant_id", t.ID),
		zap.String("namespace", ns),
		zap.String("kind", t.Kind),
	)

	return &dto.CreateTenantResult{Tenant: t, Admin: admin, InitialPassword: password}, nil
}

// bootstrap creates the fixed role set, the initial administrator and the
// default categories inside a freshly migrated namespace.
func (uc *tenantUseCase) bootstrap(ctx context.Context, t *model.Tenant) (*model.User, string, error) {
	now := time.Now()

	for _, role := range tenant.DefaultRoles() {
		role.ID = uuid.New().String()
		role.CreatedAt = now
		role.UpdatedAt = now
		if err := uc.repo.EnsureRole(ctx, t.Namespace, &role); err != nil {
			return nil, "", err
		}
	}

	password, err := generatePassword(12)
	if err != nil {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	admin := &model.User{
		BaseModel:    model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:         "Tenant Administrator",
		Email:        "admin@" + t.Domain,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := uc.repo.CreateUser(ctx, t.Namespace, admin); err != nil {
		return nil, "", err
	}
	if err := uc.repo.AssignRole(ctx, t.Namespace, admin.ID, "tenant-admin"); err != nil {
		return nil, "", err
	}

	for i, c := range tenant.DefaultCategories() {
		cat := &model.Category{
			BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			Name:      c.Name,
			Slug:      tenant.Slugify(c.Name),
			Color:     c.Color,
			Icon:      c.Icon,
			SortOrder: i + 1,
			IsActive:  true,
		}
		if err := uc.seeder.CreateCategory(ctx, t.Namespace, cat); err != nil {
			return nil, "", err
		}
	}

	return admin, password, nil
}

// compensate rolls back a partially provisioned tenant: the namespace (when
// it was created) and the registry row. The original cause is always
// preserved; a failed rollback is escalated on top of it.
func (uc *tenantUseCase) compensate(ctx context.Context, t *model.Tenant, dropNamespace bool, cause error) error {
	if dropNamespace {
		if err := uc.storage.DropNamespace(ctx, t.Namespace); err != nil {
			uc.logger.Error("tenant rollback failed: namespace not dropped",
				zap.String("tenant_id", t.ID),
				zap.String("namespace", t.Namespace),
				zap.Error(err),
			)
			return apperr.Wrapf(apperr.ProvisioningFailed, "tenant", t.ID, cause,
				"rollback failed, namespace %s left behind: %v", t.Namespace, err)
		}
	}
	if err := uc.repo.Delete(ctx, t.ID); err != nil {
		uc.logger.Error("tenant rollback failed: registry row not deleted",
			zap.String("tenant_id", t.ID),
			zap.Error(err),
		)
		return apperr.Wrapf(apperr.ProvisioningFailed, "tenant", t.ID, cause,
			"rollback failed, registry row left behind: %v", err)
	}
	return apperr.Wrap(apperr.ProvisioningFailed, "tenant", t.ID, cause)
}

func (uc *tenantUseCase) DeleteTenant(ctx context.Context, id string) error {
	t, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return apperr.E(apperr.NotFound, "tenant", id, "")
	}

	dependents, err := uc.repo.CountDependents(ctx, t.Namespace)
	if err != nil {
		return err
	}
	if dependents > 0 {
		return &apperr.Error{
			Kind: apperr.HasDependents, Entity: "tenant", ID: id,
			Msg: "tenant still owns restaurants or warehouses",
		}
	}

	// Storage first: a tenant row without a namespace is recoverable, a
	// namespace without a row is not.
	if err := uc.storage.DropNamespace(ctx, t.Namespace); err != nil {
		return apperr.Wrap(apperr.ProvisioningFailed, "tenant", id, err)
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return apperr.Wrap(apperr.ProvisioningFailed, "tenant", id, err)
	}

	uc.logger.Info("tenant deleted", zap.String("tenant_id", id), zap.String("namespace", t.Namespace))
	return nil
}

func (uc *tenantUseCase) ActivateTenant(ctx context.Context, id string) error {
	return uc.setActive(ctx, id, true)
}

func (uc *tenantUseCase) DeactivateTenant(ctx context.Context, id string) error {
	return uc.setActive(ctx, id, false)
}

func (uc *tenantUseCase) setActive(ctx context.Context, id string, active bool) error {
	if err := uc.repo.SetActive(ctx, id, active); err != nil {
		return apperr.Wrap(apperr.NotFound, "tenant", id, err)
	}
	return nil
}

func (uc *tenantUseCase) GetTenant(ctx context.Context, id string) (*model.Tenant, error) {
	t, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.E(apperr.NotFound, "tenant", id, "")
	}
	return t, nil
}

func (uc *tenantUseCase) ListTenants(ctx context.Context, f *dto.TenantFilters) ([]model.Tenant, int, error) {
	return uc.repo.FindAll(ctx, f)
}

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generatePassword(length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
