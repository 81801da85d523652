package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/restohub/supply-service/internal/model"
	"github.com/restohub/supply-service/internal/tenant"
	"github.com/restohub/supply-service/internal/tenant/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, t *model.Tenant) error {
	query := `
        INSERT INTO tenants (
            id, name, domain, namespace, kind, settings, is_active,
            subscription_plan, subscription_expires_at, created_by, created_at, updated_at
        )
        VALUES (
            :id, :name, :domain, :namespace, :kind, :settings, :is_active,
            :subscription_plan, :subscription_expires_at, :created_by, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, t)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	var t model.Tenant
	err := r.DB.GetContext(ctx, &t, `SELECT * FROM tenants WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *PGRepository) FindByDomain(ctx context.Context, domain string) (*model.Tenant, error) {
	var t model.Tenant
	err := r.DB.GetContext(ctx, &t, `SELECT * FROM tenants WHERE domain = $1 LIMIT 1`, domain)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *PGRepository) NamespaceExists(ctx context.Context, ns string) (bool, error) {
	var count int
	err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM tenants WHERE namespace = $1`, ns)
	return count > 0, err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.TenantFilters) ([]model.Tenant, int, error) {
	var tenants []model.Tenant
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Kind != "" {
		conditions = append(conditions, "kind = :kind")
		args["kind"] = f.Kind
	}
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM tenants" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM tenants" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &tenants, args)
	return tenants, count, err
}

func (r *PGRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE tenants SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	return err
}

func (r *PGRepository) CountDependents(ctx context.Context, ns string) (int, error) {
	if !tenant.ValidNamespace(ns) {
		return 0, fmt.Errorf("invalid namespace %q", ns)
	}
	var count int
	query := fmt.Sprintf(
		`SELECT (SELECT count(*) FROM %s.restaurants) + (SELECT count(*) FROM %s.warehouses)`,
		ns, ns,
	)
	err := r.DB.GetContext(ctx, &count, query)
	return count, err
}

func (r *PGRepository) EnsureRole(ctx context.Context, ns string, role *model.Role) error {
	if !tenant.ValidNamespace(ns) {
		return fmt.Errorf("invalid namespace %q", ns)
	}
	query := fmt.Sprintf(`
        INSERT INTO %s.roles (id, name, display_name, permissions, created_at, updated_at)
        VALUES (:id, :name, :display_name, :permissions, :created_at, :updated_at)
        ON CONFLICT (name) DO NOTHING
    `, ns)
	_, err := r.DB.NamedExecContext(ctx, query, role)
	return err
}

func (r *PGRepository) CreateUser(ctx context.Context, ns string, u *model.User) error {
	if !tenant.ValidNamespace(ns) {
		return fmt.Errorf("invalid namespace %q", ns)
	}
	query := fmt.Sprintf(`
        INSERT INTO %s.users (id, name, email, password_hash, phone, is_active, created_at, updated_at)
        VALUES (:id, :name, :email, :password_hash, :phone, :is_active, :created_at, :updated_at)
    `, ns)
	_, err := r.DB.NamedExecContext(ctx, query, u)
	return err
}

func (r *PGRepository) AssignRole(ctx context.Context, ns, userID, roleName string) error {
	if !tenant.ValidNamespace(ns) {
		return fmt.Errorf("invalid namespace %q", ns)
	}
	query := fmt.Sprintf(`
        INSERT INTO %s.user_roles (user_id, role_id)
        SELECT $1, id FROM %s.roles WHERE name = $2
        ON CONFLICT DO NOTHING
    `, ns, ns)
	res, err := r.DB.ExecContext(ctx, query, userID, roleName)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("role %q not found in namespace %s", roleName, ns)
	}
	return nil
}
