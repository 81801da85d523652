// Package storage implements the isolated-storage backend on Postgres using
// one schema per tenant namespace.
package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/restohub/supply-service/internal/tenant"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

//go:embed registry.sql
var registrySQL string

type PGBackend struct {
	db *sqlx.DB
}

func NewPGBackend(db *sqlx.DB) *PGBackend {
	return &PGBackend{db: db}
}

// EnsureRegistry creates the shared tenant registry table. Run once at
// startup, before any provisioning.
func (b *PGBackend) EnsureRegistry(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, registrySQL); err != nil {
		return fmt.Errorf("ensure tenant registry: %w", err)
	}
	return nil
}

// CreateNamespace creates the tenant schema. A duplicate schema is an error;
// the provisioner decides how to react.
func (b *PGBackend) CreateNamespace(ctx context.Context, ns string) error {
	if !tenant.ValidNamespace(ns) {
		return fmt.Errorf("invalid namespace %q", ns)
	}
	if _, err := b.db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA %s`, ns)); err != nil {
		return fmt.Errorf("create namespace %s: %w", ns, err)
	}
	return nil
}

// DropNamespace removes the tenant schema and everything in it. Idempotent.
func (b *PGBackend) DropNamespace(ctx context.Context, ns string) error {
	if !tenant.ValidNamespace(ns) {
		return fmt.Errorf("invalid namespace %q", ns)
	}
	if _, err := b.db.ExecContext(ctx, fmt.Sprintf(`DROP SCHEMA IF EXISTS %s CASCADE`, ns)); err != nil {
		return fmt.Errorf("drop namespace %s: %w", ns, err)
	}
	return nil
}

// RunSchemaMigrations applies the embedded tenant migrations, in file-name
// order, with the namespace on the search path. Each file runs in its own
// transaction.
func (b *PGBackend) RunSchemaMigrations(ctx context.Context, ns string) error {
	if !tenant.ValidNamespace(ns) {
		return fmt.Errorf("invalid namespace %q", ns)
	}

	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		sqlBytes, err := migrationsFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := b.applyOne(ctx, ns, name, string(sqlBytes)); err != nil {
			return err
		}
	}
	return nil
}

func (b *PGBackend) applyOne(ctx context.Context, ns, name, stmt string) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`SET LOCAL search_path TO %s`, ns)); err != nil {
		return fmt.Errorf("set search path for %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	return tx.Commit()
}
