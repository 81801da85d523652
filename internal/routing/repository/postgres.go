package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/restohub/supply-service/internal/model"
	"github.com/restohub/supply-service/internal/tenant"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func checkNS(ns string) error {
	if !tenant.ValidNamespace(ns) {
		return fmt.Errorf("invalid namespace %q", ns)
	}
	return nil
}

func (r *PGRepository) Upsert(ctx context.Context, ns string, c *model.Connection) error {
	if err := checkNS(ns); err != nil {
		return err
	}
	query := fmt.Sprintf(`
        INSERT INTO %s.restaurant_warehouse_connections (
            id, restaurant_id, warehouse_id, is_active, priority, delivery_settings, created_at, updated_at
        )
        VALUES (:id, :restaurant_id, :warehouse_id, :is_active, :priority, :delivery_settings, :created_at, :updated_at)
        ON CONFLICT (restaurant_id, warehouse_id)
        DO UPDATE SET
            is_active = EXCLUDED.is_active,
            priority = EXCLUDED.priority,
            delivery_settings = EXCLUDED.delivery_settings,
            updated_at = EXCLUDED.updated_at
    `, ns)
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, ns, restaurantID, warehouseID string) error {
	if err := checkNS(ns); err != nil {
		return err
	}
	query := fmt.Sprintf(
		`DELETE FROM %s.restaurant_warehouse_connections WHERE restaurant_id = $1 AND warehouse_id = $2`, ns)
	_, err := r.DB.ExecContext(ctx, query, restaurantID, warehouseID)
	return err
}

func (r *PGRepository) SetActive(ctx context.Context, ns, restaurantID, warehouseID string, active bool) error {
	if err := checkNS(ns); err != nil {
		return err
	}
	query := fmt.Sprintf(`
        UPDATE %s.restaurant_warehouse_connections
        SET is_active = $3, updated_at = now()
        WHERE restaurant_id = $1 AND warehouse_id = $2
    `, ns)
	res, err := r.DB.ExecContext(ctx, query, restaurantID, warehouseID, active)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PGRepository) FindActiveByRestaurant(ctx context.Context, ns, restaurantID string) ([]model.Connection, error) {
	if err := checkNS(ns); err != nil {
		return nil, err
	}
	var conns []model.Connection
	query := fmt.Sprintf(`
        SELECT * FROM %s.restaurant_warehouse_connections
        WHERE restaurant_id = $1 AND is_active = true
        ORDER BY priority ASC, created_at ASC, id ASC
    `, ns)
	err := r.DB.SelectContext(ctx, &conns, query, restaurantID)
	return conns, err
}

func (r *PGRepository) FindByRestaurant(ctx context.Context, ns, restaurantID string) ([]model.Connection, error) {
	if err := checkNS(ns); err != nil {
		return nil, err
	}
	var conns []model.Connection
	query := fmt.Sprintf(`
        SELECT * FROM %s.restaurant_warehouse_connections
        WHERE restaurant_id = $1
        ORDER BY priority ASC, created_at ASC, id ASC
    `, ns)
	err := r.DB.SelectContext(ctx, &conns, query, restaurantID)
	return conns, err
}

func (r *PGRepository) FindByPair(ctx context.Context, ns, restaurantID, warehouseID string) (*model.Connection, error) {
	if err := checkNS(ns); err != nil {
		return nil, err
	}
	var c model.Connection
	query := fmt.Sprintf(`
        SELECT * FROM %s.restaurant_warehouse_connections
        WHERE restaurant_id = $1 AND warehouse_id = $2
    `, ns)
	err := r.DB.GetContext(ctx, &c, query, restaurantID, warehouseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
