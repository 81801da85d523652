package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/restohub/supply-service/internal/model"
	"github.com/restohub/supply-service/internal/order/dto"
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

func (r *PGRepository) Create(ctx context.Context, ns string, o *model.Order) error {
	if err := checkNS(ns); err != nil {
		return err
	}
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
        INSERT INTO %s.orders (
            id, restaurant_id, warehouse_id, order_number, status, priority,
            requested_delivery_date, confirmed_delivery_date, actual_delivery_date,
            subtotal, tax_amount, total_amount, notes, internal_notes,
            created_by, processed_by, cancelled_by, cancellation_reason,
            delivery_address, delivery_instructions, created_at, updated_at
        )
        VALUES (
            :id, :restaurant_id, :warehouse_id, :order_number, :status, :priority,
            :requested_delivery_date, :confirmed_delivery_date, :actual_delivery_date,
            :subtotal, :tax_amount, :total_amount, :notes, :internal_notes,
            :created_by, :processed_by, :cancelled_by, :cancellation_reason,
            :delivery_address, :delivery_instructions, :created_at, :updated_at
        )
    `, ns)
	if _, err := tx.NamedExecContext(ctx, query, o); err != nil {
		return err
	}

	for i := range o.Items {
		if err := insertItem(ctx, tx, ns, &o.Items[i]); err != nil {
			return err
		}
	}
	for i := range o.StatusHistory {
		if err := insertHistory(ctx, tx, ns, &o.StatusHistory[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertItem(ctx context.Context, tx *sqlx.Tx, ns string, it *model.OrderItem) error {
	query := fmt.Sprintf(`
        INSERT INTO %s.order_items (
            id, order_id, item_id, quantity_requested, quantity_confirmed,
            quantity_delivered, unit_price, tax_rate, line_total, notes,
            created_at, updated_at
        )
        VALUES (
            :id, :order_id, :item_id, :quantity_requested, :quantity_confirmed,
            :quantity_delivered, :unit_price, :tax_rate, :line_total, :notes,
            :created_at, :updated_at
        )
    `, ns)
	_, err := tx.NamedExecContext(ctx, query, it)
	return err
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, ns string, h *model.StatusHistory) error {
	query := fmt.Sprintf(`
        INSERT INTO %s.order_status_history (id, order_id, from_status, to_status, changed_by, notes, changed_at)
        VALUES (:id, :order_id, :from_status, :to_status, :changed_by, :notes, :changed_at)
    `, ns)
	_, err := tx.NamedExecContext(ctx, query, h)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, ns, id string) (*model.Order, error) {
	return r.findOrder(ctx, ns, "id", id)
}

func (r *PGRepository) FindByNumber(ctx context.Context, ns, number string) (*model.Order, error) {
	return r.findOrder(ctx, ns, "order_number", number)
}

func (r *PGRepository) findOrder(ctx context.Context, ns, column, value string) (*model.Order, error) {
	if err := checkNS(ns); err != nil {
		return nil, err
	}
	var o model.Order
	query := fmt.Sprintf(`SELECT * FROM %s.orders WHERE %s = $1 LIMIT 1`, ns, column)
	err := r.DB.GetContext(ctx, &o, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	itemsQuery := fmt.Sprintf(`SELECT * FROM %s.order_items WHERE order_id = $1 ORDER BY created_at ASC, id ASC`, ns)
	if err := r.DB.SelectContext(ctx, &o.Items, itemsQuery, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PGRepository) FindAll(ctx context.Context, ns string, f *dto.OrderFilters) ([]model.Order, int, error) {
	if err := checkNS(ns); err != nil {
		return nil, 0, err
	}
	var orders []model.Order
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.RestaurantID != "" {
		conditions = append(conditions, "restaurant_id = :restaurant_id")
		args["restaurant_id"] = f.RestaurantID
	}
	if f.WarehouseID != "" {
		conditions = append(conditions, "warehouse_id = :warehouse_id")
		args["warehouse_id"] = f.WarehouseID
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.Priority != "" {
		conditions = append(conditions, "priority = :priority")
		args["priority"] = f.Priority
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT count(*) FROM %s.orders", ns) + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := fmt.Sprintf("SELECT * FROM %s.orders", ns) + whereClause + " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit(), f.Offset())

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &orders, args)
	return orders, count, err
}

func (r *PGRepository) UpdateStatus(ctx context.Context, ns string, o *model.Order, h *model.StatusHistory) error {
	if err := checkNS(ns); err != nil {
		return err
	}
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
        UPDATE %s.orders
        SET status = :status,
            confirmed_delivery_date = :confirmed_delivery_date,
            actual_delivery_date = :actual_delivery_date,
            processed_by = :processed_by,
            cancelled_by = :cancelled_by,
            cancellation_reason = :cancellation_reason,
            internal_notes = :internal_notes,
            updated_at = :updated_at
        WHERE id = :id
    `, ns)
	res, err := tx.NamedExecContext(ctx, query, o)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	// Quantity columns move together with the status they belong to
	// (confirmed on reserve, delivered on fulfilment).
	itemQuery := fmt.Sprintf(`
        UPDATE %s.order_items
        SET quantity_confirmed = :quantity_confirmed,
            quantity_delivered = :quantity_delivered,
            updated_at = :updated_at
        WHERE id = :id
    `, ns)
	for i := range o.Items {
		if _, err := tx.NamedExecContext(ctx, itemQuery, &o.Items[i]); err != nil {
			return err
		}
	}

	if err := insertHistory(ctx, tx, ns, h); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepository) UpdateItems(ctx context.Context, ns string, o *model.Order) error {
	if err := checkNS(ns); err != nil {
		return err
	}
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	itemQuery := fmt.Sprintf(`
        UPDATE %s.order_items
        SET quantity_requested = :quantity_requested,
            line_total = :line_total,
            notes = :notes,
            updated_at = :updated_at
        WHERE id = :id
    `, ns)
	for i := range o.Items {
		if _, err := tx.NamedExecContext(ctx, itemQuery, &o.Items[i]); err != nil {
			return err
		}
	}

	totalsQuery := fmt.Sprintf(`
        UPDATE %s.orders
        SET subtotal = :subtotal,
            tax_amount = :tax_amount,
            total_amount = :total_amount,
            updated_at = :updated_at
        WHERE id = :id
    `, ns)
	if _, err := tx.NamedExecContext(ctx, totalsQuery, o); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepository) ListHistory(ctx context.Context, ns, orderID string) ([]model.StatusHistory, error) {
	if err := checkNS(ns); err != nil {
		return nil, err
	}
	var history []model.StatusHistory
	query := fmt.Sprintf(`
        SELECT * FROM %s.order_status_history
        WHERE order_id = $1
        ORDER BY changed_at ASC, id ASC
    `, ns)
	err := r.DB.SelectContext(ctx, &history, query, orderID)
	return history, err
}
