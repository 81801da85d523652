package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/restohub/supply-service/internal/apperr"
	"github.com/restohub/supply-service/internal/ledger/dto"
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

func (r *PGRepository) GetRestaurantStock(ctx context.Context, ns, restaurantID, itemID string) (*model.RestaurantStock, error) {
	if err := checkNS(ns); err != nil {
		return nil, err
	}
	var s model.RestaurantStock
	query := fmt.Sprintf(
		`SELECT * FROM %s.restaurant_stocks WHERE restaurant_id = $1 AND item_id = $2`, ns)
	err := r.DB.GetContext(ctx, &s, query, restaurantID, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGRepository) GetWarehouseStock(ctx context.Context, ns, warehouseID, itemID string) (*model.WarehouseStock, error) {
	if err := checkNS(ns); err != nil {
		return nil, err
	}
	var s model.WarehouseStock
	query := fmt.Sprintf(
		`SELECT * FROM %s.warehouse_stocks WHERE warehouse_id = $1 AND item_id = $2`, ns)
	err := r.DB.GetContext(ctx, &s, query, warehouseID, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGRepository) ListLowStockRestaurant(ctx context.Context, ns, restaurantID string) ([]model.RestaurantStock, error) {
	if err := checkNS(ns); err != nil {
		return nil, err
	}
	var rows []model.RestaurantStock
	query := fmt.Sprintf(`
        SELECT * FROM %s.restaurant_stocks
        WHERE restaurant_id = $1 AND is_active = true AND current_stock <= reorder_point
        ORDER BY item_id
    `, ns)
	err := r.DB.SelectContext(ctx, &rows, query, restaurantID)
	return rows, err
}

func (r *PGRepository) ListLowStockWarehouse(ctx context.Context, ns, warehouseID string) ([]model.WarehouseStock, error) {
	if err := checkNS(ns); err != nil {
		return nil, err
	}
	var rows []model.WarehouseStock
	query := fmt.Sprintf(`
        SELECT * FROM %s.warehouse_stocks
        WHERE warehouse_id = $1 AND is_active = true AND available_stock <= reorder_point
        ORDER BY item_id
    `, ns)
	err := r.DB.SelectContext(ctx, &rows, query, warehouseID)
	return rows, err
}

func (r *PGRepository) ListMovements(ctx context.Context, ns string, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	if err := checkNS(ns); err != nil {
		return nil, 0, err
	}
	var movements []model.StockMovement
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Kind != "" {
		conditions = append(conditions, "location_kind = :location_kind")
		args["location_kind"] = string(f.Kind)
	}
	if f.LocationID != "" {
		conditions = append(conditions, "location_id = :location_id")
		args["location_id"] = f.LocationID
	}
	if f.ItemID != "" {
		conditions = append(conditions, "item_id = :item_id")
		args["item_id"] = f.ItemID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT count(*) FROM %s.stock_movements", ns) + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := fmt.Sprintf("SELECT * FROM %s.stock_movements", ns) + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &movements, args)
	return movements, count, err
}

func (r *PGRepository) AdjustRestaurantStock(ctx context.Context, ns, restaurantID, itemID string, delta float64, mv dto.Movement) (*model.RestaurantStock, error) {
	if err := checkNS(ns); err != nil {
		return nil, err
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var s model.RestaurantStock
	query := fmt.Sprintf(
		`SELECT * FROM %s.restaurant_stocks WHERE restaurant_id = $1 AND item_id = $2 FOR UPDATE`, ns)
	err = tx.GetContext(ctx, &s, query, restaurantID, itemID)
	now := time.Now()
	if errors.Is(err, sql.ErrNoRows) {
		if delta < 0 {
			return nil, insufficientStock("restaurant_stock", itemID, 0, delta)
		}
		s = model.RestaurantStock{
			BaseModel:    model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			RestaurantID: restaurantID,
			ItemID:       itemID,
			IsActive:     true,
		}
		insert := fmt.Sprintf(`
            INSERT INTO %s.restaurant_stocks (
                id, restaurant_id, item_id, current_stock, minimum_stock, maximum_stock,
                reorder_point, reorder_quantity, average_daily_usage, is_active, created_at, updated_at
            )
            VALUES (:id, :restaurant_id, :item_id, 0, 0, 0, 0, 0, 0, true, :created_at, :updated_at)
        `, ns)
		if _, err := tx.NamedExecContext(ctx, insert, &s); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	before := s.CurrentStock
	after := before + delta
	if after < 0 {
		return nil, insufficientStock("restaurant_stock", itemID, before, delta)
	}

	update := fmt.Sprintf(`
        UPDATE %s.restaurant_stocks
        SET current_stock = $1,
            last_restocked_at = CASE WHEN $2 THEN now() ELSE last_restocked_at END,
            updated_at = now()
        WHERE id = $3
    `, ns)
	if _, err := tx.ExecContext(ctx, update, after, delta > 0, s.ID); err != nil {
		return nil, err
	}

	if err := insertMovement(ctx, tx, ns, movementRow(model.LocationRestaurant, restaurantID, itemID,
		model.MovementAdjustment, delta, before, after, mv)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.CurrentStock = after
	s.UpdatedAt = now
	return &s, nil
}

func (r *PGRepository) AdjustWarehouseStock(ctx context.Context, ns, warehouseID, itemID string, delta float64, mv dto.Movement) (*model.WarehouseStock, error) {
	return r.warehouseOp(ctx, ns, warehouseID, itemID, delta, mv, model.MovementAdjustment, true)
}

func (r *PGRepository) Reserve(ctx context.Context, ns, warehouseID, itemID string, qty float64, mv dto.Movement) (*model.WarehouseStock, error) {
	return r.warehouseOp(ctx, ns, warehouseID, itemID, qty, mv, model.MovementReserve, false)
}

func (r *PGRepository) Release(ctx context.Context, ns, warehouseID, itemID string, qty float64, mv dto.Movement) (*model.WarehouseStock, error) {
	return r.warehouseOp(ctx, ns, warehouseID, itemID, qty, mv, model.MovementRelease, false)
}

func (r *PGRepository) Fulfil(ctx context.Context, ns, warehouseID, itemID string, qty float64, mv dto.Movement) (*model.WarehouseStock, error) {
	return r.warehouseOp(ctx, ns, warehouseID, itemID, qty, mv, model.MovementFulfil, false)
}

// warehouseOp runs one warehouse mutation in its own transaction. createRow
// is only honored for adjustments; reservations against an absent row fail.
func (r *PGRepository) warehouseOp(ctx context.Context, ns, warehouseID, itemID string, qty float64, mv dto.Movement, movementType string, createRow bool) (*model.WarehouseStock, error) {
	if err := checkNS(ns); err != nil {
		return nil, err
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	s, err := r.applyWarehouseTx(ctx, tx, ns, warehouseID, itemID, qty, mv, movementType, createRow)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s, nil
}

// applyWarehouseTx locks the (warehouse, item) row and applies one mutation,
// maintaining available = current − reserved ≥ 0.
func (r *PGRepository) applyWarehouseTx(ctx context.Context, tx *sqlx.Tx, ns, warehouseID, itemID string, qty float64, mv dto.Movement, movementType string, createRow bool) (*model.WarehouseStock, error) {
	var s model.WarehouseStock
	query := fmt.Sprintf(
		`SELECT * FROM %s.warehouse_stocks WHERE warehouse_id = $1 AND item_id = $2 FOR UPDATE`, ns)
	err := tx.GetContext(ctx, &s, query, warehouseID, itemID)
	now := time.Now()
	if errors.Is(err, sql.ErrNoRows) {
		switch movementType {
		case model.MovementReserve:
			return nil, insufficientStock("warehouse_stock", itemID, 0, qty)
		case model.MovementRelease, model.MovementFulfil:
			return nil, invalidRelease(itemID, 0, qty)
		}
		if !createRow || qty < 0 {
			return nil, insufficientStock("warehouse_stock", itemID, 0, qty)
		}
		s = model.WarehouseStock{
			BaseModel:   model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			WarehouseID: warehouseID,
			ItemID:      itemID,
			IsActive:    true,
		}
		insert := fmt.Sprintf(`
            INSERT INTO %s.warehouse_stocks (
                id, warehouse_id, item_id, current_stock, reserved_stock, available_stock,
                minimum_stock, maximum_stock, reorder_point, reorder_quantity, is_active, created_at, updated_at
            )
            VALUES (:id, :warehouse_id, :item_id, 0, 0, 0, 0, 0, 0, 0, true, :created_at, :updated_at)
        `, ns)
		if _, err := tx.NamedExecContext(ctx, insert, &s); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	current, reserved := s.CurrentStock, s.ReservedStock
	var before, after float64

	switch movementType {
	case model.MovementAdjustment:
		before, after = current, current+qty
		if after < reserved {
			// current may never drop below what is already reserved
			return nil, insufficientStock("warehouse_stock", itemID, current-reserved, qty)
		}
		current = after
	case model.MovementReserve:
		available := current - reserved
		if qty > available {
			return nil, insufficientStock("warehouse_stock", itemID, available, qty)
		}
		before, after = available, available-qty
		reserved += qty
	case model.MovementRelease:
		if qty > reserved {
			return nil, invalidRelease(itemID, reserved, qty)
		}
		before, after = current-reserved, current-reserved+qty
		reserved -= qty
	case model.MovementFulfil:
		if qty > reserved {
			return nil, invalidRelease(itemID, reserved, qty)
		}
		before, after = current, current-qty
		current -= qty
		reserved -= qty
	default:
		return nil, fmt.Errorf("unknown movement type %q", movementType)
	}

	available := current - reserved
	update := fmt.Sprintf(`
        UPDATE %s.warehouse_stocks
        SET current_stock = $1,
            reserved_stock = $2,
            available_stock = $3,
            last_restocked_at = CASE WHEN $4 THEN now() ELSE last_restocked_at END,
            updated_at = now()
        WHERE id = $5
    `, ns)
	restocked := movementType == model.MovementAdjustment && qty > 0
	if _, err := tx.ExecContext(ctx, update, current, reserved, available, restocked, s.ID); err != nil {
		return nil, err
	}

	delta := qty
	if movementType == model.MovementFulfil {
		delta = -qty
	}
	if err := insertMovement(ctx, tx, ns, movementRow(model.LocationWarehouse, warehouseID, itemID,
		movementType, delta, before, after, mv)); err != nil {
		return nil, err
	}

	s.CurrentStock = current
	s.ReservedStock = reserved
	s.AvailableStock = available
	s.UpdatedAt = now
	return &s, nil
}

func (r *PGRepository) ReserveAll(ctx context.Context, ns, warehouseID string, items []dto.ItemQuantity, mv dto.Movement) error {
	return r.warehouseOpAll(ctx, ns, warehouseID, items, mv, model.MovementReserve)
}

func (r *PGRepository) ReleaseAll(ctx context.Context, ns, warehouseID string, items []dto.ItemQuantity, mv dto.Movement) error {
	return r.warehouseOpAll(ctx, ns, warehouseID, items, mv, model.MovementRelease)
}

func (r *PGRepository) FulfilAll(ctx context.Context, ns, warehouseID string, items []dto.ItemQuantity, mv dto.Movement) error {
	return r.warehouseOpAll(ctx, ns, warehouseID, items, mv, model.MovementFulfil)
}

// warehouseOpAll applies one mutation to every item in a single transaction.
// Rows are locked in ascending item-id order so two orders racing for
// overlapping item sets cannot deadlock. Any failure rolls the whole set
// back.
func (r *PGRepository) warehouseOpAll(ctx context.Context, ns, warehouseID string, items []dto.ItemQuantity, mv dto.Movement, movementType string) error {
	if err := checkNS(ns); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	sorted := make([]dto.ItemQuantity, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ItemID < sorted[j].ItemID })

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, it := range sorted {
		if it.Quantity <= 0 {
			continue
		}
		if _, err := r.applyWarehouseTx(ctx, tx, ns, warehouseID, it.ItemID, it.Quantity, mv, movementType, false); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func movementRow(kind model.LocationKind, locationID, itemID, movementType string, delta, before, after float64, mv dto.Movement) *model.StockMovement {
	m := &model.StockMovement{
		ID:             uuid.New().String(),
		LocationKind:   kind,
		LocationID:     locationID,
		ItemID:         itemID,
		MovementType:   movementType,
		QuantityChange: delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		Notes:          mv.Reason,
		CreatedAt:      time.Now(),
	}
	if mv.ReferenceType != "" {
		refType := mv.ReferenceType
		m.ReferenceType = &refType
	}
	if mv.ReferenceID != "" {
		refID := mv.ReferenceID
		m.ReferenceID = &refID
	}
	if mv.Actor.ID != "" {
		actorID := mv.Actor.ID
		m.CreatedBy = &actorID
	}
	return m
}

func insertMovement(ctx context.Context, tx *sqlx.Tx, ns string, m *model.StockMovement) error {
	query := fmt.Sprintf(`
        INSERT INTO %s.stock_movements (
            id, location_kind, location_id, item_id, movement_type,
            quantity_change, quantity_before, quantity_after,
            reference_type, reference_id, notes, created_by, created_at
        )
        VALUES (
            :id, :location_kind, :location_id, :item_id, :movement_type,
            :quantity_change, :quantity_before, :quantity_after,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `, ns)
	_, err := tx.NamedExecContext(ctx, query, m)
	return err
}

func insufficientStock(entity, itemID string, available, requested float64) error {
	return &apperr.Error{
		Kind: apperr.InsufficientStock, Entity: entity, ID: itemID, Field: "quantity",
		Msg: fmt.Sprintf("requested %.2f, available %.2f", requested, available),
	}
}

func invalidRelease(itemID string, reserved, requested float64) error {
	return &apperr.Error{
		Kind: apperr.InvalidRelease, Entity: "warehouse_stock", ID: itemID, Field: "quantity",
		Msg: fmt.Sprintf("requested %.2f, reserved %.2f", requested, reserved),
	}
}
