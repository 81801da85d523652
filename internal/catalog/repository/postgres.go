package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/restohub/supply-service/internal/catalog/dto"
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

func (r *PGRepository) CreateCategory(ctx context.Context, ns string, c *model.Category) error {
	if err := checkNS(ns); err != nil {
		return err
	}
	query := fmt.Sprintf(`
        INSERT INTO %s.categories (id, name, slug, color, icon, sort_order, is_active, created_at, updated_at)
        VALUES (:id, :name, :slug, :color, :icon, :sort_order, :is_active, :created_at, :updated_at)
    `, ns)
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return err
}

func (r *PGRepository) FindCategoryByID(ctx context.Context, ns, id string) (*model.Category, error) {
	if err := checkNS(ns); err != nil {
		return nil, err
	}
	var c model.Category
	query := fmt.Sprintf(`SELECT * FROM %s.categories WHERE id = $1 LIMIT 1`, ns)
	err := r.DB.GetContext(ctx, &c, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) FindAllCategories(ctx context.Context, ns string) ([]model.Category, error) {
	if err := checkNS(ns); err != nil {
		return nil, err
	}
	var categories []model.Category
	query := fmt.Sprintf(`SELECT * FROM %s.categories ORDER BY sort_order ASC, name ASC`, ns)
	err := r.DB.SelectContext(ctx, &categories, query)
	return categories, err
}

func (r *PGRepository) CreateItem(ctx context.Context, ns string, i *model.Item) error {
	if err := checkNS(ns); err != nil {
		return err
	}
	query := fmt.Sprintf(`
        INSERT INTO %s.items (
            id, category_id, name, slug, sku, barcode, description, unit_of_measure,
            cost_price, selling_price, tax_rate, is_perishable, shelf_life_days,
            storage_info, allergen_info, supplier_info, is_active, created_at, updated_at
        )
        VALUES (
            :id, :category_id, :name, :slug, :sku, :barcode, :description, :unit_of_measure,
            :cost_price, :selling_price, :tax_rate, :is_perishable, :shelf_life_days,
            :storage_info, :allergen_info, :supplier_info, :is_active, :created_at, :updated_at
        )
    `, ns)
	_, err := r.DB.NamedExecContext(ctx, query, i)
	return err
}

func (r *PGRepository) UpdateItem(ctx context.Context, ns string, i *model.Item) error {
	if err := checkNS(ns); err != nil {
		return err
	}
	// sku and barcode are deliberately absent: item identity is immutable.
	query := fmt.Sprintf(`
        UPDATE %s.items
        SET category_id = :category_id,
            name = :name,
            slug = :slug,
            description = :description,
            unit_of_measure = :unit_of_measure,
            cost_price = :cost_price,
            selling_price = :selling_price,
            tax_rate = :tax_rate,
            is_perishable = :is_perishable,
            shelf_life_days = :shelf_life_days,
            storage_info = :storage_info,
            allergen_info = :allergen_info,
            supplier_info = :supplier_info,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id
    `, ns)
	_, err := r.DB.NamedExecContext(ctx, query, i)
	return err
}

func (r *PGRepository) FindItemByID(ctx context.Context, ns, id string) (*model.Item, error) {
	return r.findItem(ctx, ns, "id", id)
}

func (r *PGRepository) FindItemBySKU(ctx context.Context, ns, sku string) (*model.Item, error) {
	return r.findItem(ctx, ns, "sku", sku)
}

func (r *PGRepository) FindItemByBarcode(ctx context.Context, ns, barcode string) (*model.Item, error) {
	return r.findItem(ctx, ns, "barcode", barcode)
}

func (r *PGRepository) findItem(ctx context.Context, ns, column, value string) (*model.Item, error) {
	if err := checkNS(ns); err != nil {
		return nil, err
	}
	var item model.Item
	query := fmt.Sprintf(`SELECT * FROM %s.items WHERE %s = $1 LIMIT 1`, ns, column)
	err := r.DB.GetContext(ctx, &item, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGRepository) FindAllItems(ctx context.Context, ns string, f *dto.ItemFilters) ([]model.Item, int, error) {
	if err := checkNS(ns); err != nil {
		return nil, 0, err
	}
	var items []model.Item
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.CategoryID != "" {
		conditions = append(conditions, "category_id = :category_id")
		args["category_id"] = f.CategoryID
	}
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}
	if f.Perishable != nil {
		conditions = append(conditions, "is_perishable = :is_perishable")
		args["is_perishable"] = *f.Perishable
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT count(*) FROM %s.items", ns) + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := fmt.Sprintf("SELECT * FROM %s.items", ns) + whereClause + " ORDER BY name ASC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) BatchGetItems(ctx context.Context, ns string, ids []string) ([]model.Item, error) {
	if err := checkNS(ns); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.Item{}, nil
	}

	query, args, err := sqlx.In(fmt.Sprintf(`SELECT * FROM %s.items WHERE id IN (?)`, ns), ids)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	var items []model.Item
	err = r.DB.SelectContext(ctx, &items, query, args...)
	return items, err
}
