package catalog

import (
	"context"

	"github.com/restohub/supply-service/internal/catalog/dto"
	"github.com/restohub/supply-service/internal/model"
)

// Repository persists categories and catalog items inside a tenant namespace.
// The namespace is an explicit parameter on every call; there is no ambient
// current-tenant state.
type Repository interface {
	// Categories
	CreateCategory(ctx context.Context, ns string, c *model.Category) error
	FindCategoryByID(ctx context.Context, ns, id string) (*model.Category, error)
	FindAllCategories(ctx context.Context, ns string) ([]model.Category, error)

	// Items
	CreateItem(ctx context.Context, ns string, i *model.Item) error
	UpdateItem(ctx context.Context, ns string, i *model.Item) error
	FindItemByID(ctx context.Context, ns, id string) (*model.Item, error)
	FindItemBySKU(ctx context.Context, ns, sku string) (*model.Item, error)
	FindItemByBarcode(ctx context.Context, ns, barcode string) (*model.Item, error)
	FindAllItems(ctx context.Context, ns string, f *dto.ItemFilters) ([]model.Item, int, error)
	BatchGetItems(ctx context.Context, ns string, ids []string) ([]model.Item, error)
}
