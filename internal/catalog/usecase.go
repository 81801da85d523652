package catalog

import (
	"context"

	"github.com/restohub/supply-service/internal/catalog/dto"
	"github.com/restohub/supply-service/internal/model"
)

type UseCase interface {
	CreateItem(ctx context.Context, ns string, input *dto.CreateItemInput) (*model.Item, error)
	UpdateItem(ctx context.Context, ns string, input *dto.UpdateItemInput) (*model.Item, error)
	GetItem(ctx context.Context, ns, id string) (*model.Item, error)
	ListItems(ctx context.Context, ns string, f *dto.ItemFilters) ([]model.Item, int, error)
	ListCategories(ctx context.Context, ns string) ([]model.Category, error)

	// ListExpiringSoon filters active perishable items whose static
	// shelf-life falls within the threshold.
	ListExpiringSoon(ctx context.Context, ns string, withinDays int) ([]model.Item, error)
}
