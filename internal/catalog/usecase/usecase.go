package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/restohub/supply-service/internal/apperr"
	"github.com/restohub/supply-service/internal/catalog"
	"github.com/restohub/supply-service/internal/catalog/dto"
	"github.com/restohub/supply-service/internal/model"
	"github.com/restohub/supply-service/internal/tenant"
)

type catalogUseCase struct {
	repo   catalog.Repository
	logger *zap.Logger
}

func NewCatalogUseCase(repo catalog.Repository, log *zap.Logger) catalog.UseCase {
	return &catalogUseCase{repo: repo, logger: log}
}

func (uc *catalogUseCase) CreateItem(ctx context.Context, ns string, input *dto.CreateItemInput) (*model.Item, error) {
	if existing, err := uc.repo.FindItemBySKU(ctx, ns, input.SKU); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, &apperr.Error{Kind: apperr.Conflict, Entity: "item", Field: "sku", Msg: "sku already exists"}
	}
	if input.Barcode != "" {
		if existing, err := uc.repo.FindItemByBarcode(ctx, ns, input.Barcode); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, &apperr.Error{Kind: apperr.Conflict, Entity: "item", Field: "barcode", Msg: "barcode already exists"}
		}
	}

	if input.CategoryID != "" {
		cat, err := uc.repo.FindCategoryByID(ctx, ns, input.CategoryID)
		if err != nil {
			return nil, err
		}
		if cat == nil {
			return nil, apperr.E(apperr.NotFound, "category", input.CategoryID, "")
		}
	}

	now := time.Now()
	item := &model.Item{
		BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:          input.Name,
		Slug:          tenant.Slugify(input.Name),
		SKU:           input.SKU,
		UnitOfMeasure: input.UnitOfMeasure,
		CostPrice:     input.CostPrice,
		SellingPrice:  input.SellingPrice,
		TaxRate:       input.TaxRate,
		IsPerishable:  input.IsPerishable,
		ShelfLifeDays: input.ShelfLifeDays,
		StorageInfo:   input.StorageInfo,
		AllergenInfo:  input.AllergenInfo,
		SupplierInfo:  input.SupplierInfo,
		IsActive:      true,
	}
	if input.CategoryID != "" {
		item.CategoryID = &input.CategoryID
	}
	if input.Barcode != "" {
		barcode := input.Barcode
		item.Barcode = &barcode
	}
	if input.Description != "" {
		desc := input.Description
		item.Description = &desc
	}

	if err := uc.repo.CreateItem(ctx, ns, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (uc *catalogUseCase) UpdateItem(ctx context.Context, ns string, input *dto.UpdateItemInput) (*model.Item, error) {
	item, err := uc.repo.FindItemByID(ctx, ns, input.ID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.E(apperr.NotFound, "item", input.ID, "")
	}

	if input.CategoryID != nil {
		item.CategoryID = input.CategoryID
	}
	if input.Name != nil {
		item.Name = *input.Name
		item.Slug = tenant.Slugify(*input.Name)
	}
	if input.Description != nil {
		item.Description = input.Description
	}
	if input.CostPrice != nil {
		item.CostPrice = *input.CostPrice
	}
	if input.SellingPrice != nil {
		item.SellingPrice = *input.SellingPrice
	}
	if input.TaxRate != nil {
		item.TaxRate = *input.TaxRate
	}
	if input.IsPerishable != nil {
		item.IsPerishable = *input.IsPerishable
	}
	if input.ShelfLifeDays != nil {
		item.ShelfLifeDays = *input.ShelfLifeDays
	}
	if input.IsActive != nil {
		item.IsActive = *input.IsActive
	}
	item.UpdatedAt = time.Now()

	if err := uc.repo.UpdateItem(ctx, ns, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (uc *catalogUseCase) GetItem(ctx context.Context, ns, id string) (*model.Item, error) {
	item, err := uc.repo.FindItemByID(ctx, ns, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.E(apperr.NotFound, "item", id, "")
	}
	return item, nil
}

func (uc *catalogUseCase) ListItems(ctx context.Context, ns string, f *dto.ItemFilters) ([]model.Item, int, error) {
	return uc.repo.FindAllItems(ctx, ns, f)
}

func (uc *catalogUseCase) ListCategories(ctx context.Context, ns string) ([]model.Category, error) {
	return uc.repo.FindAllCategories(ctx, ns)
}

func (uc *catalogUseCase) ListExpiringSoon(ctx context.Context, ns string, withinDays int) ([]model.Item, error) {
	active := true
	perishable := true
	items, _, err := uc.repo.FindAllItems(ctx, ns, &dto.ItemFilters{IsActive: &active, Perishable: &perishable})
	if err != nil {
		return nil, err
	}

	var expiring []model.Item
	for _, item := range items {
		if item.IsExpiringSoon(withinDays) {
			expiring = append(expiring, item)
		}
	}
	return expiring, nil
}
