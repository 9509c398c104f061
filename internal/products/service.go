package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storelinkhq/storelink-backend/pkg/db/models"
	pkgerrors "github.com/storelinkhq/storelink-backend/pkg/errors"
	"github.com/storelinkhq/storelink-backend/pkg/pagination"
)

type productRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Product, error)
	ListActiveByStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type storeAccess interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Service exposes product operations.
type Service interface {
	Create(ctx context.Context, ownerID, storeID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	Get(ctx context.Context, ownerID, productID uuid.UUID) (*ProductDTO, error)
	ListByStore(ctx context.Context, ownerID, storeID uuid.UUID) ([]ProductDTO, error)
	ListStorefront(ctx context.Context, storeID uuid.UUID, params pagination.Params) ([]PublicProductDTO, string, error)
	Update(ctx context.Context, ownerID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, ownerID, productID uuid.UUID) error
}

type service struct {
	repo   productRepository
	stores storeAccess
}

// NewService builds a product service with the provided repositories.
func NewService(repo productRepository, stores storeAccess) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo, stores: stores}, nil
}

// CreateProductInput captures creation-time product fields.
type CreateProductInput struct {
	Name          string
	Description   *string
	Price         decimal.Decimal
	CostPrice     *decimal.Decimal
	ImageURL      *string
	ImageURLs     []string
	Stock         int
	LowStockLevel *int
	IsActive      *bool
}

// UpdateProductInput captures partial product mutations. Nil means
// leave unchanged.
type UpdateProductInput struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	CostPrice     *decimal.Decimal
	ImageURL      *string
	ImageURLs     *[]string
	Stock         *int
	LowStockLevel *int
	IsActive      *bool
}

func (s *service) Create(ctx context.Context, ownerID, storeID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if err := s.requireOwnedStore(ctx, ownerID, storeID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	product := &models.Product{
		StoreID:       storeID,
		Name:          name,
		Description:   input.Description,
		Price:         input.Price,
		CostPrice:     input.CostPrice,
		ImageURL:      input.ImageURL,
		ImageURLs:     pq.StringArray(input.ImageURLs),
		Stock:         input.Stock,
		LowStockLevel: input.LowStockLevel,
		IsActive:      true,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return NewProductDTO(product), nil
}

func (s *service) Get(ctx context.Context, ownerID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadOwned(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) ListByStore(ctx context.Context, ownerID, storeID uuid.UUID) ([]ProductDTO, error) {
	if err := s.requireOwnedStore(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	dtos := make([]ProductDTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, *NewProductDTO(&records[i]))
	}
	return dtos, nil
}

// ListStorefront returns a page of active products plus the cursor for
// the next page, empty when this is the last page.
func (s *service) ListStorefront(ctx context.Context, storeID uuid.UUID, params pagination.Params) ([]PublicProductDTO, string, error) {
	records, err := s.repo.ListActiveByStore(ctx, storeID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list storefront products")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	nextCursor := ""
	if len(records) > limit {
		records = records[:limit]
		last := records[len(records)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	dtos := make([]PublicProductDTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, *NewPublicProductDTO(&records[i]))
	}
	return dtos, nextCursor, nil
}

func (s *service) Update(ctx context.Context, ownerID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.loadOwned(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be blank")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		product.Price = *input.Price
	}
	if input.CostPrice != nil {
		product.CostPrice = input.CostPrice
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.ImageURLs != nil {
		product.ImageURLs = pq.StringArray(*input.ImageURLs)
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.LowStockLevel != nil {
		product.LowStockLevel = input.LowStockLevel
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return NewProductDTO(product), nil
}

func (s *service) Delete(ctx context.Context, ownerID, productID uuid.UUID) error {
	product, err := s.loadOwned(ctx, ownerID, productID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, product.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) loadOwned(ctx context.Context, ownerID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := s.requireOwnedStore(ctx, ownerID, product.StoreID); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) requireOwnedStore(ctx context.Context, ownerID, storeID uuid.UUID) error {
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if store.OwnerID != ownerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "store belongs to another owner")
	}
	return nil
}
