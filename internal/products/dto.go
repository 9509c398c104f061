package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storelinkhq/storelink-backend/pkg/db/models"
)

// ProductDTO represents the owner product payload returned to clients.
type ProductDTO struct {
	ID            uuid.UUID        `json:"id"`
	StoreID       uuid.UUID        `json:"store_id"`
	Name          string           `json:"name"`
	Description   *string          `json:"description,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	CostPrice     *decimal.Decimal `json:"cost_price,omitempty"`
	ImageURL      *string          `json:"image_url,omitempty"`
	ImageURLs     []string         `json:"image_urls,omitempty"`
	Stock         int              `json:"stock"`
	LowStockLevel *int             `json:"low_stock_level,omitempty"`
	IsActive      bool             `json:"is_active"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// PublicProductDTO is the storefront view: no cost price, no stock
// counts beyond an in-stock flag.
type PublicProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"image_url,omitempty"`
	ImageURLs   []string        `json:"image_urls,omitempty"`
	InStock     bool            `json:"in_stock"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(m *models.Product) *ProductDTO {
	if m == nil {
		return nil
	}
	return &ProductDTO{
		ID:            m.ID,
		StoreID:       m.StoreID,
		Name:          m.Name,
		Description:   m.Description,
		Price:         m.Price,
		CostPrice:     m.CostPrice,
		ImageURL:      m.ImageURL,
		ImageURLs:     append([]string{}, m.ImageURLs...),
		Stock:         m.Stock,
		LowStockLevel: m.LowStockLevel,
		IsActive:      m.IsActive,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// NewPublicProductDTO builds the storefront view of the product.
func NewPublicProductDTO(m *models.Product) *PublicProductDTO {
	if m == nil {
		return nil
	}
	return &PublicProductDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		ImageURL:    m.ImageURL,
		ImageURLs:   append([]string{}, m.ImageURLs...),
		InStock:     m.Stock > 0,
	}
}
