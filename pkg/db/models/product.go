package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents a storefront listing. Stock is mutated only by the
// checkout committer (conditional decrement) and by direct owner edits.
type Product struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID       uuid.UUID        `gorm:"column:store_id;type:uuid;not null;index"`
	Name          string           `gorm:"column:name;not null"`
	Description   *string          `gorm:"column:description"`
	Price         decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	CostPrice     *decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2)"`
	ImageURL      *string          `gorm:"column:image_url"`
	ImageURLs     pq.StringArray   `gorm:"column:image_urls;type:text[]"`
	Stock         int              `gorm:"column:stock;not null;default:0"`
	LowStockLevel *int             `gorm:"column:low_stock_level"`
	IsActive      bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
