package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storelinkhq/storelink-backend/pkg/enums"
)

// Sale is an immutable record of one committed cart line. TotalAmount is
// priced from the live product row at commit time.
type Sale struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID           uuid.UUID        `gorm:"column:store_id;type:uuid;not null;index"`
	ProductID         uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	CustomerName      string           `gorm:"column:customer_name;not null"`
	CustomerEmail     *string          `gorm:"column:customer_email"`
	Quantity          int              `gorm:"column:quantity;not null"`
	UnitPrice         decimal.Decimal  `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalAmount       decimal.Decimal  `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status            enums.SaleStatus `gorm:"column:status;not null;default:'pending'"`
	LeadID            *uuid.UUID       `gorm:"column:lead_id;type:uuid"`
	CheckoutAttemptID *uuid.UUID       `gorm:"column:checkout_attempt_id;type:uuid;index"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
