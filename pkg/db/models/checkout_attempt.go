package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutAttempt pins one client checkout submission to a unique
// idempotency key per store. Sales created by the attempt carry its ID,
// so a retried submission replays the original result instead of
// decrementing stock again.
type CheckoutAttempt struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID         uuid.UUID       `gorm:"column:store_id;type:uuid;not null;index:idx_checkout_attempts_store_key,unique"`
	IdempotencyKey  string          `gorm:"column:idempotency_key;not null;index:idx_checkout_attempts_store_key,unique"`
	CustomerName    string          `gorm:"column:customer_name;not null"`
	CustomerPhone   string          `gorm:"column:customer_phone;not null"`
	CustomerAddress string          `gorm:"column:customer_address;not null"`
	LeadID          *uuid.UUID      `gorm:"column:lead_id;type:uuid"`
	TotalAmount     decimal.Decimal `gorm:"column:total_amount;type:numeric(14,2);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}
