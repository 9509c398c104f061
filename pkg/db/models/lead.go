package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lead is a CRM contact scoped to one store. Matching at checkout is an
// OR across email and phone; there is deliberately no uniqueness
// constraint on either column.
type Lead struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID         uuid.UUID       `gorm:"column:store_id;type:uuid;not null;index"`
	Name            string          `gorm:"column:name;not null"`
	Email           *string         `gorm:"column:email"`
	Phone           *string         `gorm:"column:phone"`
	WhatsApp        *string         `gorm:"column:whatsapp"`
	Source          *string         `gorm:"column:source"`
	Stage           string          `gorm:"column:stage;not null;default:'unidentified'"`
	Notes           *string         `gorm:"column:notes"`
	TotalPurchases  decimal.Decimal `gorm:"column:total_purchases;type:numeric(14,2);not null;default:0"`
	LastContactedAt *time.Time      `gorm:"column:last_contacted_at"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName maps the model onto the crm_leads table.
func (Lead) TableName() string { return "crm_leads" }
