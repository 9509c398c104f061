package models

import (
	"time"

	"github.com/google/uuid"
)

// Store represents the canonical tenant model: one storefront per owner.
type Store struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID        uuid.UUID `gorm:"column:owner_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;not null"`
	Slug           string    `gorm:"column:slug;not null;uniqueIndex"`
	Description    *string   `gorm:"column:description"`
	LogoURL        *string   `gorm:"column:logo_url"`
	BannerURL      *string   `gorm:"column:banner_url"`
	ThemeColor     string    `gorm:"column:theme_color;not null;default:'#16a34a'"`
	Category       string    `gorm:"column:category;not null;default:'general'"`
	IsPublished    bool      `gorm:"column:is_published;not null;default:false"`
	WhatsAppNumber *string   `gorm:"column:whatsapp_number"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
