package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/storelinkhq/storelink-backend/pkg/db/models"
)

// StoreDTO exposes safe tenant data in API responses.
type StoreDTO struct {
	ID             uuid.UUID `json:"id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    *string   `json:"description,omitempty"`
	LogoURL        *string   `json:"logo_url,omitempty"`
	BannerURL      *string   `json:"banner_url,omitempty"`
	ThemeColor     string    `json:"theme_color"`
	Category       string    `json:"category"`
	IsPublished    bool      `json:"is_published"`
	WhatsAppNumber *string   `json:"whatsapp_number,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PublicStoreDTO is the storefront view of a store. It never leaks the
// owner id or the raw WhatsApp number; shoppers only see the number via
// the handoff link after checkout.
type PublicStoreDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	LogoURL     *string   `json:"logo_url,omitempty"`
	BannerURL   *string   `json:"banner_url,omitempty"`
	ThemeColor  string    `json:"theme_color"`
	Category    string    `json:"category"`
}

// CreateStoreDTO holds creation-time data for a new store.
type CreateStoreDTO struct {
	OwnerID        uuid.UUID
	Name           string
	Description    *string
	Category       *string
	ThemeColor     *string
	WhatsAppNumber *string
}

// FromModel maps the persisted store into a DTO.
func FromModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		Name:           m.Name,
		Slug:           m.Slug,
		Description:    m.Description,
		LogoURL:        m.LogoURL,
		BannerURL:      m.BannerURL,
		ThemeColor:     m.ThemeColor,
		Category:       m.Category,
		IsPublished:    m.IsPublished,
		WhatsAppNumber: m.WhatsAppNumber,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// PublicFromModel maps the persisted store into its storefront view.
func PublicFromModel(m *models.Store) *PublicStoreDTO {
	if m == nil {
		return nil
	}
	return &PublicStoreDTO{
		ID:          m.ID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		LogoURL:     m.LogoURL,
		BannerURL:   m.BannerURL,
		ThemeColor:  m.ThemeColor,
		Category:    m.Category,
	}
}

// ToModel prepares the GORM model from creation DTO, supplying defaults.
func (c CreateStoreDTO) ToModel() *models.Store {
	model := &models.Store{
		OwnerID:     c.OwnerID,
		Name:        c.Name,
		Description: c.Description,
		ThemeColor:  "#16a34a",
		Category:    "general",
	}
	if c.Category != nil && *c.Category != "" {
		model.Category = *c.Category
	}
	if c.ThemeColor != nil && *c.ThemeColor != "" {
		model.ThemeColor = *c.ThemeColor
	}
	if c.WhatsAppNumber != nil && *c.WhatsAppNumber != "" {
		cpy := *c.WhatsAppNumber
		model.WhatsAppNumber = &cpy
	}
	return model
}
