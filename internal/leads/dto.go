package leads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storelinkhq/storelink-backend/pkg/db/models"
)

// LeadDTO exposes a CRM contact in API responses.
type LeadDTO struct {
	ID              uuid.UUID       `json:"id"`
	StoreID         uuid.UUID       `json:"store_id"`
	Name            string          `json:"name"`
	Email           *string         `json:"email,omitempty"`
	Phone           *string         `json:"phone,omitempty"`
	WhatsApp        *string         `json:"whatsapp,omitempty"`
	Source          *string         `json:"source,omitempty"`
	Stage           string          `json:"stage"`
	Notes           *string         `json:"notes,omitempty"`
	TotalPurchases  decimal.Decimal `json:"total_purchases"`
	LastContactedAt *time.Time      `json:"last_contacted_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// StageDTO exposes one funnel stage for the CRM board.
type StageDTO struct {
	ID         uuid.UUID `json:"id"`
	StoreID    uuid.UUID `json:"store_id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"`
	OrderIndex int       `json:"order_index"`
	IsDefault  bool      `json:"is_default"`
}

// FromModel maps the persisted lead into a DTO.
func FromModel(m *models.Lead) *LeadDTO {
	if m == nil {
		return nil
	}
	return &LeadDTO{
		ID:              m.ID,
		StoreID:         m.StoreID,
		Name:            m.Name,
		Email:           m.Email,
		Phone:           m.Phone,
		WhatsApp:        m.WhatsApp,
		Source:          m.Source,
		Stage:           m.Stage,
		Notes:           m.Notes,
		TotalPurchases:  m.TotalPurchases,
		LastContactedAt: m.LastContactedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// StageFromModel maps the persisted funnel stage into a DTO.
func StageFromModel(m *models.FunnelStage) *StageDTO {
	if m == nil {
		return nil
	}
	return &StageDTO{
		ID:         m.ID,
		StoreID:    m.StoreID,
		Name:       m.Name,
		Color:      m.Color,
		OrderIndex: m.OrderIndex,
		IsDefault:  m.IsDefault,
	}
}
