package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storelinkhq/storelink-backend/pkg/db/models"
	"github.com/storelinkhq/storelink-backend/pkg/enums"
)

// SaleDTO exposes one committed sale row in API responses.
type SaleDTO struct {
	ID                uuid.UUID        `json:"id"`
	StoreID           uuid.UUID        `json:"store_id"`
	ProductID         uuid.UUID        `json:"product_id"`
	CustomerName      string           `json:"customer_name"`
	CustomerEmail     *string          `json:"customer_email,omitempty"`
	Quantity          int              `json:"quantity"`
	UnitPrice         decimal.Decimal  `json:"unit_price"`
	TotalAmount       decimal.Decimal  `json:"total_amount"`
	Status            enums.SaleStatus `json:"status"`
	LeadID            *uuid.UUID       `json:"lead_id,omitempty"`
	CheckoutAttemptID *uuid.UUID       `json:"checkout_attempt_id,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// FromModel maps the persisted sale into a DTO.
func FromModel(m *models.Sale) *SaleDTO {
	if m == nil {
		return nil
	}
	return &SaleDTO{
		ID:                m.ID,
		StoreID:           m.StoreID,
		ProductID:         m.ProductID,
		CustomerName:      m.CustomerName,
		CustomerEmail:     m.CustomerEmail,
		Quantity:          m.Quantity,
		UnitPrice:         m.UnitPrice,
		TotalAmount:       m.TotalAmount,
		Status:            m.Status,
		LeadID:            m.LeadID,
		CheckoutAttemptID: m.CheckoutAttemptID,
		CreatedAt:         m.CreatedAt,
	}
}
