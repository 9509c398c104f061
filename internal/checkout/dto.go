package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storelinkhq/storelink-backend/internal/sales"
	"github.com/storelinkhq/storelink-backend/pkg/db/models"
)

// CartLine is one client-held cart entry. Everything in it is
// untrusted: the product is re-resolved and re-priced against the live
// row at commit time, so Name and Price are display hints only.
type CartLine struct {
	ProductID uuid.UUID       `json:"id" validate:"required"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
}

// CustomerInfo is the shopper's contact form.
type CustomerInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// SubmitInput is one checkout submission.
type SubmitInput struct {
	IdempotencyKey string       `json:"idempotency_key"`
	Lines          []CartLine   `json:"cart"`
	Customer       CustomerInfo `json:"customer"`
}

// OrderIntent is the validated submission plus the resolved store,
// ready for the committer. Cart lines pass through unchanged.
type OrderIntent struct {
	Store    *models.Store
	Lines    []CartLine
	Customer CustomerInfo
}

// SubmitResult is the outcome of a committed checkout.
type SubmitResult struct {
	AttemptID    uuid.UUID       `json:"attempt_id"`
	Sales        []sales.SaleDTO `json:"sales"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	LeadID       *uuid.UUID      `json:"lead_id,omitempty"`
	Message      string          `json:"message"`
	WhatsAppLink string          `json:"whatsapp_link"`
	Replayed     bool            `json:"replayed"`
}
