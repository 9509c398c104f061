package checkout

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/storelinkhq/storelink-backend/pkg/db/models"
	pkgerrors "github.com/storelinkhq/storelink-backend/pkg/errors"
)

var (
	// A country-code or leading-zero prefix followed by exactly ten
	// digits, after punctuation is stripped.
	phonePattern = regexp.MustCompile(`^(\+234|0)[0-9]{10}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneNoise   = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// ResolveOrder validates the submission against the resolved store and
// returns the order intent. It performs no writes; every failure here
// leaves zero side effects.
//
// The empty-cart check is terminal: it runs before the store's contact
// channel is inspected, so an empty cart never surfaces a store
// misconfiguration.
func ResolveOrder(store *models.Store, maxLines int, input SubmitInput) (*OrderIntent, error) {
	customer := CustomerInfo{
		FullName: strings.TrimSpace(input.Customer.FullName),
		Email:    strings.TrimSpace(input.Customer.Email),
		Phone:    normalizePhone(input.Customer.Phone),
		Address:  strings.TrimSpace(input.Customer.Address),
	}

	if customer.FullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	if customer.Phone == "" || !phonePattern.MatchString(customer.Phone) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid_phone").
			WithDetails(map[string]any{"field": "phone"})
	}
	if customer.Email != "" && !emailPattern.MatchString(customer.Email) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid_email").
			WithDetails(map[string]any{"field": "email"})
	}
	if customer.Address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}

	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty_cart")
	}
	if maxLines > 0 && len(input.Lines) > maxLines {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many cart lines").
			WithDetails(map[string]any{"max_lines": maxLines})
	}
	for _, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line missing product id")
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line quantity must be positive")
		}
	}

	if store.WhatsAppNumber == nil || strings.TrimSpace(*store.WhatsAppNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "missing_contact_channel")
	}

	return &OrderIntent{
		Store:    store,
		Lines:    input.Lines,
		Customer: customer,
	}, nil
}

func normalizePhone(value string) string {
	return phoneNoise.Replace(strings.TrimSpace(value))
}
