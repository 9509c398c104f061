package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinkhq/storelink-backend/pkg/db/models"
	"github.com/storelinkhq/storelink-backend/pkg/enums"
	"github.com/storelinkhq/storelink-backend/pkg/logger"
)

type matcherRepository interface {
	FindMatch(ctx context.Context, storeID uuid.UUID, email, phone string) (*models.Lead, error)
	Create(ctx context.Context, lead *models.Lead) error
	Update(ctx context.Context, lead *models.Lead) error
}

// ContactDetails carries the customer fields a checkout supplies for
// CRM matching.
type ContactDetails struct {
	Name     string
	Email    string
	Phone    string
	WhatsApp string
	Address  string
}

// Matcher finds-or-creates the CRM lead for a checkout customer.
//
// Matching is an OR across email and phone: a match on either field
// counts. Two customers sharing a phone number will merge under the
// earlier-created lead; tightening this requires an explicit identity
// confirmation step the storefront does not have, so the loose match
// stands.
type Matcher struct {
	repo matcherRepository
	log  *logger.Logger
}

// NewMatcher builds a lead matcher with the provided repository.
func NewMatcher(repo matcherRepository, log *logger.Logger) (*Matcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("lead repository required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Matcher{repo: repo, log: log}, nil
}

// MatchOrCreate resolves the lead for the supplied contact details and
// returns its ID, or nil when no contact channel was supplied.
//
// Lookup and write failures are logged and swallowed: an order must
// still commit without a lead reference. Commerce success takes
// priority over CRM completeness.
func (m *Matcher) MatchOrCreate(ctx context.Context, storeID uuid.UUID, contact ContactDetails) *uuid.UUID {
	if contact.Email == "" && contact.Phone == "" {
		return nil
	}

	lead, err := m.repo.FindMatch(ctx, storeID, contact.Email, contact.Phone)
	switch {
	case err == nil:
		return m.mergeExisting(ctx, lead, contact)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return m.createNew(ctx, storeID, contact)
	default:
		m.log.Error(ctx, "lead lookup failed, continuing without lead", err)
		return nil
	}
}

// mergeExisting overwrites the name, fills only blank contact fields
// and stamps the contact time. Stage is never touched here.
func (m *Matcher) mergeExisting(ctx context.Context, lead *models.Lead, contact ContactDetails) *uuid.UUID {
	if contact.Name != "" {
		lead.Name = contact.Name
	}
	fillBlank(&lead.Email, contact.Email)
	fillBlank(&lead.Phone, contact.Phone)
	fillBlank(&lead.WhatsApp, contact.WhatsApp)
	now := time.Now().UTC()
	lead.LastContactedAt = &now

	if err := m.repo.Update(ctx, lead); err != nil {
		m.log.Error(ctx, "lead update failed, continuing without lead", err)
		return nil
	}
	id := lead.ID
	return &id
}

func (m *Matcher) createNew(ctx context.Context, storeID uuid.UUID, contact ContactDetails) *uuid.UUID {
	source := string(enums.LeadSourceCheckout)
	now := time.Now().UTC()
	lead := &models.Lead{
		ID:              uuid.New(),
		StoreID:         storeID,
		Name:            contact.Name,
		Email:           nilIfEmpty(contact.Email),
		Phone:           nilIfEmpty(contact.Phone),
		WhatsApp:        nilIfEmpty(contact.WhatsApp),
		Source:          &source,
		Stage:           enums.StageUnidentified,
		Notes:           nilIfEmpty(contact.Address),
		LastContactedAt: &now,
	}
	if err := m.repo.Create(ctx, lead); err != nil {
		m.log.Error(ctx, "lead create failed, continuing without lead", err)
		return nil
	}
	id := lead.ID
	return &id
}

func fillBlank(field **string, value string) {
	if value == "" {
		return
	}
	if *field != nil && **field != "" {
		return
	}
	cpy := value
	*field = &cpy
}

func nilIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	cpy := value
	return &cpy
}
