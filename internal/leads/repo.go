package leads

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storelinkhq/storelink-backend/pkg/db/models"
)

// Repository handles CRM lead persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to lead operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new lead row.
func (r *Repository) Create(ctx context.Context, lead *models.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

// FindByID loads a lead by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	if err := r.db.WithContext(ctx).First(&lead, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

// FindMatch returns the earliest-created lead for the store whose email
// or phone equals the supplied value. Either argument may be empty; an
// empty value never matches.
func (r *Repository) FindMatch(ctx context.Context, storeID uuid.UUID, email, phone string) (*models.Lead, error) {
	if email == "" && phone == "" {
		return nil, gorm.ErrRecordNotFound
	}

	query := r.db.WithContext(ctx).Where("store_id = ?", storeID)
	switch {
	case email != "" && phone != "":
		query = query.Where("email = ? OR phone = ?", email, phone)
	case email != "":
		query = query.Where("email = ?", email)
	default:
		query = query.Where("phone = ?", phone)
	}

	var lead models.Lead
	if err := query.Order("created_at ASC").First(&lead).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

// ListByStore returns all leads for the store, newest first, optionally
// filtered by stage.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID, stage string) ([]models.Lead, error) {
	query := r.db.WithContext(ctx).Where("store_id = ?", storeID)
	if stage != "" {
		query = query.Where("LOWER(stage) = LOWER(?)", stage)
	}
	var records []models.Lead
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Update saves the provided lead.
func (r *Repository) Update(ctx context.Context, lead *models.Lead) error {
	if lead == nil {
		return fmt.Errorf("lead is required")
	}
	return r.db.WithContext(ctx).Save(lead).Error
}

// Delete removes the lead row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Lead{}, "id = ?", id).Error
}

// AddPurchaseTotal atomically increments the lead's running purchase
// total. Runs outside the checkout transaction, so it must not rely on
// a previously read value.
func (r *Repository) AddPurchaseTotal(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("id = ?", id).
		UpdateColumn("total_purchases", gorm.Expr("total_purchases + ?", amount)).Error
}
