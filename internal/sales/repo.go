package sales

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinkhq/storelink-backend/pkg/db/models"
	"github.com/storelinkhq/storelink-backend/pkg/pagination"
)

// Repository handles sale persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to sale operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateBatch inserts all sale rows in one statement.
func (r *Repository) CreateBatch(ctx context.Context, sales []models.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&sales).Error
}

// FindByID loads a sale by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	if err := r.db.WithContext(ctx).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// FindByCheckoutAttempt returns the sale rows created by one attempt,
// in creation order.
func (r *Repository) FindByCheckoutAttempt(ctx context.Context, attemptID uuid.UUID) ([]models.Sale, error) {
	var sales []models.Sale
	if err := r.db.WithContext(ctx).
		Where("checkout_attempt_id = ?", attemptID).
		Order("created_at ASC, id ASC").
		Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// ListByStore returns a cursor page of sales for the store, newest
// first, optionally filtered by status.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID, status string, params pagination.Params) ([]models.Sale, error) {
	query := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if status != "" {
		query = query.Where("status = ?", status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var sales []models.Sale
	if err := query.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// UpdateStatus advances the sale's status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}
