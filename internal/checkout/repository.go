package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinkhq/storelink-backend/pkg/db/models"
)

// AttemptRepository persists checkout attempts. The unique
// (store_id, idempotency_key) index is what makes retries safe: a
// second insert for the same key fails inside the retry's transaction,
// which then rolls back without touching stock.
type AttemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository binds a GORM DB to checkout attempt operations.
func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// CreateWithTx inserts the attempt row inside the caller's transaction.
func (r *AttemptRepository) CreateWithTx(tx *gorm.DB, attempt *models.CheckoutAttempt) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(attempt).Error
}

// FindByStoreAndKey loads the attempt pinned to the idempotency key.
func (r *AttemptRepository) FindByStoreAndKey(ctx context.Context, storeID uuid.UUID, key string) (*models.CheckoutAttempt, error) {
	var attempt models.CheckoutAttempt
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND idempotency_key = ?", storeID, key).
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}
