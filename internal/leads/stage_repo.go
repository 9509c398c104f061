package leads

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinkhq/storelink-backend/pkg/db/models"
	"github.com/storelinkhq/storelink-backend/pkg/enums"
)

// StageRepository handles funnel stage persistence.
type StageRepository struct {
	db *gorm.DB
}

// NewStageRepository binds a GORM DB to funnel stage operations.
func NewStageRepository(db *gorm.DB) *StageRepository {
	return &StageRepository{db: db}
}

// SeedDefaultsWithTx inserts the default funnel stages for a freshly
// created store inside the caller's transaction.
func (r *StageRepository) SeedDefaultsWithTx(tx *gorm.DB, storeID uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	defaults := enums.DefaultFunnelStages()
	stages := make([]models.FunnelStage, 0, len(defaults))
	for i, stage := range defaults {
		stages = append(stages, models.FunnelStage{
			ID:         uuid.New(),
			StoreID:    storeID,
			Name:       stage.Name,
			Color:      stage.Color,
			OrderIndex: i,
			IsDefault:  true,
		})
	}
	return tx.Create(&stages).Error
}

// ListByStore returns the store's stages in board order.
func (r *StageRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.FunnelStage, error) {
	var stages []models.FunnelStage
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("order_index ASC, created_at ASC").
		Find(&stages).Error; err != nil {
		return nil, err
	}
	return stages, nil
}

// Create persists a custom funnel stage.
func (r *StageRepository) Create(ctx context.Context, stage *models.FunnelStage) error {
	return r.db.WithContext(ctx).Create(stage).Error
}

// FindByID loads a funnel stage by its UUID.
func (r *StageRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.FunnelStage, error) {
	var stage models.FunnelStage
	if err := r.db.WithContext(ctx).First(&stage, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &stage, nil
}

// Update saves the provided funnel stage.
func (r *StageRepository) Update(ctx context.Context, stage *models.FunnelStage) error {
	return r.db.WithContext(ctx).Save(stage).Error
}

// Delete removes the funnel stage row.
func (r *StageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.FunnelStage{}, "id = ?", id).Error
}
