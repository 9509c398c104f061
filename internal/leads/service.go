package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinkhq/storelink-backend/pkg/db"
	"github.com/storelinkhq/storelink-backend/pkg/db/models"
	"github.com/storelinkhq/storelink-backend/pkg/enums"
	pkgerrors "github.com/storelinkhq/storelink-backend/pkg/errors"
)

type leadRepository interface {
	Create(ctx context.Context, lead *models.Lead) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, stage string) ([]models.Lead, error)
	Update(ctx context.Context, lead *models.Lead) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type stageRepository interface {
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.FunnelStage, error)
	Create(ctx context.Context, stage *models.FunnelStage) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.FunnelStage, error)
	Update(ctx context.Context, stage *models.FunnelStage) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type storeAccess interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Service exposes owner-facing CRM operations.
type Service interface {
	List(ctx context.Context, ownerID, storeID uuid.UUID, stage string) ([]LeadDTO, error)
	Get(ctx context.Context, ownerID, leadID uuid.UUID) (*LeadDTO, error)
	Create(ctx context.Context, ownerID, storeID uuid.UUID, input CreateLeadInput) (*LeadDTO, error)
	Update(ctx context.Context, ownerID, leadID uuid.UUID, input UpdateLeadInput) (*LeadDTO, error)
	MoveStage(ctx context.Context, ownerID, leadID uuid.UUID, stage string) (*LeadDTO, error)
	Delete(ctx context.Context, ownerID, leadID uuid.UUID) error

	ListStages(ctx context.Context, ownerID, storeID uuid.UUID) ([]StageDTO, error)
	CreateStage(ctx context.Context, ownerID, storeID uuid.UUID, input CreateStageInput) (*StageDTO, error)
	UpdateStage(ctx context.Context, ownerID, stageID uuid.UUID, input UpdateStageInput) (*StageDTO, error)
	DeleteStage(ctx context.Context, ownerID, stageID uuid.UUID) error
}

type service struct {
	repo   leadRepository
	stages stageRepository
	stores storeAccess
}

// NewService builds a CRM service with the provided repositories.
func NewService(repo leadRepository, stages stageRepository, stores storeAccess) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lead repository required")
	}
	if stages == nil {
		return nil, fmt.Errorf("stage repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo, stages: stages, stores: stores}, nil
}

// CreateLeadInput captures manual CRM entry fields.
type CreateLeadInput struct {
	Name     string
	Email    *string
	Phone    *string
	WhatsApp *string
	Stage    *string
	Notes    *string
}

// UpdateLeadInput captures partial lead mutations. Nil means leave
// unchanged.
type UpdateLeadInput struct {
	Name     *string
	Email    *string
	Phone    *string
	WhatsApp *string
	Notes    *string
}

// CreateStageInput captures a custom funnel stage definition.
type CreateStageInput struct {
	Name       string
	Color      *string
	OrderIndex *int
}

// UpdateStageInput captures partial stage mutations. Renaming a stage
// leaves leads referencing the old name where they are; they fall off
// the board until moved.
type UpdateStageInput struct {
	Name       *string
	Color      *string
	OrderIndex *int
}

func (s *service) List(ctx context.Context, ownerID, storeID uuid.UUID, stage string) ([]LeadDTO, error) {
	if err := s.requireOwnedStore(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListByStore(ctx, storeID, stage)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list leads")
	}
	dtos := make([]LeadDTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, *FromModel(&records[i]))
	}
	return dtos, nil
}

func (s *service) Get(ctx context.Context, ownerID, leadID uuid.UUID) (*LeadDTO, error) {
	lead, err := s.loadOwned(ctx, ownerID, leadID)
	if err != nil {
		return nil, err
	}
	return FromModel(lead), nil
}

func (s *service) Create(ctx context.Context, ownerID, storeID uuid.UUID, input CreateLeadInput) (*LeadDTO, error) {
	if err := s.requireOwnedStore(ctx, ownerID, storeID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lead name is required")
	}

	stage := enums.StageAcquired
	if input.Stage != nil && *input.Stage != "" {
		resolved, err := s.resolveStage(ctx, storeID, *input.Stage)
		if err != nil {
			return nil, err
		}
		stage = resolved
	}

	source := string(enums.LeadSourceManual)
	lead := &models.Lead{
		ID:       uuid.New(),
		StoreID:  storeID,
		Name:     name,
		Email:    input.Email,
		Phone:    input.Phone,
		WhatsApp: input.WhatsApp,
		Source:   &source,
		Stage:    stage,
		Notes:    input.Notes,
	}
	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create lead")
	}
	return FromModel(lead), nil
}

func (s *service) Update(ctx context.Context, ownerID, leadID uuid.UUID, input UpdateLeadInput) (*LeadDTO, error) {
	lead, err := s.loadOwned(ctx, ownerID, leadID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "lead name cannot be blank")
		}
		lead.Name = name
	}
	if input.Email != nil {
		lead.Email = emptyToNil(input.Email)
	}
	if input.Phone != nil {
		lead.Phone = emptyToNil(input.Phone)
	}
	if input.WhatsApp != nil {
		lead.WhatsApp = emptyToNil(input.WhatsApp)
	}
	if input.Notes != nil {
		lead.Notes = emptyToNil(input.Notes)
	}

	if err := s.repo.Update(ctx, lead); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update lead")
	}
	return FromModel(lead), nil
}

// MoveStage validates the target stage against the store's configured
// stages, case-insensitively, and stores the configured casing.
func (s *service) MoveStage(ctx context.Context, ownerID, leadID uuid.UUID, stage string) (*LeadDTO, error) {
	lead, err := s.loadOwned(ctx, ownerID, leadID)
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolveStage(ctx, lead.StoreID, stage)
	if err != nil {
		return nil, err
	}

	lead.Stage = resolved
	if err := s.repo.Update(ctx, lead); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "move lead stage")
	}
	return FromModel(lead), nil
}

func (s *service) Delete(ctx context.Context, ownerID, leadID uuid.UUID) error {
	lead, err := s.loadOwned(ctx, ownerID, leadID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, lead.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete lead")
	}
	return nil
}

func (s *service) ListStages(ctx context.Context, ownerID, storeID uuid.UUID) ([]StageDTO, error) {
	if err := s.requireOwnedStore(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	records, err := s.stages.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list funnel stages")
	}
	dtos := make([]StageDTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, *StageFromModel(&records[i]))
	}
	return dtos, nil
}

func (s *service) CreateStage(ctx context.Context, ownerID, storeID uuid.UUID, input CreateStageInput) (*StageDTO, error) {
	if err := s.requireOwnedStore(ctx, ownerID, storeID); err != nil {
		return nil, err
	}

	name := strings.ToLower(strings.TrimSpace(input.Name))
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stage name is required")
	}

	stage := &models.FunnelStage{
		ID:      uuid.New(),
		StoreID: storeID,
		Name:    name,
		Color:   "#6b7280",
	}
	if input.Color != nil && *input.Color != "" {
		stage.Color = *input.Color
	}
	if input.OrderIndex != nil {
		stage.OrderIndex = *input.OrderIndex
	}

	if err := s.stages.Create(ctx, stage); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "stage name already exists for this store")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create funnel stage")
	}
	return StageFromModel(stage), nil
}

func (s *service) UpdateStage(ctx context.Context, ownerID, stageID uuid.UUID, input UpdateStageInput) (*StageDTO, error) {
	stage, err := s.loadOwnedStage(ctx, ownerID, stageID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.ToLower(strings.TrimSpace(*input.Name))
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stage name cannot be blank")
		}
		stage.Name = name
	}
	if input.Color != nil && *input.Color != "" {
		stage.Color = *input.Color
	}
	if input.OrderIndex != nil {
		stage.OrderIndex = *input.OrderIndex
	}

	if err := s.stages.Update(ctx, stage); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "stage name already exists for this store")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update funnel stage")
	}
	return StageFromModel(stage), nil
}

func (s *service) DeleteStage(ctx context.Context, ownerID, stageID uuid.UUID) error {
	stage, err := s.loadOwnedStage(ctx, ownerID, stageID)
	if err != nil {
		return err
	}
	if stage.IsDefault {
		return pkgerrors.New(pkgerrors.CodeConflict, "default stages cannot be deleted")
	}
	if err := s.stages.Delete(ctx, stage.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete funnel stage")
	}
	return nil
}

// resolveStage matches the requested stage name case-insensitively
// against the store's configured stages plus the reserved unidentified
// bucket, returning the configured casing.
func (s *service) resolveStage(ctx context.Context, storeID uuid.UUID, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if strings.EqualFold(requested, enums.StageUnidentified) {
		return enums.StageUnidentified, nil
	}

	stages, err := s.stages.ListByStore(ctx, storeID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list funnel stages")
	}
	for _, stage := range stages {
		if strings.EqualFold(stage.Name, requested) {
			return stage.Name, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown funnel stage %q", requested))
}

func (s *service) loadOwned(ctx context.Context, ownerID, leadID uuid.UUID) (*models.Lead, error) {
	lead, err := s.repo.FindByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lead not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lead")
	}
	if err := s.requireOwnedStore(ctx, ownerID, lead.StoreID); err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *service) loadOwnedStage(ctx context.Context, ownerID, stageID uuid.UUID) (*models.FunnelStage, error) {
	stage, err := s.stages.FindByID(ctx, stageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "funnel stage not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load funnel stage")
	}
	if err := s.requireOwnedStore(ctx, ownerID, stage.StoreID); err != nil {
		return nil, err
	}
	return stage, nil
}

func (s *service) requireOwnedStore(ctx context.Context, ownerID, storeID uuid.UUID) error {
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if store.OwnerID != ownerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "store belongs to another owner")
	}
	return nil
}

func emptyToNil(value *string) *string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	return value
}
