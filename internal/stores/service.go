package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinkhq/storelink-backend/pkg/db"
	"github.com/storelinkhq/storelink-backend/pkg/db/models"
	pkgerrors "github.com/storelinkhq/storelink-backend/pkg/errors"
)

type storeRepository interface {
	CreateWithTx(tx *gorm.DB, store *models.Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindPublishedBySlug(ctx context.Context, slug string) (*models.Store, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Store, error)
	ListPublished(ctx context.Context, category string, limit int) ([]models.Store, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, store *models.Store) error
}

type stageSeeder interface {
	SeedDefaultsWithTx(tx *gorm.DB, storeID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes store operations.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateStoreInput) (*StoreDTO, error)
	GetByID(ctx context.Context, ownerID, storeID uuid.UUID) (*StoreDTO, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*PublicStoreDTO, error)
	ListMine(ctx context.Context, ownerID uuid.UUID) ([]StoreDTO, error)
	ListDirectory(ctx context.Context, category string, limit int) ([]PublicStoreDTO, error)
	Update(ctx context.Context, ownerID, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error)
}

type service struct {
	repo   storeRepository
	stages stageSeeder
	tx     txRunner
}

// NewService builds a store service with the provided dependencies.
func NewService(repo storeRepository, stages stageSeeder, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if stages == nil {
		return nil, fmt.Errorf("stage seeder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, stages: stages, tx: tx}, nil
}

// CreateStoreInput captures the fields accepted when opening a store.
type CreateStoreInput struct {
	Name           string
	Description    *string
	Category       *string
	ThemeColor     *string
	WhatsAppNumber *string
}

// UpdateStoreInput captures the allowed store fields for mutation. Nil
// means leave unchanged.
type UpdateStoreInput struct {
	Name           *string
	Description    *string
	Category       *string
	ThemeColor     *string
	LogoURL        *string
	BannerURL      *string
	WhatsAppNumber *string
	IsPublished    *bool
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreateStoreInput) (*StoreDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}

	slug, err := s.availableSlug(ctx, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug availability")
	}

	store := CreateStoreDTO{
		OwnerID:        ownerID,
		Name:           name,
		Description:    input.Description,
		Category:       input.Category,
		ThemeColor:     input.ThemeColor,
		WhatsAppNumber: input.WhatsAppNumber,
	}.ToModel()
	store.Slug = slug

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateWithTx(tx, store); err != nil {
			return err
		}
		return s.stages.SeedDefaultsWithTx(tx, store.ID)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "store slug already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
	}
	return FromModel(store), nil
}

func (s *service) GetByID(ctx context.Context, ownerID, storeID uuid.UUID) (*StoreDTO, error) {
	store, err := s.loadOwned(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}
	return FromModel(store), nil
}

func (s *service) GetPublishedBySlug(ctx context.Context, slug string) (*PublicStoreDTO, error) {
	store, err := s.repo.FindPublishedBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return PublicFromModel(store), nil
}

func (s *service) ListMine(ctx context.Context, ownerID uuid.UUID) ([]StoreDTO, error) {
	records, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	dtos := make([]StoreDTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, *FromModel(&records[i]))
	}
	return dtos, nil
}

func (s *service) ListDirectory(ctx context.Context, category string, limit int) ([]PublicStoreDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	records, err := s.repo.ListPublished(ctx, strings.ToLower(strings.TrimSpace(category)), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list published stores")
	}
	dtos := make([]PublicStoreDTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, *PublicFromModel(&records[i]))
	}
	return dtos, nil
}

func (s *service) Update(ctx context.Context, ownerID, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error) {
	store, err := s.loadOwned(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name cannot be blank")
		}
		store.Name = name
	}
	if input.Description != nil {
		store.Description = cloneStringPtr(input.Description)
	}
	if input.Category != nil && *input.Category != "" {
		store.Category = *input.Category
	}
	if input.ThemeColor != nil && *input.ThemeColor != "" {
		store.ThemeColor = *input.ThemeColor
	}
	if input.LogoURL != nil {
		store.LogoURL = cloneStringPtr(input.LogoURL)
	}
	if input.BannerURL != nil {
		store.BannerURL = cloneStringPtr(input.BannerURL)
	}
	if input.WhatsAppNumber != nil {
		if *input.WhatsAppNumber == "" {
			store.WhatsAppNumber = nil
		} else {
			store.WhatsAppNumber = cloneStringPtr(input.WhatsAppNumber)
		}
	}
	if input.IsPublished != nil {
		store.IsPublished = *input.IsPublished
	}

	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
	}
	return FromModel(store), nil
}

func (s *service) loadOwned(ctx context.Context, ownerID, storeID uuid.UUID) (*models.Store, error) {
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if store.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store belongs to another owner")
	}
	return store, nil
}

// availableSlug derives a URL slug from the store name, appending a
// short random suffix when the base slug is taken.
func (s *service) availableSlug(ctx context.Context, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "store"
	}
	taken, err := s.repo.SlugExists(ctx, base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8]), nil
}

// Slugify lowercases the name and collapses runs of non-alphanumerics
// into single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	cpy := *value
	return &cpy
}
