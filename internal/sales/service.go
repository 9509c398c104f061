package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storelinkhq/storelink-backend/internal/checkout/reservation"
	"github.com/storelinkhq/storelink-backend/pkg/db/models"
	"github.com/storelinkhq/storelink-backend/pkg/enums"
	pkgerrors "github.com/storelinkhq/storelink-backend/pkg/errors"
	"github.com/storelinkhq/storelink-backend/pkg/logger"
	"github.com/storelinkhq/storelink-backend/pkg/pagination"
)

type salesRepository interface {
	WithTx(tx *gorm.DB) *Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, status string, params pagination.Params) ([]models.Sale, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type storeAccess interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.StockRequest) ([]reservation.StockReservation, error)
}

type leadTotals interface {
	AddPurchaseTotal(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}

type reservationEngine struct{}

func (reservationEngine) Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.StockRequest) ([]reservation.StockReservation, error) {
	return reservation.ReserveStock(ctx, tx, requests)
}

// Service exposes owner-facing sale operations. Manual sale logging
// rides the same conditional stock decrement as checkout, so an owner
// cannot log a sale past the stock floor either.
type Service interface {
	List(ctx context.Context, ownerID, storeID uuid.UUID, status string, params pagination.Params) ([]SaleDTO, string, error)
	Get(ctx context.Context, ownerID, saleID uuid.UUID) (*SaleDTO, error)
	LogManualSale(ctx context.Context, ownerID, storeID uuid.UUID, input LogSaleInput) (*SaleDTO, error)
	MarkCompleted(ctx context.Context, ownerID, saleID uuid.UUID) (*SaleDTO, error)
}

type service struct {
	repo    salesRepository
	stores  storeAccess
	tx      txRunner
	reserve stockReserver
	leads   leadTotals
	log     *logger.Logger
}

// NewService builds a sales service with the provided dependencies.
func NewService(repo salesRepository, stores storeAccess, tx txRunner, reserve stockReserver, leads leadTotals, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if reserve == nil {
		reserve = reservationEngine{}
	}
	if leads == nil {
		return nil, fmt.Errorf("lead repository required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, stores: stores, tx: tx, reserve: reserve, leads: leads, log: log}, nil
}

// LogSaleInput captures a manually recorded sale.
type LogSaleInput struct {
	ProductID     uuid.UUID
	Quantity      int
	CustomerName  string
	CustomerEmail *string
	LeadID        *uuid.UUID
}

func (s *service) List(ctx context.Context, ownerID, storeID uuid.UUID, status string, params pagination.Params) ([]SaleDTO, string, error) {
	if err := s.requireOwnedStore(ctx, ownerID, storeID); err != nil {
		return nil, "", err
	}
	if status != "" && !enums.SaleStatus(status).IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown sale status %q", status))
	}

	records, err := s.repo.ListByStore(ctx, storeID, status, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	nextCursor := ""
	if len(records) > limit {
		records = records[:limit]
		last := records[len(records)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	dtos := make([]SaleDTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, *FromModel(&records[i]))
	}
	return dtos, nextCursor, nil
}

func (s *service) Get(ctx context.Context, ownerID, saleID uuid.UUID) (*SaleDTO, error) {
	sale, err := s.loadOwned(ctx, ownerID, saleID)
	if err != nil {
		return nil, err
	}
	return FromModel(sale), nil
}

// LogManualSale decrements stock and records a completed sale in one
// transaction. The stock floor applies exactly as at checkout.
func (s *service) LogManualSale(ctx context.Context, ownerID, storeID uuid.UUID, input LogSaleInput) (*SaleDTO, error) {
	if err := s.requireOwnedStore(ctx, ownerID, storeID); err != nil {
		return nil, err
	}

	customerName := strings.TrimSpace(input.CustomerName)
	if customerName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var sale models.Sale
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		reservations, err := s.reserve.Reserve(ctx, tx, []reservation.StockRequest{
			{ProductID: input.ProductID, Qty: input.Quantity},
		})
		if err != nil {
			return err
		}
		line := reservations[0]

		var product models.Product
		if err := tx.First(&product, "id = ?", line.ProductID).Error; err != nil {
			return err
		}
		if product.StoreID != storeID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		sale = models.Sale{
			ID:            uuid.New(),
			StoreID:       storeID,
			ProductID:     line.ProductID,
			CustomerName:  customerName,
			CustomerEmail: input.CustomerEmail,
			Quantity:      line.Qty,
			UnitPrice:     line.UnitPrice,
			TotalAmount:   line.LineTotal,
			Status:        enums.SaleStatusCompleted,
			LeadID:        input.LeadID,
		}
		return s.repo.WithTx(tx).CreateBatch(ctx, []models.Sale{sale})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "log sale")
	}

	if input.LeadID != nil {
		if err := s.leads.AddPurchaseTotal(ctx, *input.LeadID, sale.TotalAmount); err != nil {
			s.log.Error(ctx, "lead purchase total update failed", err)
		}
	}

	return FromModel(&sale), nil
}

func (s *service) MarkCompleted(ctx context.Context, ownerID, saleID uuid.UUID) (*SaleDTO, error) {
	sale, err := s.loadOwned(ctx, ownerID, saleID)
	if err != nil {
		return nil, err
	}
	if sale.Status == enums.SaleStatusCompleted {
		return FromModel(sale), nil
	}

	if err := s.repo.UpdateStatus(ctx, sale.ID, string(enums.SaleStatusCompleted)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sale status")
	}
	sale.Status = enums.SaleStatusCompleted
	return FromModel(sale), nil
}

func (s *service) loadOwned(ctx context.Context, ownerID, saleID uuid.UUID) (*models.Sale, error) {
	sale, err := s.repo.FindByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	if err := s.requireOwnedStore(ctx, ownerID, sale.StoreID); err != nil {
		return nil, err
	}
	return sale, nil
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
