package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storelinkhq/storelink-backend/internal/checkout/reservation"
	"github.com/storelinkhq/storelink-backend/internal/leads"
	salespkg "github.com/storelinkhq/storelink-backend/internal/sales"
	"github.com/storelinkhq/storelink-backend/pkg/config"
	"github.com/storelinkhq/storelink-backend/pkg/db"
	"github.com/storelinkhq/storelink-backend/pkg/db/models"
	"github.com/storelinkhq/storelink-backend/pkg/enums"
	pkgerrors "github.com/storelinkhq/storelink-backend/pkg/errors"
	"github.com/storelinkhq/storelink-backend/pkg/logger"
	"github.com/storelinkhq/storelink-backend/pkg/metrics"
	"github.com/storelinkhq/storelink-backend/pkg/whatsapp"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type storeLookup interface {
	FindPublishedBySlug(ctx context.Context, slug string) (*models.Store, error)
}

type attemptStore interface {
	CreateWithTx(tx *gorm.DB, attempt *models.CheckoutAttempt) error
	FindByStoreAndKey(ctx context.Context, storeID uuid.UUID, key string) (*models.CheckoutAttempt, error)
}

type saleStore interface {
	WithTx(tx *gorm.DB) *salespkg.Repository
	FindByCheckoutAttempt(ctx context.Context, attemptID uuid.UUID) ([]models.Sale, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type leadMatcher interface {
	MatchOrCreate(ctx context.Context, storeID uuid.UUID, contact leads.ContactDetails) *uuid.UUID
}

type leadTotals interface {
	AddPurchaseTotal(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}

type reservationRunner interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.StockRequest) ([]reservation.StockReservation, error)
}

type reservationEngine struct{}

func (reservationEngine) Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.StockRequest) ([]reservation.StockReservation, error) {
	return reservation.ReserveStock(ctx, tx, requests)
}

// Service executes checkout orchestration: resolve, match, commit,
// hand off.
type Service interface {
	Submit(ctx context.Context, slug string, input SubmitInput) (*SubmitResult, error)
}

type service struct {
	tx          txRunner
	stores      storeLookup
	attempts    attemptStore
	sales       saleStore
	products    productLoader
	matcher     leadMatcher
	leads       leadTotals
	reservation reservationRunner
	cfg         config.CheckoutConfig
	metrics     *metrics.CheckoutMetrics
	log         *logger.Logger
}

// NewService builds the checkout service. The metrics recorder may be
// nil.
func NewService(
	tx txRunner,
	stores storeLookup,
	attempts attemptStore,
	sales saleStore,
	products productLoader,
	matcher leadMatcher,
	leadRepo leadTotals,
	reserve reservationRunner,
	cfg config.CheckoutConfig,
	recorder *metrics.CheckoutMetrics,
	log *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if attempts == nil {
		return nil, fmt.Errorf("attempt repository required")
	}
	if sales == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if matcher == nil {
		return nil, fmt.Errorf("lead matcher required")
	}
	if leadRepo == nil {
		return nil, fmt.Errorf("lead repository required")
	}
	if reserve == nil {
		reserve = reservationEngine{}
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:          tx,
		stores:      stores,
		attempts:    attempts,
		sales:       sales,
		products:    products,
		matcher:     matcher,
		leads:       leadRepo,
		reservation: reserve,
		cfg:         cfg,
		metrics:     recorder,
		log:         log,
	}, nil
}

// Submit runs one checkout end to end. Validation happens before any
// write; the stock decrements, the attempt row and the sale rows all
// commit in one transaction, and the CRM side effects stay outside it.
func (s *service) Submit(ctx context.Context, slug string, input SubmitInput) (*SubmitResult, error) {
	started := time.Now()
	result, err := s.submit(ctx, slug, input)
	s.metrics.ObserveOutcome(outcomeLabel(result, err), time.Since(started))
	if err == nil && !result.Replayed {
		s.metrics.AddCommittedLines(len(result.Sales))
	}
	return result, err
}

func (s *service) submit(ctx context.Context, slug string, input SubmitInput) (*SubmitResult, error) {
	store, err := s.stores.FindPublishedBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	ctx = s.log.WithStoreID(ctx, store.ID.String())

	intent, err := ResolveOrder(store, s.cfg.MaxCartLines, input)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	if key == "" {
		// no client key means no replay protection, but the commit
		// itself stays atomic
		key = uuid.NewString()
	}
	ctx = s.log.WithCheckoutKey(ctx, key)

	if replay, err := s.replayExisting(ctx, store, key); err != nil {
		return nil, err
	} else if replay != nil {
		return replay, nil
	}

	leadID := s.matcher.MatchOrCreate(ctx, store.ID, leads.ContactDetails{
		Name:     intent.Customer.FullName,
		Email:    intent.Customer.Email,
		Phone:    intent.Customer.Phone,
		WhatsApp: intent.Customer.Phone,
		Address:  intent.Customer.Address,
	})
	if leadID != nil {
		ctx = s.log.WithLeadID(ctx, leadID.String())
	}

	attempt := &models.CheckoutAttempt{
		ID:              uuid.New(),
		StoreID:         store.ID,
		IdempotencyKey:  key,
		CustomerName:    intent.Customer.FullName,
		CustomerPhone:   intent.Customer.Phone,
		CustomerAddress: intent.Customer.Address,
		LeadID:          leadID,
	}

	var committed []models.Sale
	var reservations []reservation.StockReservation
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		requests := make([]reservation.StockRequest, len(intent.Lines))
		for i, line := range intent.Lines {
			requests[i] = reservation.StockRequest{
				LineIndex: i,
				ProductID: line.ProductID,
				Qty:       line.Quantity,
			}
		}

		var terr error
		reservations, terr = s.reservation.Reserve(ctx, tx, requests)
		if terr != nil {
			return terr
		}

		total := decimal.Zero
		committed = make([]models.Sale, 0, len(reservations))
		for _, line := range reservations {
			total = total.Add(line.LineTotal)
			committed = append(committed, models.Sale{
				ID:                uuid.New(),
				StoreID:           store.ID,
				ProductID:         line.ProductID,
				CustomerName:      intent.Customer.FullName,
				CustomerEmail:     nilIfEmpty(intent.Customer.Email),
				Quantity:          line.Qty,
				UnitPrice:         line.UnitPrice,
				TotalAmount:       line.LineTotal,
				Status:            enums.SaleStatusPending,
				LeadID:            leadID,
				CheckoutAttemptID: &attempt.ID,
			})
		}
		attempt.TotalAmount = total

		if terr := s.attempts.CreateWithTx(tx, attempt); terr != nil {
			return terr
		}
		return s.sales.WithTx(tx).CreateBatch(ctx, committed)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			// lost a same-key race; the winner's rows are authoritative
			if replay, rerr := s.replayExisting(ctx, store, key); rerr == nil && replay != nil {
				return replay, nil
			}
			return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key already used").
				WithDetails(map[string]any{"idempotency_key": key})
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commit order")
	}

	if leadID != nil {
		if err := s.leads.AddPurchaseTotal(ctx, *leadID, attempt.TotalAmount); err != nil {
			s.log.Error(ctx, "lead purchase total update failed", err)
		}
	}

	summary := whatsapp.OrderSummary{
		StoreName:       store.Name,
		Total:           attempt.TotalAmount,
		CustomerName:    intent.Customer.FullName,
		CustomerPhone:   intent.Customer.Phone,
		DeliveryAddress: intent.Customer.Address,
	}
	for _, line := range reservations {
		summary.Lines = append(summary.Lines, whatsapp.OrderLine{
			Name:     line.ProductName,
			Quantity: line.Qty,
			Total:    line.LineTotal,
		})
	}

	dtos := make([]salespkg.SaleDTO, 0, len(committed))
	for i := range committed {
		dtos = append(dtos, *salespkg.FromModel(&committed[i]))
	}
	s.log.Info(ctx, "checkout committed")

	return &SubmitResult{
		AttemptID:    attempt.ID,
		Sales:        dtos,
		TotalAmount:  attempt.TotalAmount,
		LeadID:       leadID,
		Message:      whatsapp.Message(summary),
		WhatsAppLink: whatsapp.DeepLink(*store.WhatsAppNumber, summary),
		Replayed:     false,
	}, nil
}

// replayExisting rebuilds the original result for a key that already
// committed. A retried submission must never decrement stock twice.
func (s *service) replayExisting(ctx context.Context, store *models.Store, key string) (*SubmitResult, error) {
	attempt, err := s.attempts.FindByStoreAndKey(ctx, store.ID, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout attempt")
	}

	rows, err := s.sales.FindByCheckoutAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load attempt sales")
	}

	summary := whatsapp.OrderSummary{
		StoreName:       store.Name,
		Total:           attempt.TotalAmount,
		CustomerName:    attempt.CustomerName,
		CustomerPhone:   attempt.CustomerPhone,
		DeliveryAddress: attempt.CustomerAddress,
	}
	dtos := make([]salespkg.SaleDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *salespkg.FromModel(&rows[i]))
		name := rows[i].ProductID.String()
		if product, perr := s.products.FindByID(ctx, rows[i].ProductID); perr == nil {
			name = product.Name
		}
		summary.Lines = append(summary.Lines, whatsapp.OrderLine{
			Name:     name,
			Quantity: rows[i].Quantity,
			Total:    rows[i].TotalAmount,
		})
	}

	s.log.Info(ctx, "checkout replayed from idempotency key")
	return &SubmitResult{
		AttemptID:    attempt.ID,
		Sales:        dtos,
		TotalAmount:  attempt.TotalAmount,
		LeadID:       attempt.LeadID,
		Message:      whatsapp.Message(summary),
		WhatsAppLink: deepLinkOrEmpty(store, summary),
		Replayed:     true,
	}, nil
}

func deepLinkOrEmpty(store *models.Store, summary whatsapp.OrderSummary) string {
	if store.WhatsAppNumber == nil {
		return ""
	}
	return whatsapp.DeepLink(*store.WhatsAppNumber, summary)
}

func outcomeLabel(result *SubmitResult, err error) string {
	if err == nil {
		if result != nil && result.Replayed {
			return "replayed"
		}
		return "committed"
	}
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return "error"
}

func nilIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	cpy := value
	return &cpy
}
