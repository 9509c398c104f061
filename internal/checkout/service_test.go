package checkout

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storelinkhq/storelink-backend/internal/leads"
	product "github.com/storelinkhq/storelink-backend/internal/products"
	salespkg "github.com/storelinkhq/storelink-backend/internal/sales"
	"github.com/storelinkhq/storelink-backend/pkg/config"
	"github.com/storelinkhq/storelink-backend/pkg/db/models"
	"github.com/storelinkhq/storelink-backend/pkg/enums"
	pkgerrors "github.com/storelinkhq/storelink-backend/pkg/errors"
	"github.com/storelinkhq/storelink-backend/pkg/logger"
)

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL,
  cost_price NUMERIC,
  image_url TEXT,
  image_urls TEXT,
  stock INTEGER NOT NULL DEFAULT 0,
  low_stock_level INTEGER,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS sales (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  customer_name TEXT NOT NULL,
  customer_email TEXT,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  total_amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  lead_id TEXT,
  checkout_attempt_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS checkout_attempts (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  idempotency_key TEXT NOT NULL,
  customer_name TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  customer_address TEXT NOT NULL DEFAULT '',
  lead_id TEXT,
  total_amount NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  UNIQUE (store_id, idempotency_key)
);
CREATE TABLE IF NOT EXISTS crm_leads (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  name TEXT NOT NULL,
  email TEXT,
  phone TEXT,
  whatsapp TEXT,
  source TEXT,
  stage TEXT NOT NULL DEFAULT 'unidentified',
  notes TEXT,
  total_purchases NUMERIC NOT NULL DEFAULT 0,
  last_contacted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

type gormTxRunner struct{ db *gorm.DB }

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.Transaction(fn)
}

type stubStoreLookup struct{ store *models.Store }

func (s stubStoreLookup) FindPublishedBySlug(ctx context.Context, slug string) (*models.Store, error) {
	if s.store == nil || s.store.Slug != slug {
		return nil, gorm.ErrRecordNotFound
	}
	return s.store, nil
}

type stubMatcher struct{ id *uuid.UUID }

func (s stubMatcher) MatchOrCreate(ctx context.Context, storeID uuid.UUID, contact leads.ContactDetails) *uuid.UUID {
	return s.id
}

type gormLeadTotals struct{ db *gorm.DB }

func (g gormLeadTotals) AddPurchaseTotal(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return g.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("id = ?", id).
		UpdateColumn("total_purchases", gorm.Expr("total_purchases + ?", amount)).Error
}

func newCheckoutService(t *testing.T, db *gorm.DB, store *models.Store, leadID *uuid.UUID) Service {
	t.Helper()
	svc, err := NewService(
		gormTxRunner{db: db},
		stubStoreLookup{store: store},
		NewAttemptRepository(db),
		salespkg.NewRepository(db),
		product.NewRepository(db),
		stubMatcher{id: leadID},
		gormLeadTotals{db: db},
		nil,
		config.CheckoutConfig{MaxCartLines: 50},
		nil,
		logger.New(logger.Options{Level: zerolog.Disabled}),
	)
	require.NoError(t, err)
	return svc
}

func seedCheckoutProduct(t *testing.T, db *gorm.DB, storeID uuid.UUID, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:       uuid.New(),
		StoreID:  storeID,
		Name:     name,
		Price:    decimal.NewFromFloat(price),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func currentStock(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p.Stock
}

func TestSubmitCommitsOrderAtLivePrices(t *testing.T) {
	db := setupCheckoutTestDB(t)
	store := testStore("+2348012345678")
	wrap := seedCheckoutProduct(t, db, store.ID, "Ankara Wrap", 2500, 5)
	beads := seedCheckoutProduct(t, db, store.ID, "Coral Beads", 1000, 3)

	leadID := uuid.New()
	require.NoError(t, db.Create(&models.Lead{
		ID:      leadID,
		StoreID: store.ID,
		Name:    "Chinedu Okafor",
		Stage:   string(enums.StageAcquired),
	}).Error)

	svc := newCheckoutService(t, db, store, &leadID)

	input := validInput()
	input.Lines = []CartLine{
		// stale client prices; the committed totals must come from the
		// live product rows
		{ProductID: wrap.ID, Name: "Ankara Wrap", Price: decimal.NewFromInt(1), Quantity: 2},
		{ProductID: beads.ID, Name: "Coral Beads", Price: decimal.NewFromInt(1), Quantity: 1},
	}

	result, err := svc.Submit(context.Background(), store.Slug, input)
	require.NoError(t, err)

	assert.False(t, result.Replayed)
	assert.True(t, result.TotalAmount.Equal(decimal.NewFromInt(6000)),
		"expected 6000, got %s", result.TotalAmount)
	require.Len(t, result.Sales, 2)
	for _, sale := range result.Sales {
		assert.Equal(t, enums.SaleStatusPending, sale.Status)
		require.NotNil(t, sale.LeadID)
		assert.Equal(t, leadID, *sale.LeadID)
		require.NotNil(t, sale.CheckoutAttemptID)
		assert.Equal(t, result.AttemptID, *sale.CheckoutAttemptID)
	}

	assert.Equal(t, 3, currentStock(t, db, wrap.ID))
	assert.Equal(t, 2, currentStock(t, db, beads.ID))

	var lead models.Lead
	require.NoError(t, db.First(&lead, "id = ?", leadID).Error)
	assert.True(t, lead.TotalPurchases.Equal(decimal.NewFromInt(6000)),
		"expected lead total 6000, got %s", lead.TotalPurchases)

	assert.Contains(t, result.Message, store.Name)
	assert.Contains(t, result.Message, "Ankara Wrap")
	assert.Contains(t, result.WhatsAppLink, "wa.me/2348012345678")
}

func TestSubmitInsufficientStockLeavesKeyUnburned(t *testing.T) {
	db := setupCheckoutTestDB(t)
	store := testStore("+2348012345678")
	wrap := seedCheckoutProduct(t, db, store.ID, "Ankara Wrap", 2500, 1)
	svc := newCheckoutService(t, db, store, nil)

	key := uuid.NewString()
	input := validInput()
	input.IdempotencyKey = key
	input.Lines = []CartLine{{ProductID: wrap.ID, Quantity: 3}}

	_, err := svc.Submit(context.Background(), store.Slug, input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, details["available"])
	assert.Equal(t, 3, details["requested"])

	assert.Equal(t, 1, currentStock(t, db, wrap.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Sale{}))
	assert.EqualValues(t, 0, countRows(t, db, &models.CheckoutAttempt{}))

	// the failed attempt rolled back, so the same key can retry
	input.Lines = []CartLine{{ProductID: wrap.ID, Quantity: 1}}
	result, err := svc.Submit(context.Background(), store.Slug, input)
	require.NoError(t, err)
	assert.False(t, result.Replayed)
	assert.Equal(t, 0, currentStock(t, db, wrap.ID))
}

func TestSubmitReplaysCommittedKey(t *testing.T) {
	db := setupCheckoutTestDB(t)
	store := testStore("+2348012345678")
	wrap := seedCheckoutProduct(t, db, store.ID, "Ankara Wrap", 2500, 5)
	svc := newCheckoutService(t, db, store, nil)

	key := uuid.NewString()
	input := validInput()
	input.IdempotencyKey = key
	input.Lines = []CartLine{{ProductID: wrap.ID, Quantity: 2}}

	first, err := svc.Submit(context.Background(), store.Slug, input)
	require.NoError(t, err)
	require.False(t, first.Replayed)
	require.Equal(t, 3, currentStock(t, db, wrap.ID))

	// a retried submission must not decrement stock again, even if the
	// client resends a different cart
	input.Lines = []CartLine{{ProductID: wrap.ID, Quantity: 5}}
	second, err := svc.Submit(context.Background(), store.Slug, input)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.AttemptID, second.AttemptID)
	assert.True(t, second.TotalAmount.Equal(first.TotalAmount))
	require.Len(t, second.Sales, 1)
	assert.Contains(t, second.Message, "Ankara Wrap")
	assert.Contains(t, second.Message, "12 Allen Avenue, Ikeja, Lagos")
	// the replayed handoff must read exactly like the original
	assert.Equal(t, first.Message, second.Message)
	assert.Equal(t, 3, currentStock(t, db, wrap.ID))
	assert.EqualValues(t, 1, countRows(t, db, &models.Sale{}))
}

func TestSubmitUnknownStore(t *testing.T) {
	db := setupCheckoutTestDB(t)
	store := testStore("+2348012345678")
	svc := newCheckoutService(t, db, store, nil)

	_, err := svc.Submit(context.Background(), "no-such-store", validInput())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestSubmitValidationFailureLeavesNoRows(t *testing.T) {
	db := setupCheckoutTestDB(t)
	store := testStore("+2348012345678")
	wrap := seedCheckoutProduct(t, db, store.ID, "Ankara Wrap", 2500, 5)
	svc := newCheckoutService(t, db, store, nil)

	input := validInput()
	input.Customer.Phone = "12345"
	input.Lines = []CartLine{{ProductID: wrap.ID, Quantity: 1}}

	_, err := svc.Submit(context.Background(), store.Slug, input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	assert.Equal(t, 5, currentStock(t, db, wrap.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Sale{}))
	assert.EqualValues(t, 0, countRows(t, db, &models.CheckoutAttempt{}))
	assert.EqualValues(t, 0, countRows(t, db, &models.Lead{}))
}

func TestSubmitWithoutKeyCommitsIndependently(t *testing.T) {
	db := setupCheckoutTestDB(t)
	store := testStore("+2348012345678")
	wrap := seedCheckoutProduct(t, db, store.ID, "Ankara Wrap", 2500, 5)
	svc := newCheckoutService(t, db, store, nil)

	input := validInput()
	input.IdempotencyKey = "  "
	input.Lines = []CartLine{{ProductID: wrap.ID, Quantity: 1}}

	first, err := svc.Submit(context.Background(), store.Slug, input)
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), store.Slug, input)
	require.NoError(t, err)

	assert.NotEqual(t, first.AttemptID, second.AttemptID)
	assert.False(t, second.Replayed)
	assert.Equal(t, 3, currentStock(t, db, wrap.ID))
	assert.EqualValues(t, 2, countRows(t, db, &models.CheckoutAttempt{}))
}

func TestSubmitWithoutLeadStillCommits(t *testing.T) {
	db := setupCheckoutTestDB(t)
	store := testStore("+2348012345678")
	wrap := seedCheckoutProduct(t, db, store.ID, "Ankara Wrap", 2500, 5)
	svc := newCheckoutService(t, db, store, nil)

	input := validInput()
	input.Lines = []CartLine{{ProductID: wrap.ID, Quantity: 1}}

	result, err := svc.Submit(context.Background(), store.Slug, input)
	require.NoError(t, err)

	assert.Nil(t, result.LeadID)
	require.Len(t, result.Sales, 1)
	assert.Nil(t, result.Sales[0].LeadID)
	assert.True(t, strings.HasPrefix(result.WhatsAppLink, "https://wa.me/"))
}
