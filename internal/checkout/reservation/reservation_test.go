package reservation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storelinkhq/storelink-backend/pkg/db/models"
	pkgerrors "github.com/storelinkhq/storelink-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:reservation_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
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
);`
	if err := db.Exec(schema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock int, price string, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		StoreID:  uuid.New(),
		Name:     "Test Product",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: active,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func TestReserveStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productA := seedProduct(t, db, 5, "500.00", true)
	productB := seedProduct(t, db, 1, "1200.00", true)

	requests := []StockRequest{
		{LineIndex: 0, ProductID: productA.ID, Qty: 2},
		{LineIndex: 1, ProductID: productB.ID, Qty: 1},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		reservations, terr := ReserveStock(ctx, tx, requests)
		if terr != nil {
			return terr
		}
		if len(reservations) != 2 {
			t.Fatalf("expected 2 reservations, got %d", len(reservations))
		}
		if !reservations[0].LineTotal.Equal(decimal.RequireFromString("1000.00")) {
			t.Fatalf("unexpected line total %s", reservations[0].LineTotal)
		}
		if reservations[0].ProductName != "Test Product" {
			t.Fatalf("unexpected product name %q", reservations[0].ProductName)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reserve transaction: %v", err)
	}

	var a, b models.Product
	if err := db.First(&a, "id = ?", productA.ID).Error; err != nil {
		t.Fatalf("load product a: %v", err)
	}
	if err := db.First(&b, "id = ?", productB.ID).Error; err != nil {
		t.Fatalf("load product b: %v", err)
	}
	if a.Stock != 3 || b.Stock != 0 {
		t.Fatalf("unexpected stock state: a=%d b=%d", a.Stock, b.Stock)
	}
}

func TestReserveStockInsufficientReportsAvailable(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, 3, "500.00", true)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := ReserveStock(ctx, tx, []StockRequest{{ProductID: product.ID, Qty: 10}})
		return terr
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	if details["available"] != 3 || details["requested"] != 10 {
		t.Fatalf("unexpected details: %v", details)
	}

	var after models.Product
	if err := db.First(&after, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if after.Stock != 3 {
		t.Fatalf("stock changed on failed reservation: %d", after.Stock)
	}
}

func TestReserveStockRollsBackEarlierLines(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productA := seedProduct(t, db, 5, "500.00", true)
	missing := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := ReserveStock(ctx, tx, []StockRequest{
			{LineIndex: 0, ProductID: productA.ID, Qty: 1},
			{LineIndex: 1, ProductID: missing, Qty: 1},
		})
		return terr
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	var after models.Product
	if err := db.First(&after, "id = ?", productA.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if after.Stock != 5 {
		t.Fatalf("expected first line rolled back, stock=%d", after.Stock)
	}
}

func TestReserveStockTreatsInactiveAsMissing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, 5, "500.00", false)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := ReserveStock(ctx, tx, []StockRequest{{ProductID: product.ID, Qty: 1}})
		return terr
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for inactive product, got %v", err)
	}
}

func TestReserveStockInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, 5, "500.00", true)

	_, err := ReserveStock(ctx, db, []StockRequest{{ProductID: product.ID, Qty: 0}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReserveStockLastUnitRace(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, 1, "500.00", true)

	wins := 0
	for attempt := 0; attempt < 2; attempt++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			_, terr := ReserveStock(ctx, tx, []StockRequest{{ProductID: product.ID, Qty: 1}})
			return terr
		})
		if err == nil {
			wins++
			continue
		}
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
			t.Fatalf("expected insufficient stock on losing attempt, got %v", err)
		}
		details := typed.Details().(map[string]any)
		if details["available"] != 0 {
			t.Fatalf("expected available=0, got %v", details["available"])
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning attempt, got %d", wins)
	}

	var after models.Product
	if err := db.First(&after, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if after.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", after.Stock)
	}
}
