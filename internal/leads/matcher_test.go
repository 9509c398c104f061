package leads

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storelinkhq/storelink-backend/pkg/db/models"
	"github.com/storelinkhq/storelink-backend/pkg/enums"
	"github.com/storelinkhq/storelink-backend/pkg/logger"
)

func setupLeadsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:leads_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
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

func newTestMatcher(t *testing.T, repo matcherRepository) *Matcher {
	t.Helper()
	matcher, err := NewMatcher(repo, logger.New(logger.Options{Level: zerolog.Disabled}))
	require.NoError(t, err)
	return matcher
}

func mustCreateLead(t *testing.T, db *gorm.DB, lead *models.Lead) *models.Lead {
	t.Helper()
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	require.NoError(t, db.Create(lead).Error)
	return lead
}

func TestMatcherSkipsWithoutContactChannel(t *testing.T) {
	db := setupLeadsTestDB(t)
	matcher := newTestMatcher(t, NewRepository(db))

	id := matcher.MatchOrCreate(context.Background(), uuid.New(), ContactDetails{Name: "Chinedu"})
	assert.Nil(t, id)

	var count int64
	require.NoError(t, db.Model(&models.Lead{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMatcherCreatesUnidentifiedLead(t *testing.T) {
	db := setupLeadsTestDB(t)
	matcher := newTestMatcher(t, NewRepository(db))
	storeID := uuid.New()

	id := matcher.MatchOrCreate(context.Background(), storeID, ContactDetails{
		Name:    "Chinedu Okafor",
		Phone:   "+2348011111111",
		Address: "12 Allen Avenue, Ikeja",
	})
	require.NotNil(t, id)

	var lead models.Lead
	require.NoError(t, db.First(&lead, "id = ?", *id).Error)
	assert.Equal(t, storeID, lead.StoreID)
	assert.Equal(t, enums.StageUnidentified, lead.Stage)
	require.NotNil(t, lead.Source)
	assert.Equal(t, string(enums.LeadSourceCheckout), *lead.Source)
	require.NotNil(t, lead.Notes)
	assert.Equal(t, "12 Allen Avenue, Ikeja", *lead.Notes)
	assert.Nil(t, lead.Email)
}

func TestMatcherMergeFillsBlankFieldsOnly(t *testing.T) {
	db := setupLeadsTestDB(t)
	matcher := newTestMatcher(t, NewRepository(db))
	storeID := uuid.New()

	email := "a@x.com"
	existing := mustCreateLead(t, db, &models.Lead{
		StoreID: storeID,
		Name:    "Old Name",
		Email:   &email,
		Stage:   enums.StageSold,
	})

	id := matcher.MatchOrCreate(context.Background(), storeID, ContactDetails{
		Name:  "New Name",
		Email: "a@x.com",
		Phone: "+2348011111111",
	})
	require.NotNil(t, id)
	assert.Equal(t, existing.ID, *id)

	var lead models.Lead
	require.NoError(t, db.First(&lead, "id = ?", existing.ID).Error)
	assert.Equal(t, "New Name", lead.Name)
	require.NotNil(t, lead.Phone)
	assert.Equal(t, "+2348011111111", *lead.Phone)
	// populated fields and stage survive the merge
	require.NotNil(t, lead.Email)
	assert.Equal(t, "a@x.com", *lead.Email)
	assert.Equal(t, enums.StageSold, lead.Stage)
	assert.NotNil(t, lead.LastContactedAt)
}

func TestMatcherDoesNotOverwritePopulatedEmail(t *testing.T) {
	db := setupLeadsTestDB(t)
	matcher := newTestMatcher(t, NewRepository(db))
	storeID := uuid.New()

	email := "original@x.com"
	phone := "+2348022222222"
	existing := mustCreateLead(t, db, &models.Lead{
		StoreID: storeID,
		Name:    "Amaka",
		Email:   &email,
		Phone:   &phone,
	})

	id := matcher.MatchOrCreate(context.Background(), storeID, ContactDetails{
		Name:  "Amaka",
		Email: "different@x.com",
		Phone: phone,
	})
	require.NotNil(t, id)
	assert.Equal(t, existing.ID, *id)

	var lead models.Lead
	require.NoError(t, db.First(&lead, "id = ?", existing.ID).Error)
	require.NotNil(t, lead.Email)
	assert.Equal(t, "original@x.com", *lead.Email)
}

func TestMatcherScopedToStore(t *testing.T) {
	db := setupLeadsTestDB(t)
	matcher := newTestMatcher(t, NewRepository(db))

	phone := "+2348011111111"
	otherStoreLead := mustCreateLead(t, db, &models.Lead{
		StoreID: uuid.New(),
		Name:    "Someone Else",
		Phone:   &phone,
	})

	id := matcher.MatchOrCreate(context.Background(), uuid.New(), ContactDetails{
		Name:  "Chinedu",
		Phone: phone,
	})
	require.NotNil(t, id)
	assert.NotEqual(t, otherStoreLead.ID, *id)
}

func TestMatcherMatchesEarliestLeadOnSharedPhone(t *testing.T) {
	db := setupLeadsTestDB(t)
	repo := NewRepository(db)
	matcher := newTestMatcher(t, repo)
	storeID := uuid.New()

	phone := "+2348033333333"
	first := mustCreateLead(t, db, &models.Lead{StoreID: storeID, Name: "First", Phone: &phone})
	mustCreateLead(t, db, &models.Lead{StoreID: storeID, Name: "Second", Phone: &phone})

	id := matcher.MatchOrCreate(context.Background(), storeID, ContactDetails{
		Name:  "Retry",
		Phone: phone,
	})
	require.NotNil(t, id)
	assert.Equal(t, first.ID, *id)
}

type failingLeadRepo struct{ err error }

func (f failingLeadRepo) FindMatch(ctx context.Context, storeID uuid.UUID, email, phone string) (*models.Lead, error) {
	return nil, f.err
}
func (f failingLeadRepo) Create(ctx context.Context, lead *models.Lead) error { return f.err }
func (f failingLeadRepo) Update(ctx context.Context, lead *models.Lead) error { return f.err }

func TestMatcherSwallowsLookupFailure(t *testing.T) {
	matcher := newTestMatcher(t, failingLeadRepo{err: assert.AnError})

	id := matcher.MatchOrCreate(context.Background(), uuid.New(), ContactDetails{
		Name:  "Chinedu",
		Phone: "+2348011111111",
	})
	assert.Nil(t, id)
}

func TestRepositoryAddPurchaseTotal(t *testing.T) {
	db := setupLeadsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	lead := mustCreateLead(t, db, &models.Lead{
		StoreID:        uuid.New(),
		Name:           "Buyer",
		TotalPurchases: decimal.RequireFromString("1000.00"),
	})

	require.NoError(t, repo.AddPurchaseTotal(ctx, lead.ID, decimal.RequireFromString("2500.50")))
	require.NoError(t, repo.AddPurchaseTotal(ctx, lead.ID, decimal.RequireFromString("499.50")))

	var updated models.Lead
	require.NoError(t, db.First(&updated, "id = ?", lead.ID).Error)
	assert.True(t, updated.TotalPurchases.Equal(decimal.RequireFromString("4000.00")),
		"got %s", updated.TotalPurchases)
}
