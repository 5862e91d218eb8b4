package payouts

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/luisfigueroa/merchantflow-backend/pkg/db/models"
	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
)

func setupPayoutsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS payout_entries (
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL,
  reason TEXT NOT NULL,
  recipient_id TEXT NOT NULL,
  amount TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'USD',
  status TEXT NOT NULL DEFAULT 'PAID',
  description TEXT,
  created_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_payout_entries_merchant_reason_recipient
  ON payout_entries (merchant_id, reason, recipient_id);`
	require.NoError(t, db.Exec(schema).Error)

	return db
}

func newEntry(merchantID, recipientID uuid.UUID, reason enums.PayoutReason, amount string) *models.PayoutEntry {
	return &models.PayoutEntry{
		ID:          uuid.New(),
		MerchantID:  merchantID,
		Reason:      reason,
		RecipientID: recipientID,
		Amount:      decimal.RequireFromString(amount),
		Currency:    "USD",
		Status:      enums.PayoutStatusPaid,
	}
}

func TestRepositoryRecordInsertsOnce(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	merchantID := uuid.New()
	recipientID := uuid.New()

	first := newEntry(merchantID, recipientID, enums.PayoutReasonWon, "9.00")
	created, err := repo.Record(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	// repeated writes of the same key settle on the stored entry
	for i := 0; i < 8; i++ {
		dup := newEntry(merchantID, recipientID, enums.PayoutReasonWon, "9.00")
		created, err := repo.Record(ctx, dup)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, dup.ID)
		assert.True(t, dup.Amount.Equal(decimal.RequireFromString("9.00")))
	}

	entries, err := repo.ListByMerchant(ctx, merchantID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRepositoryRecordDistinguishesReasonAndRecipient(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	merchantID := uuid.New()
	repA := uuid.New()
	repB := uuid.New()

	cases := []*models.PayoutEntry{
		newEntry(merchantID, repA, enums.PayoutReasonWon, "9.00"),
		newEntry(merchantID, repA, enums.PayoutReasonLive, "7.00"),
		newEntry(merchantID, repB, enums.PayoutReasonWon, "9.00"),
	}
	for _, entry := range cases {
		created, err := repo.Record(ctx, entry)
		require.NoError(t, err)
		assert.True(t, created)
	}

	entries, err := repo.ListByMerchant(ctx, merchantID)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRepositoryRecordConcurrentSameKeyInsertsOnce(t *testing.T) {
	db := setupPayoutsTestDB(t)

	// sqlite handles one writer at a time; a single connection keeps the
	// racing goroutines from tripping over SQLITE_BUSY while the unique
	// index still arbitrates who inserts.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := NewRepository(db)
	ctx := context.Background()

	merchantID := uuid.New()
	recipientID := uuid.New()

	const racers = 12
	var wg sync.WaitGroup
	createdFlags := make([]bool, racers)
	errs := make([]error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry := newEntry(merchantID, recipientID, enums.PayoutReasonWon, "9.00")
			createdFlags[i], errs[i] = repo.Record(ctx, entry)
		}(i)
	}
	wg.Wait()

	inserted := 0
	for i := 0; i < racers; i++ {
		require.NoError(t, errs[i])
		if createdFlags[i] {
			inserted++
		}
	}
	assert.Equal(t, 1, inserted, "exactly one racer may win the insert")

	entries, err := repo.ListByMerchant(ctx, merchantID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, enums.PayoutReasonWon, entries[0].Reason)
	assert.Equal(t, recipientID, entries[0].RecipientID)
}

func TestRepositoryTotalByRecipient(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	recipientID := uuid.New()

	_, err := repo.Record(ctx, newEntry(uuid.New(), recipientID, enums.PayoutReasonWon, "9.00"))
	require.NoError(t, err)
	_, err = repo.Record(ctx, newEntry(uuid.New(), recipientID, enums.PayoutReasonLive, "7.00"))
	require.NoError(t, err)
	_, err = repo.Record(ctx, newEntry(uuid.New(), uuid.New(), enums.PayoutReasonWon, "9.00"))
	require.NoError(t, err)

	total, err := repo.TotalByRecipient(ctx, recipientID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("16.00")), "got %s", total)
}

func TestRepositoryTotalByRecipientEmpty(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)

	total, err := repo.TotalByRecipient(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}
