package payouts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/luisfigueroa/merchantflow-backend/pkg/db/models"
	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
	pkgerrors "github.com/luisfigueroa/merchantflow-backend/pkg/errors"
	"github.com/luisfigueroa/merchantflow-backend/pkg/outbox"
)

type fakeRepository struct {
	recordFn func(ctx context.Context, entry *models.PayoutEntry) (bool, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Record(ctx context.Context, entry *models.PayoutEntry) (bool, error) {
	if f.recordFn != nil {
		return f.recordFn(ctx, entry)
	}
	return true, nil
}

func (f *fakeRepository) FindByKey(ctx context.Context, merchantID uuid.UUID, reason enums.PayoutReason, recipientID uuid.UUID) (*models.PayoutEntry, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]models.PayoutEntry, error) {
	return nil, nil
}

func (f *fakeRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.PayoutEntry, error) {
	return nil, nil
}

func (f *fakeRepository) TotalByRecipient(ctx context.Context, recipientID uuid.UUID) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newTestService(t *testing.T, repo Repository, ob *fakeOutbox) Service {
	t.Helper()
	svc, err := NewService(repo, fakeTxRunner{}, ob)
	require.NoError(t, err)
	return svc
}

func TestServiceRecordEmitsEventOnFirstWrite(t *testing.T) {
	repo := &fakeRepository{}
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, ob)

	input := RecordInput{
		MerchantID:  uuid.New(),
		Reason:      enums.PayoutReasonWon,
		RecipientID: uuid.New(),
		Amount:      decimal.RequireFromString("9.00"),
		ActorUserID: uuid.New(),
		ActorRole:   string(enums.UserRoleManager),
	}

	entry, created, err := svc.Record(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, entry)
	assert.Equal(t, "USD", entry.Currency)
	assert.Equal(t, enums.PayoutStatusPaid, entry.Status)

	require.Len(t, ob.events, 1)
	assert.Equal(t, enums.EventPayoutRecorded, ob.events[0].EventType)
	assert.Equal(t, enums.AggregatePayout, ob.events[0].AggregateType)
	assert.Equal(t, entry.ID, ob.events[0].AggregateID)
}

func TestServiceRecordDuplicateIsSilent(t *testing.T) {
	stored := &models.PayoutEntry{
		ID:          uuid.New(),
		MerchantID:  uuid.New(),
		Reason:      enums.PayoutReasonWon,
		RecipientID: uuid.New(),
		Amount:      decimal.RequireFromString("9.00"),
		Currency:    "USD",
		Status:      enums.PayoutStatusPaid,
	}
	repo := &fakeRepository{
		recordFn: func(ctx context.Context, entry *models.PayoutEntry) (bool, error) {
			*entry = *stored
			return false, nil
		},
	}
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, ob)

	entry, created, err := svc.Record(context.Background(), RecordInput{
		MerchantID:  stored.MerchantID,
		Reason:      enums.PayoutReasonWon,
		RecipientID: stored.RecipientID,
		Amount:      decimal.RequireFromString("9.00"),
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, stored.ID, entry.ID)
	assert.Empty(t, ob.events, "duplicate writes must not emit events")
}

func TestServiceRecordValidation(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, &fakeOutbox{})

	tests := []struct {
		name  string
		input RecordInput
	}{
		{
			name: "missing merchant",
			input: RecordInput{
				RecipientID: uuid.New(),
				Reason:      enums.PayoutReasonWon,
				Amount:      decimal.RequireFromString("9.00"),
			},
		},
		{
			name: "missing recipient",
			input: RecordInput{
				MerchantID: uuid.New(),
				Reason:     enums.PayoutReasonWon,
				Amount:     decimal.RequireFromString("9.00"),
			},
		},
		{
			name: "invalid reason",
			input: RecordInput{
				MerchantID:  uuid.New(),
				RecipientID: uuid.New(),
				Reason:      enums.PayoutReason("BONUS"),
				Amount:      decimal.RequireFromString("9.00"),
			},
		},
		{
			name: "zero amount",
			input: RecordInput{
				MerchantID:  uuid.New(),
				RecipientID: uuid.New(),
				Reason:      enums.PayoutReasonWon,
			},
		},
		{
			name: "negative amount",
			input: RecordInput{
				MerchantID:  uuid.New(),
				RecipientID: uuid.New(),
				Reason:      enums.PayoutReasonWon,
				Amount:      decimal.RequireFromString("-1.00"),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Record(context.Background(), tc.input)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}
