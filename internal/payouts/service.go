package payouts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/luisfigueroa/merchantflow-backend/pkg/db/models"
	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
	pkgerrors "github.com/luisfigueroa/merchantflow-backend/pkg/errors"
	"github.com/luisfigueroa/merchantflow-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines operations over the payout ledger.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.PayoutEntry, bool, error)
	RecordTx(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.PayoutEntry, bool, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]models.PayoutEntry, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.PayoutEntry, error)
	TotalByRecipient(ctx context.Context, recipientID uuid.UUID) (decimal.Decimal, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// RecordInput captures the immutable data a payout entry requires.
type RecordInput struct {
	MerchantID  uuid.UUID
	Reason      enums.PayoutReason
	RecipientID uuid.UUID
	Amount      decimal.Decimal
	Currency    string
	Description *string
	ActorUserID uuid.UUID
	ActorRole   string
}

// PayoutRecordedEvent is emitted the first time an entry is written.
type PayoutRecordedEvent struct {
	EntryID     uuid.UUID          `json:"entry_id"`
	MerchantID  uuid.UUID          `json:"merchant_id"`
	Reason      enums.PayoutReason `json:"reason"`
	RecipientID uuid.UUID          `json:"recipient_id"`
	Amount      decimal.Decimal    `json:"amount"`
	Currency    string             `json:"currency"`
}

// NewService wires a payout service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payout repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.PayoutEntry, bool, error) {
	var (
		entry   *models.PayoutEntry
		created bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		entry, created, txErr = s.RecordTx(ctx, tx, input)
		return txErr
	})
	if err != nil {
		return nil, false, err
	}
	return entry, created, nil
}

// RecordTx records the entry inside the caller's transaction. Recording the
// same (merchant, reason, recipient) twice returns the stored entry with
// created=false and emits nothing.
func (s *service) RecordTx(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.PayoutEntry, bool, error) {
	if err := validateRecordInput(input); err != nil {
		return nil, false, err
	}

	entry := &models.PayoutEntry{
		MerchantID:  input.MerchantID,
		Reason:      input.Reason,
		RecipientID: input.RecipientID,
		Amount:      input.Amount,
		Currency:    input.Currency,
		Status:      enums.PayoutStatusPaid,
		Description: input.Description,
	}
	if entry.Currency == "" {
		entry.Currency = "USD"
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	created, err := s.repo.WithTx(tx).Record(ctx, entry)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payout entry")
	}
	if !created {
		return entry, false, nil
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventPayoutRecorded,
		AggregateType: enums.AggregatePayout,
		AggregateID:   entry.ID,
		Version:       1,
		Actor:         buildActor(input.ActorUserID, input.ActorRole),
		Data: PayoutRecordedEvent{
			EntryID:     entry.ID,
			MerchantID:  entry.MerchantID,
			Reason:      entry.Reason,
			RecipientID: entry.RecipientID,
			Amount:      entry.Amount,
			Currency:    entry.Currency,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

func (s *service) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]models.PayoutEntry, error) {
	if merchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	return s.repo.ListByMerchant(ctx, merchantID)
}

func (s *service) ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.PayoutEntry, error) {
	if recipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	return s.repo.ListByRecipient(ctx, recipientID)
}

func (s *service) TotalByRecipient(ctx context.Context, recipientID uuid.UUID) (decimal.Decimal, error) {
	if recipientID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	return s.repo.TotalByRecipient(ctx, recipientID)
}

func validateRecordInput(input RecordInput) error {
	if input.MerchantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	if input.RecipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if !input.Reason.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payout reason %q", input.Reason))
	}
	if input.Amount.IsNegative() || input.Amount.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return nil
}

func buildActor(userID uuid.UUID, role string) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: role}
}
