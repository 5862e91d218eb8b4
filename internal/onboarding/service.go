package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/luisfigueroa/merchantflow-backend/internal/payouts"
	"github.com/luisfigueroa/merchantflow-backend/pkg/config"
	dbpkg "github.com/luisfigueroa/merchantflow-backend/pkg/db"
	"github.com/luisfigueroa/merchantflow-backend/pkg/db/models"
	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
	pkgerrors "github.com/luisfigueroa/merchantflow-backend/pkg/errors"
	"github.com/luisfigueroa/merchantflow-backend/pkg/outbox"
)

const checklistSize = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type payoutRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, input payouts.RecordInput) (*models.PayoutEntry, bool, error)
}

type merchantReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
}

// Service defines onboarding checklist operations.
type Service interface {
	Get(ctx context.Context, merchantID uuid.UUID) (*models.Onboarding, error)
	EnsureTx(ctx context.Context, tx *gorm.DB, merchantID uuid.UUID) (*models.Onboarding, bool, error)
	UpdateChecklist(ctx context.Context, input UpdateChecklistInput) (*models.Onboarding, error)
	MarkLive(ctx context.Context, input MarkLiveInput) (*models.Onboarding, error)
}

type service struct {
	repo      Repository
	merchants merchantReader
	payouts   payoutRecorder
	tx        txRunner
	outbox    outboxPublisher
	cfg       config.PayoutConfig
}

// UpdateChecklistInput patches one or more checklist booleans. Nil fields are
// left untouched.
type UpdateChecklistInput struct {
	MerchantID      uuid.UUID
	SurveyFilled    *bool
	OffersAdded     *bool
	BranchesCovered *bool
	AssetsComplete  *bool
	QAApproved      *bool
	ActorUserID     uuid.UUID
	ActorRole       string
}

// MarkLiveInput identifies the merchant going live and the acting user.
type MarkLiveInput struct {
	MerchantID  uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   string
}

// WentLiveEvent is emitted the first time an onboarding flips to LIVE.
type WentLiveEvent struct {
	OnboardingID uuid.UUID `json:"onboarding_id"`
	MerchantID   uuid.UUID `json:"merchant_id"`
	LiveDate     time.Time `json:"live_date"`
}

// NewService wires an onboarding service with the required dependencies.
func NewService(repo Repository, merchants merchantReader, payoutSvc payoutRecorder, tx txRunner, ob outboxPublisher, cfg config.PayoutConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("onboarding repository required")
	}
	if merchants == nil {
		return nil, fmt.Errorf("merchant reader required")
	}
	if payoutSvc == nil {
		return nil, fmt.Errorf("payout recorder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:      repo,
		merchants: merchants,
		payouts:   payoutSvc,
		tx:        tx,
		outbox:    ob,
		cfg:       cfg,
	}, nil
}

func (s *service) Get(ctx context.Context, merchantID uuid.UUID) (*models.Onboarding, error) {
	if merchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	onboarding, err := s.repo.FindByMerchant(ctx, merchantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "onboarding not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load onboarding")
	}
	return onboarding, nil
}

// EnsureTx creates the merchant's onboarding record if it does not exist yet.
// A concurrent creation racing on the merchant unique index is resolved by
// refetching the stored row.
func (s *service) EnsureTx(ctx context.Context, tx *gorm.DB, merchantID uuid.UUID) (*models.Onboarding, bool, error) {
	if merchantID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	repo := s.repo.WithTx(tx)

	existing, err := repo.FindByMerchant(ctx, merchantID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load onboarding")
	}

	onboarding := &models.Onboarding{
		ID:                   uuid.New(),
		MerchantID:           merchantID,
		Status:               enums.OnboardingStatusInProgress,
		CompletionPercentage: decimal.Zero,
	}
	if err := repo.Create(ctx, onboarding); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_onboardings_merchant") {
			stored, fetchErr := repo.FindByMerchant(ctx, merchantID)
			if fetchErr != nil {
				return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, fetchErr, "load onboarding after conflict")
			}
			return stored, false, nil
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create onboarding")
	}
	return onboarding, true, nil
}

func (s *service) UpdateChecklist(ctx context.Context, input UpdateChecklistInput) (*models.Onboarding, error) {
	if input.MerchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}

	var result *models.Onboarding
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		onboarding, err := repo.FindByMerchant(ctx, input.MerchantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "onboarding not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load onboarding")
		}
		if onboarding.Status == enums.OnboardingStatusLive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "checklist is frozen once the merchant is live")
		}

		updates := map[string]any{}
		applyFlag(updates, "survey_filled", input.SurveyFilled, &onboarding.SurveyFilled)
		applyFlag(updates, "offers_added", input.OffersAdded, &onboarding.OffersAdded)
		applyFlag(updates, "branches_covered", input.BranchesCovered, &onboarding.BranchesCovered)
		applyFlag(updates, "assets_complete", input.AssetsComplete, &onboarding.AssetsComplete)
		applyFlag(updates, "qa_approved", input.QAApproved, &onboarding.QAApproved)

		onboarding.CompletionPercentage = completion(onboarding)
		updates["completion_percentage"] = onboarding.CompletionPercentage

		if err := repo.Update(ctx, onboarding.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update checklist")
		}
		result = onboarding
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) MarkLive(ctx context.Context, input MarkLiveInput) (*models.Onboarding, error) {
	if input.MerchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *models.Onboarding
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		onboarding, err := repo.FindByMerchant(ctx, input.MerchantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "onboarding not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load onboarding")
		}

		// already live: repeated calls change nothing
		if onboarding.Status == enums.OnboardingStatusLive {
			result = onboarding
			return nil
		}
		if !onboarding.ChecklistComplete() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "onboarding checklist incomplete")
		}

		now := time.Now()
		updates := map[string]any{
			"status":                enums.OnboardingStatusLive,
			"live_date":             now,
			"completion_percentage": decimal.NewFromInt(1),
		}
		// The status guard keeps two concurrent go-live requests from both
		// writing live_date. The loser sees zero rows changed and takes the
		// already-live path without paying or emitting again.
		changed, err := repo.UpdateIfStatus(ctx, onboarding.ID, enums.OnboardingStatusInProgress, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark onboarding live")
		}
		if !changed {
			stored, err := repo.FindByMerchant(ctx, input.MerchantID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load onboarding after conflict")
			}
			result = stored
			return nil
		}
		onboarding.Status = enums.OnboardingStatusLive
		onboarding.LiveDate = &now
		onboarding.CompletionPercentage = decimal.NewFromInt(1)

		merchant, err := s.merchants.FindByID(ctx, input.MerchantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
		}

		if _, _, err := s.payouts.RecordTx(ctx, tx, payouts.RecordInput{
			MerchantID:  merchant.ID,
			Reason:      enums.PayoutReasonLive,
			RecipientID: merchant.AssignedRepID,
			Amount:      s.cfg.LiveBonus,
			Currency:    s.cfg.Currency,
			Description: strPtr("merchant went live"),
			ActorUserID: input.ActorUserID,
			ActorRole:   input.ActorRole,
		}); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOnboardingWentLive,
			AggregateType: enums.AggregateOnboarding,
			AggregateID:   onboarding.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: WentLiveEvent{
				OnboardingID: onboarding.ID,
				MerchantID:   onboarding.MerchantID,
				LiveDate:     now,
			},
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return err
		}

		result = onboarding
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func applyFlag(updates map[string]any, column string, incoming *bool, current *bool) {
	if incoming == nil {
		return
	}
	*current = *incoming
	updates[column] = *incoming
}

func completion(onboarding *models.Onboarding) decimal.Decimal {
	done := 0
	for _, flag := range onboarding.ChecklistFlags() {
		if flag {
			done++
		}
	}
	return decimal.NewFromInt(int64(done)).
		Div(decimal.NewFromInt(checklistSize)).
		Round(3)
}

func strPtr(s string) *string { return &s }
