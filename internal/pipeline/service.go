package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luisfigueroa/merchantflow-backend/internal/payouts"
	"github.com/luisfigueroa/merchantflow-backend/pkg/config"
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

type payoutRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, input payouts.RecordInput) (*models.PayoutEntry, bool, error)
}

type merchantReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
}

// OnboardingInitializer creates the merchant's onboarding record when the
// deal is won, returning the existing one if it was already created.
type OnboardingInitializer interface {
	EnsureTx(ctx context.Context, tx *gorm.DB, merchantID uuid.UUID) (*models.Onboarding, bool, error)
}

// Service defines sales funnel operations.
type Service interface {
	Get(ctx context.Context, merchantID uuid.UUID) (*models.Pipeline, error)
	History(ctx context.Context, merchantID uuid.UUID) ([]models.PipelineStageHistory, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Pipeline, error)
}

type service struct {
	repo       Repository
	merchants  merchantReader
	onboarding OnboardingInitializer
	payouts    payoutRecorder
	tx         txRunner
	outbox     outboxPublisher
	cfg        config.PayoutConfig
}

// TransitionInput captures a requested stage change.
type TransitionInput struct {
	MerchantID   uuid.UUID
	NewStage     enums.PipelineStage
	LostReason   *string
	Notes        *string
	NextAction   *string
	NextActionAt *time.Time
	ActorUserID  uuid.UUID
	ActorRole    string
}

// StageChangedEvent is emitted for every applied transition.
type StageChangedEvent struct {
	PipelineID uuid.UUID           `json:"pipeline_id"`
	MerchantID uuid.UUID           `json:"merchant_id"`
	FromStage  enums.PipelineStage `json:"from_stage"`
	ToStage    enums.PipelineStage `json:"to_stage"`
	LostReason *string             `json:"lost_reason,omitempty"`
}

// NewService wires a pipeline service with the required dependencies.
func NewService(
	repo Repository,
	merchants merchantReader,
	onboardingInit OnboardingInitializer,
	payoutSvc payoutRecorder,
	tx txRunner,
	ob outboxPublisher,
	cfg config.PayoutConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pipeline repository required")
	}
	if merchants == nil {
		return nil, fmt.Errorf("merchant reader required")
	}
	if onboardingInit == nil {
		return nil, fmt.Errorf("onboarding initializer required")
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
		repo:       repo,
		merchants:  merchants,
		onboarding: onboardingInit,
		payouts:    payoutSvc,
		tx:         tx,
		outbox:     ob,
		cfg:        cfg,
	}, nil
}

func (s *service) Get(ctx context.Context, merchantID uuid.UUID) (*models.Pipeline, error) {
	if merchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	pipeline, err := s.repo.FindByMerchant(ctx, merchantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pipeline not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pipeline")
	}
	return pipeline, nil
}

func (s *service) History(ctx context.Context, merchantID uuid.UUID) ([]models.PipelineStageHistory, error) {
	pipeline, err := s.Get(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListHistory(ctx, pipeline.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stage history")
	}
	return entries, nil
}

// Transition applies a stage change. Any stage is reachable from any stage;
// the funnel order is advisory, not enforced. Moving to WON initializes the
// onboarding checklist and pays the won bonus exactly once per merchant/rep.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Pipeline, error) {
	if input.MerchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.NewStage.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid pipeline stage %q", input.NewStage))
	}
	if input.NewStage == enums.PipelineStageLost && emptyReason(input.LostReason) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lost reason required when marking a pipeline LOST")
	}

	var result *models.Pipeline
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		pipeline, err := repo.FindByMerchant(ctx, input.MerchantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pipeline not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pipeline")
		}
		fromStage := pipeline.CurrentStage

		now := time.Now()
		updates := map[string]any{
			"current_stage":      input.NewStage,
			"next_action":        input.NextAction,
			"next_action_at":     input.NextActionAt,
			"last_updated_by_id": input.ActorUserID,
		}
		if input.NewStage == enums.PipelineStageLost {
			updates["lost_reason"] = input.LostReason
		} else {
			updates["lost_reason"] = nil
		}
		if err := repo.Update(ctx, pipeline.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pipeline stage")
		}

		pipeline.CurrentStage = input.NewStage
		pipeline.NextAction = input.NextAction
		pipeline.NextActionAt = input.NextActionAt
		pipeline.LastUpdatedByID = &input.ActorUserID
		if input.NewStage == enums.PipelineStageLost {
			pipeline.LostReason = input.LostReason
		} else {
			pipeline.LostReason = nil
		}

		history := &models.PipelineStageHistory{
			ID:          uuid.New(),
			PipelineID:  pipeline.ID,
			Stage:       input.NewStage,
			ActorUserID: input.ActorUserID,
			Notes:       input.Notes,
			EnteredAt:   now,
		}
		if err := repo.AppendHistory(ctx, history); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stage history")
		}

		if input.NewStage == enums.PipelineStageWon {
			if err := s.applyWonSideEffects(ctx, tx, pipeline, input); err != nil {
				return err
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPipelineStageChanged,
			AggregateType: enums.AggregatePipeline,
			AggregateID:   pipeline.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: StageChangedEvent{
				PipelineID: pipeline.ID,
				MerchantID: pipeline.MerchantID,
				FromStage:  fromStage,
				ToStage:    input.NewStage,
				LostReason: pipeline.LostReason,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		result = pipeline
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) applyWonSideEffects(ctx context.Context, tx *gorm.DB, pipeline *models.Pipeline, input TransitionInput) error {
	if _, _, err := s.onboarding.EnsureTx(ctx, tx, pipeline.MerchantID); err != nil {
		return err
	}

	merchant, err := s.merchants.FindByID(ctx, pipeline.MerchantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}

	_, _, err = s.payouts.RecordTx(ctx, tx, payouts.RecordInput{
		MerchantID:  merchant.ID,
		Reason:      enums.PayoutReasonWon,
		RecipientID: merchant.AssignedRepID,
		Amount:      s.cfg.WonBonus,
		Currency:    s.cfg.Currency,
		Description: strPtr("deal won"),
		ActorUserID: input.ActorUserID,
		ActorRole:   input.ActorRole,
	})
	return err
}

func emptyReason(reason *string) bool {
	return reason == nil || strings.TrimSpace(*reason) == ""
}

func strPtr(s string) *string { return &s }
