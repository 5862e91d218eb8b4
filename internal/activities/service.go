package activities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luisfigueroa/merchantflow-backend/pkg/db/models"
	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
	pkgerrors "github.com/luisfigueroa/merchantflow-backend/pkg/errors"
	"github.com/luisfigueroa/merchantflow-backend/pkg/outbox"
	"github.com/luisfigueroa/merchantflow-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type merchantReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
}

// Service defines activity log operations. Activities are append-only; there
// is no update or delete.
type Service interface {
	Log(ctx context.Context, input LogInput) (*models.Activity, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*ActivityList, error)
}

type service struct {
	repo      Repository
	merchants merchantReader
	tx        txRunner
	outbox    outboxPublisher
}

// LogInput captures a sales touchpoint.
type LogInput struct {
	MerchantID      uuid.UUID
	Type            enums.ActivityType
	Outcome         enums.ActivityOutcome
	DurationMinutes int
	Notes           *string
	CompletedAt     time.Time
	ActorUserID     uuid.UUID
	ActorRole       string
}

// ActivityList wraps the paginated activities plus the next page cursor.
type ActivityList struct {
	Activities []models.Activity `json:"activities"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// LoggedEvent is emitted for every recorded activity.
type LoggedEvent struct {
	ActivityID uuid.UUID             `json:"activity_id"`
	MerchantID uuid.UUID             `json:"merchant_id"`
	Type       enums.ActivityType    `json:"type"`
	Outcome    enums.ActivityOutcome `json:"outcome"`
}

// NewService wires an activity service with the required dependencies.
func NewService(repo Repository, merchants merchantReader, tx txRunner, ob outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	if merchants == nil {
		return nil, fmt.Errorf("merchant reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, merchants: merchants, tx: tx, outbox: ob}, nil
}

func (s *service) Log(ctx context.Context, input LogInput) (*models.Activity, error) {
	if input.MerchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid activity type %q", input.Type))
	}
	if !input.Outcome.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid activity outcome %q", input.Outcome))
	}
	if input.DurationMinutes < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration cannot be negative")
	}

	if _, err := s.merchants.FindByID(ctx, input.MerchantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}

	completedAt := input.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}

	activity := &models.Activity{
		ID:              uuid.New(),
		MerchantID:      input.MerchantID,
		Type:            input.Type,
		Outcome:         input.Outcome,
		DurationMinutes: input.DurationMinutes,
		Notes:           input.Notes,
		ActorUserID:     input.ActorUserID,
		CompletedAt:     completedAt,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, activity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create activity")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventActivityLogged,
			AggregateType: enums.AggregateActivity,
			AggregateID:   activity.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: LoggedEvent{
				ActivityID: activity.ID,
				MerchantID: activity.MerchantID,
				Type:       activity.Type,
				Outcome:    activity.Outcome,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *service) ListByMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*ActivityList, error) {
	if merchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	activities, next, err := s.repo.ListByMerchant(ctx, merchantID, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list activities")
	}

	list := &ActivityList{Activities: activities}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}
