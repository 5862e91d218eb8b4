package merchants

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/luisfigueroa/merchantflow-backend/internal/pipeline"
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

type repReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service defines merchant profile operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Merchant, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*MerchantList, error)
	Update(ctx context.Context, input UpdateInput) (*models.Merchant, error)
	ReassignRep(ctx context.Context, input ReassignInput) (*models.Merchant, error)
}

type service struct {
	repo      Repository
	pipelines pipeline.Repository
	users     repReader
	tx        txRunner
	outbox    outboxPublisher
}

// CreateInput captures a new merchant profile.
type CreateInput struct {
	Name          string
	Category      enums.MerchantCategory
	ContactName   *string
	ContactPhone  *string
	ContactEmail  *string
	City          *string
	District      *string
	Tags          []string
	AssignedRepID uuid.UUID
	ActorUserID   uuid.UUID
	ActorRole     string
}

// UpdateInput patches merchant profile fields. Nil fields are left untouched.
type UpdateInput struct {
	MerchantID   uuid.UUID
	Name         *string
	Category     *enums.MerchantCategory
	ContactName  *string
	ContactPhone *string
	ContactEmail *string
	City         *string
	District     *string
	Tags         []string
	Archived     *bool
	ActorUserID  uuid.UUID
	ActorRole    string
}

// ReassignInput moves a merchant to a different representative.
type ReassignInput struct {
	MerchantID  uuid.UUID
	NewRepID    uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   string
}

// CreatedEvent is emitted when a merchant and its pipeline are created.
type CreatedEvent struct {
	MerchantID    uuid.UUID              `json:"merchant_id"`
	Name          string                 `json:"name"`
	Category      enums.MerchantCategory `json:"category"`
	AssignedRepID uuid.UUID              `json:"assigned_rep_id"`
	PipelineID    uuid.UUID              `json:"pipeline_id"`
}

// RepReassignedEvent is emitted when the owning rep changes.
type RepReassignedEvent struct {
	MerchantID uuid.UUID `json:"merchant_id"`
	FromRepID  uuid.UUID `json:"from_rep_id"`
	ToRepID    uuid.UUID `json:"to_rep_id"`
}

// NewService wires a merchant service with the required dependencies.
func NewService(repo Repository, pipelines pipeline.Repository, users repReader, tx txRunner, ob outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("merchant repository required")
	}
	if pipelines == nil {
		return nil, fmt.Errorf("pipeline repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:      repo,
		pipelines: pipelines,
		users:     users,
		tx:        tx,
		outbox:    ob,
	}, nil
}

// Create persists the merchant together with its pipeline at
// PENDING_FIRST_VISIT. The two rows are written in one transaction so a
// merchant is never visible without a pipeline.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Merchant, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant name required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid merchant category %q", input.Category))
	}
	if input.AssignedRepID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assigned rep id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := s.checkRep(ctx, input.AssignedRepID); err != nil {
		return nil, err
	}

	merchant := &models.Merchant{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(input.Name),
		Category:      input.Category,
		ContactName:   input.ContactName,
		ContactPhone:  input.ContactPhone,
		ContactEmail:  input.ContactEmail,
		City:          input.City,
		District:      input.District,
		Tags:          pq.StringArray(input.Tags),
		AssignedRepID: input.AssignedRepID,
		CreatedByID:   input.ActorUserID,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, merchant); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create merchant")
		}

		pipe := &models.Pipeline{
			ID:              uuid.New(),
			MerchantID:      merchant.ID,
			CurrentStage:    enums.PipelineStagePendingFirstVisit,
			LastUpdatedByID: &input.ActorUserID,
		}
		if err := s.pipelines.WithTx(tx).Create(ctx, pipe); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pipeline")
		}
		merchant.Pipeline = pipe

		event := outbox.DomainEvent{
			EventType:     enums.EventMerchantCreated,
			AggregateType: enums.AggregateMerchant,
			AggregateID:   merchant.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: CreatedEvent{
				MerchantID:    merchant.ID,
				Name:          merchant.Name,
				Category:      merchant.Category,
				AssignedRepID: merchant.AssignedRepID,
				PipelineID:    pipe.ID,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return merchant, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	merchant, err := s.repo.FindByIDWithPipeline(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}
	return merchant, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*MerchantList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	merchants, next, err := s.repo.List(ctx, listParams{
		Filters: filters,
		Cursor:  cursor,
		Limit:   params.Limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list merchants")
	}

	list := &MerchantList{Merchants: merchants}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Merchant, error) {
	if input.MerchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	if input.Category != nil && !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid merchant category %q", *input.Category))
	}

	updates := map[string]any{}
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant name cannot be blank")
		}
		updates["name"] = trimmed
	}
	if input.Category != nil {
		updates["category"] = *input.Category
	}
	if input.ContactName != nil {
		updates["contact_name"] = input.ContactName
	}
	if input.ContactPhone != nil {
		updates["contact_phone"] = input.ContactPhone
	}
	if input.ContactEmail != nil {
		updates["contact_email"] = input.ContactEmail
	}
	if input.City != nil {
		updates["city"] = input.City
	}
	if input.District != nil {
		updates["district"] = input.District
	}
	if input.Tags != nil {
		updates["tags"] = pq.StringArray(input.Tags)
	}
	if input.Archived != nil {
		updates["archived"] = *input.Archived
	}
	if len(updates) == 0 {
		return s.Get(ctx, input.MerchantID)
	}

	var result *models.Merchant
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, input.MerchantID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
		}
		if err := repo.Update(ctx, input.MerchantID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update merchant")
		}
		updated, err := repo.FindByIDWithPipeline(ctx, input.MerchantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload merchant")
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ReassignRep(ctx context.Context, input ReassignInput) (*models.Merchant, error) {
	if input.MerchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	if input.NewRepID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "new rep id required")
	}
	if err := s.checkRep(ctx, input.NewRepID); err != nil {
		return nil, err
	}

	var result *models.Merchant
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		merchant, err := repo.FindByID(ctx, input.MerchantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
		}
		if merchant.AssignedRepID == input.NewRepID {
			result = merchant
			return nil
		}
		fromRep := merchant.AssignedRepID

		if err := repo.Update(ctx, merchant.ID, map[string]any{"assigned_rep_id": input.NewRepID}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reassign merchant rep")
		}
		merchant.AssignedRepID = input.NewRepID

		event := outbox.DomainEvent{
			EventType:     enums.EventMerchantRepReassigned,
			AggregateType: enums.AggregateMerchant,
			AggregateID:   merchant.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: RepReassignedEvent{
				MerchantID: merchant.ID,
				FromRepID:  fromRep,
				ToRepID:    input.NewRepID,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
		result = merchant
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) checkRep(ctx context.Context, repID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, repID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "assigned rep does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assigned rep")
	}
	if !user.Active {
		return pkgerrors.New(pkgerrors.CodeValidation, "assigned rep is inactive")
	}
	return nil
}
