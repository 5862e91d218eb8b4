package merchants

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/luisfigueroa/merchantflow-backend/internal/pipeline"
	"github.com/luisfigueroa/merchantflow-backend/pkg/db/models"
	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
	pkgerrors "github.com/luisfigueroa/merchantflow-backend/pkg/errors"
	"github.com/luisfigueroa/merchantflow-backend/pkg/outbox"
	"github.com/luisfigueroa/merchantflow-backend/pkg/pagination"
)

type fakeRepository struct {
	byID map[uuid.UUID]*models.Merchant
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{byID: map[uuid.UUID]*models.Merchant{}}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, merchant *models.Merchant) error {
	copied := *merchant
	f.byID[merchant.ID] = &copied
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	if stored, ok := f.byID[id]; ok {
		copied := *stored
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindByIDWithPipeline(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeRepository) List(ctx context.Context, params listParams) ([]models.Merchant, *pagination.Cursor, error) {
	var out []models.Merchant
	for _, stored := range f.byID {
		out = append(out, *stored)
	}
	return out, nil, nil
}

func (f *fakeRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	stored, ok := f.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["name"]; ok {
		stored.Name = v.(string)
	}
	if v, ok := updates["archived"]; ok {
		stored.Archived = v.(bool)
	}
	if v, ok := updates["assigned_rep_id"]; ok {
		stored.AssignedRepID = v.(uuid.UUID)
	}
	return nil
}

func (f *fakeRepository) CountByRep(ctx context.Context, repID uuid.UUID) (int64, error) {
	var count int64
	for _, stored := range f.byID {
		if stored.AssignedRepID == repID && !stored.Archived {
			count++
		}
	}
	return count, nil
}

type fakePipelineRepo struct {
	created []*models.Pipeline
}

func (f *fakePipelineRepo) WithTx(tx *gorm.DB) pipeline.Repository { return f }

func (f *fakePipelineRepo) Create(ctx context.Context, p *models.Pipeline) error {
	copied := *p
	f.created = append(f.created, &copied)
	return nil
}

func (f *fakePipelineRepo) FindByMerchant(ctx context.Context, merchantID uuid.UUID) (*models.Pipeline, error) {
	for _, p := range f.created {
		if p.MerchantID == merchantID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePipelineRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return nil
}

func (f *fakePipelineRepo) AppendHistory(ctx context.Context, entry *models.PipelineStageHistory) error {
	return nil
}

func (f *fakePipelineRepo) ListHistory(ctx context.Context, pipelineID uuid.UUID) ([]models.PipelineStageHistory, error) {
	return nil, nil
}

type fakeUsers struct {
	byID map[uuid.UUID]*models.User
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := f.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
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

type fixture struct {
	repo      *fakeRepository
	pipelines *fakePipelineRepo
	users     *fakeUsers
	outbox    *fakeOutbox
	svc       Service
	rep       *models.User
	actor     uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeRepository()
	pipelines := &fakePipelineRepo{}
	rep := &models.User{
		ID:     uuid.New(),
		Name:   "Dana Ortiz",
		Email:  "dana@merchantflow.dev",
		Role:   enums.UserRoleRep,
		Active: true,
	}
	users := &fakeUsers{byID: map[uuid.UUID]*models.User{rep.ID: rep}}
	ob := &fakeOutbox{}
	svc, err := NewService(repo, pipelines, users, fakeTxRunner{}, ob)
	require.NoError(t, err)
	return &fixture{
		repo:      repo,
		pipelines: pipelines,
		users:     users,
		outbox:    ob,
		svc:       svc,
		rep:       rep,
		actor:     uuid.New(),
	}
}

func TestCreateWritesMerchantAndPipelineTogether(t *testing.T) {
	f := newFixture(t)

	merchant, err := f.svc.Create(context.Background(), CreateInput{
		Name:          "Juniper Grocery",
		Category:      enums.MerchantCategoryGrocery,
		AssignedRepID: f.rep.ID,
		ActorUserID:   f.actor,
		ActorRole:     string(enums.UserRoleAdmin),
	})
	require.NoError(t, err)
	require.NotNil(t, merchant)
	assert.Equal(t, "Juniper Grocery", merchant.Name)
	assert.Equal(t, f.rep.ID, merchant.AssignedRepID)
	assert.False(t, merchant.Archived)

	require.Len(t, f.pipelines.created, 1)
	pipe := f.pipelines.created[0]
	assert.Equal(t, merchant.ID, pipe.MerchantID)
	assert.Equal(t, enums.PipelineStagePendingFirstVisit, pipe.CurrentStage)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, enums.EventMerchantCreated, f.outbox.events[0].EventType)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		input CreateInput
	}{
		{
			name: "blank name",
			input: CreateInput{
				Name:          "   ",
				Category:      enums.MerchantCategoryGrocery,
				AssignedRepID: f.rep.ID,
				ActorUserID:   f.actor,
			},
		},
		{
			name: "invalid category",
			input: CreateInput{
				Name:          "Juniper Grocery",
				Category:      enums.MerchantCategory("BODEGA"),
				AssignedRepID: f.rep.ID,
				ActorUserID:   f.actor,
			},
		},
		{
			name: "missing rep",
			input: CreateInput{
				Name:        "Juniper Grocery",
				Category:    enums.MerchantCategoryGrocery,
				ActorUserID: f.actor,
			},
		},
		{
			name: "unknown rep",
			input: CreateInput{
				Name:          "Juniper Grocery",
				Category:      enums.MerchantCategoryGrocery,
				AssignedRepID: uuid.New(),
				ActorUserID:   f.actor,
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tc.input)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestCreateRejectsInactiveRep(t *testing.T) {
	f := newFixture(t)
	f.rep.Active = false

	_, err := f.svc.Create(context.Background(), CreateInput{
		Name:          "Juniper Grocery",
		Category:      enums.MerchantCategoryGrocery,
		AssignedRepID: f.rep.ID,
		ActorUserID:   f.actor,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestUpdatePatchesProvidedFieldsOnly(t *testing.T) {
	f := newFixture(t)
	merchant, err := f.svc.Create(context.Background(), CreateInput{
		Name:          "Juniper Grocery",
		Category:      enums.MerchantCategoryGrocery,
		AssignedRepID: f.rep.ID,
		ActorUserID:   f.actor,
	})
	require.NoError(t, err)

	name := "Juniper Market"
	updated, err := f.svc.Update(context.Background(), UpdateInput{
		MerchantID:  merchant.ID,
		Name:        &name,
		ActorUserID: f.actor,
	})
	require.NoError(t, err)
	assert.Equal(t, "Juniper Market", updated.Name)
	assert.Equal(t, f.rep.ID, updated.AssignedRepID)
}

func TestUpdateArchivesInsteadOfDeleting(t *testing.T) {
	f := newFixture(t)
	merchant, err := f.svc.Create(context.Background(), CreateInput{
		Name:          "Juniper Grocery",
		Category:      enums.MerchantCategoryGrocery,
		AssignedRepID: f.rep.ID,
		ActorUserID:   f.actor,
	})
	require.NoError(t, err)

	archived := true
	updated, err := f.svc.Update(context.Background(), UpdateInput{
		MerchantID:  merchant.ID,
		Archived:    &archived,
		ActorUserID: f.actor,
	})
	require.NoError(t, err)
	assert.True(t, updated.Archived)

	// row still exists
	got, err := f.svc.Get(context.Background(), merchant.ID)
	require.NoError(t, err)
	assert.True(t, got.Archived)
}

func TestReassignRepEmitsEvent(t *testing.T) {
	f := newFixture(t)
	merchant, err := f.svc.Create(context.Background(), CreateInput{
		Name:          "Juniper Grocery",
		Category:      enums.MerchantCategoryGrocery,
		AssignedRepID: f.rep.ID,
		ActorUserID:   f.actor,
	})
	require.NoError(t, err)
	f.outbox.events = nil

	newRep := &models.User{ID: uuid.New(), Role: enums.UserRoleRep, Active: true}
	f.users.byID[newRep.ID] = newRep

	updated, err := f.svc.ReassignRep(context.Background(), ReassignInput{
		MerchantID:  merchant.ID,
		NewRepID:    newRep.ID,
		ActorUserID: f.actor,
		ActorRole:   string(enums.UserRoleManager),
	})
	require.NoError(t, err)
	assert.Equal(t, newRep.ID, updated.AssignedRepID)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, enums.EventMerchantRepReassigned, f.outbox.events[0].EventType)
	change, ok := f.outbox.events[0].Data.(RepReassignedEvent)
	require.True(t, ok)
	assert.Equal(t, f.rep.ID, change.FromRepID)
	assert.Equal(t, newRep.ID, change.ToRepID)
}

func TestReassignRepToSameRepIsNoOp(t *testing.T) {
	f := newFixture(t)
	merchant, err := f.svc.Create(context.Background(), CreateInput{
		Name:          "Juniper Grocery",
		Category:      enums.MerchantCategoryGrocery,
		AssignedRepID: f.rep.ID,
		ActorUserID:   f.actor,
	})
	require.NoError(t, err)
	f.outbox.events = nil

	updated, err := f.svc.ReassignRep(context.Background(), ReassignInput{
		MerchantID:  merchant.ID,
		NewRepID:    f.rep.ID,
		ActorUserID: f.actor,
	})
	require.NoError(t, err)
	assert.Equal(t, f.rep.ID, updated.AssignedRepID)
	assert.Empty(t, f.outbox.events)
}
