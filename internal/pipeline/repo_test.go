package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/luisfigueroa/merchantflow-backend/pkg/db/models"
	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
)

func setupPipelineTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS pipelines (
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL,
  current_stage TEXT NOT NULL DEFAULT 'PENDING_FIRST_VISIT',
  next_action TEXT,
  next_action_at DATETIME,
  lost_reason TEXT,
  last_updated_by_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_pipelines_merchant ON pipelines (merchant_id);
CREATE TABLE IF NOT EXISTS pipeline_stage_histories (
  id TEXT PRIMARY KEY,
  pipeline_id TEXT NOT NULL,
  stage TEXT NOT NULL,
  actor_user_id TEXT NOT NULL,
  notes TEXT,
  entered_at DATETIME NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)

	return db
}

func TestRepositoryCreateAndFindByMerchant(t *testing.T) {
	db := setupPipelineTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	merchantID := uuid.New()
	pipeline := &models.Pipeline{
		ID:           uuid.New(),
		MerchantID:   merchantID,
		CurrentStage: enums.PipelineStagePendingFirstVisit,
	}
	require.NoError(t, repo.Create(ctx, pipeline))

	found, err := repo.FindByMerchant(ctx, merchantID)
	require.NoError(t, err)
	assert.Equal(t, pipeline.ID, found.ID)
	assert.Equal(t, enums.PipelineStagePendingFirstVisit, found.CurrentStage)
}

func TestRepositoryEnforcesOnePipelinePerMerchant(t *testing.T) {
	db := setupPipelineTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	merchantID := uuid.New()
	require.NoError(t, repo.Create(ctx, &models.Pipeline{
		ID:           uuid.New(),
		MerchantID:   merchantID,
		CurrentStage: enums.PipelineStagePendingFirstVisit,
	}))

	err := repo.Create(ctx, &models.Pipeline{
		ID:           uuid.New(),
		MerchantID:   merchantID,
		CurrentStage: enums.PipelineStagePendingFirstVisit,
	})
	require.Error(t, err)
}

func TestRepositoryAppendHistoryKeepsRevisitedStages(t *testing.T) {
	db := setupPipelineTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	pipelineID := uuid.New()
	actor := uuid.New()
	base := time.Now().Add(-time.Hour)

	stages := []enums.PipelineStage{
		enums.PipelineStageContacted,
		enums.PipelineStageFollowUpNeeded,
		enums.PipelineStageContacted,
	}
	for i, stage := range stages {
		require.NoError(t, repo.AppendHistory(ctx, &models.PipelineStageHistory{
			ID:          uuid.New(),
			PipelineID:  pipelineID,
			Stage:       stage,
			ActorUserID: actor,
			EnteredAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := repo.ListHistory(ctx, pipelineID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, enums.PipelineStageContacted, entries[0].Stage)
	assert.Equal(t, enums.PipelineStageFollowUpNeeded, entries[1].Stage)
	assert.Equal(t, enums.PipelineStageContacted, entries[2].Stage)
}

func TestRepositoryUpdateStage(t *testing.T) {
	db := setupPipelineTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	merchantID := uuid.New()
	pipeline := &models.Pipeline{
		ID:           uuid.New(),
		MerchantID:   merchantID,
		CurrentStage: enums.PipelineStagePendingFirstVisit,
	}
	require.NoError(t, repo.Create(ctx, pipeline))

	reason := "budget frozen"
	require.NoError(t, repo.Update(ctx, pipeline.ID, map[string]any{
		"current_stage": enums.PipelineStageLost,
		"lost_reason":   &reason,
	}))

	found, err := repo.FindByMerchant(ctx, merchantID)
	require.NoError(t, err)
	assert.Equal(t, enums.PipelineStageLost, found.CurrentStage)
	require.NotNil(t, found.LostReason)
	assert.Equal(t, reason, *found.LostReason)
}
