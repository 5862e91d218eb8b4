package pipeline

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luisfigueroa/merchantflow-backend/pkg/db/models"
)

// Repository manages persistence for pipelines and their stage history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, pipeline *models.Pipeline) error
	FindByMerchant(ctx context.Context, merchantID uuid.UUID) (*models.Pipeline, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	AppendHistory(ctx context.Context, entry *models.PipelineStageHistory) error
	ListHistory(ctx context.Context, pipelineID uuid.UUID) ([]models.PipelineStageHistory, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pipeline repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, pipeline *models.Pipeline) error {
	return r.db.WithContext(ctx).Create(pipeline).Error
}

func (r *repository) FindByMerchant(ctx context.Context, merchantID uuid.UUID) (*models.Pipeline, error) {
	var pipeline models.Pipeline
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		First(&pipeline).Error
	if err != nil {
		return nil, err
	}
	return &pipeline, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Pipeline{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// AppendHistory writes one row per transition event. Revisiting a stage
// appends a fresh row rather than touching an earlier one.
func (r *repository) AppendHistory(ctx context.Context, entry *models.PipelineStageHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListHistory(ctx context.Context, pipelineID uuid.UUID) ([]models.PipelineStageHistory, error) {
	var entries []models.PipelineStageHistory
	if err := r.db.WithContext(ctx).
		Where("pipeline_id = ?", pipelineID).
		Order("entered_at ASC").
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
