package merchants

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luisfigueroa/merchantflow-backend/pkg/db/models"
	"github.com/luisfigueroa/merchantflow-backend/pkg/pagination"
)

// Repository manages persistence for merchants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, merchant *models.Merchant) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
	FindByIDWithPipeline(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
	List(ctx context.Context, params listParams) ([]models.Merchant, *pagination.Cursor, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CountByRep(ctx context.Context, repID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a merchant repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, merchant *models.Merchant) error {
	return r.db.WithContext(ctx).Create(merchant).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	var merchant models.Merchant
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&merchant).Error
	if err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (r *repository) FindByIDWithPipeline(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	var merchant models.Merchant
	err := r.db.WithContext(ctx).
		Preload("Pipeline").
		Where("id = ?", id).
		First(&merchant).Error
	if err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.Merchant, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Merchant{})
	query = applyFilters(query, params.Filters)
	if params.Cursor != nil {
		query = query.Where("(merchants.created_at, merchants.id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var merchants []models.Merchant
	if err := query.
		Preload("Pipeline").
		Order("merchants.created_at DESC, merchants.id DESC").
		Limit(limit).
		Find(&merchants).Error; err != nil {
		return nil, nil, err
	}

	if len(merchants) > normalized {
		next := merchants[normalized]
		merchants = merchants[:normalized]
		return merchants, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return merchants, nil, nil
}

func applyFilters(query *gorm.DB, filters ListFilters) *gorm.DB {
	if filters.Category != nil {
		query = query.Where("merchants.category = ?", *filters.Category)
	}
	if filters.AssignedRepID != nil {
		query = query.Where("merchants.assigned_rep_id = ?", *filters.AssignedRepID)
	}
	if filters.City != nil {
		query = query.Where("merchants.city = ?", *filters.City)
	}
	if filters.District != nil {
		query = query.Where("merchants.district = ?", *filters.District)
	}
	if filters.Archived != nil {
		query = query.Where("merchants.archived = ?", *filters.Archived)
	}
	if filters.Stage != nil {
		query = query.
			Joins("JOIN pipelines ON pipelines.merchant_id = merchants.id").
			Where("pipelines.current_stage = ?", *filters.Stage)
	}
	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Where("merchants.name LIKE ?", pattern)
	}
	return query
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Merchant{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CountByRep(ctx context.Context, repID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Merchant{}).
		Where("assigned_rep_id = ? AND archived = ?", repID, false).
		Count(&count).Error
	return count, err
}
