package activities

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luisfigueroa/merchantflow-backend/pkg/db/models"
	"github.com/luisfigueroa/merchantflow-backend/pkg/pagination"
)

// Repository manages persistence for merchant activity logs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, activity *models.Activity) error
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Activity, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an activity repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *repository) ListByMerchant(ctx context.Context, merchantID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Activity, *pagination.Cursor, error) {
	buffered := pagination.LimitWithBuffer(limit)
	normalized := pagination.NormalizeLimit(limit)

	query := r.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("merchant_id = ?", merchantID)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var activities []models.Activity
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(buffered).
		Find(&activities).Error; err != nil {
		return nil, nil, err
	}

	if len(activities) > normalized {
		next := activities[normalized]
		activities = activities[:normalized]
		return activities, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return activities, nil, nil
}
