package onboarding

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luisfigueroa/merchantflow-backend/pkg/db/models"
	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
)

// Repository manages persistence for onboarding checklists.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, onboarding *models.Onboarding) error
	FindByMerchant(ctx context.Context, merchantID uuid.UUID) (*models.Onboarding, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateIfStatus(ctx context.Context, id uuid.UUID, status enums.OnboardingStatus, updates map[string]any) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an onboarding repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, onboarding *models.Onboarding) error {
	return r.db.WithContext(ctx).Create(onboarding).Error
}

func (r *repository) FindByMerchant(ctx context.Context, merchantID uuid.UUID) (*models.Onboarding, error) {
	var onboarding models.Onboarding
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		First(&onboarding).Error
	if err != nil {
		return nil, err
	}
	return &onboarding, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Onboarding{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateIfStatus applies updates only while the row still holds the given
// status, and reports whether a row was changed. A concurrent writer that
// already moved the row causes a zero-row update, not an error.
func (r *repository) UpdateIfStatus(ctx context.Context, id uuid.UUID, status enums.OnboardingStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Onboarding{}).
		Where("id = ? AND status = ?", id, status).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
