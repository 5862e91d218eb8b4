package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
)

// Onboarding is the post-sale setup checklist for a won merchant. At most one
// per merchant, created when the pipeline reaches WON. LiveDate is set exactly
// once, when status flips to LIVE.
type Onboarding struct {
	ID                   uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantID           uuid.UUID              `gorm:"column:merchant_id;type:uuid;not null;uniqueIndex:ux_onboardings_merchant"`
	Status               enums.OnboardingStatus `gorm:"column:status;type:onboarding_status_enum;not null;default:'IN_PROGRESS'"`
	SurveyFilled         bool                   `gorm:"column:survey_filled;not null;default:false"`
	OffersAdded          bool                   `gorm:"column:offers_added;not null;default:false"`
	BranchesCovered      bool                   `gorm:"column:branches_covered;not null;default:false"`
	AssetsComplete       bool                   `gorm:"column:assets_complete;not null;default:false"`
	QAApproved           bool                   `gorm:"column:qa_approved;not null;default:false"`
	CompletionPercentage decimal.Decimal        `gorm:"column:completion_percentage;type:numeric(4,3);not null;default:0"`
	LiveDate             *time.Time             `gorm:"column:live_date"`
	CreatedAt            time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// ChecklistFlags returns the checklist booleans in their canonical order.
func (o *Onboarding) ChecklistFlags() []bool {
	return []bool{o.SurveyFilled, o.OffersAdded, o.BranchesCovered, o.AssetsComplete, o.QAApproved}
}

// ChecklistComplete reports whether every checklist item is done.
func (o *Onboarding) ChecklistComplete() bool {
	for _, flag := range o.ChecklistFlags() {
		if !flag {
			return false
		}
	}
	return true
}
