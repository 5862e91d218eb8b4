package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
)

// Activity is an append-only record of a sales touchpoint with a merchant.
type Activity struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantID      uuid.UUID             `gorm:"column:merchant_id;type:uuid;not null;index:ix_activities_merchant"`
	Type            enums.ActivityType    `gorm:"column:type;type:activity_type_enum;not null"`
	Outcome         enums.ActivityOutcome `gorm:"column:outcome;type:activity_outcome_enum;not null"`
	DurationMinutes int                   `gorm:"column:duration_minutes;not null;default:0"`
	Notes           *string               `gorm:"column:notes"`
	ActorUserID     uuid.UUID             `gorm:"column:actor_user_id;type:uuid;not null"`
	CompletedAt     time.Time             `gorm:"column:completed_at;not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}
