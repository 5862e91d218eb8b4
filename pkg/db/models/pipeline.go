package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
)

// Pipeline tracks a merchant's position in the sales funnel. One per merchant,
// created together with the merchant at stage PENDING_FIRST_VISIT.
type Pipeline struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantID      uuid.UUID           `gorm:"column:merchant_id;type:uuid;not null;uniqueIndex:ux_pipelines_merchant"`
	CurrentStage    enums.PipelineStage `gorm:"column:current_stage;type:pipeline_stage_enum;not null;default:'PENDING_FIRST_VISIT'"`
	NextAction      *string             `gorm:"column:next_action"`
	NextActionAt    *time.Time          `gorm:"column:next_action_at"`
	LostReason      *string             `gorm:"column:lost_reason"`
	LastUpdatedByID *uuid.UUID          `gorm:"column:last_updated_by_id;type:uuid"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// PipelineStageHistory is the append-only transition log. One row per
// transition event; revisiting a stage appends a new row instead of touching
// the earlier one.
type PipelineStageHistory struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PipelineID  uuid.UUID           `gorm:"column:pipeline_id;type:uuid;not null;index:ix_pipeline_stage_history_pipeline"`
	Stage       enums.PipelineStage `gorm:"column:stage;type:pipeline_stage_enum;not null"`
	ActorUserID uuid.UUID           `gorm:"column:actor_user_id;type:uuid;not null"`
	Notes       *string             `gorm:"column:notes"`
	EnteredAt   time.Time           `gorm:"column:entered_at;not null"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
}
