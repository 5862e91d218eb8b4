package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
)

// Merchant is a business being sold to. Each merchant owns exactly one
// pipeline and has exactly one assigned representative at a time. Merchants
// are never hard-deleted; Archived marks them inactive.
type Merchant struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string                 `gorm:"column:name;not null"`
	Category      enums.MerchantCategory `gorm:"column:category;type:merchant_category_enum;not null"`
	ContactName   *string                `gorm:"column:contact_name"`
	ContactPhone  *string                `gorm:"column:contact_phone"`
	ContactEmail  *string                `gorm:"column:contact_email"`
	City          *string                `gorm:"column:city"`
	District      *string                `gorm:"column:district"`
	Tags          pq.StringArray         `gorm:"column:tags;type:text[]"`
	AssignedRepID uuid.UUID              `gorm:"column:assigned_rep_id;type:uuid;not null"`
	Archived      bool                   `gorm:"column:archived;not null;default:false"`
	CreatedByID   uuid.UUID              `gorm:"column:created_by_id;type:uuid;not null"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`

	Pipeline *Pipeline `gorm:"foreignKey:MerchantID"`
}
