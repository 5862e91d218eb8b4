package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
)

// PayoutEntry records a single commission or bonus owed to a representative.
// The (merchant_id, reason, recipient_id) unique index is the ledger's
// idempotency guarantee; duplicate inserts must be treated as no-ops.
type PayoutEntry struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantID  uuid.UUID          `gorm:"column:merchant_id;type:uuid;not null;uniqueIndex:ux_payout_entries_merchant_reason_recipient,priority:1"`
	Reason      enums.PayoutReason `gorm:"column:reason;type:payout_reason_enum;not null;uniqueIndex:ux_payout_entries_merchant_reason_recipient,priority:2"`
	RecipientID uuid.UUID          `gorm:"column:recipient_id;type:uuid;not null;uniqueIndex:ux_payout_entries_merchant_reason_recipient,priority:3"`
	Amount      decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency    string             `gorm:"column:currency;not null;default:'USD'"`
	Status      enums.PayoutStatus `gorm:"column:status;type:payout_status_enum;not null;default:'PAID'"`
	Description *string            `gorm:"column:description"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}
