package payouts

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/luisfigueroa/merchantflow-backend/pkg/db/models"
	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
)

// Repository manages persistence for payout ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Record(ctx context.Context, entry *models.PayoutEntry) (bool, error)
	FindByKey(ctx context.Context, merchantID uuid.UUID, reason enums.PayoutReason, recipientID uuid.UUID) (*models.PayoutEntry, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]models.PayoutEntry, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.PayoutEntry, error)
	TotalByRecipient(ctx context.Context, recipientID uuid.UUID) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payout repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Record inserts the entry, relying on the (merchant_id, reason, recipient_id)
// unique index to swallow duplicates. It reports whether a row was inserted;
// on a duplicate the stored entry is loaded into entry unchanged.
func (r *repository) Record(ctx context.Context, entry *models.PayoutEntry) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "merchant_id"},
				{Name: "reason"},
				{Name: "recipient_id"},
			},
			DoNothing: true,
		}).
		Create(entry)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	existing, err := r.FindByKey(ctx, entry.MerchantID, entry.Reason, entry.RecipientID)
	if err != nil {
		return false, err
	}
	*entry = *existing
	return false, nil
}

func (r *repository) FindByKey(ctx context.Context, merchantID uuid.UUID, reason enums.PayoutReason, recipientID uuid.UUID) (*models.PayoutEntry, error) {
	var entry models.PayoutEntry
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND reason = ? AND recipient_id = ?", merchantID, reason, recipientID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]models.PayoutEntry, error) {
	var entries []models.PayoutEntry
	if err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.PayoutEntry, error) {
	var entries []models.PayoutEntry
	if err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) TotalByRecipient(ctx context.Context, recipientID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.PayoutEntry{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("recipient_id = ? AND status = ?", recipientID, enums.PayoutStatusPaid).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
