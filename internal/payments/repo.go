package payments

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Fares-ag/blox-backend/pkg/db/models"
	"github.com/Fares-ag/blox-backend/pkg/enums"
	"github.com/Fares-ag/blox-backend/pkg/pagination"
)

// Repository handles payment transaction persistence. The unique constraint on
// transaction_id serializes concurrent writers; every status-changing write
// carries a guard so a completed row can never regress.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to payment transaction operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a fresh transaction row.
func (r *Repository) Create(ctx context.Context, tx *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// FindByTransactionID loads one transaction by its correlation key.
func (r *Repository) FindByTransactionID(ctx context.Context, transactionID string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// FindByPaymentID loads one transaction by the gateway's payment identifier.
func (r *Repository) FindByPaymentID(ctx context.Context, paymentID string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// Upsert writes the row keyed by transaction_id. On conflict the update is
// skipped when the stored row is already completed, which makes duplicate and
// out-of-order notifications harmless at the storage layer.
func (r *Repository) Upsert(ctx context.Context, tx *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "transaction_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"payment_id":     tx.PaymentID,
			"status":         tx.Status,
			"completed_at":   tx.CompletedAt,
			"failure_reason": tx.FailureReason,
			"updated_at":     time.Now().UTC(),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Neq{
				Column: clause.Column{Table: "payment_transactions", Name: "status"},
				Value:  enums.PaymentStatusCompleted,
			},
		}},
	}).Create(tx).Error
}

// AttachPaymentID records the gateway identifier on an existing row.
func (r *Repository) AttachPaymentID(ctx context.Context, transactionID, paymentID string) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("transaction_id = ?", transactionID).
		Update("payment_id", paymentID).Error
}

// ApplyStatus moves a transaction to the given status unless the stored row is
// already completed. It reports whether a row actually changed.
func (r *Repository) ApplyStatus(ctx context.Context, transactionID string, status enums.PaymentStatus, failureReason *string) (bool, error) {
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if status == enums.PaymentStatusCompleted {
		updates["completed_at"] = time.Now().UTC()
	}
	if failureReason != nil {
		updates["failure_reason"] = *failureReason
	}

	result := r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("transaction_id = ? AND status <> ?", transactionID, enums.PaymentStatusCompleted).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List returns transactions newest-first with cursor pagination, optionally
// filtered by status. The second return value is the cursor for the next page,
// empty when this page is the last.
func (r *Repository) List(ctx context.Context, status enums.PaymentStatus, params pagination.Params) ([]models.PaymentTransaction, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.PaymentTransaction{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.PaymentTransaction
	err = query.Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}
