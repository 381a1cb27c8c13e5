package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Fares-ag/blox-backend/pkg/enums"
)

// PaymentTransaction is the single source of truth for one gateway payment.
// The client-generated transaction_id correlates the initiate, verify, and
// webhook legs; the unique constraint on it serializes concurrent upserts.
type PaymentTransaction struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TransactionID string              `gorm:"column:transaction_id;uniqueIndex;not null"`
	PaymentID     *string             `gorm:"column:payment_id"`
	ApplicationID *uuid.UUID          `gorm:"column:application_id;type:uuid"`
	ScheduleIndex *int                `gorm:"column:schedule_index"`
	IsSettlement  bool                `gorm:"column:is_settlement;not null;default:false"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Method        enums.PaymentMethod `gorm:"column:method;type:payment_method;not null;default:'card'"`
	Status        enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	CompletedAt   *time.Time          `gorm:"column:completed_at"`
	FailureReason *string             `gorm:"column:failure_reason"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
