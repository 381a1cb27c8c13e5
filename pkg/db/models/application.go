package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Fares-ag/blox-backend/pkg/types"
)

// Application is a financing application. The payments core reads vehicle
// pricing and owns the embedded installment plan; everything else about an
// application lives outside this service.
type Application struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID      *uuid.UUID            `gorm:"column:customer_id;type:uuid"`
	VehiclePrice    decimal.Decimal       `gorm:"column:vehicle_price;type:numeric(12,2);not null"`
	DownPayment     decimal.Decimal       `gorm:"column:down_payment;type:numeric(12,2);not null;default:0"`
	InstallmentPlan types.InstallmentPlan `gorm:"column:installment_plan;type:jsonb"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// LoanAmount derives the financed principal, floored at zero.
func (a Application) LoanAmount() decimal.Decimal {
	loan := a.VehiclePrice.Sub(a.DownPayment)
	if loan.IsNegative() {
		return decimal.Zero
	}
	return loan
}
