package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/Fares-ag/blox-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// ScheduleEntry is one due payment inside an installment plan.
type ScheduleEntry struct {
	DueDate  Date                      `json:"dueDate"`
	Amount   decimal.Decimal           `json:"amount"`
	Status   enums.ScheduleEntryStatus `json:"status"`
	PaidDate *Date                     `json:"paidDate,omitempty"`
}

// InstallmentPlan mirrors the installment_plan JSONB column on applications.
// It is replaced wholesale on edit, except when only the schedule dates shift.
type InstallmentPlan struct {
	Tenure        string                `json:"tenure"`
	Interval      enums.PaymentInterval `json:"interval"`
	MonthlyAmount decimal.Decimal       `json:"monthlyAmount"`
	TotalAmount   decimal.Decimal       `json:"totalAmount"`
	DownPayment   decimal.Decimal       `json:"downPayment"`
	Schedule      []ScheduleEntry       `json:"schedule"`
}

// Value marshals the plan into JSONB.
func (p InstallmentPlan) Value() (driver.Value, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("installment plan: %w", err)
	}
	return string(payload), nil
}

// Scan decodes the JSONB column.
func (p *InstallmentPlan) Scan(value interface{}) error {
	if value == nil {
		*p = InstallmentPlan{}
		return nil
	}
	var payload []byte
	switch v := value.(type) {
	case []byte:
		payload = v
	case string:
		payload = []byte(v)
	default:
		return fmt.Errorf("installment plan: unsupported source type %T", value)
	}
	if len(payload) == 0 {
		*p = InstallmentPlan{}
		return nil
	}
	return json.Unmarshal(payload, p)
}
