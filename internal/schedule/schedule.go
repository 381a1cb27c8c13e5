package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Fares-ag/blox-backend/pkg/enums"
	"github.com/Fares-ag/blox-backend/pkg/types"
)

// GenerateParams describes one schedule computation. The engine performs no
// I/O and raises no domain errors; callers reject malformed numeric input
// before invoking it.
type GenerateParams struct {
	MonthlyPayment decimal.Decimal
	TenureMonths   int
	Interval       enums.PaymentInterval

	// StartDate defaults to tomorrow (daily) or the first day of the next
	// calendar month (monthly).
	StartDate *types.Date

	// Existing carries the previous schedule during regeneration: an entry
	// already paid at a given index stays paid with its original paid date.
	Existing []types.ScheduleEntry

	// Now anchors status assignment; zero means the wall clock.
	Now time.Time
}

// Generate produces the ordered due-payment sequence for a financed vehicle:
// one entry per tenure period, ascending by date, statuses evaluated once
// against today. Periods that already lie in the past generate as paid with
// paidDate equal to the due date; this back-fill is a standing business rule,
// not an accident of implementation.
func Generate(params GenerateParams) []types.ScheduleEntry {
	if params.TenureMonths <= 0 {
		return nil
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := types.NewDate(now)

	start := defaultStartDate(params.Interval, today)
	if params.StartDate != nil {
		start = *params.StartDate
	}

	entries := make([]types.ScheduleEntry, 0, params.TenureMonths)
	for i := 0; i < params.TenureMonths; i++ {
		due := start.AddMonths(i)
		if params.Interval == enums.PaymentIntervalDaily {
			due = start.AddDays(i)
		}

		entry := types.ScheduleEntry{
			DueDate: due,
			Amount:  params.MonthlyPayment,
		}

		switch {
		case carryForwardPaid(params.Existing, i):
			entry.Status = enums.ScheduleEntryPaid
			entry.PaidDate = params.Existing[i].PaidDate
		case due.Before(today.Time):
			paid := due
			entry.Status = enums.ScheduleEntryPaid
			entry.PaidDate = &paid
		case inCurrentPeriod(due, today, params.Interval):
			entry.Status = enums.ScheduleEntryActive
		default:
			entry.Status = enums.ScheduleEntryUpcoming
		}

		entries = append(entries, entry)
	}
	return entries
}

// Shift moves every due date by the signed distance between the new first
// payment date and the current one, measured in the interval's unit. Statuses
// and paid dates are untouched, so nudging the start date never destroys paid
// history. A zero offset returns the entries unchanged.
func Shift(entries []types.ScheduleEntry, interval enums.PaymentInterval, newFirst types.Date) []types.ScheduleEntry {
	if len(entries) == 0 {
		return entries
	}

	offset := entries[0].DueDate.MonthsUntil(newFirst)
	if interval == enums.PaymentIntervalDaily {
		offset = entries[0].DueDate.DaysUntil(newFirst)
	}

	shifted := make([]types.ScheduleEntry, len(entries))
	copy(shifted, entries)
	if offset == 0 {
		return shifted
	}

	for i := range shifted {
		if interval == enums.PaymentIntervalDaily {
			shifted[i].DueDate = shifted[i].DueDate.AddDays(offset)
		} else {
			shifted[i].DueDate = shifted[i].DueDate.AddMonths(offset)
		}
	}
	return shifted
}

// BuildPlan assembles the full installment plan stored on an application.
type PlanParams struct {
	TenureLabel    string
	Interval       enums.PaymentInterval
	MonthlyPayment decimal.Decimal
	VehiclePrice   decimal.Decimal
	DownPayment    decimal.Decimal
	StartDate      *types.Date
	Existing       []types.ScheduleEntry
	Now            time.Time
}

func BuildPlan(params PlanParams) (types.InstallmentPlan, error) {
	tenure, err := ParseTenureMonths(params.TenureLabel)
	if err != nil {
		return types.InstallmentPlan{}, err
	}
	return types.InstallmentPlan{
		Tenure:        params.TenureLabel,
		Interval:      params.Interval,
		MonthlyAmount: params.MonthlyPayment,
		TotalAmount:   params.MonthlyPayment.Mul(decimal.NewFromInt(int64(tenure))),
		DownPayment:   params.DownPayment,
		Schedule: Generate(GenerateParams{
			MonthlyPayment: params.MonthlyPayment,
			TenureMonths:   tenure,
			Interval:       params.Interval,
			StartDate:      params.StartDate,
			Existing:       params.Existing,
			Now:            params.Now,
		}),
	}, nil
}

// ParseTenureMonths reads the leading integer out of a human tenure label
// such as "36 Months".
func ParseTenureMonths(label string) (int, error) {
	fields := strings.Fields(strings.TrimSpace(label))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty tenure label")
	}
	months, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("invalid tenure label %q", label)
	}
	if months <= 0 {
		return 0, fmt.Errorf("tenure must be positive, got %d", months)
	}
	return months, nil
}

func defaultStartDate(interval enums.PaymentInterval, today types.Date) types.Date {
	if interval == enums.PaymentIntervalDaily {
		return today.AddDays(1)
	}
	return types.NewDate(time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, time.UTC))
}

func carryForwardPaid(existing []types.ScheduleEntry, index int) bool {
	return index < len(existing) && existing[index].Status == enums.ScheduleEntryPaid
}

func inCurrentPeriod(due, today types.Date, interval enums.PaymentInterval) bool {
	if interval == enums.PaymentIntervalDaily {
		return due.Equal(today.Time)
	}
	return due.SameMonth(today)
}
