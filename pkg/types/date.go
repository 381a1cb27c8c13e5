package types

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day without a time component. Installment due dates are
// whole days; serializing them as YYYY-MM-DD keeps the stored plan stable
// across timezones.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate reads a YYYY-MM-DD string.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return Date{Time: t}, nil
}

// AddDays returns the date shifted by the given number of days.
func (d Date) AddDays(days int) Date {
	return NewDate(d.Time.AddDate(0, 0, days))
}

// AddMonths returns the date shifted by the given number of calendar months.
func (d Date) AddMonths(months int) Date {
	return NewDate(d.Time.AddDate(0, months, 0))
}

// DaysUntil returns the signed whole-day distance from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// MonthsUntil returns the signed calendar-month distance from d to other.
func (d Date) MonthsUntil(other Date) int {
	return (other.Year()-d.Year())*12 + int(other.Month()) - int(d.Month())
}

// SameMonth reports whether both dates fall in the same calendar month.
func (d Date) SameMonth(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month()
}

func (d Date) String() string {
	return d.Time.Format(dateLayout)
}

// MarshalJSON emits the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts YYYY-MM-DD and, for compatibility with older stored
// plans, full RFC3339 timestamps.
func (d *Date) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*d = Date{}
		return nil
	}
	if parsed, err := time.Parse(dateLayout, raw); err == nil {
		*d = Date{Time: parsed}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("invalid date %q", raw)
	}
	*d = NewDate(parsed)
	return nil
}
