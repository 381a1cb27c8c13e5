package enums

import "fmt"

// ScheduleEntryStatus is the stored state of one installment. Overdue is a
// presentation-only state derived by callers from the due date, never stored.
type ScheduleEntryStatus string

const (
	ScheduleEntryUpcoming ScheduleEntryStatus = "upcoming"
	ScheduleEntryActive   ScheduleEntryStatus = "active"
	ScheduleEntryPaid     ScheduleEntryStatus = "paid"
)

var validScheduleEntryStatuses = []ScheduleEntryStatus{
	ScheduleEntryUpcoming,
	ScheduleEntryActive,
	ScheduleEntryPaid,
}

// String implements fmt.Stringer.
func (s ScheduleEntryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ScheduleEntryStatus.
func (s ScheduleEntryStatus) IsValid() bool {
	for _, candidate := range validScheduleEntryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseScheduleEntryStatus converts raw input into a ScheduleEntryStatus.
func ParseScheduleEntryStatus(value string) (ScheduleEntryStatus, error) {
	for _, candidate := range validScheduleEntryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid schedule entry status %q", value)
}
