package enums

import "strings"

// PaymentInterval is the cadence of an installment plan.
type PaymentInterval string

const (
	PaymentIntervalMonthly PaymentInterval = "monthly"
	PaymentIntervalDaily   PaymentInterval = "daily"
)

// String implements fmt.Stringer.
func (p PaymentInterval) String() string {
	return string(p)
}

// ParsePaymentInterval normalizes raw input into a cadence. Anything that is
// not a case-insensitive, trimmed match of "daily" is treated as monthly.
func ParsePaymentInterval(value string) PaymentInterval {
	if strings.EqualFold(strings.TrimSpace(value), string(PaymentIntervalDaily)) {
		return PaymentIntervalDaily
	}
	return PaymentIntervalMonthly
}
