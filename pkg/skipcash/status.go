package skipcash

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Fares-ag/blox-backend/pkg/enums"
)

// Gateway status codes as documented by SkipCash.
const (
	StatusNew           = 0
	StatusPending       = 1
	StatusPaid          = 2
	StatusCanceled      = 3
	StatusFailed        = 4
	StatusRejected      = 5
	StatusRefunded      = 6
	StatusPendingRefund = 7
	StatusRefundFailed  = 8
)

// CanonicalStatus maps a gateway status code onto the platform's payment
// lifecycle. The verify and webhook paths both go through this table so the
// two call sites cannot drift. Unknown codes stay pending.
func CanonicalStatus(code int) enums.PaymentStatus {
	switch code {
	case StatusPaid, StatusRefunded:
		return enums.PaymentStatusCompleted
	case StatusCanceled:
		return enums.PaymentStatusCancelled
	case StatusFailed, StatusRejected, StatusRefundFailed:
		return enums.PaymentStatusFailed
	case StatusNew, StatusPending, StatusPendingRefund:
		return enums.PaymentStatusPending
	default:
		return enums.PaymentStatusPending
	}
}

// StatusName returns the gateway's human label for a status code.
func StatusName(code int) string {
	switch code {
	case StatusNew:
		return "new"
	case StatusPending:
		return "pending"
	case StatusPaid:
		return "paid"
	case StatusCanceled:
		return "canceled"
	case StatusFailed:
		return "failed"
	case StatusRejected:
		return "rejected"
	case StatusRefunded:
		return "refunded"
	case StatusPendingRefund:
		return "pending refund"
	case StatusRefundFailed:
		return "refund failed"
	default:
		return "unknown"
	}
}

// StatusID tolerates the gateway sending the code as a JSON number or string.
type StatusID int

func (s StatusID) Int() int {
	return int(s)
}

func (s StatusID) String() string {
	return strconv.Itoa(int(s))
}

func (s *StatusID) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return err
	}
	*s = StatusID(parsed)
	return nil
}

func (s StatusID) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(s))
}
