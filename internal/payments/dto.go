package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Fares-ag/blox-backend/pkg/enums"
)

// InitiateParams carries everything needed to open a gateway payment. The
// caller supplies TransactionID; it is the correlation key for the whole flow.
type InitiateParams struct {
	Amount        decimal.Decimal
	FirstName     string
	LastName      string
	Phone         string
	Email         string
	TransactionID string

	// Optional correlation back to the financed application. Persisted on the
	// transaction row so the webhook can find the schedule to mark.
	ApplicationID *uuid.UUID
	ScheduleIndex *int
	IsSettlement  bool

	Street        string
	City          string
	State         string
	Country       string
	PostalCode    string
	Subject       string
	Description   string
	OnlyDebitCard bool
}

// InitiateResult is what the caller needs to redirect the customer.
type InitiateResult struct {
	TransactionID string `json:"transactionId"`
	PaymentID     string `json:"paymentId"`
	PaymentURL    string `json:"paymentUrl"`
}

// VerifyParams identifies the payment to resolve. At least one of the two
// identifiers is required.
type VerifyParams struct {
	TransactionID string
	PaymentID     string
}

// VerifyResult reports the current truth of a payment as seen by the verify
// flow. AwaitedWebhook is true when the gateway said paid but the webhook had
// not landed within the poll window.
type VerifyResult struct {
	TransactionID  string              `json:"transactionId"`
	PaymentID      string              `json:"paymentId,omitempty"`
	Status         enums.PaymentStatus `json:"status"`
	StatusID       int                 `json:"statusId"`
	StatusName     string              `json:"statusName,omitempty"`
	AwaitedWebhook bool                `json:"-"`
}
