package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Fares-ag/blox-backend/api/responses"
	"github.com/Fares-ag/blox-backend/api/validators"
	"github.com/Fares-ag/blox-backend/internal/payments"
	pkgerrors "github.com/Fares-ag/blox-backend/pkg/errors"
	"github.com/Fares-ag/blox-backend/pkg/logger"
)

// PaymentsService is the surface the payment controllers need.
type PaymentsService interface {
	Initiate(ctx context.Context, params payments.InitiateParams) (*payments.InitiateResult, error)
	Verify(ctx context.Context, params payments.VerifyParams) (*payments.VerifyResult, error)
}

// Required-field checks live in the service so one error can enumerate every
// missing field; the request struct deliberately carries no validate tags.
type initiatePaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	Phone         string          `json:"phone"`
	Email         string          `json:"email"`
	TransactionID string          `json:"transactionId"`

	ApplicationID *uuid.UUID `json:"applicationId,omitempty"`
	ScheduleIndex *int       `json:"paymentScheduleId,omitempty"`
	IsSettlement  bool       `json:"isSettlement,omitempty"`

	Street        string `json:"street,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	Country       string `json:"country,omitempty"`
	PostalCode    string `json:"postalCode,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Description   string `json:"description,omitempty"`
	OnlyDebitCard bool   `json:"onlyDebitCard,omitempty"`
}

// InitiatePayment opens a gateway payment and returns the redirect URL.
func InitiatePayment(svc PaymentsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var req initiatePaymentRequest
		if err := validators.DecodeLenientJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Initiate(ctx, payments.InitiateParams{
			Amount:        req.Amount,
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			Phone:         req.Phone,
			Email:         req.Email,
			TransactionID: req.TransactionID,
			ApplicationID: req.ApplicationID,
			ScheduleIndex: req.ScheduleIndex,
			IsSettlement:  req.IsSettlement,
			Street:        req.Street,
			City:          req.City,
			State:         req.State,
			Country:       req.Country,
			PostalCode:    req.PostalCode,
			Subject:       req.Subject,
			Description:   req.Description,
			OnlyDebitCard: req.OnlyDebitCard,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type verifyPaymentRequest struct {
	TransactionID string `json:"transactionId,omitempty"`
	PaymentID     string `json:"paymentId,omitempty"`
}

// VerifyPayment resolves the current truth of a payment for the result page.
func VerifyPayment(svc PaymentsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var req verifyPaymentRequest
		if err := validators.DecodeLenientJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Verify(ctx, payments.VerifyParams{
			TransactionID: req.TransactionID,
			PaymentID:     req.PaymentID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
