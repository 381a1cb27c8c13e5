package webhooks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Fares-ag/blox-backend/pkg/db/models"
	"github.com/Fares-ag/blox-backend/pkg/enums"
	pkgerrors "github.com/Fares-ag/blox-backend/pkg/errors"
	"github.com/Fares-ag/blox-backend/pkg/logger"
	"github.com/Fares-ag/blox-backend/pkg/metrics"
	"github.com/Fares-ag/blox-backend/pkg/skipcash"
	"github.com/Fares-ag/blox-backend/pkg/types"
)

// TransactionStore is the persistence surface the reconciler needs.
type TransactionStore interface {
	FindByTransactionID(ctx context.Context, transactionID string) (*models.PaymentTransaction, error)
	Upsert(ctx context.Context, tx *models.PaymentTransaction) error
}

// ScheduleMarker mutates the installment plan on the owning application once a
// payment lands.
type ScheduleMarker interface {
	MarkSettled(ctx context.Context, id uuid.UUID, paidOn types.Date) error
	MarkEntryPaid(ctx context.Context, id uuid.UUID, index int, paidOn types.Date) error
	MarkNextPaid(ctx context.Context, id uuid.UUID, paidOn types.Date) error
}

// ServiceParams groups dependencies for the webhook reconciler.
type ServiceParams struct {
	Store     TransactionStore
	Schedules ScheduleMarker
	Secret    string
	Metrics   *metrics.PaymentMetrics
	Logger    *logger.Logger
}

// Service is the authoritative state machine for gateway notifications. It
// absorbs duplicates and out-of-order deliveries: the storage guard keeps a
// completed transaction sticky, and every outcome is acknowledged so the
// gateway stops retrying.
type Service struct {
	store     TransactionStore
	schedules ScheduleMarker
	secret    string
	metrics   *metrics.PaymentMetrics
	logger    *logger.Logger
}

// NewService builds the webhook reconciler.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, errors.New("store is required")
	}
	if params.Schedules == nil {
		return nil, errors.New("schedules is required")
	}
	if params.Secret == "" {
		return nil, errors.New("signing secret is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		store:     params.Store,
		schedules: params.Schedules,
		secret:    params.Secret,
		metrics:   params.Metrics,
		logger:    params.Logger,
	}, nil
}

// VerifySignature authenticates an inbound notification. The payload itself
// is never logged here; a mismatch is a security event, not a payload issue.
func (s *Service) VerifySignature(ctx context.Context, payload *skipcash.WebhookPayload, presented string) bool {
	if skipcash.VerifyWebhookSignature(s.secret, payload, presented) {
		return true
	}
	s.logger.Warn(ctx, "webhook signature mismatch")
	return false
}

// Outcome summarizes one processed notification for the acknowledgement body.
type Outcome struct {
	TransactionID string
	PaymentID     string
	StatusID      int
	Status        enums.PaymentStatus
	Ignored       bool
	Message       string
}

// HandleNotification converges the transaction row and, on completion, the
// owning application's installment plan. Callers acknowledge regardless of the
// returned error; only the transport layer decides HTTP codes.
func (s *Service) HandleNotification(ctx context.Context, payload *skipcash.WebhookPayload) (*Outcome, error) {
	if payload == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty webhook payload")
	}

	statusID := payload.StatusID.Int()
	canonical := skipcash.CanonicalStatus(statusID)
	outcome := &Outcome{
		TransactionID: payload.TransactionID,
		PaymentID:     payload.PaymentID,
		StatusID:      statusID,
		Status:        canonical,
	}

	ctx = s.logger.WithFields(ctx, map[string]any{
		"transaction_id": payload.TransactionID,
		"payment_id":     payload.PaymentID,
		"status_id":      statusID,
	})

	if payload.TransactionID == "" {
		outcome.Ignored = true
		outcome.Message = "notification carries no transaction id"
		s.logger.Warn(ctx, "webhook without transaction id acknowledged and dropped")
		s.metrics.IncWebhook("uncorrelated")
		return outcome, nil
	}

	existing, err := s.findExisting(ctx, payload.TransactionID)
	if err != nil {
		return outcome, err
	}

	alreadyCompleted := existing != nil && existing.Status == enums.PaymentStatusCompleted
	if alreadyCompleted && canonical != enums.PaymentStatusCompleted {
		outcome.Ignored = true
		outcome.Message = "transaction already completed; late " + string(canonical) + " notification ignored"
		s.logger.Warn(ctx, "ignoring status regression for completed transaction")
		s.metrics.IncWebhook("regression_ignored")
		return outcome, nil
	}

	row := s.buildRow(ctx, payload, existing, canonical)
	if err := s.store.Upsert(ctx, row); err != nil {
		s.metrics.IncWebhook("store_error")
		return outcome, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert transaction")
	}

	if canonical == enums.PaymentStatusCompleted && !alreadyCompleted {
		if err := s.markSchedule(ctx, row); err != nil {
			// The payment is recorded; a schedule mutation failure must not
			// trigger a gateway retry storm.
			s.logger.Error(ctx, "mark schedule after completed payment", err)
		}
	}

	s.metrics.IncWebhook(string(canonical))
	s.logger.Info(ctx, "webhook reconciled")
	outcome.Message = "processed"
	if alreadyCompleted {
		outcome.Message = "duplicate completion acknowledged"
	}
	return outcome, nil
}

func (s *Service) findExisting(ctx context.Context, transactionID string) (*models.PaymentTransaction, error) {
	existing, err := s.store.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.metrics.IncWebhook("store_error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return existing, nil
}

// buildRow assembles the row to upsert. Correlation data prefers what was
// persisted at initiation; the legacy Custom1 JSON blob is only a fallback.
func (s *Service) buildRow(ctx context.Context, payload *skipcash.WebhookPayload, existing *models.PaymentTransaction, canonical enums.PaymentStatus) *models.PaymentTransaction {
	row := &models.PaymentTransaction{
		ID:            uuid.New(),
		TransactionID: payload.TransactionID,
		Method:        enums.PaymentMethodCard,
		Status:        canonical,
	}
	if existing != nil {
		row.ID = existing.ID
		row.ApplicationID = existing.ApplicationID
		row.ScheduleIndex = existing.ScheduleIndex
		row.IsSettlement = existing.IsSettlement
		row.Amount = existing.Amount
		row.Method = existing.Method
	}

	if payload.PaymentID != "" {
		paymentID := payload.PaymentID
		row.PaymentID = &paymentID
	} else if existing != nil {
		row.PaymentID = existing.PaymentID
	}

	if amount, err := decimal.NewFromString(payload.Amount); err == nil && amount.IsPositive() {
		row.Amount = amount
	}

	if row.ApplicationID == nil {
		if custom := skipcash.ParseCustom1(payload.Custom1); custom != nil {
			if appID, err := uuid.Parse(custom.ApplicationID); err == nil {
				row.ApplicationID = &appID
			}
			row.ScheduleIndex = custom.PaymentScheduleID
			row.IsSettlement = custom.IsSettlement
		}
	}

	if canonical == enums.PaymentStatusCompleted {
		now := time.Now().UTC()
		row.CompletedAt = &now
	}
	if canonical == enums.PaymentStatusFailed {
		name := skipcash.StatusName(payload.StatusID.Int())
		row.FailureReason = &name
	}
	return row
}

func (s *Service) markSchedule(ctx context.Context, row *models.PaymentTransaction) error {
	if row.ApplicationID == nil {
		s.logger.Info(ctx, "completed payment has no application to mark")
		return nil
	}

	paidOn := types.NewDate(time.Now())
	switch {
	case row.IsSettlement:
		return s.schedules.MarkSettled(ctx, *row.ApplicationID, paidOn)
	case row.ScheduleIndex != nil:
		return s.schedules.MarkEntryPaid(ctx, *row.ApplicationID, *row.ScheduleIndex, paidOn)
	default:
		return s.schedules.MarkNextPaid(ctx, *row.ApplicationID, paidOn)
	}
}
