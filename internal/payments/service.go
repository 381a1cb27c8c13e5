package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/Fares-ag/blox-backend/pkg/config"
	"github.com/Fares-ag/blox-backend/pkg/db"
	"github.com/Fares-ag/blox-backend/pkg/db/models"
	"github.com/Fares-ag/blox-backend/pkg/enums"
	pkgerrors "github.com/Fares-ag/blox-backend/pkg/errors"
	"github.com/Fares-ag/blox-backend/pkg/logger"
	"github.com/Fares-ag/blox-backend/pkg/metrics"
	"github.com/Fares-ag/blox-backend/pkg/skipcash"
)

// Gateway is the outbound payment processor surface.
type Gateway interface {
	CreatePayment(ctx context.Context, req *skipcash.PaymentRequest) (*skipcash.PaymentResult, error)
	PaymentStatus(ctx context.Context, paymentID string) (*skipcash.PaymentStatusResult, error)
}

// TransactionRepository is the persistence surface the service needs.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.PaymentTransaction) error
	FindByTransactionID(ctx context.Context, transactionID string) (*models.PaymentTransaction, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*models.PaymentTransaction, error)
	AttachPaymentID(ctx context.Context, transactionID, paymentID string) error
	ApplyStatus(ctx context.Context, transactionID string, status enums.PaymentStatus, failureReason *string) (bool, error)
}

// ServiceParams groups dependencies for the payments service.
type ServiceParams struct {
	Repo    TransactionRepository
	Gateway Gateway
	Config  config.SkipCashConfig
	Poll    config.VerifyPollConfig
	Metrics *metrics.PaymentMetrics
	Logger  *logger.Logger
}

// Service drives payment initiation and client-side verification. The webhook
// remains the authoritative writer; verification only smooths the customer
// result page and persists what it learns under the same regression guard.
type Service struct {
	repo    TransactionRepository
	gateway Gateway
	cfg     config.SkipCashConfig
	poll    config.VerifyPollConfig
	metrics *metrics.PaymentMetrics
	logger  *logger.Logger
}

// NewService builds a payments service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Poll.MaxAttempts <= 0 {
		params.Poll.MaxAttempts = 10
	}
	if params.Poll.Backoff <= 0 {
		params.Poll.Backoff = time.Second
	}
	return &Service{
		repo:    params.Repo,
		gateway: params.Gateway,
		cfg:     params.Config,
		poll:    params.Poll,
		metrics: params.Metrics,
		logger:  params.Logger,
	}, nil
}

// Initiate validates the payer details, opens a gateway payment, and records a
// pending transaction row. The row insert is best effort: the customer must be
// redirected even if the write fails.
func (s *Service) Initiate(ctx context.Context, params InitiateParams) (*InitiateResult, error) {
	if err := validateInitiate(params); err != nil {
		s.metrics.IncInitiation("validation_error")
		return nil, err
	}

	ctx = s.logger.WithTransactionID(ctx, params.TransactionID)

	result, err := s.gateway.CreatePayment(ctx, &skipcash.PaymentRequest{
		Amount:        params.Amount.StringFixed(2),
		FirstName:     params.FirstName,
		LastName:      params.LastName,
		Phone:         params.Phone,
		Email:         params.Email,
		TransactionID: params.TransactionID,
		Street:        params.Street,
		City:          params.City,
		State:         params.State,
		Country:       params.Country,
		PostalCode:    params.PostalCode,
		Subject:       params.Subject,
		Description:   params.Description,
		ReturnURL:     s.cfg.ReturnURL,
		WebhookURL:    s.cfg.WebhookURL,
		OnlyDebitCard: params.OnlyDebitCard,
	})
	if err != nil {
		s.metrics.IncInitiation("gateway_error")
		return nil, err
	}

	s.recordPending(ctx, params, result.PaymentID)
	s.metrics.IncInitiation("success")

	return &InitiateResult{
		TransactionID: params.TransactionID,
		PaymentID:     result.PaymentID,
		PaymentURL:    result.PaymentURL,
	}, nil
}

// Verify resolves the current truth of a payment, tolerating the webhook not
// having arrived yet. Stored terminal states short-circuit without touching
// the gateway.
func (s *Service) Verify(ctx context.Context, params VerifyParams) (*VerifyResult, error) {
	transactionID := strings.TrimSpace(params.TransactionID)
	paymentID := strings.TrimSpace(params.PaymentID)
	if transactionID == "" && paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transactionId or paymentId is required")
	}

	stored, err := s.lookupStored(ctx, transactionID, paymentID)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		if transactionID == "" {
			transactionID = stored.TransactionID
		}
		if paymentID == "" && stored.PaymentID != nil {
			paymentID = *stored.PaymentID
		}
		if stored.Status.IsTerminal() {
			return &VerifyResult{
				TransactionID: stored.TransactionID,
				PaymentID:     paymentID,
				Status:        stored.Status,
			}, nil
		}
	}

	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no gateway payment id known for transaction")
	}

	ctx = s.logger.WithTransactionID(ctx, transactionID)

	gatewayStatus, err := s.gateway.PaymentStatus(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	canonical := skipcash.CanonicalStatus(gatewayStatus.StatusID)
	result := &VerifyResult{
		TransactionID: transactionID,
		PaymentID:     paymentID,
		Status:        canonical,
		StatusID:      gatewayStatus.StatusID,
		StatusName:    gatewayStatus.Status,
	}
	if transactionID == "" && gatewayStatus.TransactionID != "" {
		transactionID = gatewayStatus.TransactionID
		result.TransactionID = transactionID
	}

	if canonical == enums.PaymentStatusCompleted && transactionID != "" {
		result.AwaitedWebhook = !s.awaitWebhook(ctx, transactionID)
	}

	s.persistTransition(ctx, transactionID, canonical, gatewayStatus)
	return result, nil
}

// awaitWebhook polls the transaction store waiting for the webhook to have
// marked the row completed. Returns true when the webhook won the race.
func (s *Service) awaitWebhook(ctx context.Context, transactionID string) bool {
	started := time.Now()
	defer func() {
		s.metrics.ObserveVerifyWait(time.Since(started))
	}()

	errNotYet := errors.New("webhook not observed yet")
	backoff := retry.WithMaxRetries(uint64(s.poll.MaxAttempts-1), retry.NewConstant(s.poll.Backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		tx, err := s.repo.FindByTransactionID(ctx, transactionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return retry.RetryableError(errNotYet)
			}
			return err
		}
		if tx.Status != enums.PaymentStatusCompleted {
			return retry.RetryableError(errNotYet)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn(ctx, "gateway reports paid but webhook has not confirmed; proceeding")
		return false
	}
	return true
}

func (s *Service) lookupStored(ctx context.Context, transactionID, paymentID string) (*models.PaymentTransaction, error) {
	var (
		stored *models.PaymentTransaction
		err    error
	)
	switch {
	case transactionID != "":
		stored, err = s.repo.FindByTransactionID(ctx, transactionID)
	case paymentID != "":
		stored, err = s.repo.FindByPaymentID(ctx, paymentID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return stored, nil
}

// persistTransition writes the discovered state back, relying on the storage
// guard to keep a completed row sticky. Failures are logged, never surfaced:
// the webhook remains the authoritative writer.
func (s *Service) persistTransition(ctx context.Context, transactionID string, status enums.PaymentStatus, gatewayStatus *skipcash.PaymentStatusResult) {
	if transactionID == "" {
		return
	}
	var reason *string
	if status == enums.PaymentStatusFailed {
		name := gatewayStatus.Status
		reason = &name
	}
	if _, err := s.repo.ApplyStatus(ctx, transactionID, status, reason); err != nil {
		s.logger.Error(ctx, "persist verify transition", err)
	}
}

func (s *Service) recordPending(ctx context.Context, params InitiateParams, paymentID string) {
	row := &models.PaymentTransaction{
		TransactionID: params.TransactionID,
		ApplicationID: params.ApplicationID,
		ScheduleIndex: params.ScheduleIndex,
		IsSettlement:  params.IsSettlement,
		Amount:        params.Amount,
		Method:        enums.PaymentMethodCard,
		Status:        enums.PaymentStatusPending,
	}
	if paymentID != "" {
		row.PaymentID = &paymentID
	}

	if err := s.repo.Create(ctx, row); err != nil {
		// A duplicate transaction_id means the client retried initiation;
		// keep the existing row and point it at the fresh gateway payment.
		if db.IsUniqueViolation(err, "uq_payment_transactions_transaction_id") && paymentID != "" {
			if attachErr := s.repo.AttachPaymentID(ctx, params.TransactionID, paymentID); attachErr != nil {
				s.logger.Error(ctx, "reattach payment id", attachErr)
			}
			return
		}
		s.logger.Error(ctx, "record pending transaction", err)
	}
}

func validateInitiate(params InitiateParams) error {
	var missing []string
	if !params.Amount.IsPositive() {
		missing = append(missing, "amount")
	}
	if strings.TrimSpace(params.FirstName) == "" {
		missing = append(missing, "firstName")
	}
	if strings.TrimSpace(params.LastName) == "" {
		missing = append(missing, "lastName")
	}
	if strings.TrimSpace(params.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(params.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(params.TransactionID) == "" {
		missing = append(missing, "transactionId")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation,
			"missing required fields: "+strings.Join(missing, ", ")).
			WithDetails(missing)
	}
	return nil
}
