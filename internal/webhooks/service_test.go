package webhooks

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Fares-ag/blox-backend/pkg/db/models"
	"github.com/Fares-ag/blox-backend/pkg/enums"
	"github.com/Fares-ag/blox-backend/pkg/logger"
	"github.com/Fares-ag/blox-backend/pkg/skipcash"
	"github.com/Fares-ag/blox-backend/pkg/types"
)

type stubStore struct {
	rows      map[string]*models.PaymentTransaction
	findErr   error
	upsertErr error
	upserted  *models.PaymentTransaction
}

func newStubStore() *stubStore {
	return &stubStore{rows: map[string]*models.PaymentTransaction{}}
}

func (s *stubStore) FindByTransactionID(ctx context.Context, transactionID string) (*models.PaymentTransaction, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if tx, ok := s.rows[transactionID]; ok {
		return tx, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) Upsert(ctx context.Context, tx *models.PaymentTransaction) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = tx
	if existing, ok := s.rows[tx.TransactionID]; ok && existing.Status == enums.PaymentStatusCompleted {
		return nil
	}
	s.rows[tx.TransactionID] = tx
	return nil
}

type stubMarker struct {
	settled   []uuid.UUID
	entries   []int
	nextCalls int
	err       error
}

func (s *stubMarker) MarkSettled(ctx context.Context, id uuid.UUID, paidOn types.Date) error {
	s.settled = append(s.settled, id)
	return s.err
}

func (s *stubMarker) MarkEntryPaid(ctx context.Context, id uuid.UUID, index int, paidOn types.Date) error {
	s.entries = append(s.entries, index)
	return s.err
}

func (s *stubMarker) MarkNextPaid(ctx context.Context, id uuid.UUID, paidOn types.Date) error {
	s.nextCalls++
	return s.err
}

func newTestService(t *testing.T, store TransactionStore, marker ScheduleMarker) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Store:     store,
		Schedules: marker,
		Secret:    "test-secret",
		Logger:    logger.New(logger.Options{Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func paidPayload(transactionID string) *skipcash.WebhookPayload {
	return &skipcash.WebhookPayload{
		PaymentID:     "pay-1",
		Amount:        "1000.00",
		StatusID:      skipcash.StatusPaid,
		TransactionID: transactionID,
	}
}

func TestVerifySignature(t *testing.T) {
	svc := newTestService(t, newStubStore(), &stubMarker{})
	payload := paidPayload("txn-1")

	good := skipcash.WebhookSignature("test-secret", payload)
	if !svc.VerifySignature(context.Background(), payload, good) {
		t.Fatal("valid signature rejected")
	}
	if svc.VerifySignature(context.Background(), payload, "forged") {
		t.Fatal("forged signature accepted")
	}
	if svc.VerifySignature(context.Background(), payload, "") {
		t.Fatal("empty signature accepted")
	}
}

func TestHandleNotificationCompletesAndMarksSchedule(t *testing.T) {
	store := newStubStore()
	appID := uuid.New()
	store.rows["txn-1"] = &models.PaymentTransaction{
		ID:            uuid.New(),
		TransactionID: "txn-1",
		ApplicationID: &appID,
		Amount:        decimal.NewFromInt(1000),
		Status:        enums.PaymentStatusPending,
	}
	marker := &stubMarker{}
	svc := newTestService(t, store, marker)

	outcome, err := svc.HandleNotification(context.Background(), paidPayload("txn-1"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if outcome.Status != enums.PaymentStatusCompleted {
		t.Fatalf("status %s want completed", outcome.Status)
	}
	if store.upserted == nil || store.upserted.Status != enums.PaymentStatusCompleted {
		t.Fatal("completed row not upserted")
	}
	if store.upserted.CompletedAt == nil {
		t.Fatal("completed_at not set")
	}
	if marker.nextCalls != 1 {
		t.Fatalf("expected one next-entry mark, got %d", marker.nextCalls)
	}
}

func TestHandleNotificationAntiRegression(t *testing.T) {
	store := newStubStore()
	store.rows["txn-1"] = &models.PaymentTransaction{
		ID:            uuid.New(),
		TransactionID: "txn-1",
		Status:        enums.PaymentStatusCompleted,
	}
	marker := &stubMarker{}
	svc := newTestService(t, store, marker)

	payload := paidPayload("txn-1")
	payload.StatusID = skipcash.StatusFailed

	outcome, err := svc.HandleNotification(context.Background(), payload)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !outcome.Ignored {
		t.Fatal("late failure after completion must be ignored")
	}
	if store.upserted != nil {
		t.Fatal("ignored notification must not touch storage")
	}
	if store.rows["txn-1"].Status != enums.PaymentStatusCompleted {
		t.Fatalf("stored status regressed to %s", store.rows["txn-1"].Status)
	}
}

func TestHandleNotificationDuplicateCompletionIsIdempotent(t *testing.T) {
	store := newStubStore()
	store.rows["txn-1"] = &models.PaymentTransaction{
		ID:            uuid.New(),
		TransactionID: "txn-1",
		Status:        enums.PaymentStatusCompleted,
	}
	marker := &stubMarker{}
	svc := newTestService(t, store, marker)

	outcome, err := svc.HandleNotification(context.Background(), paidPayload("txn-1"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if outcome.Ignored {
		t.Fatal("duplicate completion is acknowledged, not flagged ignored")
	}
	if marker.nextCalls != 0 || len(marker.settled) != 0 || len(marker.entries) != 0 {
		t.Fatal("duplicate completion must not mutate the schedule again")
	}
}

func TestHandleNotificationUnknownTransactionInsertsRow(t *testing.T) {
	store := newStubStore()
	marker := &stubMarker{}
	svc := newTestService(t, store, marker)

	appID := uuid.New()
	payload := paidPayload("txn-new")
	payload.Custom1 = `{"applicationId":"` + appID.String() + `","isSettlement":true}`

	outcome, err := svc.HandleNotification(context.Background(), payload)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if outcome.Ignored {
		t.Fatal("unknown transaction should be inserted, not ignored")
	}
	if store.upserted == nil {
		t.Fatal("row not inserted")
	}
	if !store.upserted.Amount.Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("amount %s want 1000.00", store.upserted.Amount)
	}
	if len(marker.settled) != 1 || marker.settled[0] != appID {
		t.Fatal("settlement flag from Custom1 fallback not honored")
	}
}

func TestHandleNotificationTargetsExplicitScheduleEntry(t *testing.T) {
	store := newStubStore()
	appID := uuid.New()
	index := 2
	store.rows["txn-1"] = &models.PaymentTransaction{
		ID:            uuid.New(),
		TransactionID: "txn-1",
		ApplicationID: &appID,
		ScheduleIndex: &index,
		Status:        enums.PaymentStatusPending,
	}
	marker := &stubMarker{}
	svc := newTestService(t, store, marker)

	if _, err := svc.HandleNotification(context.Background(), paidPayload("txn-1")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(marker.entries) != 1 || marker.entries[0] != 2 {
		t.Fatalf("expected entry 2 marked, got %v", marker.entries)
	}
	if marker.nextCalls != 0 {
		t.Fatal("explicit index must not fall back to next-entry marking")
	}
}

func TestHandleNotificationFailedRecordsReason(t *testing.T) {
	store := newStubStore()
	marker := &stubMarker{}
	svc := newTestService(t, store, marker)

	payload := paidPayload("txn-fail")
	payload.StatusID = skipcash.StatusRejected

	outcome, err := svc.HandleNotification(context.Background(), payload)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if outcome.Status != enums.PaymentStatusFailed {
		t.Fatalf("status %s want failed", outcome.Status)
	}
	if store.upserted.FailureReason == nil || *store.upserted.FailureReason != "rejected" {
		t.Fatalf("failure reason not recorded: %v", store.upserted.FailureReason)
	}
	if marker.nextCalls != 0 {
		t.Fatal("failed payment must not mark the schedule")
	}
}

func TestHandleNotificationMissingTransactionID(t *testing.T) {
	svc := newTestService(t, newStubStore(), &stubMarker{})

	outcome, err := svc.HandleNotification(context.Background(), paidPayload(""))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !outcome.Ignored {
		t.Fatal("uncorrelated notification should be acknowledged and dropped")
	}
}

func TestHandleNotificationStoreFailureReturnsError(t *testing.T) {
	store := newStubStore()
	store.findErr = errors.New("db unreachable")
	svc := newTestService(t, store, &stubMarker{})

	if _, err := svc.HandleNotification(context.Background(), paidPayload("txn-1")); err == nil {
		t.Fatal("store failure must surface to the transport layer")
	}
}

func TestHandleNotificationScheduleFailureDoesNotFail(t *testing.T) {
	store := newStubStore()
	appID := uuid.New()
	store.rows["txn-1"] = &models.PaymentTransaction{
		ID:            uuid.New(),
		TransactionID: "txn-1",
		ApplicationID: &appID,
		Status:        enums.PaymentStatusPending,
	}
	marker := &stubMarker{err: errors.New("application gone")}
	svc := newTestService(t, store, marker)

	outcome, err := svc.HandleNotification(context.Background(), paidPayload("txn-1"))
	if err != nil {
		t.Fatalf("schedule failure must not fail the notification: %v", err)
	}
	if outcome.Status != enums.PaymentStatusCompleted {
		t.Fatalf("status %s want completed", outcome.Status)
	}
}
