package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Fares-ag/blox-backend/internal/webhooks"
	"github.com/Fares-ag/blox-backend/pkg/enums"
	"github.com/Fares-ag/blox-backend/pkg/logger"
	"github.com/Fares-ag/blox-backend/pkg/skipcash"
)

type stubWebhookService struct {
	signatureOK bool
	outcome     *webhooks.Outcome
	handleErr   error
	handled     int
}

func (s *stubWebhookService) VerifySignature(_ context.Context, _ *skipcash.WebhookPayload, _ string) bool {
	return s.signatureOK
}

func (s *stubWebhookService) HandleNotification(_ context.Context, _ *skipcash.WebhookPayload) (*webhooks.Outcome, error) {
	s.handled++
	return s.outcome, s.handleErr
}

func postWebhook(t *testing.T, svc WebhookService, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
	req.Header.Set("Authorization", "c2ln")
	rec := httptest.NewRecorder()
	SkipCashWebhook(svc, logger.New(logger.Options{Output: io.Discard}))(rec, req)
	return rec
}

func decodeAck(t *testing.T, rec *httptest.ResponseRecorder) webhookAck {
	t.Helper()
	var ack webhookAck
	if err := json.NewDecoder(rec.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	return ack
}

func TestSkipCashWebhookRejectsBadSignature(t *testing.T) {
	svc := &stubWebhookService{signatureOK: false}
	rec := postWebhook(t, svc, `{"PaymentId":"pay-1","Amount":"100.00","StatusId":2}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if svc.handled != 0 {
		t.Fatalf("notification must not be processed on signature failure")
	}
	ack := decodeAck(t, rec)
	if ack.Success || ack.Error != "invalid signature" {
		t.Fatalf("unexpected ack: %+v", ack)
	}
}

func TestSkipCashWebhookAcksProcessingFailure(t *testing.T) {
	svc := &stubWebhookService{signatureOK: true, handleErr: errors.New("db down")}
	rec := postWebhook(t, svc, `{"PaymentId":"pay-1","Amount":"100.00","StatusId":2}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("processing failures must still answer 200, got %d", rec.Code)
	}
	ack := decodeAck(t, rec)
	if ack.Success {
		t.Fatal("ack must report failure")
	}
	if ack.Error != "processing failed" {
		t.Fatalf("unexpected error message %q", ack.Error)
	}
}

func TestSkipCashWebhookAcksInvalidPayload(t *testing.T) {
	svc := &stubWebhookService{signatureOK: true}
	rec := postWebhook(t, svc, `{"PaymentId":`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.handled != 0 {
		t.Fatal("malformed payloads must not reach the service")
	}
	ack := decodeAck(t, rec)
	if ack.Success || ack.Error != "invalid payload" {
		t.Fatalf("unexpected ack: %+v", ack)
	}
}

func TestSkipCashWebhookReportsOutcome(t *testing.T) {
	svc := &stubWebhookService{
		signatureOK: true,
		outcome: &webhooks.Outcome{
			TransactionID: "txn-1",
			PaymentID:     "pay-1",
			StatusID:      2,
			Status:        enums.PaymentStatusCompleted,
		},
	}
	rec := postWebhook(t, svc, `{"PaymentId":"pay-1","Amount":"100.00","StatusId":2,"TransactionId":"txn-1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	ack := decodeAck(t, rec)
	if !ack.Success || ack.PaymentID != "pay-1" || ack.StatusID != 2 || ack.Status != "completed" {
		t.Fatalf("unexpected ack: %+v", ack)
	}
}
