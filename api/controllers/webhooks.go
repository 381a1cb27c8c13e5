package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Fares-ag/blox-backend/internal/webhooks"
	"github.com/Fares-ag/blox-backend/pkg/logger"
	"github.com/Fares-ag/blox-backend/pkg/skipcash"
)

// WebhookService is the reconciliation surface the webhook controller needs.
type WebhookService interface {
	VerifySignature(ctx context.Context, payload *skipcash.WebhookPayload, presented string) bool
	HandleNotification(ctx context.Context, payload *skipcash.WebhookPayload) (*webhooks.Outcome, error)
}

// webhookAck is the gateway-facing acknowledgement body. Its shape is part of
// the integration contract, so it bypasses the API's usual envelopes.
type webhookAck struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	PaymentID string `json:"paymentId,omitempty"`
	StatusID  int    `json:"statusId,omitempty"`
	Status    string `json:"status,omitempty"`
}

// SkipCashWebhook accepts gateway notifications. Every outcome except a failed
// signature check answers 200: a non-2xx here makes the gateway retry, and a
// retry storm is worse than a logged processing error.
func SkipCashWebhook(svc WebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			writeAck(w, http.StatusOK, webhookAck{Success: false, Error: "webhook service unavailable"})
			return
		}

		var payload skipcash.WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			if logg != nil {
				logg.Error(ctx, "decode webhook payload", err)
			}
			writeAck(w, http.StatusOK, webhookAck{Success: false, Error: "invalid payload"})
			return
		}

		if !svc.VerifySignature(ctx, &payload, r.Header.Get("Authorization")) {
			writeAck(w, http.StatusUnauthorized, webhookAck{Success: false, Error: "invalid signature"})
			return
		}

		outcome, err := svc.HandleNotification(ctx, &payload)
		ack := webhookAck{Success: err == nil}
		if outcome != nil {
			ack.PaymentID = outcome.PaymentID
			ack.StatusID = outcome.StatusID
			ack.Status = string(outcome.Status)
			ack.Message = outcome.Message
		}
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "process webhook notification", err)
			}
			ack.Message = ""
			ack.Error = "processing failed"
		}
		writeAck(w, http.StatusOK, ack)
	}
}

func writeAck(w http.ResponseWriter, status int, ack webhookAck) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ack)
}
