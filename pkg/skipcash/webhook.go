package skipcash

import "encoding/json"

// WebhookPayload is the gateway-defined notification body. Field names follow
// the wire shape, which is also the order the signature is computed over.
type WebhookPayload struct {
	PaymentID     string   `json:"PaymentId"`
	Amount        string   `json:"Amount"`
	StatusID      StatusID `json:"StatusId"`
	TransactionID string   `json:"TransactionId,omitempty"`
	Custom1       string   `json:"Custom1,omitempty"`
	VisaID        string   `json:"VisaId,omitempty"`
	CardType      string   `json:"CardType,omitempty"`
}

// Custom1Payload is the legacy JSON correlation blob some initiators still put
// in Custom1. The server-side transaction row is the preferred side-channel;
// this is only a fallback for notifications that predate it.
type Custom1Payload struct {
	ApplicationID     string `json:"applicationId"`
	PaymentScheduleID *int   `json:"paymentScheduleId,omitempty"`
	IsSettlement      bool   `json:"isSettlement,omitempty"`
}

// ParseCustom1 decodes the correlation blob, returning nil when the field is
// empty or not JSON.
func ParseCustom1(raw string) *Custom1Payload {
	if raw == "" {
		return nil
	}
	var payload Custom1Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	return &payload
}
