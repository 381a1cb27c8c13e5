package skipcash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// pair is one Key=Value element of the signed string. Order matters: the
// gateway recomputes the HMAC over the exact sequence below, so the helpers
// build slices instead of maps.
type pair struct {
	key   string
	value string
}

// sign computes base64(HMAC-SHA256(secret, "K1=V1,K2=V2,...")). The secret is
// used as raw UTF-8 bytes, never decoded from base64 or hex.
func sign(secret string, pairs []pair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.key+"="+p.value)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, ",")))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SignPaymentRequest covers the ordered field list the gateway validates on
// payment creation: Uid, KeyId, Amount, FirstName, LastName, Phone, Email,
// then TransactionId and Custom1 only when non-empty. Address and the other
// optional fields never participate, regardless of presence.
func SignPaymentRequest(secret string, req *PaymentRequest) string {
	pairs := []pair{
		{"Uid", req.UID},
		{"KeyId", req.KeyID},
		{"Amount", req.Amount},
		{"FirstName", req.FirstName},
		{"LastName", req.LastName},
		{"Phone", req.Phone},
		{"Email", req.Email},
	}
	if req.TransactionID != "" {
		pairs = append(pairs, pair{"TransactionId", req.TransactionID})
	}
	if req.Custom1 != "" {
		pairs = append(pairs, pair{"Custom1", req.Custom1})
	}
	return sign(secret, pairs)
}

// SignStatusQuery covers the fixed two-field string used by status lookups.
func SignStatusQuery(secret, paymentID, keyID string) string {
	return sign(secret, []pair{
		{"PaymentId", paymentID},
		{"KeyId", keyID},
	})
}

// WebhookSignature computes the expected Authorization header for an inbound
// notification: PaymentId, Amount, StatusId always, then TransactionId,
// Custom1, and VisaId appended only when present.
func WebhookSignature(secret string, p *WebhookPayload) string {
	pairs := []pair{
		{"PaymentId", p.PaymentID},
		{"Amount", p.Amount},
		{"StatusId", p.StatusID.String()},
	}
	if p.TransactionID != "" {
		pairs = append(pairs, pair{"TransactionId", p.TransactionID})
	}
	if p.Custom1 != "" {
		pairs = append(pairs, pair{"Custom1", p.Custom1})
	}
	if p.VisaID != "" {
		pairs = append(pairs, pair{"VisaId", p.VisaID})
	}
	return sign(secret, pairs)
}

// VerifyWebhookSignature byte-compares the presented header against the
// recomputed signature.
func VerifyWebhookSignature(secret string, p *WebhookPayload, presented string) bool {
	if secret == "" || presented == "" {
		return false
	}
	expected := WebhookSignature(secret, p)
	return hmac.Equal([]byte(expected), []byte(presented))
}
