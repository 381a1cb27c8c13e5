package skipcash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func expectedSignature(t *testing.T, secret, payload string) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func baseRequest() *PaymentRequest {
	return &PaymentRequest{
		UID:       "uid-1",
		KeyID:     "key-1",
		Amount:    "1000.00",
		FirstName: "Aisha",
		LastName:  "Al-Thani",
		Phone:     "+97450000000",
		Email:     "aisha@example.com",
	}
}

func TestSignPaymentRequestFieldOrder(t *testing.T) {
	got := SignPaymentRequest("secret", baseRequest())
	want := expectedSignature(t, "secret",
		"Uid=uid-1,KeyId=key-1,Amount=1000.00,FirstName=Aisha,LastName=Al-Thani,Phone=+97450000000,Email=aisha@example.com")
	if got != want {
		t.Fatalf("signature mismatch: got %s want %s", got, want)
	}
}

func TestSignPaymentRequestAppendsOptionalFields(t *testing.T) {
	req := baseRequest()
	req.TransactionID = "txn-9"
	req.Custom1 = `{"applicationId":"app-1"}`

	got := SignPaymentRequest("secret", req)
	want := expectedSignature(t, "secret",
		"Uid=uid-1,KeyId=key-1,Amount=1000.00,FirstName=Aisha,LastName=Al-Thani,Phone=+97450000000,Email=aisha@example.com"+
			",TransactionId=txn-9,Custom1="+req.Custom1)
	if got != want {
		t.Fatalf("signature mismatch: got %s want %s", got, want)
	}
}

func TestSignPaymentRequestDeterministic(t *testing.T) {
	first := SignPaymentRequest("secret", baseRequest())
	second := SignPaymentRequest("secret", baseRequest())
	if first != second {
		t.Fatalf("expected identical signatures, got %s and %s", first, second)
	}

	changed := baseRequest()
	changed.Amount = "1000.01"
	if SignPaymentRequest("secret", changed) == first {
		t.Fatal("changing a signed field must change the signature")
	}
}

func TestSignPaymentRequestExcludesAddressFields(t *testing.T) {
	withAddress := baseRequest()
	withAddress.Street = "Corniche St"
	withAddress.City = "Doha"
	withAddress.Country = "QA"
	withAddress.PostalCode = "0000"

	if SignPaymentRequest("secret", withAddress) != SignPaymentRequest("secret", baseRequest()) {
		t.Fatal("address fields must not affect the signature")
	}
}

func TestSignStatusQuery(t *testing.T) {
	got := SignStatusQuery("secret", "pay-1", "key-1")
	want := expectedSignature(t, "secret", "PaymentId=pay-1,KeyId=key-1")
	if got != want {
		t.Fatalf("signature mismatch: got %s want %s", got, want)
	}
}

func TestWebhookSignatureOptionalFields(t *testing.T) {
	payload := &WebhookPayload{
		PaymentID: "pay-1",
		Amount:    "500.00",
		StatusID:  StatusPaid,
	}
	base := WebhookSignature("secret", payload)
	want := expectedSignature(t, "secret", "PaymentId=pay-1,Amount=500.00,StatusId=2")
	if base != want {
		t.Fatalf("signature mismatch: got %s want %s", base, want)
	}

	payload.TransactionID = "txn-1"
	payload.VisaID = "visa-1"
	withOptional := WebhookSignature("secret", payload)
	wantOptional := expectedSignature(t, "secret",
		"PaymentId=pay-1,Amount=500.00,StatusId=2,TransactionId=txn-1,VisaId=visa-1")
	if withOptional != wantOptional {
		t.Fatalf("signature mismatch: got %s want %s", withOptional, wantOptional)
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := &WebhookPayload{PaymentID: "pay-1", Amount: "500.00", StatusID: StatusPaid}
	good := WebhookSignature("secret", payload)

	if !VerifyWebhookSignature("secret", payload, good) {
		t.Fatal("expected valid signature to verify")
	}
	if VerifyWebhookSignature("secret", payload, good+"x") {
		t.Fatal("tampered signature must not verify")
	}
	if VerifyWebhookSignature("other-secret", payload, good) {
		t.Fatal("signature from a different secret must not verify")
	}
	if VerifyWebhookSignature("secret", payload, "") {
		t.Fatal("empty signature must not verify")
	}
}
