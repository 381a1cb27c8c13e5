package skipcash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Fares-ag/blox-backend/pkg/config"
	pkgerrors "github.com/Fares-ag/blox-backend/pkg/errors"
	"github.com/Fares-ag/blox-backend/pkg/logger"
)

const (
	paymentsPath       = "/api/v1/payments"
	defaultHTTPTimeout = 30 * time.Second
)

var (
	errSecretRequired = errors.New("skipcash secret is required")
	errKeyIDRequired  = errors.New("skipcash key id is required")
	errLoggerRequired = errors.New("skipcash logger is required")
)

// Client wraps the SkipCash REST API with request signing, response
// normalization, and error mapping. Every outbound call carries an explicit
// timeout; the gateway offers no server-side one.
type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	clientID   string
	secret     string
	logger     *logger.Logger
}

// NewClient validates the gateway credentials and builds the wrapper.
// A missing secret is a configuration error surfaced at boot, before any
// payment request can be built.
func NewClient(ctx context.Context, cfg config.SkipCashConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errSecretRequired
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		keyID:      keyID,
		clientID:   strings.TrimSpace(cfg.ClientID),
		secret:     secret,
		logger:     logg,
	}

	logg.Info(ctx, "skipcash client initialized")
	return c, nil
}

// SigningSecret returns the shared secret used for webhook verification.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.secret
}

// KeyID returns the configured gateway key identifier.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// PaymentRequest is the gateway's payment creation body. Only the fields
// covered by SignPaymentRequest participate in the signature.
type PaymentRequest struct {
	UID           string `json:"Uid"`
	KeyID         string `json:"KeyId"`
	Amount        string `json:"Amount"`
	FirstName     string `json:"FirstName"`
	LastName      string `json:"LastName"`
	Phone         string `json:"Phone"`
	Email         string `json:"Email"`
	TransactionID string `json:"TransactionId,omitempty"`
	Custom1       string `json:"Custom1,omitempty"`
	Street        string `json:"Street,omitempty"`
	City          string `json:"City,omitempty"`
	State         string `json:"State,omitempty"`
	Country       string `json:"Country,omitempty"`
	PostalCode    string `json:"PostalCode,omitempty"`
	Subject       string `json:"Subject,omitempty"`
	Description   string `json:"Description,omitempty"`
	ReturnURL     string `json:"ReturnUrl,omitempty"`
	WebhookURL    string `json:"WebhookUrl,omitempty"`
	OnlyDebitCard bool   `json:"OnlyDebitCard,omitempty"`
}

// PaymentResult is the normalized creation response.
type PaymentResult struct {
	PaymentID  string
	PaymentURL string
}

// PaymentStatusResult is the normalized status lookup response.
type PaymentStatusResult struct {
	PaymentID     string
	StatusID      int
	Status        string
	TransactionID string
}

// CreatePayment signs and submits a payment request. A fresh Uid is generated
// when the caller did not supply one; it is never reused across requests.
func (c *Client) CreatePayment(ctx context.Context, req *PaymentRequest) (*PaymentResult, error) {
	if req == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment request is required")
	}
	if req.UID == "" {
		req.UID = uuid.NewString()
	}
	req.KeyID = c.keyID

	body, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode payment request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+paymentsPath, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build payment request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// The signature is the Authorization value verbatim, no scheme prefix.
	httpReq.Header.Set("Authorization", SignPaymentRequest(c.secret, req))

	c.log(ctx, "request", "create_payment", map[string]any{
		"transaction_id": req.TransactionID,
		"amount":         req.Amount,
	})

	payload, err := c.do(httpReq, "create payment")
	if err != nil {
		return nil, err
	}

	result, err := normalizePaymentResponse(payload)
	if err != nil {
		return nil, err
	}

	c.log(ctx, "response", "create_payment", map[string]any{
		"payment_id": result.PaymentID,
	})
	return result, nil
}

// PaymentStatus queries the current gateway truth for a payment.
func (c *Client) PaymentStatus(ctx context.Context, paymentID string) (*PaymentStatusResult, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+paymentsPath+"/"+paymentID, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build status request")
	}
	httpReq.Header.Set("Authorization", SignStatusQuery(c.secret, paymentID, c.keyID))

	c.log(ctx, "request", "payment_status", map[string]any{"payment_id": paymentID})

	payload, err := c.do(httpReq, "query payment status")
	if err != nil {
		return nil, err
	}

	result, err := normalizeStatusResponse(payload)
	if err != nil {
		return nil, err
	}
	if result.PaymentID == "" {
		result.PaymentID = paymentID
	}

	c.log(ctx, "response", "payment_status", map[string]any{
		"payment_id": result.PaymentID,
		"status_id":  result.StatusID,
	})
	return result, nil
}

func (c *Client) do(req *http.Request, op string) (map[string]any, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, op+": read response")
	}

	var payload map[string]any
	decodeErr := json.Unmarshal(body, &payload)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gatewayErrorMessage(payload)
		if msg == "" {
			msg = fmt.Sprintf("gateway returned status %d", resp.StatusCode)
		}
		return nil, pkgerrors.New(pkgerrors.CodeDependency, op+": "+msg)
	}
	if decodeErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, decodeErr, op+": decode response")
	}
	return payload, nil
}

// normalizePaymentResponse maps the gateway's alternate field spellings into
// one stable internal shape.
func normalizePaymentResponse(payload map[string]any) (*PaymentResult, error) {
	obj := unwrapResult(payload)
	result := &PaymentResult{
		PaymentID:  firstString(obj, "id", "paymentId", "PaymentId"),
		PaymentURL: firstString(obj, "payUrl", "paymentUrl", "url"),
	}
	if result.PaymentURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway response missing payment url")
	}
	return result, nil
}

func normalizeStatusResponse(payload map[string]any) (*PaymentStatusResult, error) {
	obj := unwrapResult(payload)
	statusID, ok := firstInt(obj, "statusId", "StatusId", "status")
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway response missing status id")
	}
	return &PaymentStatusResult{
		PaymentID:     firstString(obj, "id", "paymentId", "PaymentId"),
		StatusID:      statusID,
		Status:        StatusName(statusID),
		TransactionID: firstString(obj, "transactionId", "TransactionId"),
	}, nil
}

func unwrapResult(payload map[string]any) map[string]any {
	for _, key := range []string{"resultObj", "result", "data"} {
		if nested, ok := payload[key].(map[string]any); ok {
			return nested
		}
	}
	return payload
}

func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := obj[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func firstInt(obj map[string]any, keys ...string) (int, bool) {
	for _, key := range keys {
		switch value := obj[key].(type) {
		case float64:
			return int(value), true
		case string:
			var parsed StatusID
			if err := parsed.UnmarshalJSON([]byte(value)); err == nil {
				return parsed.Int(), true
			}
		}
	}
	return 0, false
}

func gatewayErrorMessage(payload map[string]any) string {
	if payload == nil {
		return ""
	}
	return firstString(payload, "errorMessage", "error", "message")
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c.logger == nil {
		return
	}
	merged := map[string]any{"gateway": "skipcash", "phase": phase, "op": op}
	for k, v := range fields {
		merged[k] = v
	}
	c.logger.Info(c.logger.WithFields(ctx, merged), "skipcash."+op)
}
