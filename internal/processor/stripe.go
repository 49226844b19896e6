package processor

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const stripeAPIBase = "https://api.stripe.com"

// StripeConfig holds credentials and tuning for the Stripe client
type StripeConfig struct {
	SecretKey                 string
	WebhookSecret             string
	SignatureToleranceSeconds int64
	HTTPTimeout               time.Duration
}

// StripeClient talks to the Stripe REST API over form-encoded HTTP
type StripeClient struct {
	cfg     StripeConfig
	baseURL string
	client  *http.Client
}

// NewStripeClient creates a Stripe client
func NewStripeClient(cfg StripeConfig) *StripeClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cfg.SignatureToleranceSeconds <= 0 {
		cfg.SignatureToleranceSeconds = 300
	}

	return &StripeClient{
		cfg:     cfg,
		baseURL: stripeAPIBase,
		client:  &http.Client{Timeout: timeout},
	}
}

// FindOrCreateCustomer looks up a customer by email and reuses the first
// match, creating one only when none exists.
func (c *StripeClient) FindOrCreateCustomer(ctx context.Context, email, name string) (*Customer, error) {
	if strings.TrimSpace(c.cfg.SecretKey) == "" {
		return nil, fmt.Errorf("stripe secret key is not configured")
	}

	query := url.Values{}
	query.Set("email", email)
	query.Set("limit", "1")

	body, err := c.get(ctx, "/v1/customers?"+query.Encode())
	if err != nil {
		return nil, err
	}

	var listing struct {
		Data []struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, err
	}
	if len(listing.Data) > 0 {
		first := listing.Data[0]
		return &Customer{ID: first.ID, Email: first.Email, Name: first.Name}, nil
	}

	values := url.Values{}
	values.Set("email", email)
	values.Set("name", name)

	body, err = c.postForm(ctx, "/v1/customers", values)
	if err != nil {
		return nil, err
	}

	var created struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, err
	}

	return &Customer{ID: created.ID, Email: created.Email, Name: created.Name}, nil
}

// CreateCheckoutSession creates a one-time hosted payment session
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, input *CheckoutSessionInput) (*CheckoutSession, error) {
	if strings.TrimSpace(c.cfg.SecretKey) == "" {
		return nil, fmt.Errorf("stripe secret key is not configured")
	}

	currency := input.Currency
	if currency == "" {
		currency = "usd"
	}

	values := url.Values{}
	values.Set("mode", "payment")
	values.Set("customer", input.CustomerID)
	values.Set("payment_method_types[0]", "card")
	values.Set("line_items[0][quantity]", "1")
	values.Set("line_items[0][price_data][currency]", strings.ToLower(currency))
	values.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(input.AmountCents, 10))
	values.Set("line_items[0][price_data][product_data][name]", input.ProductName)
	values.Set("success_url", input.SuccessURL)
	values.Set("cancel_url", input.CancelURL)
	for k, v := range input.Metadata {
		values.Set("metadata["+k+"]", v)
	}

	body, err := c.postForm(ctx, "/v1/checkout/sessions", values)
	if err != nil {
		return nil, err
	}

	var payload struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("stripe checkout session id missing")
	}

	return &CheckoutSession{ID: payload.ID, URL: payload.URL}, nil
}

// VerifyAndParseEvent checks the Stripe-Signature header against the webhook
// secret and parses the event envelope.
func (c *StripeClient) VerifyAndParseEvent(payload []byte, signature string) (*WebhookEvent, error) {
	if strings.TrimSpace(c.cfg.WebhookSecret) == "" {
		return nil, ErrSecretNotConfigured
	}
	if strings.TrimSpace(signature) == "" {
		return nil, ErrMissingSignature
	}
	if !verifySignature(payload, signature, c.cfg.WebhookSecret, c.cfg.SignatureToleranceSeconds) {
		return nil, ErrInvalidSignature
	}

	var envelope struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID            string          `json:"id"`
				Customer      json.RawMessage `json:"customer"`
				PaymentStatus string          `json:"payment_status"`
				PaymentIntent json.RawMessage `json:"payment_intent"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	return &WebhookEvent{
		ID:            envelope.ID,
		Type:          envelope.Type,
		SessionID:     envelope.Data.Object.ID,
		CustomerID:    parseStringish(envelope.Data.Object.Customer),
		PaymentStatus: envelope.Data.Object.PaymentStatus,
		PaymentIntent: parseStringish(envelope.Data.Object.PaymentIntent),
	}, nil
}

func (c *StripeClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	return c.do(req, path)
}

func (c *StripeClient) postForm(ctx context.Context, path string, values url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, path)
}

func (c *StripeClient) do(req *http.Request, path string) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("stripe request failed: path=%s status=%d body=%s", path, resp.StatusCode, string(body))
	}

	return body, nil
}

// verifySignature checks the t=...,v1=... HMAC-SHA256 signature header
func verifySignature(payload []byte, signatureHeader, webhookSecret string, toleranceSeconds int64) bool {
	parts := strings.Split(signatureHeader, ",")
	var ts string
	v1 := make([]string, 0, 1)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "t=") {
			ts = strings.TrimPrefix(part, "t=")
		}
		if strings.HasPrefix(part, "v1=") {
			v1 = append(v1, strings.TrimPrefix(part, "v1="))
		}
	}
	if ts == "" || len(v1) == 0 {
		return false
	}

	tsUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	now := time.Now().Unix()
	if now-tsUnix > toleranceSeconds || tsUnix-now > toleranceSeconds {
		return false
	}

	signedPayload := []byte(ts + "." + string(payload))
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	_, _ = mac.Write(signedPayload)
	expected := mac.Sum(nil)

	for _, sig := range v1 {
		candidate, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(candidate, expected) {
			return true
		}
	}

	return false
}

// parseStringish handles fields Stripe sends either as a bare id string or as
// an expanded object with an id.
func parseStringish(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
		return ""
	}
	var obj struct {
		ID string `json:"id"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.ID
	}
	return ""
}
