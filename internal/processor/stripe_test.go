package processor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signPayload(t *testing.T, payload []byte, secret string, ts int64) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	_, err := mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	require.NoError(t, err)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyAndParseEvent(t *testing.T) {
	client := NewStripeClient(StripeConfig{
		SecretKey:     "sk_test",
		WebhookSecret: "whsec_test",
	})

	payload := []byte(`{
		"id": "evt_123",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_abc",
				"customer": "cus_42",
				"payment_status": "paid",
				"payment_intent": "pi_777"
			}
		}
	}`)
	header := signPayload(t, payload, "whsec_test", time.Now().Unix())

	event, err := client.VerifyAndParseEvent(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_123", event.ID)
	assert.Equal(t, EventCheckoutCompleted, event.Type)
	assert.Equal(t, "cs_test_abc", event.SessionID)
	assert.Equal(t, "cus_42", event.CustomerID)
	assert.Equal(t, SessionPaymentStatusPaid, event.PaymentStatus)
	assert.Equal(t, "pi_777", event.PaymentIntent)
}

func TestVerifyAndParseEvent_ExpandedCustomerObject(t *testing.T) {
	client := NewStripeClient(StripeConfig{
		SecretKey:     "sk_test",
		WebhookSecret: "whsec_test",
	})

	payload := []byte(`{"id":"evt_9","type":"checkout.session.expired","data":{"object":{"id":"cs_9","customer":{"id":"cus_9"}}}}`)
	header := signPayload(t, payload, "whsec_test", time.Now().Unix())

	event, err := client.VerifyAndParseEvent(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "cus_9", event.CustomerID)
	assert.Empty(t, event.PaymentIntent)
}

func TestVerifyAndParseEvent_SignatureFailures(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	validHeader := signPayload(t, payload, "whsec_test", time.Now().Unix())

	tests := []struct {
		name      string
		secret    string
		signature string
		wantErr   error
	}{
		{
			name:      "missing secret",
			secret:    "",
			signature: validHeader,
			wantErr:   ErrSecretNotConfigured,
		},
		{
			name:      "missing signature header",
			secret:    "whsec_test",
			signature: "",
			wantErr:   ErrMissingSignature,
		},
		{
			name:      "wrong secret",
			secret:    "whsec_other",
			signature: validHeader,
			wantErr:   ErrInvalidSignature,
		},
		{
			name:      "garbage header",
			secret:    "whsec_test",
			signature: "not-a-signature",
			wantErr:   ErrInvalidSignature,
		},
		{
			name:      "stale timestamp",
			secret:    "whsec_test",
			signature: signPayload(t, payload, "whsec_test", time.Now().Add(-time.Hour).Unix()),
			wantErr:   ErrInvalidSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewStripeClient(StripeConfig{SecretKey: "sk_test", WebhookSecret: tt.secret})
			event, err := client.VerifyAndParseEvent(payload, tt.signature)
			assert.Nil(t, event)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFindOrCreateCustomer_ReusesExisting(t *testing.T) {
	var createCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/customers":
			assert.Equal(t, "debtor@example.com", r.URL.Query().Get("email"))
			fmt.Fprint(w, `{"data":[{"id":"cus_existing","email":"debtor@example.com","name":"Jane Doe"}]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/customers":
			createCalls++
			fmt.Fprint(w, `{"id":"cus_new"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewStripeClient(StripeConfig{SecretKey: "sk_test"})
	client.baseURL = server.URL

	customer, err := client.FindOrCreateCustomer(t.Context(), "debtor@example.com", "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, "cus_existing", customer.ID)
	assert.Zero(t, createCalls)
}

func TestFindOrCreateCustomer_CreatesWhenMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/customers":
			fmt.Fprint(w, `{"data":[]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/customers":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "debtor@example.com", r.PostForm.Get("email"))
			assert.Equal(t, "Jane Doe", r.PostForm.Get("name"))
			fmt.Fprint(w, `{"id":"cus_created","email":"debtor@example.com","name":"Jane Doe"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewStripeClient(StripeConfig{SecretKey: "sk_test"})
	client.baseURL = server.URL

	customer, err := client.FindOrCreateCustomer(t.Context(), "debtor@example.com", "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, "cus_created", customer.ID)
}

func TestCreateCheckoutSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "cus_42", r.PostForm.Get("customer"))
		assert.Equal(t, "usd", r.PostForm.Get("line_items[0][price_data][currency]"))
		assert.Equal(t, "50000", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "1", r.PostForm.Get("line_items[0][quantity]"))
		assert.Equal(t, "case-123", r.PostForm.Get("metadata[case_id]"))
		fmt.Fprint(w, `{"id":"cs_test_1","url":"https://checkout.stripe.com/pay/cs_test_1"}`)
	}))
	defer server.Close()

	client := NewStripeClient(StripeConfig{SecretKey: "sk_test"})
	client.baseURL = server.URL

	session, err := client.CreateCheckoutSession(t.Context(), &CheckoutSessionInput{
		CustomerID:  "cus_42",
		AmountCents: 50000,
		Currency:    "usd",
		ProductName: "Payment for Case C-1001",
		SuccessURL:  "https://app.example.com/payments/success",
		CancelURL:   "https://app.example.com/payments/cancel",
		Metadata:    map[string]string{"case_id": "case-123"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_1", session.URL)
}

func TestCreateCheckoutSession_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error":{"message":"insufficient permissions"}}`)
	}))
	defer server.Close()

	client := NewStripeClient(StripeConfig{SecretKey: "sk_test"})
	client.baseURL = server.URL

	session, err := client.CreateCheckoutSession(t.Context(), &CheckoutSessionInput{
		CustomerID:  "cus_42",
		AmountCents: 100,
	})
	assert.Nil(t, session)
	assert.Error(t, err)
}
