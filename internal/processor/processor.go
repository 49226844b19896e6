// Package processor wraps the external payment processor API. The payment
// service depends on the Client interface only, so tests substitute a double.
package processor

import (
	"context"
	"errors"
)

// Customer is a processor-side customer record. We never own these rows,
// payments only keep the id for webhook correlation.
type Customer struct {
	ID    string
	Email string
	Name  string
}

// CheckoutSessionInput describes a one-time hosted payment session
type CheckoutSessionInput struct {
	CustomerID  string
	AmountCents int64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// CheckoutSession is the created hosted session
type CheckoutSession struct {
	ID  string
	URL string
}

// Client is the capability the payment service needs from the processor
type Client interface {
	FindOrCreateCustomer(ctx context.Context, email, name string) (*Customer, error)
	CreateCheckoutSession(ctx context.Context, input *CheckoutSessionInput) (*CheckoutSession, error)
}

// Webhook event types emitted by the processor for checkout sessions
const (
	EventCheckoutCompleted      = "checkout.session.completed"
	EventAsyncPaymentSucceeded  = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFailed     = "checkout.session.async_payment_failed"
	EventCheckoutSessionExpired = "checkout.session.expired"
)

// Session payment status carried inside completed events
const (
	SessionPaymentStatusPaid = "paid"
)

// WebhookEvent is one parsed notification from the processor
type WebhookEvent struct {
	ID            string
	Type          string
	SessionID     string
	CustomerID    string
	PaymentStatus string
	PaymentIntent string
}

// Webhook verification errors
var (
	ErrMissingSignature    = errors.New("webhook signature header is missing")
	ErrInvalidSignature    = errors.New("webhook signature is invalid")
	ErrSecretNotConfigured = errors.New("webhook secret is not configured")
)

// EventVerifier verifies a signed webhook envelope and parses the event
type EventVerifier interface {
	VerifyAndParseEvent(payload []byte, signature string) (*WebhookEvent, error)
}
