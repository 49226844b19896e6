package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/debtflow/debtflow-api/internal/config"
	"github.com/debtflow/debtflow-api/internal/models"
	"github.com/debtflow/debtflow-api/internal/processor"
	"github.com/debtflow/debtflow-api/internal/repository"
	"github.com/debtflow/debtflow-api/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Setup("test")
	os.Exit(m.Run())
}

// In-memory PaymentRepository double. FindBySession applies the same
// correlation rule as the real repository: session id first, then customer id
// on rows without a session attached.
type paymentRepoStub struct {
	repository.PaymentRepository
	payments map[string]*models.Payment
	created  []*models.Payment
	updates  int
}

func newPaymentRepoStub(payments ...*models.Payment) *paymentRepoStub {
	stub := &paymentRepoStub{payments: make(map[string]*models.Payment)}
	for _, p := range payments {
		cp := *p
		stub.payments[p.ID] = &cp
	}
	return stub
}

func (r *paymentRepoStub) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *paymentRepoStub) FindBySession(ctx context.Context, sessionID, customerID string) (*models.Payment, error) {
	for _, p := range r.payments {
		if p.StripeCheckoutSessionID != nil && sessionID != "" && *p.StripeCheckoutSessionID == sessionID {
			cp := *p
			return &cp, nil
		}
	}
	if customerID != "" {
		for _, p := range r.payments {
			if p.StripeCustomerID != nil && *p.StripeCustomerID == customerID && p.StripeCheckoutSessionID == nil {
				cp := *p
				return &cp, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *paymentRepoStub) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = fmt.Sprintf("pay-%d", len(r.created)+1)
	}
	cp := *payment
	r.payments[payment.ID] = &cp
	r.created = append(r.created, payment)
	return nil
}

func (r *paymentRepoStub) Update(ctx context.Context, payment *models.Payment) error {
	cp := *payment
	r.payments[payment.ID] = &cp
	r.updates++
	return nil
}

func (r *paymentRepoStub) UpdateIfStatus(ctx context.Context, payment *models.Payment, fromStatus string) (bool, error) {
	stored, ok := r.payments[payment.ID]
	if !ok || stored.Status != fromStatus {
		return false, nil
	}
	cp := *payment
	r.payments[payment.ID] = &cp
	r.updates++
	return true, nil
}

// In-memory CaseRepository double
type caseRepoStub struct {
	repository.CaseRepository
	cases   map[string]*models.Case
	updates int
}

func newCaseRepoStub(cases ...*models.Case) *caseRepoStub {
	stub := &caseRepoStub{cases: make(map[string]*models.Case)}
	for _, c := range cases {
		cp := *c
		stub.cases[c.ID] = &cp
	}
	return stub
}

func (r *caseRepoStub) FindByID(ctx context.Context, id string) (*models.Case, error) {
	c, ok := r.cases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *caseRepoStub) Update(ctx context.Context, c *models.Case) error {
	cp := *c
	r.cases[c.ID] = &cp
	r.updates++
	return nil
}

// In-memory DebtorRepository double
type debtorRepoStub struct {
	repository.DebtorRepository
	debtors map[string]*models.Debtor
}

func newDebtorRepoStub(debtors ...*models.Debtor) *debtorRepoStub {
	stub := &debtorRepoStub{debtors: make(map[string]*models.Debtor)}
	for _, d := range debtors {
		cp := *d
		stub.debtors[d.ID] = &cp
	}
	return stub
}

func (r *debtorRepoStub) FindByID(ctx context.Context, id string) (*models.Debtor, error) {
	d, ok := r.debtors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

// In-memory CaseEventRepository double
type eventRepoStub struct {
	repository.CaseEventRepository
	events []models.CaseEvent
}

func (r *eventRepoStub) Create(ctx context.Context, event *models.CaseEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	r.events = append(r.events, *event)
	return nil
}

func (r *eventRepoStub) ExistsSince(ctx context.Context, caseID, eventType string, since time.Time) (bool, error) {
	for _, e := range r.events {
		if e.CaseID == caseID && e.EventType == eventType && !e.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *eventRepoStub) eventTypes() []string {
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.EventType)
	}
	return types
}

// Processor double recording every call
type processorStub struct {
	customerCalls []string
	sessionCalls  []*processor.CheckoutSessionInput
	customerErr   error
	sessionErr    error
}

func (p *processorStub) FindOrCreateCustomer(ctx context.Context, email, name string) (*processor.Customer, error) {
	p.customerCalls = append(p.customerCalls, email)
	if p.customerErr != nil {
		return nil, p.customerErr
	}
	return &processor.Customer{ID: "cus_123", Email: email, Name: name}, nil
}

func (p *processorStub) CreateCheckoutSession(ctx context.Context, input *processor.CheckoutSessionInput) (*processor.CheckoutSession, error) {
	p.sessionCalls = append(p.sessionCalls, input)
	if p.sessionErr != nil {
		return nil, p.sessionErr
	}
	return &processor.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.stripe.com/pay/cs_test_123"}, nil
}

func strPtr(s string) *string { return &s }

func testConfig() *config.Config {
	return &config.Config{
		AppURL: "https://app.debtflow.test",
	}
}

func activeCase(id, debtorID, balance string) *models.Case {
	amount := decimal.RequireFromString(balance)
	return &models.Case{
		ID:             id,
		OrganizationID: "org-1",
		DebtorID:       debtorID,
		Status:         models.CaseStatusActive,
		OriginalAmount: amount,
		CurrentBalance: amount,
	}
}

func pendingPayment(id, caseID, amount string) *models.Payment {
	return &models.Payment{
		ID:     id,
		CaseID: caseID,
		Amount: decimal.RequireFromString(amount),
		Status: models.PaymentStatusPending,
		Method: models.PaymentMethodStripe,
	}
}

func newTestPaymentService(
	payments *paymentRepoStub,
	cases *caseRepoStub,
	debtors *debtorRepoStub,
	events *eventRepoStub,
	proc *processorStub,
	cfg *config.Config,
) *PaymentService {
	return NewPaymentService(payments, cases, debtors, events, proc, nil, nil, cfg)
}

func TestCreatePaymentLink(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a session and stores a pending payment", func(t *testing.T) {
		cases := newCaseRepoStub(activeCase("case-1", "deb-1", "500.00"))
		payments := newPaymentRepoStub()
		events := &eventRepoStub{}
		proc := &processorStub{}
		svc := newTestPaymentService(payments, cases, newDebtorRepoStub(), events, proc, testConfig())

		result, err := svc.CreatePaymentLink(ctx, &CreatePaymentLinkInput{
			CaseID:        "case-1",
			Amount:        "250.00",
			CustomerEmail: "debtor@example.com",
			CustomerName:  "Jane Debtor",
		})

		require.NoError(t, err)
		assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_123", result.URL)

		require.Len(t, proc.sessionCalls, 1)
		session := proc.sessionCalls[0]
		assert.Equal(t, int64(25000), session.AmountCents)
		assert.Equal(t, "cus_123", session.CustomerID)
		assert.Equal(t, "Payment for Case case-1", session.ProductName)
		assert.Equal(t, "case-1", session.Metadata["case_id"])
		assert.Contains(t, session.SuccessURL, "https://app.debtflow.test/payments/success")

		require.Len(t, payments.created, 1)
		p := payments.created[0]
		assert.Equal(t, models.PaymentStatusPending, p.Status)
		assert.Equal(t, "cs_test_123", *p.StripeCheckoutSessionID)
		assert.Equal(t, "cus_123", *p.StripeCustomerID)
		assert.NotNil(t, p.ScheduledDate)

		assert.Contains(t, events.eventTypes(), models.EventTypePaymentLinkCreated)
	})

	t.Run("uses the external reference in the session description", func(t *testing.T) {
		c := activeCase("case-1", "deb-1", "500.00")
		c.ExternalReference = strPtr("INV-2024-001")
		proc := &processorStub{}
		svc := newTestPaymentService(newPaymentRepoStub(), newCaseRepoStub(c), newDebtorRepoStub(), &eventRepoStub{}, proc, testConfig())

		_, err := svc.CreatePaymentLink(ctx, &CreatePaymentLinkInput{
			CaseID:        "case-1",
			Amount:        "100",
			CustomerEmail: "debtor@example.com",
		})

		require.NoError(t, err)
		assert.Equal(t, "Payment for Case INV-2024-001", proc.sessionCalls[0].ProductName)
	})

	t.Run("rejects non-positive and malformed amounts", func(t *testing.T) {
		proc := &processorStub{}
		svc := newTestPaymentService(newPaymentRepoStub(), newCaseRepoStub(activeCase("case-1", "deb-1", "500.00")), newDebtorRepoStub(), &eventRepoStub{}, proc, testConfig())

		for _, amount := range []string{"abc", "-5", "0", ""} {
			_, err := svc.CreatePaymentLink(ctx, &CreatePaymentLinkInput{
				CaseID:        "case-1",
				Amount:        amount,
				CustomerEmail: "debtor@example.com",
			})
			assert.ErrorIs(t, err, ErrValidation, "amount %q", amount)
		}
		assert.Empty(t, proc.customerCalls, "no processor calls on validation failure")
	})

	t.Run("unknown case makes no processor calls", func(t *testing.T) {
		proc := &processorStub{}
		svc := newTestPaymentService(newPaymentRepoStub(), newCaseRepoStub(), newDebtorRepoStub(), &eventRepoStub{}, proc, testConfig())

		_, err := svc.CreatePaymentLink(ctx, &CreatePaymentLinkInput{
			CaseID:        "missing",
			Amount:        "100",
			CustomerEmail: "debtor@example.com",
		})

		assert.ErrorIs(t, err, ErrNotFound)
		assert.Empty(t, proc.customerCalls)
		assert.Empty(t, proc.sessionCalls)
	})

	t.Run("falls back to the debtor's contact details", func(t *testing.T) {
		debtor := &models.Debtor{
			ID:             "deb-1",
			OrganizationID: "org-1",
			Type:           models.DebtorTypeIndividual,
			FirstName:      strPtr("Jane"),
			LastName:       strPtr("Debtor"),
			Email:          strPtr("fallback@example.com"),
		}
		proc := &processorStub{}
		svc := newTestPaymentService(newPaymentRepoStub(), newCaseRepoStub(activeCase("case-1", "deb-1", "500.00")), newDebtorRepoStub(debtor), &eventRepoStub{}, proc, testConfig())

		_, err := svc.CreatePaymentLink(ctx, &CreatePaymentLinkInput{CaseID: "case-1", Amount: "100"})

		require.NoError(t, err)
		require.Len(t, proc.customerCalls, 1)
		assert.Equal(t, "fallback@example.com", proc.customerCalls[0])
	})

	t.Run("fails when no customer email is available", func(t *testing.T) {
		debtor := &models.Debtor{ID: "deb-1", OrganizationID: "org-1", Type: models.DebtorTypeIndividual, FirstName: strPtr("Jane")}
		proc := &processorStub{}
		svc := newTestPaymentService(newPaymentRepoStub(), newCaseRepoStub(activeCase("case-1", "deb-1", "500.00")), newDebtorRepoStub(debtor), &eventRepoStub{}, proc, testConfig())

		_, err := svc.CreatePaymentLink(ctx, &CreatePaymentLinkInput{CaseID: "case-1", Amount: "100"})

		assert.ErrorIs(t, err, ErrValidation)
		assert.Empty(t, proc.sessionCalls)
	})

	t.Run("is not idempotent across calls", func(t *testing.T) {
		payments := newPaymentRepoStub()
		svc := newTestPaymentService(payments, newCaseRepoStub(activeCase("case-1", "deb-1", "500.00")), newDebtorRepoStub(), &eventRepoStub{}, &processorStub{}, testConfig())

		input := &CreatePaymentLinkInput{CaseID: "case-1", Amount: "100", CustomerEmail: "debtor@example.com"}
		_, err := svc.CreatePaymentLink(ctx, input)
		require.NoError(t, err)
		_, err = svc.CreatePaymentLink(ctx, input)
		require.NoError(t, err)

		assert.Len(t, payments.created, 2)
	})
}

func settledEvent(sessionID string) *processor.WebhookEvent {
	return &processor.WebhookEvent{
		ID:            "evt_1",
		Type:          processor.EventCheckoutCompleted,
		SessionID:     sessionID,
		CustomerID:    "cus_123",
		PaymentStatus: processor.SessionPaymentStatusPaid,
		PaymentIntent: "pi_456",
	}
}

func TestHandleCheckoutEvent_Settlement(t *testing.T) {
	ctx := context.Background()

	t.Run("full payoff clears the payment and closes the case", func(t *testing.T) {
		p := pendingPayment("pay-1", "case-1", "500.00")
		p.StripeCheckoutSessionID = strPtr("cs_1")
		payments := newPaymentRepoStub(p)
		cases := newCaseRepoStub(activeCase("case-1", "deb-1", "500.00"))
		events := &eventRepoStub{}
		svc := newTestPaymentService(payments, cases, newDebtorRepoStub(), events, &processorStub{}, testConfig())

		err := svc.HandleCheckoutEvent(ctx, settledEvent("cs_1"))

		require.NoError(t, err)
		stored := payments.payments["pay-1"]
		assert.Equal(t, models.PaymentStatusCleared, stored.Status)
		assert.NotNil(t, stored.ProcessedDate)
		assert.Equal(t, "pi_456", *stored.Reference)

		c := cases.cases["case-1"]
		assert.True(t, c.CurrentBalance.IsZero())
		assert.Equal(t, models.CaseStatusPaidInFull, c.Status)
		assert.Contains(t, events.eventTypes(), models.EventTypePaymentCleared)
	})

	t.Run("partial payment decrements the balance and keeps the status", func(t *testing.T) {
		p := pendingPayment("pay-1", "case-1", "200.00")
		p.StripeCheckoutSessionID = strPtr("cs_1")
		payments := newPaymentRepoStub(p)
		cases := newCaseRepoStub(activeCase("case-1", "deb-1", "500.00"))
		svc := newTestPaymentService(payments, cases, newDebtorRepoStub(), &eventRepoStub{}, &processorStub{}, testConfig())

		err := svc.HandleCheckoutEvent(ctx, settledEvent("cs_1"))

		require.NoError(t, err)
		c := cases.cases["case-1"]
		assert.True(t, c.CurrentBalance.Equal(decimal.RequireFromString("300.00")))
		assert.Equal(t, models.CaseStatusActive, c.Status)
	})

	t.Run("overpayment clamps the balance at zero", func(t *testing.T) {
		p := pendingPayment("pay-1", "case-1", "250.00")
		p.StripeCheckoutSessionID = strPtr("cs_1")
		payments := newPaymentRepoStub(p)
		cases := newCaseRepoStub(activeCase("case-1", "deb-1", "100.00"))
		svc := newTestPaymentService(payments, cases, newDebtorRepoStub(), &eventRepoStub{}, &processorStub{}, testConfig())

		err := svc.HandleCheckoutEvent(ctx, settledEvent("cs_1"))

		require.NoError(t, err)
		c := cases.cases["case-1"]
		assert.True(t, c.CurrentBalance.IsZero())
		assert.Equal(t, models.CaseStatusPaidInFull, c.Status)
	})

	t.Run("completed but unpaid session is left alone", func(t *testing.T) {
		p := pendingPayment("pay-1", "case-1", "200.00")
		p.StripeCheckoutSessionID = strPtr("cs_1")
		payments := newPaymentRepoStub(p)
		cases := newCaseRepoStub(activeCase("case-1", "deb-1", "500.00"))
		svc := newTestPaymentService(payments, cases, newDebtorRepoStub(), &eventRepoStub{}, &processorStub{}, testConfig())

		event := settledEvent("cs_1")
		event.PaymentStatus = "unpaid"
		err := svc.HandleCheckoutEvent(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, payments.payments["pay-1"].Status)
		assert.Zero(t, payments.updates)
		assert.Zero(t, cases.updates)
	})

	t.Run("async success settles like a paid completion", func(t *testing.T) {
		p := pendingPayment("pay-1", "case-1", "500.00")
		p.StripeCheckoutSessionID = strPtr("cs_1")
		payments := newPaymentRepoStub(p)
		cases := newCaseRepoStub(activeCase("case-1", "deb-1", "500.00"))
		svc := newTestPaymentService(payments, cases, newDebtorRepoStub(), &eventRepoStub{}, &processorStub{}, testConfig())

		event := settledEvent("cs_1")
		event.Type = processor.EventAsyncPaymentSucceeded
		event.PaymentStatus = ""
		err := svc.HandleCheckoutEvent(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCleared, payments.payments["pay-1"].Status)
		assert.Equal(t, models.CaseStatusPaidInFull, cases.cases["case-1"].Status)
	})

	t.Run("correlates by customer id when the session was never attached", func(t *testing.T) {
		p := pendingPayment("pay-1", "case-1", "100.00")
		p.StripeCustomerID = strPtr("cus_123")
		payments := newPaymentRepoStub(p)
		cases := newCaseRepoStub(activeCase("case-1", "deb-1", "500.00"))
		svc := newTestPaymentService(payments, cases, newDebtorRepoStub(), &eventRepoStub{}, &processorStub{}, testConfig())

		err := svc.HandleCheckoutEvent(ctx, settledEvent("cs_new"))

		require.NoError(t, err)
		stored := payments.payments["pay-1"]
		assert.Equal(t, models.PaymentStatusCleared, stored.Status)
		assert.Equal(t, "cs_new", *stored.StripeCheckoutSessionID)
	})
}

func TestHandleCheckoutEvent_FailureAndExpiry(t *testing.T) {
	ctx := context.Background()

	t.Run("async failure rejects the payment without touching the balance", func(t *testing.T) {
		p := pendingPayment("pay-1", "case-1", "200.00")
		p.StripeCheckoutSessionID = strPtr("cs_1")
		payments := newPaymentRepoStub(p)
		cases := newCaseRepoStub(activeCase("case-1", "deb-1", "500.00"))
		events := &eventRepoStub{}
		svc := newTestPaymentService(payments, cases, newDebtorRepoStub(), events, &processorStub{}, testConfig())

		err := svc.HandleCheckoutEvent(ctx, &processor.WebhookEvent{
			Type:      processor.EventAsyncPaymentFailed,
			SessionID: "cs_1",
		})

		require.NoError(t, err)
		stored := payments.payments["pay-1"]
		assert.Equal(t, models.PaymentStatusRejected, stored.Status)
		assert.NotNil(t, stored.ProcessedDate)
		assert.True(t, cases.cases["case-1"].CurrentBalance.Equal(decimal.RequireFromString("500.00")))
		assert.Zero(t, cases.updates)
		assert.Contains(t, events.eventTypes(), models.EventTypePaymentRejected)
	})

	t.Run("expired session cancels the payment", func(t *testing.T) {
		p := pendingPayment("pay-1", "case-1", "200.00")
		p.StripeCheckoutSessionID = strPtr("cs_1")
		payments := newPaymentRepoStub(p)
		cases := newCaseRepoStub(activeCase("case-1", "deb-1", "500.00"))
		events := &eventRepoStub{}
		svc := newTestPaymentService(payments, cases, newDebtorRepoStub(), events, &processorStub{}, testConfig())

		err := svc.HandleCheckoutEvent(ctx, &processor.WebhookEvent{
			Type:      processor.EventCheckoutSessionExpired,
			SessionID: "cs_1",
		})

		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCancelled, payments.payments["pay-1"].Status)
		assert.Zero(t, cases.updates)
		assert.Contains(t, events.eventTypes(), models.EventTypePaymentLinkExpired)
	})

	t.Run("unknown event types are acknowledged without effect", func(t *testing.T) {
		payments := newPaymentRepoStub(pendingPayment("pay-1", "case-1", "200.00"))
		cases := newCaseRepoStub(activeCase("case-1", "deb-1", "500.00"))
		svc := newTestPaymentService(payments, cases, newDebtorRepoStub(), &eventRepoStub{}, &processorStub{}, testConfig())

		err := svc.HandleCheckoutEvent(ctx, &processor.WebhookEvent{Type: "customer.created"})

		require.NoError(t, err)
		assert.Zero(t, payments.updates)
		assert.Zero(t, cases.updates)
	})

	t.Run("notifications matching no payment are a silent no-op", func(t *testing.T) {
		payments := newPaymentRepoStub()
		cases := newCaseRepoStub(activeCase("case-1", "deb-1", "500.00"))
		svc := newTestPaymentService(payments, cases, newDebtorRepoStub(), &eventRepoStub{}, &processorStub{}, testConfig())

		err := svc.HandleCheckoutEvent(ctx, settledEvent("cs_unknown"))

		require.NoError(t, err)
		assert.Zero(t, payments.updates)
		assert.Zero(t, cases.updates)
	})
}

func TestHandleCheckoutEvent_DuplicateDelivery(t *testing.T) {
	ctx := context.Background()

	t.Run("default mode applies a duplicate settlement twice", func(t *testing.T) {
		p := pendingPayment("pay-1", "case-1", "200.00")
		p.StripeCheckoutSessionID = strPtr("cs_1")
		payments := newPaymentRepoStub(p)
		cases := newCaseRepoStub(activeCase("case-1", "deb-1", "500.00"))
		svc := newTestPaymentService(payments, cases, newDebtorRepoStub(), &eventRepoStub{}, &processorStub{}, testConfig())

		require.NoError(t, svc.HandleCheckoutEvent(ctx, settledEvent("cs_1")))
		require.NoError(t, svc.HandleCheckoutEvent(ctx, settledEvent("cs_1")))

		// The second delivery decrements again. Documented processor-retry
		// hazard of the default mode; STRICT_RECONCILIATION closes it.
		c := cases.cases["case-1"]
		assert.True(t, c.CurrentBalance.Equal(decimal.RequireFromString("100.00")))
		assert.Equal(t, 2, cases.updates)
	})

	t.Run("strict mode applies a duplicate settlement once", func(t *testing.T) {
		p := pendingPayment("pay-1", "case-1", "200.00")
		p.StripeCheckoutSessionID = strPtr("cs_1")
		payments := newPaymentRepoStub(p)
		cases := newCaseRepoStub(activeCase("case-1", "deb-1", "500.00"))
		cfg := testConfig()
		cfg.StrictReconciliation = true
		svc := newTestPaymentService(payments, cases, newDebtorRepoStub(), &eventRepoStub{}, &processorStub{}, cfg)

		require.NoError(t, svc.HandleCheckoutEvent(ctx, settledEvent("cs_1")))
		require.NoError(t, svc.HandleCheckoutEvent(ctx, settledEvent("cs_1")))

		c := cases.cases["case-1"]
		assert.True(t, c.CurrentBalance.Equal(decimal.RequireFromString("300.00")))
		assert.Equal(t, 1, cases.updates)
	})
}

func TestCancelPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels a pending link and records the actor", func(t *testing.T) {
		payments := newPaymentRepoStub(pendingPayment("pay-1", "case-1", "200.00"))
		events := &eventRepoStub{}
		svc := newTestPaymentService(payments, newCaseRepoStub(), newDebtorRepoStub(), events, &processorStub{}, testConfig())

		roleID := "role-1"
		payment, err := svc.Cancel(ctx, "pay-1", &roleID)

		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCancelled, payment.Status)
		require.Len(t, events.events, 1)
		assert.Equal(t, models.EventTypePaymentCancelled, events.events[0].EventType)
		assert.Equal(t, "role-1", *events.events[0].RoleID)
	})

	t.Run("refuses to cancel a cleared payment", func(t *testing.T) {
		p := pendingPayment("pay-1", "case-1", "200.00")
		p.Status = models.PaymentStatusCleared
		payments := newPaymentRepoStub(p)
		svc := newTestPaymentService(payments, newCaseRepoStub(), newDebtorRepoStub(), &eventRepoStub{}, &processorStub{}, testConfig())

		_, err := svc.Cancel(ctx, "pay-1", nil)

		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("unknown payment returns not found", func(t *testing.T) {
		svc := newTestPaymentService(newPaymentRepoStub(), newCaseRepoStub(), newDebtorRepoStub(), &eventRepoStub{}, &processorStub{}, testConfig())

		_, err := svc.Cancel(ctx, "missing", nil)

		assert.ErrorIs(t, err, ErrNotFound)
	})
}
