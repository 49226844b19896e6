package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/debtflow/debtflow-api/internal/config"
	"github.com/debtflow/debtflow-api/internal/jobs"
	"github.com/debtflow/debtflow-api/internal/models"
	"github.com/debtflow/debtflow-api/internal/processor"
	"github.com/debtflow/debtflow-api/internal/repository"
	"github.com/debtflow/debtflow-api/internal/statemachine"
	"github.com/debtflow/debtflow-api/pkg/logger"
)

// CreatePaymentLinkInput holds the parameters for issuing a hosted payment link
type CreatePaymentLinkInput struct {
	CaseID        string `json:"case_id" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
}

// PaymentLinkResult is returned after a payment link has been issued
type PaymentLinkResult struct {
	Payment *models.Payment `json:"payment"`
	URL     string          `json:"url"`
}

type PaymentService struct {
	repo       repository.PaymentRepository
	caseRepo   repository.CaseRepository
	debtorRepo repository.DebtorRepository
	eventRepo  repository.CaseEventRepository
	processor  processor.Client
	emailSvc   *EmailService
	worker     *jobs.Worker
	cfg        *config.Config
}

func NewPaymentService(
	repo repository.PaymentRepository,
	caseRepo repository.CaseRepository,
	debtorRepo repository.DebtorRepository,
	eventRepo repository.CaseEventRepository,
	proc processor.Client,
	emailSvc *EmailService,
	worker *jobs.Worker,
	cfg *config.Config,
) *PaymentService {
	return &PaymentService{
		repo:       repo,
		caseRepo:   caseRepo,
		debtorRepo: debtorRepo,
		eventRepo:  eventRepo,
		processor:  proc,
		emailSvc:   emailSvc,
		worker:     worker,
		cfg:        cfg,
	}
}

func (s *PaymentService) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return payment, err
}

func (s *PaymentService) FindByCase(ctx context.Context, caseID string) ([]models.Payment, error) {
	return s.repo.FindByCase(ctx, caseID)
}

// CreatePaymentLink creates a processor customer, opens a hosted checkout
// session for the requested amount and stores a pending payment carrying the
// session link. Each call creates a fresh session; pending links for the same
// case are left alone.
func (s *PaymentService) CreatePaymentLink(ctx context.Context, input *CreatePaymentLinkInput) (*PaymentLinkResult, error) {
	amount, err := decimal.NewFromString(input.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	}

	c, err := s.caseRepo.FindByID(ctx, input.CaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: case %s", ErrNotFound, input.CaseID)
		}
		return nil, err
	}

	email := input.CustomerEmail
	name := input.CustomerName
	if email == "" || name == "" {
		debtor, err := s.debtorRepo.FindByID(ctx, c.DebtorID)
		if err == nil {
			if email == "" && debtor.Email != nil {
				email = *debtor.Email
			}
			if name == "" {
				name = debtor.DisplayName()
			}
		}
	}
	if email == "" {
		return nil, fmt.Errorf("%w: customer email is required", ErrValidation)
	}

	customer, err := s.processor.FindOrCreateCustomer(ctx, email, name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve processor customer: %w", err)
	}

	session, err := s.processor.CreateCheckoutSession(ctx, &processor.CheckoutSessionInput{
		CustomerID:  customer.ID,
		AmountCents: amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency:    "usd",
		ProductName: fmt.Sprintf("Payment for Case %s", c.Reference()),
		SuccessURL:  fmt.Sprintf("%s/payments/success?case_id=%s", s.cfg.AppURL, c.ID),
		CancelURL:   fmt.Sprintf("%s/payments/cancelled?case_id=%s", s.cfg.AppURL, c.ID),
		Metadata:    map[string]string{"case_id": c.ID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	now := time.Now()
	payment := &models.Payment{
		CaseID:                  c.ID,
		Amount:                  amount,
		Status:                  models.PaymentStatusPending,
		Method:                  models.PaymentMethodStripe,
		StripeCustomerID:        &customer.ID,
		StripeCheckoutSessionID: &session.ID,
		PaymentLinkURL:          &session.URL,
		ScheduledDate:           &now,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, c.ID, models.EventTypePaymentLinkCreated,
		fmt.Sprintf("Payment link for %s issued to %s", amount.StringFixed(2), email))

	if s.emailSvc != nil && s.worker != nil {
		caseRef := c.Reference()
		paymentCopy := *payment
		s.worker.EnqueueAsync(func(jobCtx context.Context) error {
			return s.emailSvc.SendPaymentLink(jobCtx, email, name, caseRef, &paymentCopy)
		})
	}

	return &PaymentLinkResult{Payment: payment, URL: session.URL}, nil
}

// HandleCheckoutEvent reconciles one processor webhook notification against
// the stored payments. Notifications that match nothing are acknowledged
// without effect so the processor stops retrying them.
func (s *PaymentService) HandleCheckoutEvent(ctx context.Context, event *processor.WebhookEvent) error {
	switch event.Type {
	case processor.EventCheckoutCompleted:
		if event.PaymentStatus != processor.SessionPaymentStatusPaid {
			logger.Info(fmt.Sprintf("[Webhook] Session %s completed but unpaid, awaiting async result", event.SessionID))
			return nil
		}
		return s.settlePayment(ctx, event)

	case processor.EventAsyncPaymentSucceeded:
		return s.settlePayment(ctx, event)

	case processor.EventAsyncPaymentFailed:
		return s.rejectPayment(ctx, event)

	case processor.EventCheckoutSessionExpired:
		return s.expirePayment(ctx, event)

	default:
		logger.Info(fmt.Sprintf("[Webhook] Unhandled event type: %s", event.Type))
		return nil
	}
}

// settlePayment marks the matched payment cleared and applies it to the case
// balance, flipping the case to paid_in_full once nothing is left to collect.
func (s *PaymentService) settlePayment(ctx context.Context, event *processor.WebhookEvent) error {
	payment, err := s.findForEvent(ctx, event)
	if err != nil || payment == nil {
		return err
	}

	now := time.Now()
	payment.Status = models.PaymentStatusCleared
	payment.ProcessedDate = &now
	if event.PaymentIntent != "" {
		reference := event.PaymentIntent
		payment.Reference = &reference
	}
	if payment.StripeCheckoutSessionID == nil && event.SessionID != "" {
		sessionID := event.SessionID
		payment.StripeCheckoutSessionID = &sessionID
	}

	if s.cfg.StrictReconciliation {
		applied, err := s.repo.UpdateIfStatus(ctx, payment, models.PaymentStatusPending)
		if err != nil {
			return err
		}
		if !applied {
			logger.Info(fmt.Sprintf("[Webhook] Payment %s already settled, skipping", payment.ID))
			return nil
		}
	} else {
		if err := s.repo.Update(ctx, payment); err != nil {
			return err
		}
	}

	c, err := s.caseRepo.FindByID(ctx, payment.CaseID)
	if err != nil {
		return err
	}

	newBalance := c.CurrentBalance.Sub(payment.Amount)
	if newBalance.IsNegative() {
		newBalance = decimal.Zero
	}
	c.CurrentBalance = newBalance
	if !newBalance.IsPositive() {
		c.Status = models.CaseStatusPaidInFull
	}
	if err := s.caseRepo.Update(ctx, c); err != nil {
		return err
	}

	s.recordEvent(ctx, c.ID, models.EventTypePaymentCleared,
		fmt.Sprintf("Payment of %s cleared, balance now %s", payment.Amount.StringFixed(2), newBalance.StringFixed(2)))

	if s.emailSvc != nil && s.worker != nil {
		if debtor, err := s.debtorRepo.FindByID(ctx, c.DebtorID); err == nil && debtor.Email != nil {
			email := *debtor.Email
			name := debtor.DisplayName()
			caseRef := c.Reference()
			amount := payment.Amount.StringFixed(2)
			balance := newBalance.StringFixed(2)
			s.worker.EnqueueAsync(func(jobCtx context.Context) error {
				return s.emailSvc.SendPaymentReceived(jobCtx, email, name, caseRef, amount, balance)
			})
		}
	}

	logger.Info(fmt.Sprintf("[Webhook] Payment %s cleared for case %s, balance %s", payment.ID, c.ID, newBalance.StringFixed(2)))
	return nil
}

// rejectPayment marks the matched payment rejected. The case balance is not
// touched, nothing was collected.
func (s *PaymentService) rejectPayment(ctx context.Context, event *processor.WebhookEvent) error {
	payment, err := s.findForEvent(ctx, event)
	if err != nil || payment == nil {
		return err
	}

	now := time.Now()
	payment.Status = models.PaymentStatusRejected
	payment.ProcessedDate = &now
	if payment.StripeCheckoutSessionID == nil && event.SessionID != "" {
		sessionID := event.SessionID
		payment.StripeCheckoutSessionID = &sessionID
	}
	if err := s.repo.Update(ctx, payment); err != nil {
		return err
	}

	s.recordEvent(ctx, payment.CaseID, models.EventTypePaymentRejected,
		fmt.Sprintf("Payment of %s failed at the processor", payment.Amount.StringFixed(2)))
	return nil
}

// expirePayment cancels the payment attached to a session the customer never
// completed.
func (s *PaymentService) expirePayment(ctx context.Context, event *processor.WebhookEvent) error {
	payment, err := s.findForEvent(ctx, event)
	if err != nil || payment == nil {
		return err
	}

	payment.Status = models.PaymentStatusCancelled
	if payment.StripeCheckoutSessionID == nil && event.SessionID != "" {
		sessionID := event.SessionID
		payment.StripeCheckoutSessionID = &sessionID
	}
	if err := s.repo.Update(ctx, payment); err != nil {
		return err
	}

	s.recordEvent(ctx, payment.CaseID, models.EventTypePaymentLinkExpired,
		fmt.Sprintf("Payment link for %s expired unused", payment.Amount.StringFixed(2)))
	return nil
}

// Cancel withdraws a pending payment link before the customer pays it
func (s *PaymentService) Cancel(ctx context.Context, id string, roleID *string) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	pfsm := statemachine.NewPaymentFSM(payment)
	if err := pfsm.Cancel(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, err
	}

	event := &models.CaseEvent{
		CaseID:    payment.CaseID,
		RoleID:    roleID,
		EventType: models.EventTypePaymentCancelled,
		Notes:     fmt.Sprintf("Payment link for %s cancelled by agent", payment.Amount.StringFixed(2)),
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		logger.Error(fmt.Sprintf("Failed to record case event: %v", err))
	}

	return payment, nil
}

// findForEvent correlates a webhook event to a stored payment. A missing
// match is not an error, the notification is simply not ours.
func (s *PaymentService) findForEvent(ctx context.Context, event *processor.WebhookEvent) (*models.Payment, error) {
	payment, err := s.repo.FindBySession(ctx, event.SessionID, event.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn(fmt.Sprintf("[Webhook] No payment matches session %s / customer %s", event.SessionID, event.CustomerID))
			return nil, nil
		}
		return nil, err
	}
	return payment, nil
}

// recordEvent appends a system audit entry. Failures are logged, the payment
// write already happened and must not be rolled back by bookkeeping.
func (s *PaymentService) recordEvent(ctx context.Context, caseID, eventType, notes string) {
	event := &models.CaseEvent{
		CaseID:    caseID,
		EventType: eventType,
		Notes:     notes,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		logger.Error(fmt.Sprintf("Failed to record case event %s for case %s: %v", eventType, caseID, err))
	}
}
