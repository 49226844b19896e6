package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/debtflow/debtflow-api/internal/models"
	"github.com/debtflow/debtflow-api/internal/repository"
	"github.com/debtflow/debtflow-api/internal/statemachine"
	"github.com/debtflow/debtflow-api/pkg/logger"
)

// CreateCaseInput holds the parameters for opening a new case
type CreateCaseInput struct {
	DebtorID          string     `json:"debtor_id" binding:"required"`
	OriginalAmount    string     `json:"original_amount" binding:"required"`
	InterestRate      string     `json:"interest_rate"`
	ExternalReference *string    `json:"external_reference"`
	DueDate           *time.Time `json:"due_date"`
	Details           *string    `json:"details"`
}

type CaseService struct {
	repo       repository.CaseRepository
	debtorRepo repository.DebtorRepository
	eventRepo  repository.CaseEventRepository
}

func NewCaseService(
	repo repository.CaseRepository,
	debtorRepo repository.DebtorRepository,
	eventRepo repository.CaseEventRepository,
) *CaseService {
	return &CaseService{
		repo:       repo,
		debtorRepo: debtorRepo,
		eventRepo:  eventRepo,
	}
}

func (s *CaseService) FindByID(ctx context.Context, id string) (*models.Case, error) {
	c, err := s.repo.FindByIDWithDetails(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return c, err
}

func (s *CaseService) List(ctx context.Context, orgID string, query *repository.ListQuery) ([]models.Case, int64, error) {
	return s.repo.List(ctx, orgID, query)
}

// Create opens a new case against an existing debtor. The balance always
// starts equal to the original amount and the status always starts at new.
func (s *CaseService) Create(ctx context.Context, orgID string, input *CreateCaseInput) (*models.Case, error) {
	amount, err := decimal.NewFromString(input.OriginalAmount)
	if err != nil || !amount.IsPositive() {
		return nil, fmt.Errorf("%w: original amount must be a positive number", ErrValidation)
	}

	rate := decimal.Zero
	if input.InterestRate != "" {
		rate, err = decimal.NewFromString(input.InterestRate)
		if err != nil || rate.IsNegative() {
			return nil, fmt.Errorf("%w: interest rate must be a non-negative number", ErrValidation)
		}
	}

	debtor, err := s.debtorRepo.FindByID(ctx, input.DebtorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: debtor %s", ErrNotFound, input.DebtorID)
		}
		return nil, err
	}
	if debtor.OrganizationID != orgID {
		return nil, fmt.Errorf("%w: debtor belongs to a different organization", ErrValidation)
	}

	c := &models.Case{
		OrganizationID:    orgID,
		DebtorID:          debtor.ID,
		Status:            models.CaseStatusNew,
		OriginalAmount:    amount,
		CurrentBalance:    amount,
		InterestRate:      rate,
		ExternalReference: input.ExternalReference,
		DueDate:           input.DueDate,
		Details:           input.Details,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// Update touches the contact tracking fields on a case
func (s *CaseService) Update(ctx context.Context, id string, lastContact, nextAction *time.Time, details *string) (*models.Case, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if lastContact != nil {
		c.LastContactDate = lastContact
	}
	if nextAction != nil {
		c.NextActionDate = nextAction
	}
	if details != nil {
		c.Details = details
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Transition applies a named state machine event to the case and records the
// status change in the audit trail.
func (s *CaseService) Transition(ctx context.Context, id, event string, roleID *string, notes string) (*models.Case, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	previous := c.Status
	cfsm := statemachine.NewCaseFSM(c)

	switch event {
	case "activate":
		err = cfsm.Activate(ctx)
	case "submit_for_approval":
		err = cfsm.SubmitForApproval(ctx)
	case "mark_broken_promise":
		err = cfsm.MarkBrokenPromise(ctx)
	case "mark_paid":
		err = cfsm.MarkPaid(ctx)
	case "mark_uncollectible":
		err = cfsm.MarkUncollectible(ctx)
	case "close":
		err = cfsm.Close(ctx)
	case "reopen":
		err = cfsm.Reopen(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown transition %q", ErrValidation, event)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	if notes == "" {
		notes = fmt.Sprintf("Status changed from %s to %s", previous, c.Status)
	}
	auditEvent := &models.CaseEvent{
		CaseID:    c.ID,
		RoleID:    roleID,
		EventType: models.EventTypeStatusChanged,
		Notes:     notes,
	}
	if err := s.eventRepo.Create(ctx, auditEvent); err != nil {
		logger.Error(fmt.Sprintf("Failed to record status change for case %s: %v", c.ID, err))
	}

	return c, nil
}

// Events returns the audit trail for a case, newest first
func (s *CaseService) Events(ctx context.Context, caseID string) ([]models.CaseEvent, error) {
	return s.eventRepo.FindByCase(ctx, caseID)
}

// FlagNextActionDue records a reminder event on every open case whose next
// action date has passed. At most one reminder per case per day.
func (s *CaseService) FlagNextActionDue(ctx context.Context) error {
	due, err := s.repo.FindNextActionDue(ctx, time.Now())
	if err != nil {
		return err
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	flagged := 0
	for i := range due {
		c := &due[i]
		// Re-check in process, the status may have changed since the query
		if !c.NextActionDue() {
			continue
		}

		exists, err := s.eventRepo.ExistsSince(ctx, c.ID, models.EventTypeNextActionDue, dayStart)
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to check reminder state for case %s: %v", c.ID, err))
			continue
		}
		if exists {
			continue
		}

		event := &models.CaseEvent{
			CaseID:    c.ID,
			EventType: models.EventTypeNextActionDue,
			Notes:     fmt.Sprintf("Next action was due %s", c.NextActionDate.Format("2006-01-02")),
		}
		if err := s.eventRepo.Create(ctx, event); err != nil {
			logger.Error(fmt.Sprintf("Failed to flag case %s: %v", c.ID, err))
			continue
		}
		flagged++
	}

	if flagged > 0 {
		logger.Info(fmt.Sprintf("[Jobs] Flagged %d cases with overdue next actions", flagged))
	}
	return nil
}
