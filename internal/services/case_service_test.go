package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debtflow/debtflow-api/internal/models"
)

func (r *caseRepoStub) Create(ctx context.Context, c *models.Case) error {
	if c.ID == "" {
		c.ID = fmt.Sprintf("case-%d", len(r.cases)+1)
	}
	cp := *c
	r.cases[c.ID] = &cp
	return nil
}

func (r *caseRepoStub) FindNextActionDue(ctx context.Context, before time.Time) ([]models.Case, error) {
	var due []models.Case
	for _, c := range r.cases {
		if c.IsTerminal() || c.NextActionDate == nil {
			continue
		}
		if c.NextActionDate.Before(before) {
			due = append(due, *c)
		}
	}
	return due, nil
}

func newTestCaseService(cases *caseRepoStub, debtors *debtorRepoStub, events *eventRepoStub) *CaseService {
	return NewCaseService(cases, debtors, events)
}

func individualDebtor(id, orgID string) *models.Debtor {
	return &models.Debtor{
		ID:             id,
		OrganizationID: orgID,
		Type:           models.DebtorTypeIndividual,
		FirstName:      strPtr("Jane"),
		LastName:       strPtr("Debtor"),
	}
}

func TestCreateCase(t *testing.T) {
	ctx := context.Background()

	t.Run("opens a new case with balance equal to the original amount", func(t *testing.T) {
		cases := newCaseRepoStub()
		svc := newTestCaseService(cases, newDebtorRepoStub(individualDebtor("deb-1", "org-1")), &eventRepoStub{})

		c, err := svc.Create(ctx, "org-1", &CreateCaseInput{
			DebtorID:       "deb-1",
			OriginalAmount: "1500.00",
		})

		require.NoError(t, err)
		assert.Equal(t, models.CaseStatusNew, c.Status)
		assert.True(t, c.CurrentBalance.Equal(c.OriginalAmount))
		assert.True(t, c.OriginalAmount.Equal(decimal.RequireFromString("1500.00")))
	})

	t.Run("rejects amounts that are not positive numbers", func(t *testing.T) {
		svc := newTestCaseService(newCaseRepoStub(), newDebtorRepoStub(individualDebtor("deb-1", "org-1")), &eventRepoStub{})

		for _, amount := range []string{"", "abc", "-100", "0"} {
			_, err := svc.Create(ctx, "org-1", &CreateCaseInput{DebtorID: "deb-1", OriginalAmount: amount})
			assert.ErrorIs(t, err, ErrValidation, "amount %q", amount)
		}
	})

	t.Run("rejects a negative interest rate", func(t *testing.T) {
		svc := newTestCaseService(newCaseRepoStub(), newDebtorRepoStub(individualDebtor("deb-1", "org-1")), &eventRepoStub{})

		_, err := svc.Create(ctx, "org-1", &CreateCaseInput{
			DebtorID:       "deb-1",
			OriginalAmount: "100",
			InterestRate:   "-2.5",
		})

		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects an unknown debtor", func(t *testing.T) {
		svc := newTestCaseService(newCaseRepoStub(), newDebtorRepoStub(), &eventRepoStub{})

		_, err := svc.Create(ctx, "org-1", &CreateCaseInput{DebtorID: "missing", OriginalAmount: "100"})

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rejects a debtor from another organization", func(t *testing.T) {
		svc := newTestCaseService(newCaseRepoStub(), newDebtorRepoStub(individualDebtor("deb-1", "org-other")), &eventRepoStub{})

		_, err := svc.Create(ctx, "org-1", &CreateCaseInput{DebtorID: "deb-1", OriginalAmount: "100"})

		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestTransitionCase(t *testing.T) {
	ctx := context.Background()

	t.Run("walks a case through its lifecycle", func(t *testing.T) {
		c := activeCase("case-1", "deb-1", "500.00")
		c.Status = models.CaseStatusNew
		cases := newCaseRepoStub(c)
		events := &eventRepoStub{}
		svc := newTestCaseService(cases, newDebtorRepoStub(), events)

		updated, err := svc.Transition(ctx, "case-1", "activate", nil, "")
		require.NoError(t, err)
		assert.Equal(t, models.CaseStatusActive, updated.Status)

		updated, err = svc.Transition(ctx, "case-1", "mark_broken_promise", nil, "Debtor missed the agreed date")
		require.NoError(t, err)
		assert.Equal(t, models.CaseStatusBrokenPromise, updated.Status)

		updated, err = svc.Transition(ctx, "case-1", "mark_uncollectible", nil, "")
		require.NoError(t, err)
		assert.Equal(t, models.CaseStatusUncollectible, updated.Status)

		updated, err = svc.Transition(ctx, "case-1", "reopen", nil, "")
		require.NoError(t, err)
		assert.Equal(t, models.CaseStatusActive, updated.Status)

		assert.Len(t, events.events, 4)
		for _, e := range events.events {
			assert.Equal(t, models.EventTypeStatusChanged, e.EventType)
		}
		assert.Equal(t, "Debtor missed the agreed date", events.events[1].Notes)
	})

	t.Run("rejects transitions the state machine forbids", func(t *testing.T) {
		c := activeCase("case-1", "deb-1", "500.00")
		c.Status = models.CaseStatusClosed
		svc := newTestCaseService(newCaseRepoStub(c), newDebtorRepoStub(), &eventRepoStub{})

		_, err := svc.Transition(ctx, "case-1", "activate", nil, "")

		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("rejects unknown transition names", func(t *testing.T) {
		svc := newTestCaseService(newCaseRepoStub(activeCase("case-1", "deb-1", "500.00")), newDebtorRepoStub(), &eventRepoStub{})

		_, err := svc.Transition(ctx, "case-1", "vaporize", nil, "")

		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown case returns not found", func(t *testing.T) {
		svc := newTestCaseService(newCaseRepoStub(), newDebtorRepoStub(), &eventRepoStub{})

		_, err := svc.Transition(ctx, "missing", "activate", nil, "")

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFlagNextActionDue(t *testing.T) {
	ctx := context.Background()

	t.Run("records one reminder per case per day", func(t *testing.T) {
		yesterday := time.Now().Add(-24 * time.Hour)
		overdue := activeCase("case-1", "deb-1", "500.00")
		overdue.NextActionDate = &yesterday
		current := activeCase("case-2", "deb-1", "200.00")

		cases := newCaseRepoStub(overdue, current)
		events := &eventRepoStub{}
		svc := newTestCaseService(cases, newDebtorRepoStub(), events)

		require.NoError(t, svc.FlagNextActionDue(ctx))
		require.NoError(t, svc.FlagNextActionDue(ctx))

		reminders := 0
		for _, e := range events.events {
			if e.EventType == models.EventTypeNextActionDue {
				reminders++
				assert.Equal(t, "case-1", e.CaseID)
			}
		}
		assert.Equal(t, 1, reminders)
	})

	t.Run("skips terminal cases", func(t *testing.T) {
		yesterday := time.Now().Add(-24 * time.Hour)
		paid := activeCase("case-1", "deb-1", "0.00")
		paid.Status = models.CaseStatusPaidInFull
		paid.NextActionDate = &yesterday

		events := &eventRepoStub{}
		svc := newTestCaseService(newCaseRepoStub(paid), newDebtorRepoStub(), events)

		require.NoError(t, svc.FlagNextActionDue(ctx))

		assert.Empty(t, events.events)
	})
}
