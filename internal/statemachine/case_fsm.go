package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/debtflow/debtflow-api/internal/models"
)

// CaseFSM wraps a case with its state machine
type CaseFSM struct {
	c   *models.Case
	fsm *fsm.FSM
}

// NewCaseFSM creates a new case state machine
func NewCaseFSM(c *models.Case) *CaseFSM {
	cfsm := &CaseFSM{
		c: c,
	}

	cfsm.fsm = fsm.NewFSM(
		c.Status,
		fsm.Events{
			// new/pending_approval/broken_promise → active
			{Name: "activate", Src: []string{models.CaseStatusNew, models.CaseStatusPendingApproval, models.CaseStatusBrokenPromise}, Dst: models.CaseStatusActive},

			// active → pending_approval
			{Name: "submit_for_approval", Src: []string{models.CaseStatusActive}, Dst: models.CaseStatusPendingApproval},

			// active/pending_approval → broken_promise
			{Name: "mark_broken_promise", Src: []string{models.CaseStatusActive, models.CaseStatusPendingApproval}, Dst: models.CaseStatusBrokenPromise},

			// any open status → paid_in_full
			{Name: "mark_paid", Src: []string{models.CaseStatusNew, models.CaseStatusActive, models.CaseStatusPendingApproval, models.CaseStatusBrokenPromise}, Dst: models.CaseStatusPaidInFull},

			// active/pending_approval/broken_promise → uncollectible
			{Name: "mark_uncollectible", Src: []string{models.CaseStatusActive, models.CaseStatusPendingApproval, models.CaseStatusBrokenPromise}, Dst: models.CaseStatusUncollectible},

			// anything but closed → closed
			{Name: "close", Src: []string{models.CaseStatusNew, models.CaseStatusActive, models.CaseStatusPendingApproval, models.CaseStatusBrokenPromise, models.CaseStatusPaidInFull, models.CaseStatusUncollectible}, Dst: models.CaseStatusClosed},

			// closed/uncollectible → active (reopen)
			{Name: "reopen", Src: []string{models.CaseStatusClosed, models.CaseStatusUncollectible}, Dst: models.CaseStatusActive},
		},
		fsm.Callbacks{},
	)

	return cfsm
}

// Activate transitions the case to active state
func (f *CaseFSM) Activate(ctx context.Context) error {
	if !f.c.MayActivate() {
		return fmt.Errorf("case cannot be activated in current status: %s", f.c.Status)
	}

	if err := f.fsm.Event(ctx, "activate"); err != nil {
		return fmt.Errorf("failed to activate case: %w", err)
	}

	f.c.Status = f.fsm.Current()
	return nil
}

// SubmitForApproval transitions the case to pending_approval state
func (f *CaseFSM) SubmitForApproval(ctx context.Context) error {
	if !f.c.MaySubmitForApproval() {
		return fmt.Errorf("case cannot be submitted for approval in current status: %s", f.c.Status)
	}

	if err := f.fsm.Event(ctx, "submit_for_approval"); err != nil {
		return fmt.Errorf("failed to submit case for approval: %w", err)
	}

	f.c.Status = f.fsm.Current()
	return nil
}

// MarkBrokenPromise transitions the case to broken_promise state
func (f *CaseFSM) MarkBrokenPromise(ctx context.Context) error {
	if !f.c.MayMarkBrokenPromise() {
		return fmt.Errorf("case cannot be marked broken promise in current status: %s", f.c.Status)
	}

	if err := f.fsm.Event(ctx, "mark_broken_promise"); err != nil {
		return fmt.Errorf("failed to mark case broken promise: %w", err)
	}

	f.c.Status = f.fsm.Current()
	return nil
}

// MarkPaid transitions the case to paid_in_full state
func (f *CaseFSM) MarkPaid(ctx context.Context) error {
	if !f.c.MayMarkPaid() {
		return fmt.Errorf("case cannot be marked paid in current status: %s", f.c.Status)
	}

	if err := f.fsm.Event(ctx, "mark_paid"); err != nil {
		return fmt.Errorf("failed to mark case paid: %w", err)
	}

	f.c.Status = f.fsm.Current()
	return nil
}

// MarkUncollectible transitions the case to uncollectible state
func (f *CaseFSM) MarkUncollectible(ctx context.Context) error {
	if !f.c.MayMarkUncollectible() {
		return fmt.Errorf("case cannot be marked uncollectible in current status: %s", f.c.Status)
	}

	if err := f.fsm.Event(ctx, "mark_uncollectible"); err != nil {
		return fmt.Errorf("failed to mark case uncollectible: %w", err)
	}

	f.c.Status = f.fsm.Current()
	return nil
}

// Close transitions the case to closed state
func (f *CaseFSM) Close(ctx context.Context) error {
	if !f.c.MayClose() {
		return fmt.Errorf("case is already closed")
	}

	if err := f.fsm.Event(ctx, "close"); err != nil {
		return fmt.Errorf("failed to close case: %w", err)
	}

	f.c.Status = f.fsm.Current()
	return nil
}

// Reopen transitions a closed or uncollectible case back to active
func (f *CaseFSM) Reopen(ctx context.Context) error {
	if !f.c.MayReopen() {
		return fmt.Errorf("case cannot be reopened in current status: %s", f.c.Status)
	}

	if err := f.fsm.Event(ctx, "reopen"); err != nil {
		return fmt.Errorf("failed to reopen case: %w", err)
	}

	f.c.Status = f.fsm.Current()
	return nil
}

// CurrentState returns the current state of the case
func (f *CaseFSM) CurrentState() string {
	return f.fsm.Current()
}

// CanTransition checks if a transition is possible
func (f *CaseFSM) CanTransition(event string) bool {
	return f.fsm.Can(event)
}
