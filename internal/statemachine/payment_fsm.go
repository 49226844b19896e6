package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/debtflow/debtflow-api/internal/models"
)

// PaymentFSM wraps a payment with its state machine
type PaymentFSM struct {
	payment *models.Payment
	fsm     *fsm.FSM
}

// NewPaymentFSM creates a new payment state machine
func NewPaymentFSM(payment *models.Payment) *PaymentFSM {
	pfsm := &PaymentFSM{
		payment: payment,
	}

	pfsm.fsm = fsm.NewFSM(
		payment.Status,
		fsm.Events{
			// pending → cleared
			{Name: "clear", Src: []string{models.PaymentStatusPending}, Dst: models.PaymentStatusCleared},

			// pending → rejected
			{Name: "reject", Src: []string{models.PaymentStatusPending}, Dst: models.PaymentStatusRejected},

			// pending → cancelled
			{Name: "cancel", Src: []string{models.PaymentStatusPending}, Dst: models.PaymentStatusCancelled},
		},
		fsm.Callbacks{},
	)

	return pfsm
}

// Clear transitions payment to cleared state
func (p *PaymentFSM) Clear(ctx context.Context) error {
	if !p.payment.MayClear() {
		return fmt.Errorf("payment cannot be cleared in current status: %s", p.payment.Status)
	}

	if err := p.fsm.Event(ctx, "clear"); err != nil {
		return fmt.Errorf("failed to clear payment: %w", err)
	}

	p.payment.Status = p.fsm.Current()
	return nil
}

// Reject transitions payment to rejected state
func (p *PaymentFSM) Reject(ctx context.Context) error {
	if !p.payment.MayReject() {
		return fmt.Errorf("payment cannot be rejected in current status: %s", p.payment.Status)
	}

	if err := p.fsm.Event(ctx, "reject"); err != nil {
		return fmt.Errorf("failed to reject payment: %w", err)
	}

	p.payment.Status = p.fsm.Current()
	return nil
}

// Cancel transitions payment to cancelled state
func (p *PaymentFSM) Cancel(ctx context.Context) error {
	if !p.payment.MayCancel() {
		return fmt.Errorf("payment cannot be cancelled in current status: %s", p.payment.Status)
	}

	if err := p.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel payment: %w", err)
	}

	p.payment.Status = p.fsm.Current()
	return nil
}

// CurrentState returns the current state of the payment
func (p *PaymentFSM) CurrentState() string {
	return p.fsm.Current()
}
