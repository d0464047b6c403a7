package application

import (
	"context"
	"fmt"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/domain"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

// Confirmation decides whether an unlocked attempt may become Confirmed.
// It runs after the unlock check, so no variant can shorten the delay.
type Confirmation interface {
	Mode() string
	Verify(ctx context.Context, attempt domain.PaymentAttempt) error
}

// TimerOnlyConfirmation grants once the delay elapsed. It is a manual trust
// gate: nothing ties the grant to an actual transfer.
type TimerOnlyConfirmation struct{}

func (TimerOnlyConfirmation) Mode() string { return ConfirmationModeTimer }

func (TimerOnlyConfirmation) Verify(context.Context, domain.PaymentAttempt) error { return nil }

// SettlementVerifiedConfirmation additionally requires the settlement ledger
// to report the attempt's transfer as settled.
type SettlementVerifiedConfirmation struct {
	Ledger ports.SettlementLedger
}

func (SettlementVerifiedConfirmation) Mode() string { return ConfirmationModeSettlement }

func (c SettlementVerifiedConfirmation) Verify(ctx context.Context, attempt domain.PaymentAttempt) error {
	if c.Ledger == nil {
		return fmt.Errorf("%w: settlement ledger not configured", domain.ErrCollaboratorFailure)
	}
	settled, err := c.Ledger.IsSettled(ctx, ports.SettlementQuery{
		AttemptID:   attempt.AttemptID,
		OfferingID:  attempt.OfferingID,
		PaymentKey:  attempt.PaymentKey,
		Amount:      attempt.Amount,
		ViewerEmail: attempt.ViewerEmail,
	})
	if err != nil {
		return fmt.Errorf("%w: settlement lookup: %v", domain.ErrCollaboratorFailure, err)
	}
	if !settled {
		return domain.ErrPaymentRequired
	}
	return nil
}

func newConfirmation(mode string, ledger ports.SettlementLedger) Confirmation {
	if mode == ConfirmationModeSettlement {
		return SettlementVerifiedConfirmation{Ledger: ledger}
	}
	return TimerOnlyConfirmation{}
}
