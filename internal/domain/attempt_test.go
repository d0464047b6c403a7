package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newAttempt(delay time.Duration) PaymentAttempt {
	o := window(-time.Hour, time.Hour)
	o.Price = 12.5
	o.PaymentKey = "key-at-start"
	return NewPaymentAttempt(uuid.New(), o, "viewer@example.com", o.PaymentKey, base, delay)
}

func TestNewPaymentAttemptCopiesOffering(t *testing.T) {
	t.Parallel()

	a := newAttempt(60 * time.Second)
	if a.State != AttemptPending {
		t.Fatalf("expected pending, got %s", a.State)
	}
	if a.Amount != 12.5 || a.PaymentKey != "key-at-start" {
		t.Fatalf("unexpected copied fields: %+v", a)
	}
	if !a.ConfirmUnlockAt.Equal(base.Add(60 * time.Second)) {
		t.Fatalf("unexpected unlock instant: %s", a.ConfirmUnlockAt)
	}
}

func TestSecondsRemainingRoundsUp(t *testing.T) {
	t.Parallel()

	a := newAttempt(60 * time.Second)
	if got := a.SecondsRemaining(base); got != 60 {
		t.Fatalf("expected 60, got %d", got)
	}
	if got := a.SecondsRemaining(base.Add(59*time.Second + 100*time.Millisecond)); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := a.SecondsRemaining(base.Add(61 * time.Second)); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestTickMovesToConfirmAllowedAtUnlock(t *testing.T) {
	t.Parallel()

	a := newAttempt(3 * time.Second)
	if a.Tick(base.Add(2 * time.Second)) {
		t.Fatalf("unexpected transition before unlock")
	}
	if !a.Tick(base.Add(3 * time.Second)) {
		t.Fatalf("expected transition at unlock")
	}
	if a.State != AttemptConfirmAllowed {
		t.Fatalf("expected confirm_allowed, got %s", a.State)
	}
	if a.Tick(base.Add(4 * time.Second)) {
		t.Fatalf("expected a single transition")
	}
}

func TestConfirmBeforeUnlockIsRejected(t *testing.T) {
	t.Parallel()

	a := newAttempt(60 * time.Second)
	err := a.Confirm(base.Add(59 * time.Second))
	if !errors.Is(err, ErrPrematureConfirmation) {
		t.Fatalf("expected premature confirmation, got %v", err)
	}
	if a.State != AttemptPending {
		t.Fatalf("expected attempt to stay pending, got %s", a.State)
	}
}

func TestConfirmAfterUnlockWithoutTick(t *testing.T) {
	t.Parallel()

	a := newAttempt(60 * time.Second)
	if err := a.Confirm(base.Add(60 * time.Second)); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if a.State != AttemptConfirmed || a.ClosedAt == nil {
		t.Fatalf("expected confirmed with close time, got %+v", a)
	}
}

func TestZeroDelayIsImmediatelyConfirmable(t *testing.T) {
	t.Parallel()

	a := newAttempt(0)
	if err := a.CheckConfirmable(base); err != nil {
		t.Fatalf("expected confirmable, got %v", err)
	}
}

func TestTerminalAttemptsRejectTransitions(t *testing.T) {
	t.Parallel()

	a := newAttempt(0)
	if err := a.Abandon(base); err != nil {
		t.Fatalf("abandon failed: %v", err)
	}
	if err := a.Confirm(base.Add(time.Minute)); !errors.Is(err, ErrAttemptClosed) {
		t.Fatalf("expected attempt closed, got %v", err)
	}
	if err := a.Abandon(base); !errors.Is(err, ErrAttemptClosed) {
		t.Fatalf("expected attempt closed on second abandon, got %v", err)
	}
	if a.Tick(base.Add(time.Hour)) {
		t.Fatalf("tick must not revive an abandoned attempt")
	}
}
