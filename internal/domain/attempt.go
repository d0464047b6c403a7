package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttemptState is the position of a PaymentAttempt in the confirmation protocol.
type AttemptState string

const (
	AttemptPending        AttemptState = "pending"
	AttemptConfirmAllowed AttemptState = "confirm_allowed"
	AttemptConfirmed      AttemptState = "confirmed"
	AttemptAbandoned      AttemptState = "abandoned"
)

// Terminal reports whether no further transition can leave the state.
func (s AttemptState) Terminal() bool {
	return s == AttemptConfirmed || s == AttemptAbandoned
}

// PaymentAttempt is the ephemeral state behind one confirmation dialog.
// PaymentKey and Amount are copied from the offering when the attempt starts
// and are never re-read, so an operator edit cannot swap the key under a
// displayed QR code.
type PaymentAttempt struct {
	AttemptID       uuid.UUID    `json:"attempt_id"`
	OfferingID      string       `json:"offering_id"`
	ViewerEmail     string       `json:"viewer_email"`
	Amount          float64      `json:"amount"`
	PaymentKey      string       `json:"payment_key"`
	StartedAt       time.Time    `json:"started_at"`
	ConfirmUnlockAt time.Time    `json:"confirm_unlock_at"`
	State           AttemptState `json:"state"`
	ClosedAt        *time.Time   `json:"closed_at,omitempty"`
}

// NewPaymentAttempt opens an attempt in Pending with its unlock instant fixed.
func NewPaymentAttempt(id uuid.UUID, offering Offering, viewerEmail, paymentKey string, startedAt time.Time, delay time.Duration) PaymentAttempt {
	if delay < 0 {
		delay = 0
	}
	return PaymentAttempt{
		AttemptID:       id,
		OfferingID:      offering.OfferingID,
		ViewerEmail:     viewerEmail,
		Amount:          offering.Price,
		PaymentKey:      paymentKey,
		StartedAt:       startedAt,
		ConfirmUnlockAt: startedAt.Add(delay),
		State:           AttemptPending,
	}
}

// SecondsRemaining is the caller-visible countdown, rounded up so that the
// display only reaches zero at the unlock instant.
func (a PaymentAttempt) SecondsRemaining(now time.Time) int {
	if a.State != AttemptPending {
		return 0
	}
	left := a.ConfirmUnlockAt.Sub(now)
	if left <= 0 {
		return 0
	}
	secs := int(left / time.Second)
	if left%time.Second != 0 {
		secs++
	}
	return secs
}

// Tick applies the passage of time. It moves Pending to ConfirmAllowed once
// now reaches the unlock instant and reports whether that transition happened.
func (a *PaymentAttempt) Tick(now time.Time) bool {
	if a.State != AttemptPending {
		return false
	}
	if now.Before(a.ConfirmUnlockAt) {
		return false
	}
	a.State = AttemptConfirmAllowed
	return true
}

// CheckConfirmable reports whether Confirm would succeed at now without
// changing the attempt.
func (a PaymentAttempt) CheckConfirmable(now time.Time) error {
	if a.State.Terminal() {
		return ErrAttemptClosed
	}
	if now.Before(a.ConfirmUnlockAt) {
		return ErrPrematureConfirmation
	}
	return nil
}

// Confirm moves the attempt to Confirmed. Confirmed is reachable only from
// ConfirmAllowed; a Pending attempt whose unlock instant has passed is ticked
// first, anything earlier is rejected.
func (a *PaymentAttempt) Confirm(now time.Time) error {
	if err := a.CheckConfirmable(now); err != nil {
		return err
	}
	a.Tick(now)
	if a.State != AttemptConfirmAllowed {
		return ErrPrematureConfirmation
	}
	a.State = AttemptConfirmed
	closed := now
	a.ClosedAt = &closed
	return nil
}

// Abandon closes the attempt without granting access.
func (a *PaymentAttempt) Abandon(now time.Time) error {
	if a.State.Terminal() {
		return ErrAttemptClosed
	}
	a.State = AttemptAbandoned
	closed := now
	a.ClosedAt = &closed
	return nil
}
