package application

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/domain"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

// Classify exposes the lifecycle engine to adapters.
func (s *Service) Classify(offering domain.Offering, now time.Time) domain.LifecycleStatus {
	return domain.Classify(offering, now)
}

// fetchOffering always reads through to the catalog; access decisions are
// never made on a cached copy.
func (s *Service) fetchOffering(ctx context.Context, offeringID string) (domain.Offering, error) {
	if strings.TrimSpace(offeringID) == "" {
		return domain.Offering{}, fmt.Errorf("%w: offering id is required", domain.ErrInvalidInput)
	}
	offering, err := s.catalog.Get(ctx, offeringID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Offering{}, domain.ErrNotFound
		}
		return domain.Offering{}, fmt.Errorf("%w: catalog get: %v", domain.ErrCollaboratorFailure, err)
	}
	return offering, nil
}

// OfferingStatus reads one offering and derives its status at this instant.
func (s *Service) OfferingStatus(ctx context.Context, offeringID string) (domain.Offering, domain.LifecycleStatus, error) {
	offering, err := s.fetchOffering(ctx, offeringID)
	if err != nil {
		return domain.Offering{}, "", err
	}
	return offering, domain.Classify(offering, s.clock.Now()), nil
}

// RequestAccess runs the monetization gate for one offering. Free offerings
// are granted a watch token directly; paid ones open a PaymentAttempt that
// can only be confirmed after the configured delay.
func (s *Service) RequestAccess(ctx context.Context, offeringID, viewerEmail string) (res AccessGrant, err error) {
	ctx, span := startSpan(ctx, "application.RequestAccess", attribute.String("offering_id", offeringID))
	defer func() { endSpan(span, err) }()

	offering, err := s.fetchOffering(ctx, offeringID)
	if err != nil {
		return AccessGrant{}, err
	}
	now := s.clock.Now()
	if status := domain.Classify(offering, now); status != domain.StatusActive {
		serviceLogger().InfoContext(ctx, "access rejected",
			"operation", "request_access",
			"outcome", "not_available",
			"offering_id", offering.OfferingID,
			"status", string(status),
		)
		return AccessGrant{}, domain.ErrNotAvailable
	}

	if offering.IsFree() {
		token, err := s.issueWatchToken(offering.OfferingID, uuid.Nil, strings.TrimSpace(viewerEmail), now)
		if err != nil {
			return AccessGrant{}, err
		}
		return AccessGrant{Kind: GrantDirect, OfferingID: offering.OfferingID, WatchToken: token}, nil
	}

	email, err := normalizeEmail(viewerEmail)
	if err != nil {
		return AccessGrant{}, err
	}
	paymentKey := strings.TrimSpace(offering.PaymentKey)
	if paymentKey == "" {
		paymentKey = s.cfg.DefaultPaymentKey
	}
	if paymentKey == "" {
		return AccessGrant{}, fmt.Errorf("%w: offering has no payment key", domain.ErrNotAvailable)
	}

	s.pruneStaleAttempts(now)
	attempt := domain.NewPaymentAttempt(uuid.New(), offering, email, paymentKey, now, s.cfg.ConfirmationDelay)
	h := newAttemptHandle(attempt, s.clock.NewTicker(time.Second))
	s.registerAttempt(h)

	serviceLogger().InfoContext(ctx, "payment attempt started",
		"operation", "request_access",
		"outcome", "requires_confirmation",
		"offering_id", offering.OfferingID,
		"attempt_id", attempt.AttemptID.String(),
		"confirmation_mode", s.confirmation.Mode(),
	)
	snap := snapshotOf(attempt, now)
	return AccessGrant{Kind: GrantRequiresConfirmation, OfferingID: offering.OfferingID, Attempt: &snap}, nil
}

// AttemptStatus returns the current observable state of an attempt.
func (s *Service) AttemptStatus(_ context.Context, attemptID uuid.UUID) (AttemptSnapshot, error) {
	h, err := s.lookupAttempt(attemptID)
	if err != nil {
		return AttemptSnapshot{}, err
	}
	return h.snapshot(s.clock.Now()), nil
}

// WatchAttempt streams snapshots of an attempt, one per countdown tick. The
// channel closes after a terminal snapshot or when ctx is done, whichever
// comes first.
func (s *Service) WatchAttempt(ctx context.Context, attemptID uuid.UUID) (<-chan AttemptSnapshot, error) {
	h, err := s.lookupAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	ch, cancel := h.subscribe(s.clock.Now())
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-h.closed:
		}
	}()
	return ch, nil
}

// ConfirmAttempt moves an attempt to Confirmed and issues its watch token.
// The unlock instant is enforced here, not only by the client's countdown.
func (s *Service) ConfirmAttempt(ctx context.Context, attemptID uuid.UUID) (res ConfirmResult, err error) {
	ctx, span := startSpan(ctx, "application.ConfirmAttempt", attribute.String("attempt_id", attemptID.String()))
	defer func() { endSpan(span, err) }()

	h, err := s.lookupAttempt(attemptID)
	if err != nil {
		return ConfirmResult{}, err
	}

	now := s.clock.Now()
	h.mu.Lock()
	if err := h.attempt.CheckConfirmable(now); err != nil {
		secondsLeft := h.attempt.SecondsRemaining(now)
		h.mu.Unlock()
		serviceLogger().WarnContext(ctx, "payment attempt confirmation rejected",
			"operation", "confirm_attempt",
			"outcome", "rejected",
			"attempt_id", attemptID.String(),
			"seconds_remaining", secondsLeft,
			"error", err.Error(),
		)
		return ConfirmResult{}, err
	}
	pending := h.attempt
	h.mu.Unlock()

	if err := s.confirmation.Verify(ctx, pending); err != nil {
		return ConfirmResult{}, err
	}

	// The token is signed before the commit so a signing failure leaves the
	// attempt confirmable and the caller can retry.
	now = s.clock.Now()
	token, err := s.issueWatchToken(pending.OfferingID, pending.AttemptID, pending.ViewerEmail, now)
	if err != nil {
		return ConfirmResult{}, err
	}

	h.mu.Lock()
	if err := h.attempt.Confirm(now); err != nil {
		h.mu.Unlock()
		return ConfirmResult{}, err
	}
	confirmed := h.attempt
	h.mu.Unlock()

	h.stopTimer()
	h.mu.Lock()
	snap := snapshotOf(h.attempt, now)
	h.broadcastLocked(snap)
	h.mu.Unlock()
	s.releaseAttempt(attemptID)

	serviceLogger().InfoContext(ctx, "payment attempt confirmed",
		"operation", "confirm_attempt",
		"outcome", "confirmed",
		"attempt_id", attemptID.String(),
		"offering_id", confirmed.OfferingID,
		"confirmation_mode", s.confirmation.Mode(),
	)
	return ConfirmResult{Attempt: snap, WatchToken: token}, nil
}

// AbandonAttempt closes the dialog behind an attempt. Its timer is stopped
// and the attempt is released; no later tick can revive it.
func (s *Service) AbandonAttempt(ctx context.Context, attemptID uuid.UUID) (AttemptSnapshot, error) {
	h, err := s.lookupAttempt(attemptID)
	if err != nil {
		return AttemptSnapshot{}, err
	}
	now := s.clock.Now()
	h.stopTimer()
	h.mu.Lock()
	if err := h.attempt.Abandon(now); err != nil {
		h.mu.Unlock()
		return AttemptSnapshot{}, err
	}
	snap := snapshotOf(h.attempt, now)
	h.broadcastLocked(snap)
	h.mu.Unlock()
	s.releaseAttempt(attemptID)

	serviceLogger().InfoContext(ctx, "payment attempt abandoned",
		"operation", "abandon_attempt",
		"outcome", "abandoned",
		"attempt_id", attemptID.String(),
	)
	return snap, nil
}

// MarkSettled records an operator-observed transfer for an attempt so the
// settlement-verified confirmation can grant it.
func (s *Service) MarkSettled(ctx context.Context, auth AuthContext, attemptID uuid.UUID) error {
	if err := s.require(ctx, auth, domain.LevelAdminOnly); err != nil {
		return err
	}
	if s.settlements == nil {
		return fmt.Errorf("%w: settlement ledger not configured", domain.ErrCollaboratorFailure)
	}
	if _, err := s.lookupAttempt(attemptID); err != nil {
		return err
	}
	if err := s.settlements.MarkSettled(ctx, attemptID); err != nil {
		return fmt.Errorf("%w: mark settled: %v", domain.ErrCollaboratorFailure, err)
	}
	return nil
}

// CheckWatchAccess verifies that watchToken opens offeringID right now,
// without counting a view. Paid offerings require a token scoped to the
// same offering and issued for a confirmed attempt.
func (s *Service) CheckWatchAccess(ctx context.Context, offeringID, watchToken string) (domain.Offering, error) {
	offering, err := s.fetchOffering(ctx, offeringID)
	if err != nil {
		return domain.Offering{}, err
	}
	if domain.Classify(offering, s.clock.Now()) != domain.StatusActive {
		return domain.Offering{}, domain.ErrNotAvailable
	}
	if offering.IsFree() {
		return offering, nil
	}
	raw := strings.TrimSpace(watchToken)
	if raw == "" {
		return domain.Offering{}, domain.ErrPaymentRequired
	}
	claims, err := s.tokens.ParseWatchToken(raw)
	if err != nil || claims.OfferingID != offering.OfferingID || claims.AttemptID == uuid.Nil {
		return domain.Offering{}, domain.ErrPaymentRequired
	}
	return offering, nil
}

// Watch releases content for an offering and reports the view. Tracker
// failures are logged and do not block playback.
func (s *Service) Watch(ctx context.Context, offeringID, watchToken string) (res WatchGrant, err error) {
	ctx, span := startSpan(ctx, "application.Watch", attribute.String("offering_id", offeringID))
	defer func() { endSpan(span, err) }()

	offering, err := s.CheckWatchAccess(ctx, offeringID, watchToken)
	if err != nil {
		return WatchGrant{}, err
	}
	if s.views != nil {
		if err := s.views.Increment(ctx, offering.OfferingID); err != nil {
			serviceLogger().WarnContext(ctx, "view tracking failed",
				"operation", "watch",
				"outcome", "degraded",
				"offering_id", offering.OfferingID,
				"error", err.Error(),
			)
		}
	}
	return WatchGrant{
		OfferingID:    offering.OfferingID,
		Title:         offering.Title,
		StreamLocator: offering.StreamLocator,
	}, nil
}

func (s *Service) issueWatchToken(offeringID string, attemptID uuid.UUID, email string, now time.Time) (string, error) {
	token, err := s.tokens.SignWatchToken(ports.WatchClaims{
		TokenID:     uuid.New(),
		OfferingID:  offeringID,
		AttemptID:   attemptID,
		ViewerEmail: email,
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.cfg.WatchTokenTTL),
	})
	if err != nil {
		return "", fmt.Errorf("sign watch token: %w", err)
	}
	return token, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: viewer email is required for paid offerings", domain.ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: viewer email is malformed", domain.ErrInvalidInput)
	}
	return email, nil
}
