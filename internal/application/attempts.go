package application

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/domain"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

// attemptHandle owns one PaymentAttempt, its countdown ticker and the
// subscribers watching it. mu serializes tick, confirm and abandon so ticks
// are applied in order.
type attemptHandle struct {
	mu          sync.Mutex
	attempt     domain.PaymentAttempt
	ticker      ports.Ticker
	done        chan struct{}
	stopOnce    sync.Once
	// closed is closed once a terminal snapshot has been broadcast.
	closed      chan struct{}
	closeOnce   sync.Once
	subscribers map[int]chan AttemptSnapshot
	nextSubID   int
}

func newAttemptHandle(attempt domain.PaymentAttempt, ticker ports.Ticker) *attemptHandle {
	return &attemptHandle{
		attempt:     attempt,
		ticker:      ticker,
		done:        make(chan struct{}),
		closed:      make(chan struct{}),
		subscribers: make(map[int]chan AttemptSnapshot),
	}
}

func snapshotOf(a domain.PaymentAttempt, now time.Time) AttemptSnapshot {
	return AttemptSnapshot{
		AttemptID:        a.AttemptID,
		OfferingID:       a.OfferingID,
		ViewerEmail:      a.ViewerEmail,
		Amount:           a.Amount,
		PaymentKey:       a.PaymentKey,
		State:            a.State,
		SecondsRemaining: a.SecondsRemaining(now),
		ConfirmUnlockAt:  a.ConfirmUnlockAt,
	}
}

func (h *attemptHandle) snapshot(now time.Time) AttemptSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return snapshotOf(h.attempt, now)
}

// stopTimer stops the countdown exactly once.
func (h *attemptHandle) stopTimer() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.ticker.Stop()
	})
}

// runCountdown is the attempt's single timer. It publishes one snapshot per
// tick and exits after the ConfirmAllowed transition or when stopped.
func (h *attemptHandle) runCountdown() {
	for {
		select {
		case <-h.done:
			return
		case now, ok := <-h.ticker.C():
			if !ok {
				return
			}
			h.mu.Lock()
			if h.attempt.State.Terminal() {
				h.mu.Unlock()
				return
			}
			transitioned := h.attempt.Tick(now)
			h.broadcastLocked(snapshotOf(h.attempt, now))
			h.mu.Unlock()
			if transitioned {
				serviceLogger().Info("payment attempt unlocked",
					"operation", "attempt_countdown",
					"outcome", "confirm_allowed",
					"attempt_id", h.attempt.AttemptID.String(),
				)
				h.stopTimer()
				return
			}
		}
	}
}

// subscribe registers a watcher and primes it with the current snapshot.
// The returned cancel func is safe to call more than once.
func (h *attemptHandle) subscribe(now time.Time) (<-chan AttemptSnapshot, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan AttemptSnapshot, 1)
	snap := snapshotOf(h.attempt, now)
	ch <- snap
	if snap.State.Terminal() {
		close(ch)
		return ch, func() {}
	}
	id := h.nextSubID
	h.nextSubID++
	h.subscribers[id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subscribers[id]; ok {
			delete(h.subscribers, id)
			close(sub)
		}
	}
}

// broadcastLocked delivers snap to every subscriber, replacing any snapshot
// the subscriber has not read yet. Terminal snapshots close the channels.
func (h *attemptHandle) broadcastLocked(snap AttemptSnapshot) {
	for id, ch := range h.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- snap
		if snap.State.Terminal() {
			close(ch)
			delete(h.subscribers, id)
		}
	}
	if snap.State.Terminal() {
		h.closeOnce.Do(func() { close(h.closed) })
	}
}

func (s *Service) registerAttempt(h *attemptHandle) {
	s.mu.Lock()
	s.attempts[h.attempt.AttemptID] = h
	s.mu.Unlock()
	go h.runCountdown()
}

func (s *Service) lookupAttempt(id uuid.UUID) (*attemptHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.attempts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return h, nil
}

func (s *Service) releaseAttempt(id uuid.UUID) {
	s.mu.Lock()
	delete(s.attempts, id)
	s.mu.Unlock()
}

// pruneStaleAttempts abandons attempts older than AttemptTTL so dialogs that
// were never closed do not accumulate.
func (s *Service) pruneStaleAttempts(now time.Time) {
	s.mu.Lock()
	stale := make([]*attemptHandle, 0)
	for id, h := range s.attempts {
		h.mu.Lock()
		expired := now.Sub(h.attempt.StartedAt) > s.cfg.AttemptTTL
		h.mu.Unlock()
		if expired {
			stale = append(stale, h)
			delete(s.attempts, id)
		}
	}
	s.mu.Unlock()

	for _, h := range stale {
		h.stopTimer()
		h.mu.Lock()
		if err := h.attempt.Abandon(now); err == nil {
			h.broadcastLocked(snapshotOf(h.attempt, now))
		}
		h.mu.Unlock()
		serviceLogger().Info("stale payment attempt abandoned",
			"operation", "prune_attempts",
			"outcome", "abandoned",
			"attempt_id", h.attempt.AttemptID.String(),
		)
	}
}

// OpenAttempts reports how many attempts are currently held.
func (s *Service) OpenAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}
