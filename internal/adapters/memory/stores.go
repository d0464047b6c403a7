package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

type ElevationFlags struct {
	mu    sync.Mutex
	flags map[string]bool
}

func NewElevationFlags() *ElevationFlags {
	return &ElevationFlags{flags: map[string]bool{}}
}

func (s *ElevationFlags) IsSet(_ context.Context, clientID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[clientID], nil
}

func (s *ElevationFlags) Set(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[clientID] = true
	return nil
}

func (s *ElevationFlags) Clear(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flags, clientID)
	return nil
}

// Revocations drops markers lazily once the revoked token would have expired.
type Revocations struct {
	mu      sync.Mutex
	revoked map[uuid.UUID]time.Time
	now     func() time.Time
}

func NewRevocations(now func() time.Time) *Revocations {
	if now == nil {
		now = time.Now
	}
	return &Revocations{revoked: map[uuid.UUID]time.Time{}, now: now}
}

func (s *Revocations) MarkRevoked(_ context.Context, tokenID uuid.UUID, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = expiresAt
	return nil
}

func (s *Revocations) IsRevoked(_ context.Context, tokenID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if s.now().After(expiresAt) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

type SettlementLedger struct {
	mu      sync.Mutex
	settled map[uuid.UUID]bool
}

func NewSettlementLedger() *SettlementLedger {
	return &SettlementLedger{settled: map[uuid.UUID]bool{}}
}

func (l *SettlementLedger) IsSettled(_ context.Context, query ports.SettlementQuery) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settled[query.AttemptID], nil
}

func (l *SettlementLedger) MarkSettled(_ context.Context, attemptID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settled[attemptID] = true
	return nil
}
