package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/adapters/security"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/domain"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

const testPassphrase = "open sesame"

var (
	testSigner = sync.OnceValue(func() *security.JWTSigner {
		signer, err := security.NewEphemeralJWTSigner("test-key")
		if err != nil {
			panic(err)
		}
		return signer
	})
	testPassphraseHash = sync.OnceValue(func() string {
		hash, err := security.NewBcryptPassphrase(4).Hash(testPassphrase)
		if err != nil {
			panic(err)
		}
		return hash
	})
)

// manualClock drives Now and every ticker it hands out from the test.
type manualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

func newManualClock() *manualClock {
	// Tokens are validated against wall time, so start near it.
	return &manualClock{now: time.Now().UTC().Truncate(time.Second)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func (c *manualClock) NewTicker(time.Duration) ports.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *manualClock) lastTicker(t *testing.T) *manualTicker {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		t.Fatalf("no ticker created")
	}
	return c.tickers[len(c.tickers)-1]
}

type manualTicker struct {
	ch       chan time.Time
	stopped  chan struct{}
	stopOnce sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.stopOnce.Do(func() { close(t.stopped) })
}

// fire delivers one tick and reports whether the countdown received it.
func (t *manualTicker) fire(at time.Time) bool {
	select {
	case t.ch <- at:
		return true
	case <-t.stopped:
		return false
	case <-time.After(2 * time.Second):
		return false
	}
}

func (t *manualTicker) isStopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

type fakeIdentity struct {
	users map[string]ports.Identity
	err   error
}

func (f fakeIdentity) WhoAmI(_ context.Context, bearer string) (ports.Identity, error) {
	if f.err != nil {
		return ports.Identity{}, f.err
	}
	id, ok := f.users[bearer]
	if !ok {
		return ports.Identity{}, errors.New("unknown token")
	}
	return id, nil
}

type countingViews struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func (v *countingViews) Increment(_ context.Context, offeringID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.counts == nil {
		v.counts = map[string]int{}
	}
	v.counts[offeringID]++
	return v.err
}

func (v *countingViews) count(offeringID string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.counts[offeringID]
}

// flakySigner fails the next failWatch watch-token signatures.
type flakySigner struct {
	ports.TokenSigner
	mu        sync.Mutex
	failWatch int
}

func (f *flakySigner) SignWatchToken(claims ports.WatchClaims) (string, error) {
	f.mu.Lock()
	if f.failWatch > 0 {
		f.failWatch--
		f.mu.Unlock()
		return "", errors.New("signing key unavailable")
	}
	f.mu.Unlock()
	return f.TokenSigner.SignWatchToken(claims)
}

type failingCatalog struct {
	*memory.Catalog
}

func (failingCatalog) List(context.Context, ports.ListSort) ([]domain.Offering, error) {
	return nil, errors.New("catalog down")
}

type harness struct {
	svc         *Service
	clock       *manualClock
	catalog     *memory.Catalog
	views       *countingViews
	flags       *memory.ElevationFlags
	settlements *memory.SettlementLedger
}

type harnessOption func(*Config, *Dependencies)

func withConfirmationMode(mode string) harnessOption {
	return func(cfg *Config, _ *Dependencies) { cfg.ConfirmationMode = mode }
}

func withElevationMode(mode string) harnessOption {
	return func(cfg *Config, _ *Dependencies) { cfg.AdminElevationMode = mode }
}

func withDelay(d time.Duration) harnessOption {
	return func(cfg *Config, _ *Dependencies) { cfg.ConfirmationDelay = d }
}

func withAttemptTTL(d time.Duration) harnessOption {
	return func(cfg *Config, _ *Dependencies) { cfg.AttemptTTL = d }
}

func withIdentity(p ports.IdentityProvider) harnessOption {
	return func(_ *Config, deps *Dependencies) { deps.Identity = p }
}

func withTokens(signer ports.TokenSigner) harnessOption {
	return func(_ *Config, deps *Dependencies) { deps.Tokens = signer }
}

func withCatalog(c ports.CatalogRepository) harnessOption {
	return func(_ *Config, deps *Dependencies) { deps.Catalog = c }
}

func newHarness(t *testing.T, seed []domain.Offering, opts ...harnessOption) *harness {
	t.Helper()
	h := &harness{
		clock:       newManualClock(),
		catalog:     memory.NewCatalog(seed...),
		views:       &countingViews{},
		flags:       memory.NewElevationFlags(),
		settlements: memory.NewSettlementLedger(),
	}
	cfg := Config{
		ConfirmationDelay:   60 * time.Second,
		AdminPassphraseHash: testPassphraseHash(),
		WatchTokenTTL:       time.Hour,
		AdminCapabilityTTL:  time.Hour,
	}
	deps := Dependencies{
		Catalog:     h.catalog,
		Views:       h.views,
		Settlements: h.settlements,
		Tokens:      testSigner(),
		Passwords:   security.NewBcryptPassphrase(4),
		Flags:       h.flags,
		Revocations: memory.NewRevocations(h.clock.Now),
		Clock:       h.clock,
	}
	for _, opt := range opts {
		opt(&cfg, &deps)
	}
	deps.Config = cfg
	h.svc = NewService(deps)
	return h
}

func (h *harness) adminAuth(t *testing.T) AuthContext {
	t.Helper()
	res, err := h.svc.AdminLogin(context.Background(), AuthContext{ClientID: "admin-console"}, testPassphrase)
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	return AuthContext{AdminCapability: res.Capability, ClientID: "admin-console"}
}

func liveOffering(now time.Time, id string, price float64) domain.Offering {
	o := domain.Offering{
		OfferingID:    id,
		Title:         "Live " + id,
		Price:         price,
		StreamLocator: "https://stream.example.com/" + id,
		StartAt:       now.Add(-time.Hour),
		ExpiresAt:     now.Add(3 * time.Hour),
		Active:        true,
		CreatedAt:     now.Add(-2 * time.Hour),
	}
	if price > 0 {
		o.PaymentKey = "pix-" + id
	}
	return o
}

func waitForState(t *testing.T, svc *Service, attemptID uuid.UUID, want domain.AttemptState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, err := svc.AttemptStatus(context.Background(), attemptID)
		if err == nil && snap.State == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("attempt %s never reached %s (last %+v, err %v)", attemptID, want, snap, err)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func recv(t *testing.T, ch <-chan AttemptSnapshot) (AttemptSnapshot, bool) {
	t.Helper()
	select {
	case snap, ok := <-ch:
		return snap, ok
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for attempt snapshot")
		return AttemptSnapshot{}, false
	}
}
