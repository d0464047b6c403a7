package application

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/domain"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

const (
	ConfirmationModeTimer      = "timer"
	ConfirmationModeSettlement = "settlement"

	ElevationModeCapability = "capability"
	ElevationModeFlag       = "flag"
)

type Config struct {
	ServiceName string
	// ConfirmationDelay is the business policy between attempt start and the
	// earliest confirmation.
	ConfirmationDelay  time.Duration
	ConfirmationMode   string
	AdminElevationMode string
	// AdminPassphraseHash is a bcrypt hash; empty disables admin login.
	AdminPassphraseHash string
	AdminCapabilityTTL  time.Duration
	WatchTokenTTL       time.Duration
	// AttemptTTL bounds how long an unattended attempt is kept before it is
	// abandoned on the next gate call.
	AttemptTTL        time.Duration
	DefaultPaymentKey string
}

// AuthContext is the explicit credential set every guarded call receives.
// It is re-verified on each call instead of being trusted from a prior check.
type AuthContext struct {
	BearerToken     string
	AdminCapability string
	ClientID        string
	RequestID       string
}

type GrantKind string

const (
	GrantDirect               GrantKind = "direct_grant"
	GrantRequiresConfirmation GrantKind = "requires_confirmation"
)

// AccessGrant is the result of RequestAccess: either a watch token, or an
// attempt the viewer must confirm.
type AccessGrant struct {
	Kind       GrantKind        `json:"kind"`
	OfferingID string           `json:"offering_id"`
	WatchToken string           `json:"watch_token,omitempty"`
	Attempt    *AttemptSnapshot `json:"attempt,omitempty"`
}

// AttemptSnapshot is the observable view of a PaymentAttempt.
type AttemptSnapshot struct {
	AttemptID        uuid.UUID           `json:"attempt_id"`
	OfferingID       string              `json:"offering_id"`
	ViewerEmail      string              `json:"viewer_email"`
	Amount           float64             `json:"amount"`
	PaymentKey       string              `json:"payment_key"`
	State            domain.AttemptState `json:"state"`
	SecondsRemaining int                 `json:"seconds_remaining"`
	ConfirmUnlockAt  time.Time           `json:"confirm_unlock_at"`
}

type ConfirmResult struct {
	Attempt    AttemptSnapshot `json:"attempt"`
	WatchToken string          `json:"watch_token"`
}

type WatchGrant struct {
	OfferingID    string `json:"offering_id"`
	Title         string `json:"title"`
	StreamLocator string `json:"stream_locator"`
}

type AdminLoginResult struct {
	Mode       string     `json:"mode"`
	Capability string     `json:"capability,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// OfferingView pairs an offering with its status derived at read time.
type OfferingView struct {
	domain.Offering
	Status domain.LifecycleStatus `json:"status"`
}

type CreateOfferingInput struct {
	Title         string
	Price         float64
	PaymentKey    string
	StreamLocator string
	ThumbnailURL  string
	StartAt       time.Time
	ExpiresAt     time.Time
	Active        bool
}

type Service struct {
	cfg          Config
	catalog      ports.CatalogRepository
	identity     ports.IdentityProvider
	views        ports.ViewTracker
	uploader     ports.Uploader
	settlements  ports.SettlementLedger
	tokens       ports.TokenSigner
	passwords    ports.PasswordVerifier
	clock        ports.Clock
	elevation    elevationVerifier
	confirmation Confirmation

	mu       sync.Mutex
	attempts map[uuid.UUID]*attemptHandle
}

type Dependencies struct {
	Config      Config
	Catalog     ports.CatalogRepository
	Identity    ports.IdentityProvider
	Views       ports.ViewTracker
	Uploader    ports.Uploader
	Settlements ports.SettlementLedger
	Tokens      ports.TokenSigner
	Passwords   ports.PasswordVerifier
	Flags       ports.ElevationFlagStore
	Revocations ports.CapabilityRevocationStore
	Clock       ports.Clock
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "M60-Stream-Access-Service"
	}
	if cfg.ConfirmationDelay < 0 {
		cfg.ConfirmationDelay = 0
	}
	if cfg.ConfirmationMode == "" {
		cfg.ConfirmationMode = ConfirmationModeTimer
	}
	if cfg.AdminElevationMode == "" {
		cfg.AdminElevationMode = ElevationModeCapability
	}
	if cfg.AdminCapabilityTTL <= 0 {
		cfg.AdminCapabilityTTL = 12 * time.Hour
	}
	if cfg.WatchTokenTTL <= 0 {
		cfg.WatchTokenTTL = 6 * time.Hour
	}
	if cfg.AttemptTTL <= 0 {
		cfg.AttemptTTL = 30 * time.Minute
	}
	clock := deps.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}

	s := &Service{
		cfg:         cfg,
		catalog:     deps.Catalog,
		identity:    deps.Identity,
		views:       deps.Views,
		uploader:    deps.Uploader,
		settlements: deps.Settlements,
		tokens:      deps.Tokens,
		passwords:   deps.Passwords,
		clock:       clock,
		attempts:    make(map[uuid.UUID]*attemptHandle),
	}
	s.confirmation = newConfirmation(cfg.ConfirmationMode, deps.Settlements)
	s.elevation = newElevationVerifier(cfg.AdminElevationMode, deps.Flags, deps.Revocations, deps.Tokens, cfg.AdminCapabilityTTL, clock)
	return s
}

// ConfirmationMode reports the confirmation strategy in use.
func (s *Service) ConfirmationMode() string {
	return s.confirmation.Mode()
}
