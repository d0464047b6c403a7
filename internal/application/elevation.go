package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/domain"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

// elevationVerifier is the first credential tier of the access guard.
type elevationVerifier interface {
	mode() string
	elevated(ctx context.Context, auth AuthContext) bool
	grant(ctx context.Context, auth AuthContext) (AdminLoginResult, error)
	revoke(ctx context.Context, auth AuthContext) error
}

func newElevationVerifier(
	mode string,
	flags ports.ElevationFlagStore,
	revocations ports.CapabilityRevocationStore,
	tokens ports.TokenSigner,
	ttl time.Duration,
	clock ports.Clock,
) elevationVerifier {
	if mode == ElevationModeFlag {
		return flagElevation{flags: flags}
	}
	return capabilityElevation{tokens: tokens, revocations: revocations, ttl: ttl, clock: clock}
}

// flagElevation trusts a durable boolean keyed by client id. Anyone able to
// write that key is an admin; it is kept for parity with the original
// deployment and is not the default.
type flagElevation struct {
	flags ports.ElevationFlagStore
}

func (flagElevation) mode() string { return ElevationModeFlag }

func (e flagElevation) elevated(ctx context.Context, auth AuthContext) bool {
	clientID := strings.TrimSpace(auth.ClientID)
	if clientID == "" || e.flags == nil {
		return false
	}
	set, err := e.flags.IsSet(ctx, clientID)
	if err != nil {
		serviceLogger().WarnContext(ctx, "elevation flag lookup failed",
			"operation", "elevation_flag_lookup",
			"outcome", "failure",
			"error", err.Error(),
		)
		return false
	}
	return set
}

func (e flagElevation) grant(ctx context.Context, auth AuthContext) (AdminLoginResult, error) {
	clientID := strings.TrimSpace(auth.ClientID)
	if clientID == "" {
		return AdminLoginResult{}, fmt.Errorf("%w: client id is required", domain.ErrInvalidInput)
	}
	if err := e.flags.Set(ctx, clientID); err != nil {
		return AdminLoginResult{}, fmt.Errorf("%w: set elevation flag: %v", domain.ErrCollaboratorFailure, err)
	}
	return AdminLoginResult{Mode: ElevationModeFlag}, nil
}

func (e flagElevation) revoke(ctx context.Context, auth AuthContext) error {
	clientID := strings.TrimSpace(auth.ClientID)
	if clientID == "" {
		return fmt.Errorf("%w: client id is required", domain.ErrInvalidInput)
	}
	if err := e.flags.Clear(ctx, clientID); err != nil {
		return fmt.Errorf("%w: clear elevation flag: %v", domain.ErrCollaboratorFailure, err)
	}
	return nil
}

// capabilityElevation verifies a signed, expiring admin capability on every
// call and honours revocation markers written at logout.
type capabilityElevation struct {
	tokens      ports.TokenSigner
	revocations ports.CapabilityRevocationStore
	ttl         time.Duration
	clock       ports.Clock
}

func (capabilityElevation) mode() string { return ElevationModeCapability }

func (e capabilityElevation) elevated(ctx context.Context, auth AuthContext) bool {
	claims, ok := e.parse(auth)
	if !ok {
		return false
	}
	if e.revocations == nil {
		return true
	}
	revoked, err := e.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		serviceLogger().WarnContext(ctx, "capability revocation lookup failed",
			"operation", "capability_revocation_lookup",
			"outcome", "failure",
			"error", err.Error(),
		)
		return false
	}
	return !revoked
}

func (e capabilityElevation) parse(auth AuthContext) (ports.AdminClaims, bool) {
	raw := strings.TrimSpace(auth.AdminCapability)
	if raw == "" || e.tokens == nil {
		return ports.AdminClaims{}, false
	}
	claims, err := e.tokens.ParseAdminCapability(raw)
	if err != nil {
		return ports.AdminClaims{}, false
	}
	return claims, true
}

func (e capabilityElevation) grant(_ context.Context, _ AuthContext) (AdminLoginResult, error) {
	now := e.clock.Now()
	expiresAt := now.Add(e.ttl)
	token, err := e.tokens.SignAdminCapability(ports.AdminClaims{
		TokenID:   uuid.New(),
		Subject:   "admin",
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return AdminLoginResult{}, fmt.Errorf("sign admin capability: %w", err)
	}
	return AdminLoginResult{Mode: ElevationModeCapability, Capability: token, ExpiresAt: &expiresAt}, nil
}

func (e capabilityElevation) revoke(ctx context.Context, auth AuthContext) error {
	claims, ok := e.parse(auth)
	if !ok {
		return domain.ErrUnauthorized
	}
	if e.revocations == nil {
		return nil
	}
	if err := e.revocations.MarkRevoked(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("%w: revoke capability: %v", domain.ErrCollaboratorFailure, err)
	}
	return nil
}
