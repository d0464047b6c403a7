package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/domain"
)

// ResolveSession verifies the caller's credentials. The elevation tier is
// checked first, then the identity collaborator. Any failure in the second
// tier resolves to Anonymous; it never raises.
func (s *Service) ResolveSession(ctx context.Context, auth AuthContext) domain.AccessSession {
	now := s.clock.Now()
	if s.elevation != nil && s.elevation.elevated(ctx, auth) {
		return domain.AccessSession{Role: domain.RoleAdminElevated, ResolvedAt: now}
	}
	bearer := strings.TrimSpace(auth.BearerToken)
	if bearer == "" || s.identity == nil {
		return domain.AccessSession{Role: domain.RoleAnonymous, ResolvedAt: now}
	}
	identity, err := s.identity.WhoAmI(ctx, bearer)
	if err != nil {
		serviceLogger().InfoContext(ctx, "identity lookup failed",
			"operation", "resolve_session",
			"outcome", "anonymous",
			"request_id", auth.RequestID,
			"error", err.Error(),
		)
		return domain.AccessSession{Role: domain.RoleAnonymous, ResolvedAt: now}
	}
	if strings.TrimSpace(identity.UserID) == "" {
		return domain.AccessSession{Role: domain.RoleAnonymous, ResolvedAt: now}
	}
	return domain.AccessSession{
		Role:       domain.RoleAuthenticatedUser,
		UserID:     identity.UserID,
		Email:      identity.Email,
		ResolvedAt: now,
	}
}

// Authorize resolves the session and checks it against level.
func (s *Service) Authorize(ctx context.Context, auth AuthContext, level domain.AccessLevel) (domain.AccessSession, domain.AccessDecision) {
	session := s.ResolveSession(ctx, auth)
	return session, domain.Authorize(session, level)
}

// AuthorizeSurface resolves a named surface and decides access to it.
func (s *Service) AuthorizeSurface(ctx context.Context, auth AuthContext, name string) (domain.Surface, domain.AccessDecision) {
	surface := domain.ResolveSurface(name)
	_, decision := s.Authorize(ctx, auth, surface.Level)
	return surface, decision
}

// require is the guard every privileged operation calls at its own entry.
func (s *Service) require(ctx context.Context, auth AuthContext, level domain.AccessLevel) error {
	session, decision := s.Authorize(ctx, auth, level)
	if decision.Granted() {
		return nil
	}
	serviceLogger().WarnContext(ctx, "access denied",
		"operation", "authorize",
		"outcome", "denied",
		"role", string(session.Role),
		"level", string(level),
		"request_id", auth.RequestID,
	)
	return fmt.Errorf("%w: %s", domain.ErrUnauthorized, decision.Reason)
}

// AdminLogin checks the operator passphrase and elevates the caller using
// the configured elevation mode.
func (s *Service) AdminLogin(ctx context.Context, auth AuthContext, passphrase string) (AdminLoginResult, error) {
	if s.cfg.AdminPassphraseHash == "" || s.passwords == nil {
		return AdminLoginResult{}, fmt.Errorf("%w: admin login disabled", domain.ErrUnauthorized)
	}
	if passphrase == "" {
		return AdminLoginResult{}, fmt.Errorf("%w: passphrase is required", domain.ErrInvalidInput)
	}
	if err := s.passwords.Compare(s.cfg.AdminPassphraseHash, passphrase); err != nil {
		serviceLogger().WarnContext(ctx, "admin login rejected",
			"operation", "admin_login",
			"outcome", "invalid_credentials",
			"request_id", auth.RequestID,
		)
		return AdminLoginResult{}, domain.ErrInvalidCredentials
	}
	result, err := s.elevation.grant(ctx, auth)
	if err != nil {
		return AdminLoginResult{}, err
	}
	serviceLogger().InfoContext(ctx, "admin elevated",
		"operation", "admin_login",
		"outcome", "elevated",
		"mode", result.Mode,
		"request_id", auth.RequestID,
	)
	return result, nil
}

// AdminLogout drops the caller's elevation.
func (s *Service) AdminLogout(ctx context.Context, auth AuthContext) error {
	if err := s.elevation.revoke(ctx, auth); err != nil {
		return err
	}
	serviceLogger().InfoContext(ctx, "admin elevation revoked",
		"operation", "admin_logout",
		"outcome", "revoked",
		"mode", s.elevation.mode(),
		"request_id", auth.RequestID,
	)
	return nil
}

// ElevationMode reports the admin elevation mode in use.
func (s *Service) ElevationMode() string {
	return s.elevation.mode()
}
