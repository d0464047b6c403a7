package domain

import (
	"strings"
	"time"
)

// Role is the privilege an AccessSession resolved to.
type Role string

const (
	RoleAnonymous         Role = "anonymous"
	RoleAdminElevated     Role = "admin_elevated"
	RoleAuthenticatedUser Role = "authenticated_user"
)

// AccessLevel is what a surface or operation requires.
type AccessLevel string

const (
	LevelPublic           AccessLevel = "public"
	LevelAnyAuthenticated AccessLevel = "any_authenticated"
	LevelAdminOnly        AccessLevel = "admin_only"
)

const (
	LoginEntryPoint      = "/login"
	AdminLoginEntryPoint = "/admin/login"
)

// AccessSession is the resolved caller. UserID and Email are only populated
// for AuthenticatedUser.
type AccessSession struct {
	Role       Role      `json:"role"`
	UserID     string    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// DecisionOutcome is tri-state. The zero value is Unknown so a decision that
// was never computed cannot be mistaken for a grant.
type DecisionOutcome int

const (
	DecisionUnknown DecisionOutcome = iota
	DecisionGrant
	DecisionDeny
)

func (o DecisionOutcome) String() string {
	switch o {
	case DecisionGrant:
		return "grant"
	case DecisionDeny:
		return "deny"
	default:
		return "unknown"
	}
}

// AccessDecision is the guard's answer. RedirectTo names the entry point a
// navigable surface should send the caller to on denial.
type AccessDecision struct {
	Outcome    DecisionOutcome `json:"-"`
	Reason     string          `json:"reason,omitempty"`
	RedirectTo string          `json:"redirect_to,omitempty"`
}

func (d AccessDecision) Granted() bool { return d.Outcome == DecisionGrant }

// Authorize decides whether session meets level.
func Authorize(session AccessSession, level AccessLevel) AccessDecision {
	switch level {
	case LevelPublic:
		return AccessDecision{Outcome: DecisionGrant}
	case LevelAnyAuthenticated:
		if session.Role == RoleAdminElevated || session.Role == RoleAuthenticatedUser {
			return AccessDecision{Outcome: DecisionGrant}
		}
		return AccessDecision{Outcome: DecisionDeny, Reason: "authentication required", RedirectTo: LoginEntryPoint}
	case LevelAdminOnly:
		if session.Role == RoleAdminElevated {
			return AccessDecision{Outcome: DecisionGrant}
		}
		return AccessDecision{Outcome: DecisionDeny, Reason: "admin elevation required", RedirectTo: AdminLoginEntryPoint}
	default:
		return AccessDecision{Outcome: DecisionDeny, Reason: "unknown access level", RedirectTo: AdminLoginEntryPoint}
	}
}

// Surface is a navigable page and the level it requires.
type Surface struct {
	Name  string      `json:"name"`
	Level AccessLevel `json:"level"`
}

var surfaces = []Surface{
	{Name: "home", Level: LevelPublic},
	{Name: "watch", Level: LevelPublic},
	{Name: "admin-login", Level: LevelPublic},
	{Name: "user-profile", Level: LevelAnyAuthenticated},
	{Name: "manage-banners", Level: LevelAdminOnly},
	{Name: "admin-dashboard", Level: LevelAdminOnly},
	{Name: "manage-customers", Level: LevelAdminOnly},
}

// ResolveSurface looks a surface up case-insensitively. Unknown names fall
// back to the first registered surface (home).
func ResolveSurface(name string) Surface {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, s := range surfaces {
		if s.Name == key {
			return s
		}
	}
	return surfaces[0]
}
