package ports

import (
	"time"

	"github.com/google/uuid"
)

// WatchClaims scope a watch token to one offering and, for paid offerings,
// the attempt that was confirmed.
type WatchClaims struct {
	TokenID     uuid.UUID `json:"token_id"`
	OfferingID  string    `json:"offering_id"`
	AttemptID   uuid.UUID `json:"attempt_id"`
	ViewerEmail string    `json:"viewer_email"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AdminClaims back the signed admin capability that replaces the durable
// client-side flag.
type AdminClaims struct {
	TokenID   uuid.UUID `json:"token_id"`
	Subject   string    `json:"subject"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type TokenSigner interface {
	SignWatchToken(claims WatchClaims) (string, error)
	ParseWatchToken(token string) (WatchClaims, error)
	SignAdminCapability(claims AdminClaims) (string, error)
	ParseAdminCapability(token string) (AdminClaims, error)
}

type PasswordVerifier interface {
	Compare(hash, password string) error
}
