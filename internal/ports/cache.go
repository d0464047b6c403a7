package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ElevationFlagKey is the fixed name of the durable elevated-admin flag.
const ElevationFlagKey = "adminAuthenticated"

// ElevationFlagStore holds the low-assurance durable admin flag, one per
// client id.
type ElevationFlagStore interface {
	IsSet(ctx context.Context, clientID string) (bool, error)
	Set(ctx context.Context, clientID string) error
	Clear(ctx context.Context, clientID string) error
}

// CapabilityRevocationStore keeps revocation markers with token-aligned TTL.
type CapabilityRevocationStore interface {
	MarkRevoked(ctx context.Context, tokenID uuid.UUID, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID uuid.UUID) (bool, error)
}
