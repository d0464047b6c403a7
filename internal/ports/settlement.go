package ports

import (
	"context"

	"github.com/google/uuid"
)

// SettlementQuery identifies the transfer a viewer claims to have made.
type SettlementQuery struct {
	AttemptID   uuid.UUID
	OfferingID  string
	PaymentKey  string
	Amount      float64
	ViewerEmail string
}

// SettlementLedger answers whether a transfer settled. The operator-facing
// MarkSettled is how settlements are recorded until a bank-side feed exists.
type SettlementLedger interface {
	IsSettled(ctx context.Context, query SettlementQuery) (bool, error)
	MarkSettled(ctx context.Context, attemptID uuid.UUID) error
}
