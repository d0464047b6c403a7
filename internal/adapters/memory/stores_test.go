package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

func TestRevocationsExpireWithToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	r := NewRevocations(func() time.Time { return now })
	id := uuid.New()
	ctx := context.Background()

	if err := r.MarkRevoked(ctx, id, now.Add(time.Minute)); err != nil {
		t.Fatalf("mark revoked: %v", err)
	}
	if revoked, _ := r.IsRevoked(ctx, id); !revoked {
		t.Fatalf("expected token revoked")
	}
	now = now.Add(2 * time.Minute)
	if revoked, _ := r.IsRevoked(ctx, id); revoked {
		t.Fatalf("expected marker to lapse with the token")
	}
}

func TestElevationFlagsAndLedger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	flags := NewElevationFlags()
	_ = flags.Set(ctx, "c-1")
	if set, _ := flags.IsSet(ctx, "c-1"); !set {
		t.Fatalf("expected flag set")
	}
	_ = flags.Clear(ctx, "c-1")
	if set, _ := flags.IsSet(ctx, "c-1"); set {
		t.Fatalf("expected flag cleared")
	}

	ledger := NewSettlementLedger()
	id := uuid.New()
	if settled, _ := ledger.IsSettled(ctx, ports.SettlementQuery{AttemptID: id}); settled {
		t.Fatalf("expected unsettled")
	}
	_ = ledger.MarkSettled(ctx, id)
	if settled, _ := ledger.IsSettled(ctx, ports.SettlementQuery{AttemptID: id}); !settled {
		t.Fatalf("expected settled")
	}
}
