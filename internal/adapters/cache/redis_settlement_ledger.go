package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

// RedisSettlementLedger records operator-observed settlements per attempt.
// Entries expire with ttl since attempts themselves are short-lived.
type RedisSettlementLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSettlementLedger(client *redis.Client, ttl time.Duration) *RedisSettlementLedger {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSettlementLedger{client: client, ttl: ttl}
}

func settlementKey(attemptID uuid.UUID) string {
	return "access:settlement:" + attemptID.String()
}

func (l *RedisSettlementLedger) IsSettled(ctx context.Context, query ports.SettlementQuery) (bool, error) {
	n, err := l.client.Exists(ctx, settlementKey(query.AttemptID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *RedisSettlementLedger) MarkSettled(ctx context.Context, attemptID uuid.UUID) error {
	return l.client.Set(ctx, settlementKey(attemptID), time.Now().UTC().Format(time.RFC3339), l.ttl).Err()
}
