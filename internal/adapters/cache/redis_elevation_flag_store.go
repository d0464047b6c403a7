package cache

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

// RedisElevationFlagStore keeps the durable adminAuthenticated flag per
// client id. The flag has no TTL; it lives until logout clears it.
type RedisElevationFlagStore struct {
	client *redis.Client
}

func NewRedisElevationFlagStore(client *redis.Client) *RedisElevationFlagStore {
	return &RedisElevationFlagStore{client: client}
}

func flagKey(clientID string) string {
	return "access:client:" + clientID + ":" + ports.ElevationFlagKey
}

func (s *RedisElevationFlagStore) IsSet(ctx context.Context, clientID string) (bool, error) {
	v, err := s.client.Get(ctx, flagKey(clientID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

func (s *RedisElevationFlagStore) Set(ctx context.Context, clientID string) error {
	return s.client.Set(ctx, flagKey(clientID), "true", 0).Err()
}

func (s *RedisElevationFlagStore) Clear(ctx context.Context, clientID string) error {
	return s.client.Del(ctx, flagKey(clientID)).Err()
}
