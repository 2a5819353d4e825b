package pending

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pending:registration:v1:"

// RedisStore keeps staged registrations in Redis with a TTL so abandoned
// registrations lapse on their own.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a Redis-backed pending registration store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, email string, reg Registration, ttl time.Duration) error {
	payload, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("encode pending registration: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+email, payload, ttl).Err(); err != nil {
		return fmt.Errorf("store pending registration: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, email string) (Registration, error) {
	raw, err := s.client.Get(ctx, keyPrefix+email).Result()
	if err != nil {
		if err == redis.Nil {
			return Registration{}, ErrNotFound
		}
		return Registration{}, fmt.Errorf("load pending registration: %w", err)
	}
	var reg Registration
	if err := json.Unmarshal([]byte(raw), &reg); err != nil {
		return Registration{}, fmt.Errorf("decode pending registration: %w", err)
	}
	return reg, nil
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, keyPrefix+email).Err(); err != nil {
		return fmt.Errorf("delete pending registration: %w", err)
	}
	return nil
}
