package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"COGNITIVE_BIAS_PLAYGROUND/internal/apperr"
)

const redisKeyPrefix = "bias:session:"

// RedisStore snapshots sessions in Redis with the idle TTL applied as the
// key expiry, so eviction matches the in-memory sweeper's semantics without
// a sweeper. It is an ephemeral cache, not durable storage.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr string, ttl time.Duration, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client, ttl: ttl, logger: logger}, nil
}

func key(id string) string { return redisKeyPrefix + id }

func (r *RedisStore) Put(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, key(s.ID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("store session %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := r.client.Get(ctx, key(id)).Bytes()
	if err == redis.Nil {
		return nil, apperr.New(apperr.KindUnknownSession, "session %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	// Empty bookkeeping maps are dropped by omitempty on the way in.
	s.normalize()
	// Reading a session counts as activity; refresh the idle expiry.
	if err := r.client.Expire(ctx, key(id), r.ttl).Err(); err != nil {
		r.logger.Warn("refresh session ttl failed",
			zap.String("session_id", id), zap.Error(err))
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, key(id)).Err()
}

// Sweep is a no-op: Redis expires idle sessions natively.
func (r *RedisStore) Sweep(context.Context, time.Time) int { return 0 }

// Close releases the client.
func (r *RedisStore) Close() error { return r.client.Close() }
