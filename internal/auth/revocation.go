package auth

import (
	"context"
	"errors"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

// RevocationStore remembers logged-out token ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevocationStore keeps revoked token ids in Redis with a TTL equal to
// the remaining token lifetime.
type RedisRevocationStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisRevocationStore builds the Redis-backed store.
func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, now: time.Now}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LocalRevocationStore is a process-local store for single-instance runs
// without Redis. Entries live for the configured token TTL.
type LocalRevocationStore struct {
	cache *bigcache.BigCache
}

// NewLocalRevocationStore builds a bigcache-backed store.
func NewLocalRevocationStore(ctx context.Context, tokenTTL time.Duration) (*LocalRevocationStore, error) {
	cfg := bigcache.DefaultConfig(tokenTTL)
	cfg.Shards = 64
	cfg.Verbose = false
	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &LocalRevocationStore{cache: cache}, nil
}

func (s *LocalRevocationStore) Revoke(_ context.Context, tokenID string, _ time.Time) error {
	return s.cache.Set(revokedKeyPrefix+tokenID, []byte{1})
}

func (s *LocalRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, err := s.cache.Get(revokedKeyPrefix + tokenID)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Close releases the cache.
func (s *LocalRevocationStore) Close() error {
	return s.cache.Close()
}
