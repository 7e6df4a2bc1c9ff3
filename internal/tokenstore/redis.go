package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// replaceScript atomically swaps a set member and refreshes the key TTL.
// Removing first and checking the result makes a concurrent rotation of the
// same token fail closed: only one caller observes SREM == 1.
var replaceScript = redis.NewScript(`
if redis.call('SREM', KEYS[1], ARGV[1]) == 1 then
  redis.call('SADD', KEYS[1], ARGV[2])
  redis.call('PEXPIRE', KEYS[1], ARGV[3])
  return 1
end
return 0
`)

// NewRedisClient connects to Redis at addr and verifies the connection with a
// short ping.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// RedisStore is the shared Store implementation for multi-instance deployments.
// Expiry is handled by Redis key TTLs; set TTLs are refreshed on each add.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore returns a Store backed by the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Set upserts a scalar with expiry.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Get returns the scalar at key, or "" if absent or expired.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Del removes the key. Idempotent.
func (s *RedisStore) Del(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// AddToSet adds member to the set at key and refreshes the key TTL. A scalar
// stored at the key is replaced with a fresh set.
func (s *RedisStore) AddToSet(ctx context.Context, key, member string, ttl time.Duration) error {
	if t, err := s.client.Type(ctx, key).Result(); err == nil && t == "string" {
		_ = s.client.Del(ctx, key).Err()
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, member)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

// GetSet returns the members of the set at key; empty if absent or expired.
func (s *RedisStore) GetSet(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	return members, nil
}

// RemoveFromSet removes one member. Redis drops empty sets itself, so no
// explicit key deletion is needed.
func (s *RedisStore) RemoveFromSet(ctx context.Context, key, member string) error {
	return s.client.SRem(ctx, key, member).Err()
}

// ReplaceInSet atomically swaps oldMember for newMember via a Lua script.
// Returns false when oldMember was not a member.
func (s *RedisStore) ReplaceInSet(ctx context.Context, key, oldMember, newMember string, ttl time.Duration) (bool, error) {
	res, err := replaceScript.Run(ctx, s.client, []string{key}, oldMember, newMember, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// CleanupExpiredTokens drops members of the user's refresh set whose embedded
// expiry has passed.
func (s *RedisStore) CleanupExpiredTokens(ctx context.Context, userID string) error {
	key := RefreshSetKey(userID)
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	var stale []any
	for _, m := range members {
		if memberExpired(m, now) {
			stale = append(stale, m)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	return s.client.SRem(ctx, key, stale...).Err()
}

// Dispose closes the Redis connection.
func (s *RedisStore) Dispose() error {
	return s.client.Close()
}
