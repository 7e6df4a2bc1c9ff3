// Package tokenstore provides key/value + set storage with per-entry TTL for
// refresh-token sets and blacklist markers. Two interchangeable
// implementations exist: RedisStore for shared multi-instance deployments and
// MemoryStore as a process-local fallback.
package tokenstore

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Store is the storage contract the session manager depends on. Keys are
// opaque strings; the refresh:/blacklist: conventions below are the only
// namespace knowledge implementations carry (CleanupExpiredTokens needs the
// refresh-set key for a user).
type Store interface {
	// Set upserts a scalar value with expiry, overwriting any existing scalar
	// or set at that key.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the scalar at key, or "" if absent or expired.
	Get(ctx context.Context, key string) (string, error)
	// Del removes the key. Idempotent; missing keys are not an error.
	Del(ctx context.Context, key string) error
	// AddToSet adds member to the unordered set at key and refreshes the key's
	// TTL. A scalar already stored at key is replaced with a fresh set.
	AddToSet(ctx context.Context, key, member string, ttl time.Duration) error
	// GetSet returns the members of the set at key; empty if absent or expired.
	GetSet(ctx context.Context, key string) ([]string, error)
	// RemoveFromSet removes one member. If the set becomes empty the key is
	// removed; no empty sets persist. Missing keys/members are not an error.
	RemoveFromSet(ctx context.Context, key, member string) error
	// ReplaceInSet atomically removes oldMember and adds newMember, refreshing
	// the key's TTL. Returns false without modifying the set when oldMember is
	// not a member, so concurrent rotation of the same token fails closed.
	ReplaceInSet(ctx context.Context, key, oldMember, newMember string, ttl time.Duration) (bool, error)
	// CleanupExpiredTokens sweeps the user's refresh set, dropping members
	// whose embedded expiry has passed. Best-effort alongside key TTL.
	CleanupExpiredTokens(ctx context.Context, userID string) error
	// Dispose releases background timers/connections. Safe to call once at shutdown.
	Dispose() error
}

// RefreshSetKey returns the key of the per-user refresh token set.
func RefreshSetKey(userID string) string { return "refresh:" + userID }

// BlacklistKey returns the key of the blacklist marker for a token string.
func BlacklistKey(token string) string { return "blacklist:" + token }

// memberExpired reports whether a refresh-set member is a token whose expiry
// has passed. The parse is non-verifying: only the exp claim is read, and the
// member is dropped if it cannot be parsed at all. Trust decisions happen at
// verification, never here.
func memberExpired(raw string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.Time.After(now)
}
