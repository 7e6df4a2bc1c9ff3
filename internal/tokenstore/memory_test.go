package tokenstore

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestMemoryStore(t *testing.T) (*MemoryStore, *time.Time) {
	t.Helper()
	s := NewMemoryStore(time.Hour) // sweep never fires during a test
	t.Cleanup(func() { _ = s.Dispose() })
	now := time.Now().UTC()
	s.nowF = func() time.Time { return now }
	return s, &now
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expiresAt)}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestMemoryStore_SetGetDel(t *testing.T) {
	s, _ := newTestMemoryStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "v" {
		t.Errorf("Get = %q, want %q", got, "v")
	}

	if err := s.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if got, _ := s.Get(ctx, "k"); got != "" {
		t.Errorf("Get after Del = %q, want empty", got)
	}

	// Del of a missing key is a no-op.
	if err := s.Del(ctx, "missing"); err != nil {
		t.Errorf("Del missing key: %v", err)
	}
}

func TestMemoryStore_ScalarExpiry(t *testing.T) {
	s, now := newTestMemoryStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "k", "v", time.Minute)
	*now = now.Add(2 * time.Minute)

	if got, _ := s.Get(ctx, "k"); got != "" {
		t.Errorf("Get after expiry = %q, want empty", got)
	}
}

func TestMemoryStore_SetOps(t *testing.T) {
	s, _ := newTestMemoryStore(t)
	ctx := context.Background()
	key := "set-key"

	_ = s.AddToSet(ctx, key, "a", time.Minute)
	_ = s.AddToSet(ctx, key, "b", time.Minute)

	members, err := s.GetSet(ctx, key)
	if err != nil {
		t.Fatalf("GetSet: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("GetSet = %v, want 2 members", members)
	}

	// Duplicate adds are harmless.
	_ = s.AddToSet(ctx, key, "a", time.Minute)
	members, _ = s.GetSet(ctx, key)
	if len(members) != 2 {
		t.Errorf("after duplicate add: %v, want 2 members", members)
	}

	_ = s.RemoveFromSet(ctx, key, "a")
	members, _ = s.GetSet(ctx, key)
	if len(members) != 1 || members[0] != "b" {
		t.Errorf("after remove: %v, want [b]", members)
	}

	// Removing the last member removes the key itself.
	_ = s.RemoveFromSet(ctx, key, "b")
	s.mu.Lock()
	_, exists := s.sets[key]
	s.mu.Unlock()
	if exists {
		t.Error("empty set should not persist")
	}
}

func TestMemoryStore_SetExpiry(t *testing.T) {
	s, now := newTestMemoryStore(t)
	ctx := context.Background()

	_ = s.AddToSet(ctx, "k", "a", time.Minute)
	*now = now.Add(2 * time.Minute)

	members, _ := s.GetSet(ctx, "k")
	if len(members) != 0 {
		t.Errorf("GetSet after expiry = %v, want empty", members)
	}
}

func TestMemoryStore_AddToSetResetsScalar(t *testing.T) {
	s, _ := newTestMemoryStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "k", "scalar", time.Minute)
	_ = s.AddToSet(ctx, "k", "member", time.Minute)

	if got, _ := s.Get(ctx, "k"); got != "" {
		t.Errorf("scalar should be gone after AddToSet, got %q", got)
	}
	members, _ := s.GetSet(ctx, "k")
	if len(members) != 1 || members[0] != "member" {
		t.Errorf("GetSet = %v, want [member]", members)
	}
}

func TestMemoryStore_SetOverwritesSet(t *testing.T) {
	s, _ := newTestMemoryStore(t)
	ctx := context.Background()

	_ = s.AddToSet(ctx, "k", "member", time.Minute)
	_ = s.Set(ctx, "k", "scalar", time.Minute)

	members, _ := s.GetSet(ctx, "k")
	if len(members) != 0 {
		t.Errorf("set should be gone after Set, got %v", members)
	}
}

func TestMemoryStore_ReplaceInSet(t *testing.T) {
	s, _ := newTestMemoryStore(t)
	ctx := context.Background()
	key := "k"

	_ = s.AddToSet(ctx, key, "old", time.Minute)

	ok, err := s.ReplaceInSet(ctx, key, "old", "new", time.Minute)
	if err != nil {
		t.Fatalf("ReplaceInSet: %v", err)
	}
	if !ok {
		t.Fatal("ReplaceInSet should succeed for a current member")
	}
	members, _ := s.GetSet(ctx, key)
	if len(members) != 1 || members[0] != "new" {
		t.Errorf("after replace: %v, want [new]", members)
	}

	// Replacing the already-rotated member fails closed.
	ok, err = s.ReplaceInSet(ctx, key, "old", "newer", time.Minute)
	if err != nil {
		t.Fatalf("ReplaceInSet: %v", err)
	}
	if ok {
		t.Error("ReplaceInSet of a rotated-out member should return false")
	}
	members, _ = s.GetSet(ctx, key)
	if len(members) != 1 || members[0] != "new" {
		t.Errorf("failed replace must not modify the set: %v", members)
	}
}

func TestMemoryStore_CleanupExpiredTokens(t *testing.T) {
	s, _ := newTestMemoryStore(t)
	ctx := context.Background()
	userID := "u1"
	key := RefreshSetKey(userID)

	live := signedToken(t, time.Now().Add(time.Hour))
	stale := signedToken(t, time.Now().Add(-time.Hour))
	garbage := "not-a-jwt"

	_ = s.AddToSet(ctx, key, live, time.Hour)
	_ = s.AddToSet(ctx, key, stale, time.Hour)
	_ = s.AddToSet(ctx, key, garbage, time.Hour)

	if err := s.CleanupExpiredTokens(ctx, userID); err != nil {
		t.Fatalf("CleanupExpiredTokens: %v", err)
	}
	members, _ := s.GetSet(ctx, key)
	if len(members) != 1 || members[0] != live {
		t.Errorf("after cleanup: %v, want only the live token", members)
	}
}

func TestMemoryStore_SweepRemovesExpired(t *testing.T) {
	s, now := newTestMemoryStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "scalar", "v", time.Minute)
	_ = s.AddToSet(ctx, "set", "a", time.Minute)
	*now = now.Add(2 * time.Minute)

	s.sweep()

	s.mu.Lock()
	nScalars, nSets := len(s.scalars), len(s.sets)
	s.mu.Unlock()
	if nScalars != 0 || nSets != 0 {
		t.Errorf("sweep left %d scalars and %d sets, want 0/0", nScalars, nSets)
	}
}

func TestMemoryStore_DisposeTwice(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	if err := s.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if err := s.Dispose(); err != nil {
		t.Fatalf("second Dispose: %v", err)
	}
}
