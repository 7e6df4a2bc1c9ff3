package tokenstore

import (
	"context"
	"sync"
	"time"
)

const defaultSweepInterval = 60 * time.Second

type scalarEntry struct {
	value     string
	expiresAt time.Time
}

type setEntry struct {
	members   map[string]struct{}
	expiresAt time.Time
}

// MemoryStore is a process-local Store: mutex-guarded maps with per-key expiry
// and a periodic sweep goroutine owned by the store. It loses state on restart
// and is not shared across instances; use only when Redis is unavailable, and
// only with a single service instance.
type MemoryStore struct {
	mu      sync.Mutex
	scalars map[string]scalarEntry
	sets    map[string]*setEntry

	nowF func() time.Time

	stop chan struct{}
	once sync.Once
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a MemoryStore and starts its sweep goroutine.
// sweepInterval <= 0 selects the 60s default. Callers must Dispose at shutdown.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	s := &MemoryStore{
		scalars: make(map[string]scalarEntry),
		sets:    make(map[string]*setEntry),
		nowF:    func() time.Time { return time.Now().UTC() },
		stop:    make(chan struct{}),
	}
	go s.sweepLoop(sweepInterval)
	return s
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	now := s.nowF()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.scalars {
		if !e.expiresAt.After(now) {
			delete(s.scalars, k)
		}
	}
	for k, e := range s.sets {
		if !e.expiresAt.After(now) {
			delete(s.sets, k)
		}
	}
}

// Set upserts a scalar, overwriting any scalar or set at the key.
func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, key)
	s.scalars[key] = scalarEntry{value: value, expiresAt: s.nowF().Add(ttl)}
	return nil
}

// Get returns the scalar at key, or "" if absent or expired.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.scalars[key]
	if !ok {
		return "", nil
	}
	if !e.expiresAt.After(s.nowF()) {
		delete(s.scalars, key)
		return "", nil
	}
	return e.value, nil
}

// Del removes the key whether it holds a scalar or a set.
func (s *MemoryStore) Del(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scalars, key)
	delete(s.sets, key)
	return nil
}

// AddToSet adds member to the set at key and refreshes the key TTL. A scalar
// at the key is reset to a fresh set holding just member.
func (s *MemoryStore) AddToSet(ctx context.Context, key, member string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scalars, key)
	e := s.liveSet(key)
	if e == nil {
		e = &setEntry{members: make(map[string]struct{})}
		s.sets[key] = e
	}
	e.members[member] = struct{}{}
	e.expiresAt = s.nowF().Add(ttl)
	return nil
}

// GetSet returns the members of the set at key; empty slice if absent/expired.
func (s *MemoryStore) GetSet(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.liveSet(key)
	if e == nil {
		return []string{}, nil
	}
	members := make([]string, 0, len(e.members))
	for m := range e.members {
		members = append(members, m)
	}
	return members, nil
}

// RemoveFromSet removes one member; an emptied set is removed entirely.
func (s *MemoryStore) RemoveFromSet(ctx context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.liveSet(key)
	if e == nil {
		return nil
	}
	delete(e.members, member)
	if len(e.members) == 0 {
		delete(s.sets, key)
	}
	return nil
}

// ReplaceInSet swaps oldMember for newMember under one lock acquisition.
// Returns false when oldMember is not a current member.
func (s *MemoryStore) ReplaceInSet(ctx context.Context, key, oldMember, newMember string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.liveSet(key)
	if e == nil {
		return false, nil
	}
	if _, ok := e.members[oldMember]; !ok {
		return false, nil
	}
	delete(e.members, oldMember)
	e.members[newMember] = struct{}{}
	e.expiresAt = s.nowF().Add(ttl)
	return true, nil
}

// CleanupExpiredTokens drops members of the user's refresh set whose embedded
// expiry has passed.
func (s *MemoryStore) CleanupExpiredTokens(ctx context.Context, userID string) error {
	key := RefreshSetKey(userID)
	now := s.nowF()
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.liveSet(key)
	if e == nil {
		return nil
	}
	for m := range e.members {
		if memberExpired(m, now) {
			delete(e.members, m)
		}
	}
	if len(e.members) == 0 {
		delete(s.sets, key)
	}
	return nil
}

// Dispose stops the sweep goroutine. Safe to call more than once.
func (s *MemoryStore) Dispose() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

// liveSet returns the non-expired set at key, removing it lazily when expired.
// Caller must hold s.mu.
func (s *MemoryStore) liveSet(key string) *setEntry {
	e, ok := s.sets[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.After(s.nowF()) {
		delete(s.sets, key)
		return nil
	}
	return e
}
