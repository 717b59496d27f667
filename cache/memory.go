package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory cache implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	policy  Policy
}

type entry struct {
	value       any
	token       string
	placeholder bool
	expiresAt   time.Time
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// NewMemoryStore creates a new in-memory store with the given policy.
func NewMemoryStore(policy Policy) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		policy:  policy,
	}
}

// Get retrieves a value from the store. Returns (nil, false) on miss,
// expiry, or error placeholder.
func (s *MemoryStore) Get(_ context.Context, key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if e.expired(time.Now()) {
		// Expired - clean up lazily. Entries carrying a validation token
		// are kept so a later conditional refetch can revive them.
		if e.token == "" {
			s.mu.Lock()
			delete(s.entries, key)
			s.mu.Unlock()
		}
		return nil, false
	}

	// Placeholders are consulted through Placeholder, never handed out as data.
	if e.placeholder {
		return nil, false
	}

	return e.value, true
}

// Set stores a value with the given TTL. TTL<=0 means no caching.
func (s *MemoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return s.SetWithToken(ctx, key, value, "", ttl)
}

// SetWithToken stores a value with a validation token and TTL.
// Storing a value replaces any placeholder under the same key.
func (s *MemoryStore) SetWithToken(_ context.Context, key string, value any, token string, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	ttl = s.policy.EffectiveTTL(ttl)
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	s.entries[key] = &entry{
		value:     value,
		token:     token,
		expiresAt: time.Now().Add(ttl),
	}
	s.mu.Unlock()

	return nil
}

// SetErrorPlaceholder records a failed fetch under key with a short TTL.
func (s *MemoryStore) SetErrorPlaceholder(_ context.Context, key string, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	ttl = s.policy.EffectiveErrorTTL(ttl)
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	s.entries[key] = &entry{
		placeholder: true,
		expiresAt:   time.Now().Add(ttl),
	}
	s.mu.Unlock()

	return nil
}

// Placeholder reports whether a live error placeholder exists for key.
func (s *MemoryStore) Placeholder(_ context.Context, key string) bool {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || !e.placeholder {
		return false
	}

	if e.expired(time.Now()) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return false
	}

	return true
}

// Token returns the validation token stored for key, if any.
func (s *MemoryStore) Token(_ context.Context, key string) (string, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || e.placeholder || e.token == "" {
		return "", false
	}
	return e.token, true
}

// Revalidate extends the entry for key after a not-modified response and
// returns its value. Works on expired entries too, which is the point:
// the value is known good again even though its TTL had lapsed.
func (s *MemoryStore) Revalidate(_ context.Context, key string, ttl time.Duration) (any, bool) {
	ttl = s.policy.EffectiveTTL(ttl)
	if ttl <= 0 {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.placeholder {
		return nil, false
	}
	e.expiresAt = time.Now().Add(ttl)
	return e.value, true
}

// Delete removes a value from the store. Idempotent - no error on miss.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// InvalidatePattern removes all entries whose key contains pattern as a
// substring and returns the number removed.
func (s *MemoryStore) InvalidatePattern(_ context.Context, pattern string) int {
	if pattern == "" {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.entries {
		if strings.Contains(key, pattern) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]*entry)
	s.mu.Unlock()
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes all expired entries eagerly and returns the number removed.
// Purely an optimization: observable behavior is identical with or without
// sweeping because expiry is always checked on read. Token-bearing entries
// are kept for later revalidation, matching Get's lazy eviction.
func (s *MemoryStore) Sweep() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if e.expired(now) && e.token == "" {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
