package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilStore   = errors.New("cache: store is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Store is the interface for caching API response values.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Errors: Get should never error; it returns (nil, false) on miss.
// - Placeholders: error placeholders are never returned as data. Get treats
//   them as misses; only Placeholder reports their presence.
type Store interface {
	// Get retrieves a cached value. Returns (nil, false) on miss, expiry,
	// or when the entry is an error placeholder.
	Get(ctx context.Context, key string) (any, bool)

	// Set stores a value with the given TTL. TTL<=0 means no caching.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// SetWithToken stores a value together with a validation token
	// (for example an ETag) usable for conditional refetches.
	SetWithToken(ctx context.Context, key string, value any, token string, ttl time.Duration) error

	// SetErrorPlaceholder records that the last fetch for key failed.
	// The placeholder suppresses repeat calls until it expires; it is
	// never surfaced by Get.
	SetErrorPlaceholder(ctx context.Context, key string, ttl time.Duration) error

	// Placeholder reports whether a live error placeholder exists for key.
	Placeholder(ctx context.Context, key string) bool

	// Token returns the stored validation token for key, if any. Tokens
	// outlive value expiry so an expired entry can still be refetched
	// conditionally.
	Token(ctx context.Context, key string) (string, bool)

	// Revalidate extends the lifetime of the entry for key after the
	// server confirmed it unchanged, and returns its value. Returns
	// (nil, false) when no entry survives to revalidate.
	Revalidate(ctx context.Context, key string, ttl time.Duration) (any, bool)

	// Delete removes a cached value. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error

	// InvalidatePattern removes entries whose key contains pattern as a
	// substring and returns the number removed.
	InvalidatePattern(ctx context.Context, pattern string) int

	// Clear removes all entries.
	Clear()

	// Len returns the number of stored entries, including expired ones
	// not yet lazily evicted.
	Len() int
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
