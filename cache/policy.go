package cache

import "time"

// Policy configures caching behavior.
type Policy struct {
	// DefaultTTL is the TTL to use when none is specified.
	// If zero, caching is disabled by default.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Override TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration

	// ErrorTTL is the TTL for error placeholders. Kept short so a failing
	// endpoint is retried again soon, but not hammered.
	// If zero, error placeholders are not stored.
	ErrorTTL time.Duration
}

// DefaultPolicy returns the default caching policy.
// DefaultTTL: 5 minutes, MaxTTL: 1 hour, ErrorTTL: 30 seconds
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     1 * time.Hour,
		ErrorTTL:   30 * time.Second,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	// Clamp to MaxTTL if set
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}

// EffectiveErrorTTL returns the placeholder TTL to use. Placeholders never
// outlive ErrorTTL regardless of the override.
func (p Policy) EffectiveErrorTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 || (p.ErrorTTL > 0 && ttl > p.ErrorTTL) {
		ttl = p.ErrorTTL
	}
	return ttl
}
