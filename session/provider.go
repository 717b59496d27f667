package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Default identifier settings.
const (
	// DefaultHeader is the header carrying the session identifier.
	DefaultHeader = "X-Session-Id"

	// DefaultValidity is how long an identifier stays valid.
	DefaultValidity = 1 * time.Hour

	// DefaultRenewalMargin is how long before expiry the identifier is
	// renewed.
	DefaultRenewalMargin = 5 * time.Minute
)

// Config configures the identifier provider.
type Config struct {
	// Validity is the identifier validity window.
	// Default: 1 hour
	Validity time.Duration

	// RenewalMargin renews the identifier when less than this much of
	// the window remains. Must be shorter than Validity.
	// Default: 5 minutes
	RenewalMargin time.Duration

	// OnRenew is called after each renewal with the old and new
	// identifier. The old identifier is empty on first generation.
	OnRenew func(oldID, newID string)
}

// Provider issues the current session identifier, renewing it before the
// validity window elapses.
//
// Contract:
// - Concurrency: safe for concurrent use; concurrent renewals coalesce
//   into one generation.
// - Errors: ID fails only when identifier generation itself fails.
type Provider struct {
	cfg Config

	mu        sync.RWMutex
	id        string
	expiresAt time.Time

	sfGroup singleflight.Group // prevents renewal stampedes
}

// NewProvider creates a provider. The first identifier is generated lazily
// on the first ID call.
func NewProvider(cfg Config) *Provider {
	if cfg.Validity <= 0 {
		cfg.Validity = DefaultValidity
	}
	if cfg.RenewalMargin <= 0 || cfg.RenewalMargin >= cfg.Validity {
		cfg.RenewalMargin = DefaultRenewalMargin
		if cfg.RenewalMargin >= cfg.Validity {
			cfg.RenewalMargin = cfg.Validity / 10
		}
	}
	return &Provider{cfg: cfg}
}

// ID returns the current session identifier, renewing it when the
// remaining validity drops below the renewal margin.
func (p *Provider) ID(ctx context.Context) (string, error) {
	p.mu.RLock()
	id := p.id
	fresh := id != "" && time.Until(p.expiresAt) > p.cfg.RenewalMargin
	p.mu.RUnlock()

	if fresh {
		return id, nil
	}

	v, err, _ := p.sfGroup.Do("renew", func() (any, error) {
		return p.renew()
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Expiry returns when the current identifier lapses. The zero time means
// no identifier has been generated yet.
func (p *Provider) Expiry() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.expiresAt
}

func (p *Provider) renew() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Another coalesced caller may have renewed already.
	if p.id != "" && time.Until(p.expiresAt) > p.cfg.RenewalMargin {
		return p.id, nil
	}

	next, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	oldID := p.id
	p.id = next.String()
	p.expiresAt = time.Now().Add(p.cfg.Validity)

	if p.cfg.OnRenew != nil {
		p.cfg.OnRenew(oldID, p.id)
	}
	return p.id, nil
}
