package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/intrafind/ihub-apps-sub007/observe"
)

// Defaults applied by WithDefaults.
const (
	DefaultRequestTimeout    = 30 * time.Second
	DefaultConnectTimeout    = 10 * time.Second
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultTTL               = 5 * time.Minute
	DefaultErrorTTL          = 30 * time.Second
	DefaultSessionHeader     = "X-Session-Id"
	DefaultSessionValidity   = 1 * time.Hour
)

// ErrMissingBaseURL indicates no backend base URL was configured.
var ErrMissingBaseURL = errors.New("config: missing base URL")

// Config is the runtime configuration.
type Config struct {
	// BaseURL is the backend base URL (required). May reference
	// environment variables with ${VAR}.
	BaseURL string

	// RequestTimeout bounds each gateway request.
	// Default: 30 seconds
	RequestTimeout time.Duration

	// ConnectTimeout bounds how long a push channel may take to open.
	// Default: 10 seconds
	ConnectTimeout time.Duration

	// HeartbeatInterval is how often live sessions are probed.
	// Default: 30 seconds
	HeartbeatInterval time.Duration

	// DefaultTTL is the cache lifetime for reads without an explicit
	// TTL. Default: 5 minutes
	DefaultTTL time.Duration

	// ErrorTTL is the cooldown placeholder lifetime.
	// Default: 30 seconds
	ErrorTTL time.Duration

	// SessionHeader carries the session identifier.
	// Default: "X-Session-Id". May reference environment variables.
	SessionHeader string

	// SessionValidity is the identifier validity window.
	// Default: 1 hour
	SessionValidity time.Duration

	// Observe configures telemetry.
	Observe observe.Config
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = DefaultTTL
	}
	if c.ErrorTTL <= 0 {
		c.ErrorTTL = DefaultErrorTTL
	}
	if c.SessionHeader == "" {
		c.SessionHeader = DefaultSessionHeader
	}
	if c.SessionValidity <= 0 {
		c.SessionValidity = DefaultSessionValidity
	}
	return c
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	for name, d := range map[string]time.Duration{
		"request timeout":    c.RequestTimeout,
		"connect timeout":    c.ConnectTimeout,
		"heartbeat interval": c.HeartbeatInterval,
		"default TTL":        c.DefaultTTL,
		"error TTL":          c.ErrorTTL,
		"session validity":   c.SessionValidity,
	} {
		if d < 0 {
			return fmt.Errorf("config: negative %s: %v", name, d)
		}
	}
	return nil
}

// Expand resolves ${VAR} references in BaseURL and SessionHeader,
// returning an error when a referenced variable is missing.
func (c Config) Expand() (Config, error) {
	base, err := ExpandEnvStrict(c.BaseURL)
	if err != nil {
		return Config{}, fmt.Errorf("config: base URL: %w", err)
	}
	c.BaseURL = base

	header, err := ExpandEnvStrict(c.SessionHeader)
	if err != nil {
		return Config{}, fmt.Errorf("config: session header: %w", err)
	}
	c.SessionHeader = header
	return c, nil
}
