package config

import (
	"net/http"
	"time"

	"github.com/intrafind/ihub-apps-sub007/cache"
	"github.com/intrafind/ihub-apps-sub007/chat"
	"github.com/intrafind/ihub-apps-sub007/gateway"
	"github.com/intrafind/ihub-apps-sub007/observe"
	"github.com/intrafind/ihub-apps-sub007/pending"
	"github.com/intrafind/ihub-apps-sub007/session"
)

// Composition helpers translating the runtime configuration into the
// per-package configs. Call WithDefaults (and usually Expand) first;
// the helpers pass values through as they stand.

// SessionConfig returns the identifier provider configuration.
func (c Config) SessionConfig() session.Config {
	return session.Config{Validity: c.SessionValidity}
}

// GatewayConfig returns the gateway configuration: a request client
// bounded by RequestTimeout that stamps the session identifier under
// SessionHeader, a memory cache using DefaultTTL and ErrorTTL, and a
// dedup registry whose force-release window sits above the request
// timeout. A nil provider leaves requests unstamped; a nil logger
// disables logging.
func (c Config) GatewayConfig(provider *session.Provider, logger observe.Logger) gateway.Config {
	return gateway.Config{
		BaseURL: c.BaseURL,
		HTTPClient: &http.Client{
			Timeout:   c.RequestTimeout,
			Transport: c.transport(provider),
		},
		Store: cache.NewMemoryStore(cache.Policy{
			DefaultTTL: c.DefaultTTL,
			ErrorTTL:   c.ErrorTTL,
		}),
		Registry: pending.NewRegistry(c.RequestTimeout + 5*time.Second),
		Logger:   logger,
	}
}

// ChatConfig returns the orchestrator configuration for one
// application. The push channel client stamps the session identifier
// but carries no overall timeout, so long-lived streams survive.
func (c Config) ChatConfig(appID string, gw *gateway.Client, provider *session.Provider, logger observe.Logger) chat.Config {
	return chat.Config{
		Gateway:           gw,
		BaseURL:           c.BaseURL,
		AppID:             appID,
		StreamClient:      &http.Client{Transport: c.transport(provider)},
		ConnectTimeout:    c.ConnectTimeout,
		HeartbeatInterval: c.HeartbeatInterval,
		Logger:            logger,
	}
}

func (c Config) transport(provider *session.Provider) http.RoundTripper {
	if provider == nil {
		return nil
	}
	return &session.Transport{Provider: provider, Header: c.SessionHeader}
}
