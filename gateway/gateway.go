package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/intrafind/ihub-apps-sub007/cache"
	"github.com/intrafind/ihub-apps-sub007/observe"
	"github.com/intrafind/ihub-apps-sub007/pending"
)

// DefaultRequestTimeout is the default HTTP client timeout.
const DefaultRequestTimeout = 30 * time.Second

// Config configures the gateway client.
type Config struct {
	// BaseURL is the backend base URL (required).
	BaseURL string

	// HTTPClient performs the requests.
	// If nil, a default client with a 30s timeout is used. Wrap its
	// transport (for example with session.Transport) to stamp headers.
	HTTPClient *http.Client

	// Store is the response cache. Nil disables caching.
	Store cache.Store

	// Registry deduplicates concurrent reads. Nil disables deduplication.
	Registry *pending.Registry

	// Retry is the policy for idempotent reads. Zero value means
	// DefaultRetryPolicy.
	Retry RetryPolicy

	// Middleware instruments every network execution. Nil means no
	// instrumentation.
	Middleware *observe.Middleware

	// Logger receives gateway diagnostics. Nil means no logging.
	Logger observe.Logger
}

// Client is the single entry point for all request/response traffic.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: failures are normalized (HTTPError, ErrNetwork, ErrCooldown)
//   and never silently swallowed; only the one-shot read retry is absorbed.
// - Side effects: cache and registry mutation only.
type Client struct {
	baseURL  string
	http     *http.Client
	store    cache.Store
	registry *pending.Registry
	retry    RetryPolicy
	mw       *observe.Middleware
	logger   observe.Logger
}

// New creates a gateway client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultRequestTimeout}
	}
	if cfg.Middleware == nil {
		cfg.Middleware = observe.NopMiddleware()
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	return &Client{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		http:     cfg.HTTPClient,
		store:    cfg.Store,
		registry: cfg.Registry,
		retry:    cfg.Retry.withDefaults(),
		mw:       cfg.Middleware,
		logger:   cfg.Logger,
	}, nil
}

// Call performs a request through the full pipeline: cache consultation,
// deduplication, transport, cache repopulation, and error normalization.
func (c *Client) Call(ctx context.Context, desc RequestDescriptor, opts CallOptions) (any, error) {
	if desc.Path == "" {
		return nil, ErrMissingPath
	}

	cacheable := c.cacheable(desc, opts)
	if cacheable {
		if v, ok := c.store.Get(ctx, opts.CacheKey); ok {
			c.logger.Debug(ctx, "cache hit", observe.Field{Key: "key", Value: opts.CacheKey})
			return v, nil
		}
		// A live placeholder suppresses the repeat call; the caller sees
		// a cooldown error, never the stale failure as data.
		if c.store.Placeholder(ctx, opts.CacheKey) {
			return nil, fmt.Errorf("%w: %s", ErrCooldown, desc.Details())
		}
	}

	if opts.Deduplicate && cacheable && c.registry != nil {
		op, created := c.registry.Register(opts.CacheKey)
		if !created {
			c.logger.Debug(ctx, "joining in-flight request",
				observe.Field{Key: "key", Value: opts.CacheKey})
			return op.Wait(ctx)
		}

		value, err := c.perform(ctx, desc, opts)
		if err != nil {
			op.Reject(err)
		} else {
			op.Resolve(value)
		}
		return value, err
	}

	return c.perform(ctx, desc, opts)
}

// Invalidate removes the cached entry for key, if caching is enabled.
func (c *Client) Invalidate(ctx context.Context, key string) {
	if c.store != nil {
		_ = c.store.Delete(ctx, key)
	}
}

// InvalidatePattern removes all cached entries whose key contains pattern.
func (c *Client) InvalidatePattern(ctx context.Context, pattern string) int {
	if c.store == nil {
		return 0
	}
	return c.store.InvalidatePattern(ctx, pattern)
}

func (c *Client) cacheable(desc RequestDescriptor, opts CallOptions) bool {
	return opts.CacheKey != "" && desc.Idempotent() && c.store != nil
}

// perform executes the network call under instrumentation, applying the
// read retry policy for idempotent requests.
func (c *Client) perform(ctx context.Context, desc RequestDescriptor, opts CallOptions) (any, error) {
	meta := observe.CallMeta{
		Component: "gateway",
		Operation: strings.ToLower(desc.method()),
		Resource:  desc.Path,
	}

	exec := c.mw.Wrap(func(ctx context.Context, _ observe.CallMeta) (any, error) {
		if !desc.Idempotent() {
			return c.doRequest(ctx, desc, opts, false)
		}
		return c.retry.Do(ctx, func(ctx context.Context) (any, error) {
			return c.doRequest(ctx, desc, opts, opts.UseValidationToken)
		})
	})

	return exec(ctx, meta)
}

func (c *Client) doRequest(ctx context.Context, desc RequestDescriptor, opts CallOptions, useToken bool) (any, error) {
	u := c.baseURL + desc.Path
	if len(desc.Query) > 0 {
		u += "?" + desc.Query.Encode()
	}

	var body io.Reader
	if desc.Body != nil {
		data, err := json.Marshal(desc.Body)
		if err != nil {
			return nil, fmt.Errorf("gateway: marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, desc.method(), u, body)
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if desc.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range desc.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	cacheable := c.cacheable(desc, opts)
	if useToken && cacheable {
		if token, ok := c.store.Token(ctx, opts.CacheKey); ok {
			req.Header.Set("If-None-Match", token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}

	if resp.StatusCode == http.StatusNotModified && cacheable {
		if v, ok := c.store.Revalidate(ctx, opts.CacheKey, opts.TTL); ok {
			return v, nil
		}
		// The entry vanished between sending the token and the 304.
		// Refetch unconditionally.
		return c.doRequest(ctx, desc, opts, false)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := newHTTPError(resp.StatusCode, serverMessage(data), desc.Details())
		if resp.StatusCode >= 500 && cacheable {
			// Throttle repeat calls to a failing endpoint.
			_ = c.store.SetErrorPlaceholder(ctx, opts.CacheKey, 0)
		}
		return nil, httpErr
	}

	value := decodeBody(data)
	if cacheable {
		token := resp.Header.Get("ETag")
		if opts.UseValidationToken && token != "" {
			_ = c.store.SetWithToken(ctx, opts.CacheKey, value, token, opts.TTL)
		} else {
			_ = c.store.Set(ctx, opts.CacheKey, value, opts.TTL)
		}
	}

	return value, nil
}

// decodeBody decodes a response body. JSON bodies become their decoded
// value; anything else is returned as a string. Empty bodies become nil.
func decodeBody(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	return v
}
