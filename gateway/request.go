package gateway

import (
	"net/http"
	"net/url"
	"time"
)

// RequestDescriptor describes a single backend request.
type RequestDescriptor struct {
	// Method is the HTTP method. Empty means GET.
	Method string

	// Path is the request path, joined to the configured base URL.
	Path string

	// Query holds optional query parameters.
	Query url.Values

	// Header holds optional extra headers for this request.
	Header http.Header

	// Body is JSON-marshalled into the request body when non-nil.
	Body any
}

// method returns the effective HTTP method.
func (d RequestDescriptor) method() string {
	if d.Method == "" {
		return http.MethodGet
	}
	return d.Method
}

// Idempotent reports whether the request is a cacheable, retryable read.
func (d RequestDescriptor) Idempotent() bool {
	switch d.method() {
	case http.MethodGet, http.MethodHead:
		return true
	}
	return false
}

// Details identifies the request for error reporting.
func (d RequestDescriptor) Details() string {
	return d.method() + " " + d.Path
}

// CallOptions control caching and deduplication for a single call.
type CallOptions struct {
	// CacheKey enables response caching under this key. Empty disables
	// caching for the call. Mutating requests are never cached
	// regardless of this value.
	CacheKey string

	// TTL overrides the store's default TTL for this entry.
	TTL time.Duration

	// Deduplicate coalesces concurrent identical reads into one
	// underlying request.
	Deduplicate bool

	// UseValidationToken sends the stored validation token (ETag) so the
	// server can answer with 304 Not Modified.
	UseValidationToken bool
}
