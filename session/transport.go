package session

import "net/http"

// Transport is an http.RoundTripper decorator that stamps the session
// identifier header (and optional static headers) onto every request.
//
// Usage:
//
//	client := &http.Client{
//	    Transport: &session.Transport{Provider: provider},
//	}
type Transport struct {
	// Base performs the actual round trip.
	// If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	// Provider supplies the session identifier.
	Provider *Provider

	// Header is the identifier header name. Empty means DefaultHeader.
	Header string

	// Static headers are added to every request (for example an opaque
	// Authorization value).
	Static http.Header
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// Per the RoundTripper contract the request must not be mutated.
	clone := req.Clone(req.Context())

	if t.Provider != nil {
		id, err := t.Provider.ID(req.Context())
		if err != nil {
			return nil, err
		}
		header := t.Header
		if header == "" {
			header = DefaultHeader
		}
		clone.Header.Set(header, id)
	}

	for k, vs := range t.Static {
		for _, v := range vs {
			clone.Header.Set(k, v)
		}
	}

	return base.RoundTrip(clone)
}

// Ensure Transport implements http.RoundTripper
var _ http.RoundTripper = (*Transport)(nil)
