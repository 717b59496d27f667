// Package cache provides a TTL response cache for API calls.
//
// It provides a Store interface with a memory implementation, SHA-256-based
// key derivation from resource names and parameters, and TTL policies with
// short-lived error placeholders that throttle calls to failing endpoints.
package cache
