// Package gateway is the single entry point for request/response traffic
// against the chat backend.
//
// Every call flows through one pipeline: cache consultation, in-flight
// deduplication, transport, response validation, cache repopulation, and
// error normalization. Idempotent reads that fail with a pure network error
// are retried once through an explicit retry policy; server failures leave a
// short-lived cache placeholder that throttles repeat calls.
package gateway
