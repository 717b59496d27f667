// Package session manages the per-tab session identifier that correlates
// every backend request with a server-side session.
//
// The identifier is generated once per Provider lifetime and renewed
// proactively before its validity window elapses. A Transport decorator
// stamps it onto outgoing requests; credentials themselves stay opaque,
// the package only inspects a bearer token's expiry timestamp.
package session
