// Package stream owns the server-push connection that delivers an
// assistant reply incrementally for one (application, chat) pair.
//
// A Session walks a fixed state machine: Idle, Connecting, Connected,
// Streaming, and one of the terminal states Done, Errored or Cancelled.
// Every outcome, success and failure alike, is delivered through a
// single Handler callback; the session never reports errors through a
// second channel. While the connection is live a heartbeat probe
// verifies the server-side session still exists, and explicit
// cancellation issues a best-effort stop call so server-side generation
// halts.
//
// Exactly one Session per chat may be live at a time; the caller must
// Cleanup any previous session before starting a replacement.
package stream
