// Package chat orchestrates a conversation: it owns the message store,
// starts one streaming session per turn, and translates session events
// into message-state mutations.
//
// SendMessage creates a user message and an assistant placeholder
// sharing an exchange id, opens the push channel, and submits the
// payload once the channel reports itself connected. Chunks stream into
// the assistant message in place; errors and cancellation mark it
// rather than removing it, so the visible transcript never loses a
// turn to a transient failure.
package chat
