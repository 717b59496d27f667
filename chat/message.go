package chat

// Role identifies who authored a message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Status is the lifecycle state of a message.
type Status int

const (
	// StatusPending means the message is a placeholder awaiting content.
	StatusPending Status = iota

	// StatusStreaming means chunks are arriving.
	StatusStreaming

	// StatusComplete means the message is final.
	StatusComplete

	// StatusError means the turn failed; Content carries a localized
	// description and the caller may offer a retry.
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusStreaming:
		return "streaming"
	case StatusComplete:
		return "complete"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Meta carries message attachments: variables, images, files.
type Meta map[string]any

// Message is one entry in the conversation transcript.
type Message struct {
	// ID uniquely identifies the message.
	ID string

	// ExchangeID correlates a user turn with its assistant reply.
	ExchangeID string

	// Role is the author.
	Role Role

	// Content is the message text. Mutated in place while streaming.
	Content string

	// Status is the lifecycle state.
	Status Status

	// FinishReason records why generation ended, for assistant messages.
	FinishReason string

	// Meta carries attachments.
	Meta Meta
}
