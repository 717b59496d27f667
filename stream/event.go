package stream

// EventKind identifies the outcome a session delivers to its handler.
type EventKind int

const (
	// EventConnected means the push channel is open; the caller may now
	// submit the message payload.
	EventConnected EventKind = iota

	// EventChunk carries the cumulative reply text so far.
	EventChunk

	// EventDone carries the final text and a finish reason.
	EventDone

	// EventError carries a failure: connect timeout, transport failure,
	// or a server error event with an optional machine-readable code.
	EventError

	// EventCancelled means the session ended without a result, either by
	// explicit caller cancellation or because the server reported the
	// session inactive. Informational, not a failure.
	EventCancelled
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventChunk:
		return "chunk"
	case EventDone:
		return "done"
	case EventError:
		return "error"
	case EventCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Cancellation reasons carried on EventCancelled.
const (
	// ReasonUser means the caller cancelled explicitly.
	ReasonUser = "user"

	// ReasonInactive means a heartbeat probe found the server-side
	// session dead and the local session was force cleaned.
	ReasonInactive = "inactive"
)

// Event is the tagged union delivered to the Handler. Kind selects which
// fields are meaningful.
type Event struct {
	Kind EventKind

	// Content is the cumulative reply text. Set on EventChunk (the
	// running total, never a delta), and on EventDone and EventCancelled
	// (whatever had accumulated when the session ended).
	Content string

	// FinishReason is set on EventDone: "stop" for normal completion,
	// "length" when truncated, FinishConnectionClosed when the channel
	// closed without a done event, or whatever else the server sent.
	FinishReason string

	// Code is the machine-readable error code from a server error
	// event, when one was sent. Callers map it to a localized message.
	Code string

	// Message is the human-readable error description.
	Message string

	// Reason is set on EventCancelled: ReasonUser or ReasonInactive.
	Reason string

	// Err is set on EventError.
	Err error
}

// Handler receives every session outcome. It is invoked from the
// session's internal goroutines and must not block indefinitely. After a
// terminal event (or Cleanup) it is never invoked again.
type Handler func(Event)
