package stream

// State is the lifecycle phase of a streaming session.
type State int

const (
	// Idle means the session has been created but not started.
	Idle State = iota

	// Connecting means the push channel is being opened; the connect
	// timeout timer is armed.
	Connecting

	// Connected means the channel is ready and the payload may be
	// submitted.
	Connected

	// Streaming means at least one chunk has arrived.
	Streaming

	// Done means the server finished generating. Terminal.
	Done

	// Errored means the session failed (timeout, transport failure, or
	// a server error event). Terminal.
	Errored

	// Cancelled means the session was stopped by the caller or force
	// cleaned after the server reported it inactive. Terminal.
	Cancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Streaming:
		return "streaming"
	case Done:
		return "done"
	case Errored:
		return "errored"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final. A terminal session never
// transitions again and never invokes its handler again.
func (s State) Terminal() bool {
	return s == Done || s == Errored || s == Cancelled
}
