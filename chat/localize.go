package chat

// Message codes mapped through the Localizer. Stream error events may
// also carry server-defined codes; unknown codes fall back to the
// server's own message text.
const (
	// CodeCancelled marks a reply the user stopped mid-generation.
	CodeCancelled = "generation_cancelled"

	// CodeInactive marks a reply cut off because the server-side
	// session died.
	CodeInactive = "session_inactive"

	// CodeSendFailed marks a turn whose payload submission failed.
	CodeSendFailed = "send_failed"

	// CodeStreamError is the generic streaming failure.
	CodeStreamError = "stream_error"

	// CodeStreamTimeout marks a reply channel that never opened.
	CodeStreamTimeout = "stream_timeout"
)

// Localizer translates a message code into user-facing text. It returns
// the empty string for codes it does not know.
type Localizer func(code string) string

var englishMessages = map[string]string{
	CodeCancelled:     "Generation cancelled.",
	CodeInactive:      "The session is no longer active.",
	CodeSendFailed:    "Your message could not be sent. Please try again.",
	CodeStreamError:   "An error occurred while generating the reply.",
	CodeStreamTimeout: "The server took too long to respond.",
}

// DefaultLocalizer is the built-in English table.
func DefaultLocalizer(code string) string {
	return englishMessages[code]
}
