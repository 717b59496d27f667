package stream

import "errors"

var (
	// ErrMissingBaseURL indicates no backend base URL was configured.
	ErrMissingBaseURL = errors.New("stream: missing base URL")

	// ErrMissingApp indicates no application ID was configured.
	ErrMissingApp = errors.New("stream: missing application ID")

	// ErrMissingChat indicates no chat ID was configured.
	ErrMissingChat = errors.New("stream: missing chat ID")

	// ErrMissingHandler indicates no event handler was configured.
	ErrMissingHandler = errors.New("stream: missing handler")

	// ErrAlreadyStarted indicates Start was called more than once.
	ErrAlreadyStarted = errors.New("stream: session already started")

	// ErrConnectTimeout indicates the push channel never reached
	// Connected within the connect timeout.
	ErrConnectTimeout = errors.New("stream: connect timeout")

	// ErrProtocol indicates the server sent an error event.
	ErrProtocol = errors.New("stream: server reported an error")
)
