package chat

import "errors"

var (
	// ErrMissingGateway indicates no gateway client was configured.
	ErrMissingGateway = errors.New("chat: missing gateway")

	// ErrMissingBaseURL indicates no backend base URL was configured.
	ErrMissingBaseURL = errors.New("chat: missing base URL")

	// ErrMissingApp indicates no application ID was configured.
	ErrMissingApp = errors.New("chat: missing application ID")

	// ErrMissingChat indicates a send with no chat ID.
	ErrMissingChat = errors.New("chat: missing chat ID")

	// ErrEmptyMessage indicates a send with no content.
	ErrEmptyMessage = errors.New("chat: empty message")
)
