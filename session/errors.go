package session

import "errors"

var (
	// ErrTokenMalformed indicates the bearer token could not be parsed.
	ErrTokenMalformed = errors.New("session: malformed token")

	// ErrNoExpiry indicates the token carries no expiry claim.
	ErrNoExpiry = errors.New("session: token has no expiry")
)
