package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the expiry (exp claim) from a bearer token without
// validating its signature. The caller only needs to know when to ask
// for a fresh credential, so signature verification is left to the
// server that issued it.
//
// The raw value may carry a "Bearer " prefix.
func TokenExpiry(raw string) (time.Time, error) {
	tokenString := strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	if tokenString == "" {
		return time.Time{}, ErrTokenMalformed
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, ErrTokenMalformed
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, ErrNoExpiry
	}

	return exp.Time, nil
}

// ExpiresWithin reports whether the token expires within the given
// margin of now. A token with no readable expiry is treated as expired.
func ExpiresWithin(raw string, margin time.Duration) bool {
	exp, err := TokenExpiry(raw)
	if err != nil {
		return true
	}
	return time.Until(exp) <= margin
}
