package token

import "errors"

var (
	// ErrEmptySigningKey is returned when tokenSign resolved to "".
	ErrEmptySigningKey = errors.New("token: signing key is empty")

	// ErrMissingSubject is returned by Sign for an empty subject.
	ErrMissingSubject = errors.New("token: subject is required")

	ErrTokenExpired   = errors.New("token: expired")
	ErrTokenMalformed = errors.New("token: malformed")

	// ErrInvalidToken covers bad signatures, algorithms and claims.
	ErrInvalidToken = errors.New("token: invalid")
)
