package secret

import "errors"

var (
	// ErrNotFound is returned by providers when a ref does not exist.
	// Resolvers never retry it.
	ErrNotFound = errors.New("secret: not found")

	// ErrProviderNotRegistered indicates a reference names an unknown provider.
	ErrProviderNotRegistered = errors.New("secret: provider not registered")

	// ErrEmptyValue is returned in strict mode when a provider yields "".
	ErrEmptyValue = errors.New("secret: provider returned empty value")

	// ErrInvalidRef indicates a malformed or disallowed reference.
	ErrInvalidRef = errors.New("secret: invalid reference")

	// ErrMissingEnv indicates ${VAR} expansion hit an unset variable.
	ErrMissingEnv = errors.New("secret: missing required environment variables")
)
