package config

import (
	"errors"
	"fmt"
)

// ErrKeyMissing indicates no source supplied a key and no default applied.
var ErrKeyMissing = errors.New("config: key missing")

// ErrInvalidValue indicates a value could not be parsed into its type.
var ErrInvalidValue = errors.New("config: invalid value")

// KeyError reports a failure to resolve one key.
type KeyError struct {
	Key    string
	Source string
	Err    error
}

func (e *KeyError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("config: %s (from %s): %v", e.Key, e.Source, e.Err)
	}
	return fmt.Sprintf("config: %s: %v", e.Key, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }
