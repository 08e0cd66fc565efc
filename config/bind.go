package config

import (
	"context"
	"errors"
	"fmt"

	"go-simpler.org/env"
)

// Bind fills the fields of the struct pointed to by dst that carry an
// `env:"NAME"` tag, using src for lookups and `default:"..."` tags for
// absent names. Parsing, including time.Duration, is done by
// go-simpler.org/env.
//
// A field tagged `env:"NAME,required"` that no source supplies yields an
// error wrapping ErrKeyMissing; a value that does not parse yields one
// wrapping ErrInvalidValue.
func Bind(ctx context.Context, src Source, dst any) error {
	if src == nil {
		src = Chain()
	}
	lookup := &envLookup{ctx: ctx, src: src}

	err := env.Load(dst, &env.Options{Source: lookup})
	if lookup.err != nil {
		return lookup.err
	}

	var notSet *env.NotSetError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &notSet):
		return fmt.Errorf("%w: %v (from %s)", ErrKeyMissing, err, src.Name())
	default:
		return fmt.Errorf("%w: %v (from %s)", ErrInvalidValue, err, src.Name())
	}
}

// envLookup adapts a Source to env.Source. The first source failure is
// kept and later lookups report not found.
type envLookup struct {
	ctx context.Context
	src Source
	err error
}

func (e *envLookup) LookupEnv(name string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v, from, found, err := lookupFrom(e.ctx, e.src, name)
	if err != nil {
		e.err = &KeyError{Key: name, Source: from, Err: err}
		return "", false
	}
	return v, found
}

var _ env.Source = (*envLookup)(nil)
