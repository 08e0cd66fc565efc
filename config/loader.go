package config

import (
	"context"

	"github.com/lzy/jshow/observe"
	"github.com/lzy/jshow/secret"
)

// MissingPolicy decides what an absent key without a default becomes.
type MissingPolicy int

const (
	// MissingFail returns ErrKeyMissing, aborting startup.
	MissingFail MissingPolicy = iota
	// MissingEmpty resolves the key to "" and logs a warning.
	MissingEmpty
)

func (p MissingPolicy) String() string {
	if p == MissingEmpty {
		return "empty"
	}
	return "fail"
}

// Resolved describes how a key was resolved.
type Resolved struct {
	Key    string
	Value  string
	Source string

	// Defaulted is set when the value came from WithDefault.
	Defaulted bool
	// Missing is set when MissingEmpty supplied "".
	Missing bool
}

// Loader resolves keys from a Source. It is the only place that decides
// defaults and missing-key behavior.
type Loader struct {
	source    Source
	policy    MissingPolicy
	defaults  map[string]string
	resolver  *secret.Resolver
	expandEnv bool
	mw        *observe.Middleware
	logger    observe.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithMissingPolicy sets the policy for absent keys. Default: MissingFail.
func WithMissingPolicy(p MissingPolicy) LoaderOption {
	return func(l *Loader) { l.policy = p }
}

// WithDefault supplies value, used literally, when no source has key.
func WithDefault(key, value string) LoaderOption {
	return func(l *Loader) { l.defaults[key] = value }
}

// WithResolver resolves "secretref:" values through r.
func WithResolver(r *secret.Resolver) LoaderOption {
	return func(l *Loader) { l.resolver = r }
}

// WithEnvExpansion expands ${VAR} in values before secret resolution.
func WithEnvExpansion(enabled bool) LoaderOption {
	return func(l *Loader) { l.expandEnv = enabled }
}

// WithMiddleware observes each resolution.
func WithMiddleware(mw *observe.Middleware) LoaderOption {
	return func(l *Loader) {
		if mw != nil {
			l.mw = mw
		}
	}
}

// WithLogger sets the logger used for warnings.
func WithLogger(logger observe.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a Loader reading from src.
func NewLoader(src Source, opts ...LoaderOption) *Loader {
	if src == nil {
		src = Chain()
	}
	l := &Loader{
		source:   src,
		defaults: make(map[string]string),
		mw:       observe.NopMiddleware(),
		logger:   observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves the application Properties.
func (l *Loader) Load(ctx context.Context) (*Properties, error) {
	r, err := l.Resolve(ctx, KeyTokenSign)
	if err != nil {
		return nil, err
	}
	return &Properties{tokenSign: r.Value, source: r.Source}, nil
}

// Resolve looks key up, applies defaults and the missing policy, then
// resolves a value that is exactly one secret reference. Any other value
// is returned verbatim.
func (l *Loader) Resolve(ctx context.Context, key string) (Resolved, error) {
	var out Resolved
	err := l.mw.Observe(ctx, observe.Op{Component: "config", Name: "resolve", Key: key}, func(ctx context.Context) error {
		var (
			found bool
			err   error
		)
		out, found, err = l.lookup(ctx, key)
		if err != nil || found {
			return err
		}

		if l.policy == MissingEmpty {
			out.Missing = true
			l.logger.Warn(ctx, "configuration key missing, using empty value",
				observe.Field{Key: "config.key", Value: key},
				observe.Field{Key: "config.source", Value: l.source.Name()},
			)
			return nil
		}
		return &KeyError{Key: key, Source: l.source.Name(), Err: ErrKeyMissing}
	})
	return out, err
}

// Lookup is Resolve for optional keys: an absent key without a default
// reports found=false and is not an error. The missing policy is not applied.
func (l *Loader) Lookup(ctx context.Context, key string) (Resolved, bool, error) {
	var (
		out   Resolved
		found bool
	)
	err := l.mw.Observe(ctx, observe.Op{Component: "config", Name: "lookup", Key: key}, func(ctx context.Context) error {
		var err error
		out, found, err = l.lookup(ctx, key)
		return err
	})
	return out, found, err
}

func (l *Loader) lookup(ctx context.Context, key string) (Resolved, bool, error) {
	out := Resolved{Key: key}

	value, from, found, err := lookupFrom(ctx, l.source, key)
	if err != nil {
		return out, false, &KeyError{Key: key, Source: from, Err: err}
	}

	switch {
	case found:
		out.Value, out.Source = value, from
	case l.hasDefault(key):
		out.Value, out.Source, out.Defaulted = l.defaults[key], "default", true
		observe.SetSource(ctx, out.Source)
		return out, true, nil
	default:
		return out, false, nil
	}
	observe.SetSource(ctx, from)

	if l.expandEnv {
		if out.Value, err = secret.ExpandEnvStrict(out.Value); err != nil {
			return out, false, &KeyError{Key: key, Source: from, Err: err}
		}
	}
	if l.resolver != nil && secret.IsRef(out.Value) {
		if out.Value, err = l.resolver.ResolveValue(ctx, out.Value); err != nil {
			return out, false, &KeyError{Key: key, Source: from, Err: err}
		}
	}
	return out, true, nil
}

func (l *Loader) hasDefault(key string) bool {
	_, ok := l.defaults[key]
	return ok
}

// String resolves key as a string.
func (l *Loader) String(ctx context.Context, key string) (string, error) {
	r, err := l.Resolve(ctx, key)
	return r.Value, err
}

// Bind fills the env-tagged fields of dst from the loader's source. See
// the package-level Bind.
func (l *Loader) Bind(ctx context.Context, dst any) error {
	return l.mw.Observe(ctx, observe.Op{Component: "config", Name: "bind"}, func(ctx context.Context) error {
		return Bind(ctx, l.source, dst)
	})
}
