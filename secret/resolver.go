package secret

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/lzy/jshow/resilience"
)

const refPrefix = "secretref:"

// Resolver resolves secret references using registered providers.
//
// Values with the prefix "secretref:" are resolved via providers; inline
// references inside a longer string are replaced in place. Other text is
// returned unchanged unless env expansion is enabled.
//
// A Resolver is safe for concurrent use. Concurrent lookups of the same
// reference share one provider call.
type Resolver struct {
	mu        sync.RWMutex
	providers map[string]Provider

	strict    bool
	expandEnv bool
	retry     *resilience.Retry
	group     singleflight.Group
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithProviders registers providers at construction. Nil entries are skipped.
func WithProviders(providers ...Provider) ResolverOption {
	return func(r *Resolver) {
		for _, p := range providers {
			if p != nil {
				r.providers[p.Name()] = p
			}
		}
	}
}

// WithStrict makes empty provider values an error (ErrEmptyValue).
func WithStrict(strict bool) ResolverOption {
	return func(r *Resolver) { r.strict = strict }
}

// WithEnvExpansion runs ExpandEnvStrict over values before resolving refs.
func WithEnvExpansion(enabled bool) ResolverOption {
	return func(r *Resolver) { r.expandEnv = enabled }
}

// WithRetry retries failed provider calls. ErrNotFound, ErrInvalidRef and
// context errors are never retried.
func WithRetry(retry *resilience.Retry) ResolverOption {
	return func(r *Resolver) { r.retry = retry }
}

// NewResolver creates a resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{providers: make(map[string]Provider)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces a provider.
func (r *Resolver) Register(provider Provider) {
	if r == nil || provider == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// Providers returns the names of registered providers.
func (r *Resolver) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// ResolveValue resolves secret refs (and env vars, if enabled) in value.
// A nil Resolver returns value unchanged.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	if r == nil {
		return value, nil
	}

	if r.expandEnv {
		expanded, err := ExpandEnvStrict(value)
		if err != nil {
			return "", err
		}
		value = expanded
	}

	if providerName, ref, ok := ParseSecretRef(value); ok {
		return r.resolveSingle(ctx, providerName, ref)
	}
	if strings.HasPrefix(value, refPrefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, value)
	}
	return r.resolveInline(ctx, value)
}

// ResolveSlice resolves each value in values.
func (r *Resolver) ResolveSlice(ctx context.Context, values []string) ([]string, error) {
	resolved := make([]string, len(values))
	for i, v := range values {
		out, err := r.ResolveValue(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("resolve [%d]: %w", i, err)
		}
		resolved[i] = out
	}
	return resolved, nil
}

// ResolveMap resolves each value in input.
func (r *Resolver) ResolveMap(ctx context.Context, input map[string]string) (map[string]string, error) {
	if input == nil {
		return nil, nil
	}
	out := make(map[string]string, len(input))
	for k, v := range input {
		resolved, err := r.ResolveValue(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", k, err)
		}
		out[k] = resolved
	}
	return out, nil
}

// IsRef reports whether value is a complete secret reference.
func IsRef(value string) bool {
	_, _, ok := ParseSecretRef(value)
	return ok
}

// ParseSecretRef parses a full secret reference of the form:
//
//	secretref:<provider>:<ref>
func ParseSecretRef(value string) (provider string, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, refPrefix)
	if !found {
		return "", "", false
	}
	provider, ref, found = strings.Cut(rest, ":")
	if !found || provider == "" || ref == "" {
		return "", "", false
	}
	return provider, ref, true
}

// Close closes every registered provider and joins their errors.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, p := range r.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Resolver) resolveSingle(ctx context.Context, providerName, ref string) (string, error) {
	r.mu.RLock()
	provider, ok := r.providers[providerName]
	r.mu.RUnlock()
	if !ok || provider == nil {
		return "", fmt.Errorf("%w: %q", ErrProviderNotRegistered, providerName)
	}

	v, err, _ := r.group.Do(providerName+"\x00"+ref, func() (any, error) {
		return r.fetch(ctx, provider, ref)
	})
	if err != nil {
		return "", err
	}

	resolved := v.(string)
	if r.strict && resolved == "" {
		return "", fmt.Errorf("%w: provider %q", ErrEmptyValue, providerName)
	}
	return resolved, nil
}

func (r *Resolver) fetch(ctx context.Context, provider Provider, ref string) (string, error) {
	if r.retry == nil {
		return provider.Resolve(ctx, ref)
	}

	var out string
	var stop error
	err := r.retry.Execute(ctx, func(ctx context.Context) error {
		v, err := provider.Resolve(ctx, ref)
		if err != nil && permanent(err) {
			stop = err
			return nil
		}
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if stop != nil {
		return "", stop
	}
	return out, err
}

func permanent(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidRef) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

var inlineSecretRefPattern = regexp.MustCompile(`secretref:([^:\s]+):([^\s]+)`)

func (r *Resolver) resolveInline(ctx context.Context, value string) (string, error) {
	matches := inlineSecretRefPattern.FindAllStringSubmatchIndex(value, -1)
	if len(matches) == 0 {
		return value, nil
	}

	out := value
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		resolved, err := r.resolveSingle(ctx, out[m[2]:m[3]], out[m[4]:m[5]])
		if err != nil {
			return "", err
		}
		// Replacing from the end keeps earlier indexes valid.
		out = out[:m[0]] + resolved + out[m[1]:]
	}
	return out, nil
}
