package config

import (
	"context"
	"fmt"
	"maps"
	"os"
	"strings"
	"unicode"

	"github.com/joho/godotenv"
)

// Source supplies raw configuration strings by key.
//
// Lookup reports found=false for absent keys; err is reserved for a source
// that could not answer at all.
type Source interface {
	Name() string
	Lookup(ctx context.Context, key string) (value string, found bool, err error)
}

// EnvName maps a property key to its environment variable form:
// tokenSign -> TOKEN_SIGN, token.ttl -> TOKEN_TTL.
func EnvName(key string) string {
	var b strings.Builder
	runes := []rune(key)
	for i, r := range runes {
		switch {
		case r == '.' || r == '-':
			b.WriteByte('_')
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])):
			b.WriteByte('_')
			b.WriteRune(r)
		default:
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// EnvSource reads the process environment.
//
// A key is tried as <PREFIX>_<ENV_NAME> (when a prefix is set), then
// verbatim, then as its EnvName.
type EnvSource struct {
	prefix string
	lookup func(string) (string, bool)
}

// NewEnvSource creates an environment source. prefix may be empty.
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{prefix: strings.TrimSuffix(prefix, "_"), lookup: os.LookupEnv}
}

// Name returns "env".
func (s *EnvSource) Name() string { return "env" }

// Candidates returns the variable names tried for key, in order.
func (s *EnvSource) Candidates(key string) []string {
	name := EnvName(key)
	var out []string
	if s.prefix != "" {
		out = append(out, s.prefix+"_"+name)
	}
	out = append(out, key)
	if name != key {
		out = append(out, name)
	}
	return out
}

// Lookup returns the first candidate variable that is set, even if empty.
func (s *EnvSource) Lookup(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	for _, name := range s.Candidates(key) {
		if v, ok := s.lookup(name); ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

// MapSource serves a fixed set of values.
type MapSource struct {
	name   string
	values map[string]string
}

// NewMapSource copies values into a new source.
func NewMapSource(name string, values map[string]string) *MapSource {
	return &MapSource{name: name, values: maps.Clone(values)}
}

// Name returns the name given at construction.
func (s *MapSource) Name() string { return s.name }

// Lookup returns the value stored under key.
func (s *MapSource) Lookup(_ context.Context, key string) (string, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

// DotenvSource serves values parsed from .env files. When the same key
// appears in several files the last file wins. Keys are matched verbatim,
// then by EnvName.
type DotenvSource struct {
	name   string
	values map[string]string
}

// NewDotenvSource parses paths without touching the process environment.
func NewDotenvSource(paths ...string) (*DotenvSource, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("config: dotenv source needs at least one file")
	}
	values, err := godotenv.Read(paths...)
	if err != nil {
		return nil, fmt.Errorf("config: read dotenv: %w", err)
	}
	return &DotenvSource{name: "dotenv:" + strings.Join(paths, ","), values: values}, nil
}

// Name returns "dotenv:" followed by the file list.
func (s *DotenvSource) Name() string { return s.name }

// Lookup returns the value for key or its EnvName.
func (s *DotenvSource) Lookup(_ context.Context, key string) (string, bool, error) {
	if v, ok := s.values[key]; ok {
		return v, true, nil
	}
	v, ok := s.values[EnvName(key)]
	return v, ok, nil
}

// ChainSource consults sources in order; the first that finds a key wins.
type ChainSource struct {
	sources []Source
}

// Chain builds a precedence chain. Nil sources are skipped.
func Chain(sources ...Source) *ChainSource {
	c := &ChainSource{}
	for _, s := range sources {
		if s != nil {
			c.sources = append(c.sources, s)
		}
	}
	return c
}

// Name lists the chained sources.
func (c *ChainSource) Name() string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Lookup implements Source.
func (c *ChainSource) Lookup(ctx context.Context, key string) (string, bool, error) {
	v, _, found, err := c.LookupFrom(ctx, key)
	return v, found, err
}

// LookupFrom is Lookup that also names the source that answered.
func (c *ChainSource) LookupFrom(ctx context.Context, key string) (value, from string, found bool, err error) {
	for _, s := range c.sources {
		v, ok, err := s.Lookup(ctx, key)
		if err != nil {
			return "", s.Name(), false, err
		}
		if ok {
			return v, s.Name(), true, nil
		}
	}
	return "", "", false, nil
}

func lookupFrom(ctx context.Context, src Source, key string) (string, string, bool, error) {
	if c, ok := src.(*ChainSource); ok {
		return c.LookupFrom(ctx, key)
	}
	v, found, err := src.Lookup(ctx, key)
	return v, src.Name(), found, err
}

var (
	_ Source = (*EnvSource)(nil)
	_ Source = (*MapSource)(nil)
	_ Source = (*DotenvSource)(nil)
	_ Source = (*ChainSource)(nil)
)
