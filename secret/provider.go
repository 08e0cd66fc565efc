package secret

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret
// values. A ref that does not exist must produce an error wrapping
// ErrNotFound.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
	Close() error
}

// EnvProvider resolves refs as environment variable names.
type EnvProvider struct{}

// NewEnvProvider creates an environment provider.
func NewEnvProvider() *EnvProvider { return &EnvProvider{} }

// Name returns "env".
func (p *EnvProvider) Name() string { return "env" }

// Resolve returns the value of the environment variable ref.
func (p *EnvProvider) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("env %q: %w", ref, ErrNotFound)
	}
	return v, nil
}

// Close is a no-op.
func (p *EnvProvider) Close() error { return nil }

// FileProvider resolves refs as file paths, the way container runtimes
// mount secrets (one value per file).
//
// When Dir is set, relative refs are resolved against it and refs that
// would escape it are rejected.
type FileProvider struct {
	dir string
}

// NewFileProvider creates a file provider rooted at dir ("" allows any path).
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

// Name returns "file".
func (p *FileProvider) Name() string { return "file" }

// Resolve reads the file named by ref. A single trailing newline is dropped.
func (p *FileProvider) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := p.path(ref)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("file %q: %w", ref, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("file %q: %w", ref, err)
	}

	s := string(data)
	if strings.HasSuffix(s, "\r\n") {
		return strings.TrimSuffix(s, "\r\n"), nil
	}
	return strings.TrimSuffix(s, "\n"), nil
}

func (p *FileProvider) path(ref string) (string, error) {
	if p.dir == "" {
		return filepath.Clean(ref), nil
	}
	if filepath.IsAbs(ref) {
		rel, err := filepath.Rel(p.dir, ref)
		if err != nil || !filepath.IsLocal(rel) {
			return "", fmt.Errorf("file %q outside %q: %w", ref, p.dir, ErrInvalidRef)
		}
		return filepath.Join(p.dir, rel), nil
	}
	if !filepath.IsLocal(ref) {
		return "", fmt.Errorf("file %q outside %q: %w", ref, p.dir, ErrInvalidRef)
	}
	return filepath.Join(p.dir, ref), nil
}

// Close is a no-op.
func (p *FileProvider) Close() error { return nil }

// DotenvProvider resolves refs as keys of a .env file. The file is parsed
// once when the provider is created; the process environment is untouched.
type DotenvProvider struct {
	path   string
	values map[string]string
}

// NewDotenvProvider parses the .env file at path.
func NewDotenvProvider(path string) (*DotenvProvider, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("secret: read dotenv %q: %w", path, err)
	}
	return &DotenvProvider{path: path, values: values}, nil
}

// Name returns "dotenv".
func (p *DotenvProvider) Name() string { return "dotenv" }

// Resolve returns the value of key ref in the parsed file.
func (p *DotenvProvider) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, ok := p.values[ref]
	if !ok {
		return "", fmt.Errorf("dotenv %q key %q: %w", p.path, ref, ErrNotFound)
	}
	return v, nil
}

// Close is a no-op.
func (p *DotenvProvider) Close() error { return nil }

var (
	_ Provider = (*EnvProvider)(nil)
	_ Provider = (*FileProvider)(nil)
	_ Provider = (*DotenvProvider)(nil)
)
