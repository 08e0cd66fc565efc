package config

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/lzy/jshow/observe"
	"github.com/lzy/jshow/secret"
)

func TestLoader_Load(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"plain value", "abc123"},
		{"empty value is kept", ""},
		{"dollar signs are not expanded", "a$b${c}"},
		{"whitespace is kept", "  spaced  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewLoader(NewMapSource("static", map[string]string{KeyTokenSign: tt.value}))

			props, err := loader.Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got := props.TokenSign(); got != tt.value {
				t.Errorf("TokenSign() = %q, want %q", got, tt.value)
			}
			if props.Source() != "static" {
				t.Errorf("Source() = %q, want static", props.Source())
			}
		})
	}
}

func TestLoader_Load_OnlyWholeReferencesResolve(t *testing.T) {
	t.Setenv("JSHOWTEST_REF_TARGET", "resolved")
	resolver := secret.NewResolver(secret.WithProviders(secret.NewEnvProvider()))

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"reference", "secretref:env:JSHOWTEST_REF_TARGET", "resolved"},
		{"embedded reference", "abc secretref:env:JSHOWTEST_REF_TARGET", "abc secretref:env:JSHOWTEST_REF_TARGET"},
		{"bare prefix", "secretref:", "secretref:"},
		{"prefix without ref", "secretref:nokey", "secretref:nokey"},
		{"empty ref", "secretref:env:", "secretref:env:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewLoader(
				NewMapSource("static", map[string]string{KeyTokenSign: tt.value}),
				WithResolver(resolver),
			)
			props, err := loader.Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got := props.TokenSign(); got != tt.want {
				t.Errorf("TokenSign() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoader_Lookup(t *testing.T) {
	var logs bytes.Buffer
	mw := observe.NewMiddleware(nil, nil, observe.NewLoggerWithWriter("debug", &logs))
	loader := NewLoader(NewMapSource("static", map[string]string{"present": "x"}),
		WithDefault("defaulted", "d"),
		WithMiddleware(mw),
	)
	ctx := context.Background()

	r, found, err := loader.Lookup(ctx, "present")
	if err != nil || !found || r.Value != "x" || r.Source != "static" {
		t.Errorf("Lookup(present) = %+v, %v, %v", r, found, err)
	}
	r, found, err = loader.Lookup(ctx, "defaulted")
	if err != nil || !found || !r.Defaulted {
		t.Errorf("Lookup(defaulted) = %+v, %v, %v", r, found, err)
	}
	r, found, err = loader.Lookup(ctx, "absent")
	if err != nil || found || r.Value != "" {
		t.Errorf("Lookup(absent) = %+v, %v, %v", r, found, err)
	}
	if strings.Contains(logs.String(), `"level":"error"`) {
		t.Errorf("Lookup logged an error: %s", logs.String())
	}
}

func TestLoader_MissingFailsByDefault(t *testing.T) {
	loader := NewLoader(NewMapSource("static", nil))

	props, err := loader.Load(context.Background())
	if props != nil {
		t.Errorf("Load() props = %v, want nil", props)
	}
	if !errors.Is(err, ErrKeyMissing) {
		t.Fatalf("Load() error = %v, want ErrKeyMissing", err)
	}
	var keyErr *KeyError
	if !errors.As(err, &keyErr) || keyErr.Key != KeyTokenSign || keyErr.Source != "static" {
		t.Errorf("Load() error = %#v", err)
	}
}

func TestLoader_MissingEmptyPolicy(t *testing.T) {
	var logs bytes.Buffer
	loader := NewLoader(NewMapSource("static", nil),
		WithMissingPolicy(MissingEmpty),
		WithLogger(observe.NewLoggerWithWriter("info", &logs)),
	)

	r, err := loader.Resolve(context.Background(), KeyTokenSign)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if r.Value != "" || !r.Missing || r.Defaulted {
		t.Errorf("Resolve() = %+v", r)
	}
	if !strings.Contains(logs.String(), "configuration key missing") {
		t.Errorf("expected warning, got %q", logs.String())
	}
}

func TestLoader_Default(t *testing.T) {
	loader := NewLoader(NewMapSource("static", map[string]string{"present": "x"}),
		WithDefault("absent", "fallback"),
		WithDefault("present", "unused"),
	)
	ctx := context.Background()

	r, err := loader.Resolve(ctx, "absent")
	if err != nil || r.Value != "fallback" || !r.Defaulted || r.Source != "default" {
		t.Errorf("Resolve(absent) = %+v, %v", r, err)
	}
	r, err = loader.Resolve(ctx, "present")
	if err != nil || r.Value != "x" || r.Defaulted {
		t.Errorf("Resolve(present) = %+v, %v", r, err)
	}
}

func TestLoader_SourceError(t *testing.T) {
	boom := errors.New("store unavailable")
	loader := NewLoader(failingSource{err: boom}, WithMissingPolicy(MissingEmpty))

	_, err := loader.Load(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Load() error = %v, want %v", err, boom)
	}
	var keyErr *KeyError
	if !errors.As(err, &keyErr) || keyErr.Source != "failing" {
		t.Errorf("Load() error = %v", err)
	}
}

func TestLoader_SecretReference(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "token_sign"), []byte("from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	resolver := secret.NewResolver(secret.WithProviders(secret.NewFileProvider(dir)))

	loader := NewLoader(
		NewMapSource("static", map[string]string{KeyTokenSign: "secretref:file:token_sign"}),
		WithResolver(resolver),
	)
	props, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if props.TokenSign() != "from-file" {
		t.Errorf("TokenSign() = %q, want from-file", props.TokenSign())
	}

	loader = NewLoader(
		NewMapSource("static", map[string]string{KeyTokenSign: "secretref:file:missing"}),
		WithResolver(resolver),
	)
	if _, err := loader.Load(context.Background()); !errors.Is(err, secret.ErrNotFound) {
		t.Errorf("Load() error = %v, want secret.ErrNotFound", err)
	}
}

func TestLoader_SecretReferenceWithoutResolver(t *testing.T) {
	loader := NewLoader(NewMapSource("static", map[string]string{KeyTokenSign: "secretref:file:x"}))

	props, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if props.TokenSign() != "secretref:file:x" {
		t.Errorf("TokenSign() = %q", props.TokenSign())
	}
}

func TestLoader_EnvExpansion(t *testing.T) {
	t.Setenv("JSHOWTEST_SIGN_PART", "abc")
	src := NewMapSource("static", map[string]string{KeyTokenSign: "${JSHOWTEST_SIGN_PART}123", "bad": "${JSHOWTEST_UNSET_PART}"})
	loader := NewLoader(src, WithEnvExpansion(true))

	props, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if props.TokenSign() != "abc123" {
		t.Errorf("TokenSign() = %q, want abc123", props.TokenSign())
	}
	if _, err := loader.String(context.Background(), "bad"); !errors.Is(err, secret.ErrMissingEnv) {
		t.Errorf("String(bad) error = %v", err)
	}
}

func TestLoader_ObservesResolution(t *testing.T) {
	var logs bytes.Buffer
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	mw := observe.NewMiddleware(observe.NewTracer(tp.Tracer("test")), nil, observe.NewLoggerWithWriter("debug", &logs))
	loader := NewLoader(NewMapSource("static", map[string]string{KeyTokenSign: "abc123"}), WithMiddleware(mw))

	if _, err := loader.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	out := logs.String()
	if !strings.Contains(out, "config.resolve completed") || !strings.Contains(out, KeyTokenSign) {
		t.Errorf("expected resolution log, got %q", out)
	}
	if !strings.Contains(out, `"config.source":"static"`) {
		t.Errorf("resolution log missing source: %q", out)
	}

	ended := spans.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	want := attribute.String("config.source", "static")
	found := false
	for _, a := range ended[0].Attributes() {
		if a == want {
			found = true
		}
	}
	if !found {
		t.Errorf("span attributes missing %v: %v", want, ended[0].Attributes())
	}
	if strings.Contains(out, "abc123") {
		t.Errorf("resolution log leaked the value: %q", out)
	}
}

func TestLoader_NilSource(t *testing.T) {
	_, err := NewLoader(nil).Load(context.Background())
	if !errors.Is(err, ErrKeyMissing) {
		t.Errorf("Load() error = %v, want ErrKeyMissing", err)
	}
}

func TestMissingPolicy_String(t *testing.T) {
	if MissingFail.String() != "fail" || MissingEmpty.String() != "empty" {
		t.Errorf("String() = %q, %q", MissingFail, MissingEmpty)
	}
}

func TestKeyError_Message(t *testing.T) {
	err := &KeyError{Key: "tokenSign", Source: "env", Err: ErrKeyMissing}
	if err.Error() != "config: tokenSign (from env): config: key missing" {
		t.Errorf("Error() = %q", err.Error())
	}
	err = &KeyError{Key: "tokenSign", Err: ErrKeyMissing}
	if err.Error() != "config: tokenSign: config: key missing" {
		t.Errorf("Error() = %q", err.Error())
	}
}
