package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lzy/jshow/config"
	"github.com/lzy/jshow/observe"
	"github.com/lzy/jshow/resilience"
	"github.com/lzy/jshow/secret"
	"github.com/lzy/jshow/token"
)

// app holds everything bootstrap builds. Properties are resolved once and
// handed to consumers explicitly.
type app struct {
	obs      observe.Observer
	mw       *observe.Middleware
	logger   observe.Logger
	source   config.Source
	loader   *config.Loader
	resolver *secret.Resolver
}

func newApp(ctx context.Context, cmd *cobra.Command, opts *globalOptions) (*app, error) {
	var sources []config.Source
	if len(opts.envFiles) > 0 {
		dotenv, err := config.NewDotenvSource(opts.envFiles...)
		if err != nil {
			return nil, err
		}
		sources = append(sources, dotenv)
	}
	sources = append(sources, config.NewEnvSource(opts.envPrefix))
	source := config.Chain(sources...)

	set, err := loadSettings(ctx, source, opts.flags, cmd.Flags().Changed)
	if err != nil {
		return nil, err
	}

	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: "jshow",
		Version:     Version,
		Tracing: observe.TracingConfig{
			Enabled:   set.TraceExporter != "none",
			Exporter:  set.TraceExporter,
			SamplePct: 1.0,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  set.MetricsExporter != "none",
			Exporter: set.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   set.LogLevel,
			Writer:  cmd.ErrOrStderr(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("observer: %w", err)
	}

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, fmt.Errorf("middleware: %w", err)
	}

	a := &app{obs: obs, mw: mw, logger: obs.Logger(), source: source}

	a.resolver, err = newResolver(set.SecretDir, opts.envFiles)
	if err != nil {
		_ = a.close(ctx)
		return nil, err
	}

	policy := config.MissingFail
	if set.AllowMissing {
		policy = config.MissingEmpty
	}
	a.loader = config.NewLoader(a.source,
		config.WithMissingPolicy(policy),
		config.WithResolver(a.resolver),
		config.WithMiddleware(mw),
		config.WithLogger(a.logger),
	)
	return a, nil
}

// loadSettings binds settings from src, then applies the flags the user
// set explicitly.
func loadSettings(ctx context.Context, src config.Source, flags settings, changed func(string) bool) (settings, error) {
	var set settings
	if err := config.Bind(ctx, src, &set); err != nil {
		return settings{}, fmt.Errorf("settings: %w", err)
	}

	if changed("allow-missing") {
		set.AllowMissing = flags.AllowMissing
	}
	if changed("secret-dir") {
		set.SecretDir = flags.SecretDir
	}
	if changed("log-level") {
		set.LogLevel = flags.LogLevel
	}
	if changed("trace-exporter") {
		set.TraceExporter = flags.TraceExporter
	}
	if changed("metrics-exporter") {
		set.MetricsExporter = flags.MetricsExporter
	}
	set.LogLevel = strings.ToLower(set.LogLevel)
	return set, nil
}

func newResolver(secretDir string, envFiles []string) (*secret.Resolver, error) {
	reg := secret.NewDefaultRegistry()

	env, err := reg.Create("env", nil)
	if err != nil {
		return nil, err
	}
	file, err := reg.Create("file", map[string]any{"dir": secretDir})
	if err != nil {
		return nil, err
	}
	providers := []secret.Provider{env, file}

	// secretref:dotenv: reads from the last --env-file, matching the
	// precedence DotenvSource applies.
	if n := len(envFiles); n > 0 {
		dotenv, err := reg.Create("dotenv", map[string]any{"path": envFiles[n-1]})
		if err != nil {
			return nil, err
		}
		providers = append(providers, dotenv)
	}

	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     time.Second,
		Strategy:     resilience.BackoffExponential,
		Jitter:       true,
	})
	return secret.NewResolver(
		secret.WithProviders(providers...),
		secret.WithStrict(false),
		secret.WithRetry(retry),
	), nil
}

// properties resolves tokenSign. It is called once per command run.
func (a *app) properties(ctx context.Context) (*config.Properties, error) {
	props, err := a.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Info(ctx, "configuration resolved",
		observe.Field{Key: "config.key", Value: config.KeyTokenSign},
		observe.Field{Key: "config.source", Value: props.Source()},
	)
	return props, nil
}

func (a *app) tokenConfig(ctx context.Context) (token.Config, error) {
	return token.LoadConfig(ctx, a.loader)
}

func (a *app) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	var errs []error
	if a.resolver != nil {
		errs = append(errs, a.resolver.Close())
	}
	errs = append(errs, a.obs.Shutdown(ctx))
	return errors.Join(errs...)
}

// withApp bootstraps an app for the duration of fn.
func withApp(ctx context.Context, cmd *cobra.Command, opts *globalOptions, fn func(*app) error) (err error) {
	a, err := newApp(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}
