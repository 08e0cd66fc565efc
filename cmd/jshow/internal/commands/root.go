// Package commands implements the jshow command tree.
package commands

import (
	"github.com/spf13/cobra"
)

// Version is stamped at build time.
var Version = "dev"

// settings are the bootstrap options. Each may come from an --env-file or
// the environment (with --env-prefix applied); an explicit flag wins.
type settings struct {
	AllowMissing    bool   `env:"ALLOW_MISSING"`
	SecretDir       string `env:"SECRET_DIR"`
	LogLevel        string `env:"LOG_LEVEL" default:"info"`
	TraceExporter   string `env:"TRACE_EXPORTER" default:"none"`
	MetricsExporter string `env:"METRICS_EXPORTER" default:"none"`
}

type globalOptions struct {
	envFiles  []string
	envPrefix string
	flags     settings
}

// NewRootCmd builds the jshow command with all sub-commands registered.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "jshow",
		Short: "Token signing backed by externally supplied configuration",
		Long: `jshow resolves the tokenSign secret once at startup and uses it to sign
and verify tokens.

tokenSign is looked up in --env-file files (last file wins), then in the
environment as tokenSign, TOKEN_SIGN or <PREFIX>_TOKEN_SIGN. A value of the
form secretref:<provider>:<ref> is resolved through the env, file or dotenv
secret providers.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringArrayVar(&opts.envFiles, "env-file", nil, "dotenv file to read (repeatable)")
	f.StringVar(&opts.envPrefix, "env-prefix", "JSHOW", "prefix for environment variable lookups")
	f.BoolVar(&opts.flags.AllowMissing, "allow-missing", false, "resolve an absent tokenSign to an empty value instead of failing (ALLOW_MISSING)")
	f.StringVar(&opts.flags.SecretDir, "secret-dir", "", "base directory for secretref:file: references (SECRET_DIR)")
	f.StringVar(&opts.flags.LogLevel, "log-level", "info", "log level: debug|info|warn|error (LOG_LEVEL)")
	f.StringVar(&opts.flags.TraceExporter, "trace-exporter", "none", "trace exporter: otlp|jaeger|stdout|none (TRACE_EXPORTER)")
	f.StringVar(&opts.flags.MetricsExporter, "metrics-exporter", "none", "metrics exporter: otlp|prometheus|stdout|none (METRICS_EXPORTER)")

	root.AddCommand(
		newTokenCmd(opts),
		newConfigCmd(opts),
		newServeCmd(opts),
	)
	return root
}
