// Package observe provides the logging, tracing and metrics used while a
// process resolves its configuration and uses it.
//
// An Observer owns the OpenTelemetry providers configured from Config. The
// Middleware wraps a single operation (resolving a key, signing a token)
// with a span, counters and a structured log line. Values that look like
// credentials are redacted by the Logger before they are written.
package observe
