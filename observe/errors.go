package observe

import "errors"

// Configuration errors.
var (
	// ErrMissingServiceName indicates Config.ServiceName is empty.
	ErrMissingServiceName = errors.New("observe: service name is required")

	// ErrInvalidSamplePct indicates Tracing.SamplePct is not in [0.0, 1.0].
	ErrInvalidSamplePct = errors.New("observe: sample percentage must be between 0.0 and 1.0")

	// ErrInvalidTracingExporter indicates an unknown tracing exporter name.
	ErrInvalidTracingExporter = errors.New("observe: unknown tracing exporter")

	// ErrInvalidMetricsExporter indicates an unknown metrics exporter name.
	ErrInvalidMetricsExporter = errors.New("observe: unknown metrics exporter")

	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("observe: unknown log level")
)

// ErrMissingOpName indicates Op.Name is empty.
var ErrMissingOpName = errors.New("observe: operation name is required")

// RedactedFields lists field keys whose values are never written by the
// Logger. Matching is case-insensitive.
var RedactedFields = []string{
	"password",
	"secret",
	"token",
	"tokenSign",
	"token_sign",
	"signing_key",
	"api_key",
	"apiKey",
	"credential",
	"value",
}
