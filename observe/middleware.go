package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Middleware wraps operations with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Observe is safe for concurrent use.
//   - Errors: the wrapped function's error is recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil arguments get no-op defaults.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NewTracer(tracenoop.NewTracerProvider().Tracer("noop"))
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// NopMiddleware returns a Middleware that records nothing.
func NopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// Observe runs fn inside a span for op. Successful operations are logged
// at debug level, failures at error level.
func (m *Middleware) Observe(ctx context.Context, op Op, fn func(ctx context.Context) error) error {
	if err := op.Validate(); err != nil {
		return err
	}

	ctx, span := m.tracer.StartSpan(ctx, op)
	ctx = context.WithValue(ctx, opKey{}, &op)
	start := time.Now()

	err := fn(ctx)

	duration := time.Since(start)
	m.tracer.EndSpan(span, err)
	m.metrics.RecordOp(ctx, op, duration, err)

	fields := append(op.fields(), Field{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000})
	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err.Error()})
		m.logger.Error(ctx, op.SpanName()+" failed", fields...)
	} else {
		m.logger.Debug(ctx, op.SpanName()+" completed", fields...)
	}
	return err
}

type opKey struct{}

// SetSource records where the value handled by the running operation came
// from. It annotates the current span and the metrics and log line Observe
// emits when the operation ends. Call it from the goroutine running fn.
func SetSource(ctx context.Context, source string) {
	if source == "" {
		return
	}
	if op, ok := ctx.Value(opKey{}).(*Op); ok {
		op.Source = source
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("config.source", source))
}

type nopMetrics struct{}

func (nopMetrics) RecordOp(context.Context, Op, time.Duration, error) {}
