package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Metric names recorded by Metrics.
const (
	MetricOpTotal    = "jshow.op.total"
	MetricOpErrors   = "jshow.op.errors"
	MetricOpDuration = "jshow.op.duration_ms"
)

// Metrics records operation counts and latency.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	RecordOp(ctx context.Context, op Op, duration time.Duration, err error)
}

type otelMetrics struct {
	total    metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics registers the operation instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	total, err := meter.Int64Counter(MetricOpTotal,
		metric.WithDescription("Total number of operations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter(MetricOpErrors,
		metric.WithDescription("Total number of failed operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(MetricOpDuration,
		metric.WithDescription("Operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{total: total, errors: errs, duration: duration}, nil
}

func (m *otelMetrics) RecordOp(ctx context.Context, op Op, duration time.Duration, err error) {
	// Key and source only; values never become attributes.
	opt := metric.WithAttributes(op.attributes()...)

	m.total.Add(ctx, 1, opt)
	if err != nil {
		m.errors.Add(ctx, 1, opt)
	}
	m.duration.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}
