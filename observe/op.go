package observe

import (
	"go.opentelemetry.io/otel/attribute"
)

// Op describes one observed operation.
type Op struct {
	// Component is the subsystem, e.g. "config" or "token".
	Component string
	// Name is the operation, e.g. "resolve" or "sign". Required.
	Name string
	// Key is the configuration key involved, if any.
	Key string
	// Source names where a value came from, if known.
	Source string
}

// SpanName returns <component>.<name>, or just the name.
func (o Op) SpanName() string {
	if o.Component != "" {
		return o.Component + "." + o.Name
	}
	return o.Name
}

// Validate reports whether the op can be recorded.
func (o Op) Validate() error {
	if o.Name == "" {
		return ErrMissingOpName
	}
	return nil
}

func (o Op) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("jshow.op", o.SpanName()),
	}
	if o.Component != "" {
		attrs = append(attrs, attribute.String("jshow.component", o.Component))
	}
	if o.Key != "" {
		attrs = append(attrs, attribute.String("config.key", o.Key))
	}
	if o.Source != "" {
		attrs = append(attrs, attribute.String("config.source", o.Source))
	}
	return attrs
}

func (o Op) fields() []Field {
	fields := []Field{{Key: "op", Value: o.SpanName()}}
	if o.Key != "" {
		fields = append(fields, Field{Key: "config.key", Value: o.Key})
	}
	if o.Source != "" {
		fields = append(fields, Field{Key: "config.source", Value: o.Source})
	}
	return fields
}
