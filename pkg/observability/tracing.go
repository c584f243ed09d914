// Package observability provides OpenTelemetry tracing for pipeline runs
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ajitpratap0/creditrisk"

// Tracer returns the tracer of the currently installed provider
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Span wraps an otel span and collects attributes until End
type Span struct {
	span       trace.Span
	startTime  time.Time
	attributes []attribute.KeyValue
}

// NewSpan starts a span named operationName as a child of ctx
func NewSpan(ctx context.Context, operationName string) (context.Context, *Span) {
	ctx, span := Tracer().Start(ctx, operationName)

	return ctx, &Span{
		span:      span,
		startTime: time.Now(),
	}
}

// SetAttribute adds an attribute; attributes are flushed on End
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	case []string:
		attr = attribute.StringSlice(key, v)
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// AddEvent adds an event to the span
func (s *Span) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetStatus sets the span status
func (s *Span) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

// RecordError marks the span failed with err; a nil err marks it ok
func (s *Span) RecordError(err error) {
	if err == nil {
		s.span.SetStatus(codes.Ok, "")
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// Duration returns the time since the span started
func (s *Span) Duration() time.Duration {
	return time.Since(s.startTime)
}

// End flushes attributes and ends the span
func (s *Span) End() {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	s.span.End()
}

// StepTracer creates spans for the steps of one pipeline
type StepTracer struct {
	pipeline string
}

// NewStepTracer creates a tracer for the named pipeline
func NewStepTracer(pipeline string) *StepTracer {
	return &StepTracer{pipeline: pipeline}
}

// StartSpan starts a span for a pipeline-level operation such as "run"
func (st *StepTracer) StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	ctx, span := NewSpan(ctx, fmt.Sprintf("%s.%s", st.pipeline, operation))
	span.SetAttribute("pipeline.name", st.pipeline)
	span.SetAttribute("pipeline.operation", operation)
	return ctx, span
}

// TraceStep runs fn inside a span named after the step. The span records
// the row count of the primary table and fn's error.
func (st *StepTracer) TraceStep(ctx context.Context, step string, rows int, fn func(ctx context.Context) error) error {
	ctx, span := NewSpan(ctx, fmt.Sprintf("%s.step.%s", st.pipeline, step))
	defer span.End()

	span.SetAttribute("pipeline.name", st.pipeline)
	span.SetAttribute("step.name", step)
	span.SetAttribute("table.rows", rows)

	err := fn(ctx)
	span.RecordError(err)
	return err
}
