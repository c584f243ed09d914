package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestStepTracer_Disabled(t *testing.T) {
	if err := Initialize(DefaultTracingConfig()); err != nil {
		t.Fatalf("Initialize with tracing disabled should not fail: %v", err)
	}

	tracer := NewStepTracer("enrich")
	called := false
	err := tracer.TraceStep(context.Background(), "flag_insurance", 10, func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Errorf("TraceStep should not return error for successful step: %v", err)
	}
	if !called {
		t.Error("TraceStep should run the step")
	}
}

func TestStepTracer_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultTracingConfig()
	config.Enabled = true
	config.ServiceName = "creditrisk-test"
	config.Writer = &buf
	config.BatchTimeout = 10 * time.Millisecond

	if err := Initialize(config); err != nil {
		t.Fatalf("Failed to initialize tracing: %v", err)
	}
	if err := Initialize(config); err == nil {
		t.Error("second Initialize should fail while a provider is installed")
	}

	tracer := NewStepTracer("enrich")
	ctx, run := tracer.StartSpan(context.Background(), "run")

	testError := errors.New("column missing")
	err := tracer.TraceStep(ctx, "social_circle", 3, func(ctx context.Context) error {
		return testError
	})
	if err != testError {
		t.Errorf("TraceStep should return the original error: got %v, want %v", err, testError)
	}

	err = tracer.TraceStep(ctx, "drop_id", 3, func(ctx context.Context) error { return nil })
	if err != nil {
		t.Errorf("TraceStep should not return error for successful step: %v", err)
	}

	run.SetAttribute("steps", 2)
	run.SetAttribute("columns", []string{"a", "b"})
	run.End()

	if err := Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"enrich.step.social_circle", "enrich.step.drop_id", "enrich.run", "column missing"} {
		if !strings.Contains(out, want) {
			t.Errorf("exported spans should contain %q", want)
		}
	}
}

func TestShutdownWithoutProvider(t *testing.T) {
	if err := Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown without provider should be a no-op: %v", err)
	}
}

func TestSpanDuration(t *testing.T) {
	_, span := NewSpan(context.Background(), "sleep")
	time.Sleep(time.Millisecond)
	if span.Duration() < time.Millisecond {
		t.Error("span duration should cover the sleep")
	}
	span.RecordError(nil)
	span.End()
}
