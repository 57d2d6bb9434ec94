package logger

import (
	"context"
	"testing"
)

func TestStartSpanDisabledIsNoOp(t *testing.T) {
	if err := InitWithConfig(LogConfig{Level: "INFO", Format: "text", TracingEnabled: false}); err != nil {
		t.Fatalf("InitWithConfig() error: %v", err)
	}

	ctx := context.Background()
	gotCtx, span := StartSpan(ctx, "fetch-prices")
	if gotCtx != ctx {
		t.Errorf("disabled StartSpan changed the context")
	}
	if span == nil {
		t.Fatal("disabled StartSpan returned a nil span")
	}
	span.End()
	if span.SpanContext().IsValid() {
		t.Errorf("disabled StartSpan produced a recording span")
	}
}

func TestStartSpanEnabledRecords(t *testing.T) {
	if err := InitWithConfig(LogConfig{Level: "INFO", Format: "text", TracingEnabled: true}); err != nil {
		t.Fatalf("InitWithConfig() error: %v", err)
	}
	defer func() {
		if err := Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown() error: %v", err)
		}
		tracingEnabled = false
	}()

	_, span := StartSpan(context.Background(), "sentiment-inference-call")
	if !span.SpanContext().IsValid() {
		t.Fatal("enabled StartSpan did not start a real span")
	}
	span.End()
}
