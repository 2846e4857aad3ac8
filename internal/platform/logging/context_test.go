package logging

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContextFallsBackToProcessLogger(t *testing.T) {
	resetLoggerForTest()
	//nolint:staticcheck // nil context is part of the contract
	if FromContext(nil) != Logger() {
		t.Fatal("expected process logger for nil context")
	}
	if FromContext(context.Background()) != Logger() {
		t.Fatal("expected process logger for empty context")
	}
}

func TestWithLoggerRoundTrip(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatal("expected request logger from context")
	}
}

func TestCorrelationID(t *testing.T) {
	if got := CorrelationID(context.Background()); got != "" {
		t.Fatalf("expected empty correlation ID, got %q", got)
	}
	ctx := withCorrelationID(context.Background(), "req-1")
	if got := CorrelationID(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if withCorrelationID(ctx, "") != ctx {
		t.Fatal("empty ID should leave the context unchanged")
	}
}

func TestLogHelpers(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	LogInfo(ctx, "info", zap.String("k", "v"))
	LogWarn(ctx, "warn")
	LogError(ctx, "failed", errors.New("boom"))
	LogError(ctx, "no error", nil)

	entries := recorded.All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level, got %s", entries[1].Level)
	}
	if got := entries[2].ContextMap()["error"]; got != "boom" {
		t.Fatalf("expected error field boom, got %v", got)
	}
	if _, ok := entries[3].ContextMap()["error"]; ok {
		t.Fatal("nil error should not add an error field")
	}
}
