package logging

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/integra/advisor-profile/internal/platform/timeutil"
)

func resetLoggerForTest() {
	loggerOnce = sync.Once{}
	baseLogger = nil
	sugarLogger = nil
	loggerErr = nil
	level.SetLevel(zapcore.InfoLevel)
}

// captureStdout runs fn against a fresh process logger and returns the raw output.
func captureStdout(t *testing.T, fn func(*zap.Logger)) string {
	t.Helper()
	resetLoggerForTest()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	defer func() { _ = r.Close() }()

	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	logger := Logger()
	fn(logger)
	_ = logger.Sync()
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read log output: %v", err)
	}
	return strings.TrimSpace(string(data))
}

func decodeLine(t *testing.T, line string) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("failed to unmarshal log JSON %q: %v", line, err)
	}
	return payload
}

func TestLoggerStructuredOutput(t *testing.T) {
	payload := decodeLine(t, captureStdout(t, func(l *zap.Logger) {
		l.Info("profile read", zap.String("user_id", "u-1"))
	}))

	if got := payload["severity"]; got != "INFO" {
		t.Fatalf("expected severity INFO, got %v", got)
	}
	if _, exists := payload["level"]; exists {
		t.Fatal("did not expect level field")
	}
	if payload["message"] != "profile read" {
		t.Fatalf("unexpected message: %v", payload["message"])
	}
	if payload["user_id"] != "u-1" {
		t.Fatalf("unexpected user_id: %v", payload["user_id"])
	}
	ts, ok := payload["timestamp"].(string)
	if !ok {
		t.Fatalf("expected timestamp string, got %T", payload["timestamp"])
	}
	if _, err := time.Parse(timeutil.RFC3339Micros, ts); err != nil {
		t.Fatalf("timestamp is not RFC3339Micros: %v", err)
	}
	caller, _ := payload["caller"].(string)
	if !strings.Contains(caller, "logger_test.go") {
		t.Fatalf("expected caller to reference logger_test.go, got %q", caller)
	}
}

func TestDebugSuppressedUntilEnabled(t *testing.T) {
	out := captureStdout(t, func(l *zap.Logger) {
		l.Debug("hidden")
	})
	if strings.Contains(out, "hidden") {
		t.Fatal("debug output should be suppressed by default")
	}

	out = captureStdout(t, func(l *zap.Logger) {
		SetDebug(true)
		l.Debug("visible")
	})
	if !strings.Contains(out, "visible") {
		t.Fatalf("expected debug output after SetDebug(true), got %q", out)
	}
	SetDebug(false)
}

func TestEncodeSeverityMapping(t *testing.T) {
	tests := []struct {
		level    zapcore.Level
		expected string
	}{
		{zapcore.DebugLevel, "DEBUG"},
		{zapcore.InfoLevel, "INFO"},
		{zapcore.WarnLevel, "WARNING"},
		{zapcore.ErrorLevel, "ERROR"},
		{zapcore.DPanicLevel, "CRITICAL"},
		{zapcore.PanicLevel, "ALERT"},
		{zapcore.FatalLevel, "EMERGENCY"},
		{zapcore.Level(99), "DEFAULT"},
	}

	for _, tt := range tests {
		enc := &captureArrayEncoder{}
		encodeSeverity(tt.level, enc)
		if len(enc.values) != 1 || enc.values[0] != tt.expected {
			t.Fatalf("encodeSeverity(%v) = %v, want %s", tt.level, enc.values, tt.expected)
		}
	}
}

func TestEncodeTimeMicrosConvertsToUTC(t *testing.T) {
	enc := &captureArrayEncoder{}
	encodeTimeMicros(time.Date(2024, 6, 15, 12, 0, 0, 500000000, time.FixedZone("EST", -5*60*60)), enc)
	if len(enc.values) != 1 || enc.values[0] != "2024-06-15T17:00:00.500000Z" {
		t.Fatalf("unexpected encoded time: %v", enc.values)
	}
}

func TestLoggerSingleton(t *testing.T) {
	resetLoggerForTest()

	var wg sync.WaitGroup
	results := make(chan *zap.Logger, 50)
	for range 50 {
		wg.Go(func() {
			results <- Logger()
		})
	}
	wg.Wait()
	close(results)

	first := Logger()
	for l := range results {
		if l != first {
			t.Fatal("concurrent Logger() calls returned different instances")
		}
	}
	if Sugar().Desugar().Core() != first.Core() {
		t.Fatal("expected Logger and Sugar to share the same core")
	}
	if err := Err(); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}
}

type captureArrayEncoder struct {
	values []string
}

func (c *captureArrayEncoder) AppendBool(bool)             {}
func (c *captureArrayEncoder) AppendByteString([]byte)     {}
func (c *captureArrayEncoder) AppendComplex128(complex128) {}
func (c *captureArrayEncoder) AppendComplex64(complex64)   {}
func (c *captureArrayEncoder) AppendFloat64(float64)       {}
func (c *captureArrayEncoder) AppendFloat32(float32)       {}
func (c *captureArrayEncoder) AppendInt(int)               {}
func (c *captureArrayEncoder) AppendInt64(int64)           {}
func (c *captureArrayEncoder) AppendInt32(int32)           {}
func (c *captureArrayEncoder) AppendInt16(int16)           {}
func (c *captureArrayEncoder) AppendInt8(int8)             {}
func (c *captureArrayEncoder) AppendString(s string)       { c.values = append(c.values, s) }
func (c *captureArrayEncoder) AppendUint(uint)             {}
func (c *captureArrayEncoder) AppendUint64(uint64)         {}
func (c *captureArrayEncoder) AppendUint32(uint32)         {}
func (c *captureArrayEncoder) AppendUint16(uint16)         {}
func (c *captureArrayEncoder) AppendUint8(uint8)           {}
func (c *captureArrayEncoder) AppendUintptr(uintptr)       {}
