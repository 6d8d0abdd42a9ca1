package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
)

func TestTestLogger(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationFit)
	testLogger.Warn("warning message", "warning_code", "TEST_WARNING")
	testLogger.Error("error message", fmt.Errorf("test error"), ErrorCodeKey, ErrorNotFitted)

	if buffer.Len() == 0 {
		t.Fatal("Expected log output, got empty buffer")
	}
	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}
	if !testLogger.ContainsField("key1", "value1") {
		t.Error("Expected field key1=value1 not found")
	}
	if !testLogger.ContainsField("number", 42.0) {
		t.Error("Expected field number=42 not found")
	}
	if !testLogger.ContainsField("error", "test error") {
		t.Error("Expected leading error to be captured")
	}
	if !testLogger.ContainsField(ErrorCodeKey, ErrorNotFitted) {
		t.Error("Expected error code field")
	}
}

func TestTestLogger_LevelFiltering(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelWarn)

	testLogger.Debug("hidden debug")
	testLogger.Info("hidden info")
	testLogger.Warn("visible warn")

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if testLogger.Enabled(context.Background(), LevelInfo) {
		t.Error("Info should not be enabled at warn level")
	}
}

func TestTestLogger_With(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(ModelNameKey, "GaussRankScaler", ComponentKey, "preprocessing")
	contextLogger.Info("contextual message", OperationKey, OperationTransform)

	if !testLogger.ContainsField(ModelNameKey, "GaussRankScaler") {
		t.Error("Model name context not found")
	}
	if !testLogger.ContainsField(OperationKey, OperationTransform) {
		t.Error("Operation field not found")
	}

	testLogger.Clear()
	if testLogger.ContainsMessage("contextual message") {
		t.Error("Clear should drop captured records")
	}
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelInfo)

	logger.Debug("hidden")
	logger.With(ModelNameKey, "GaussRankScaler").Info("fit completed", SamplesKey, 10, FeaturesKey, 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 record, got %d: %q", len(lines), buf.String())
	}

	var rec map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["message"] != "fit completed" {
		t.Errorf("unexpected message: %v", rec["message"])
	}
	if rec[ModelNameKey] != "GaussRankScaler" {
		t.Errorf("missing context field: %v", rec)
	}
	if rec[SamplesKey] != 10.0 {
		t.Errorf("missing samples field: %v", rec)
	}
	if !logger.Enabled(context.Background(), LevelWarn) || logger.Enabled(context.Background(), LevelDebug) {
		t.Error("Enabled does not follow the configured level")
	}
}

func TestZerologLogger_StructuredError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug)

	logger.Error("transform failed", errors.NewDimensionError("GaussRankScaler.Transform", 3, 2, 1))

	out := buf.String()
	if !strings.Contains(out, `"type":"DimensionError"`) {
		t.Errorf("expected embedded error fields, got %s", out)
	}
	if !strings.Contains(out, `"expected":3`) {
		t.Errorf("expected structured expected field, got %s", out)
	}
}

func TestSetLoggerRoutesWarnings(t *testing.T) {
	prev := GetLogger()
	testLogger, _ := NewTestLogger(LevelDebug)
	SetLogger(testLogger)
	defer func() {
		SetLogger(prev)
		errors.SetZerologWarnFunc(nil)
	}()

	errors.Warn(errors.NewDegenerateFeatureWarning(2, 5))

	if !testLogger.ContainsMessage("feature 2 has a single distinct value") {
		t.Error("warning was not routed to the logger")
	}
}

func TestZerologLogger_LevelAndComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelError).With(ComponentKey, "preprocessing")

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("Expected no output at error level, got %s", buf.String())
	}
	if logger.Enabled(context.Background(), LevelInfo) {
		t.Error("info should be disabled at error level")
	}

	logger.Error("visible")
	if !strings.Contains(buf.String(), `"ml.component":"preprocessing"`) {
		t.Errorf("expected component field, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetupLogger_AddsStacktrace(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	if err := SetupLogger(&buf, "debug"); err != nil {
		t.Fatal(err)
	}
	slog.Error("failed", ErrAttr(errors.NewNotFittedError("GaussRankScaler", "Transform")))

	out := buf.String()
	if !strings.Contains(out, `"severity":"ERROR"`) {
		t.Errorf("expected severity key, got %s", out)
	}
	if !strings.Contains(out, StacktraceAttrKey) {
		t.Errorf("expected stacktrace attribute, got %s", out)
	}
}

func TestErrFmtHandler_ErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not fitted", errors.NewNotFittedError("GaussRankScaler", "Transform"), ErrorNotFitted},
		{"dimension", errors.NewDimensionError("Transform", 3, 2, 1), ErrorDimensionMismatch},
		{"empty", errors.NewModelError("Fit", "empty data", errors.ErrEmptyData), ErrorEmptyData},
		{"invalid", errors.Wrap(errors.NewElementValidationError("X", "not finite", 0, 1, 2), "fit"), ErrorInvalidInput},
		{"foreign", fmt.Errorf("disk full"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil)))
			logger.Error("failed", ErrAttr(tt.err))

			var rec map[string]any
			if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
				t.Fatalf("invalid JSON %q: %v", buf.String(), err)
			}
			got, _ := rec[ErrorCodeKey].(string)
			if got != tt.want {
				t.Errorf("%s = %q, want %q", ErrorCodeKey, got, tt.want)
			}
		})
	}

	var buf bytes.Buffer
	slog.New(WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil))).Info("no error", "k", 1)
	if strings.Contains(buf.String(), ErrorCodeKey) || strings.Contains(buf.String(), StacktraceAttrKey) {
		t.Errorf("records without an error must pass through unchanged, got %s", buf.String())
	}
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := NewSlogLogger(slog.New(handler)).With(ComponentKey, "cli")

	logger.Debug("hidden")
	logger.Warn("degenerate", errors.New("constant column"), FeatureKey, 2)

	if logger.Enabled(context.Background(), LevelDebug) {
		t.Error("debug should be disabled at info level")
	}

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected exactly one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "degenerate" || rec[ComponentKey] != "cli" {
		t.Errorf("unexpected record %v", rec)
	}
	if rec[ErrAttrKey] != "constant column" {
		t.Errorf("leading error not attached: %v", rec)
	}
	if rec[FeatureKey] != 2.0 {
		t.Errorf("feature field missing: %v", rec)
	}
}
