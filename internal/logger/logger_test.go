package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected valid JSON output, got error: %v (%q)", err, buf.String())
	}
	return entry
}

func TestNew_DevelopmentMode(t *testing.T) {
	logger := New("development", "")
	if logger == nil {
		t.Fatal("Expected logger to be created")
	}
	if logger.GetZerolog().GetLevel() != zerolog.DebugLevel {
		t.Errorf("Expected debug level in development, got %s", logger.GetZerolog().GetLevel())
	}
}

func TestNew_ProductionMode(t *testing.T) {
	logger := New("production", "")
	if logger.GetZerolog().GetLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info level in production, got %s", logger.GetZerolog().GetLevel())
	}
}

func TestNew_ExplicitLevel(t *testing.T) {
	tests := []struct {
		env   string
		level string
		want  zerolog.Level
	}{
		{"production", "warn", zerolog.WarnLevel},
		{"development", "error", zerolog.ErrorLevel},
		{"production", "nonsense", zerolog.InfoLevel},
		{"development", "nonsense", zerolog.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			if got := resolveLevel(tt.env, tt.level); got != tt.want {
				t.Errorf("resolveLevel(%q, %q) = %s, want %s", tt.env, tt.level, got, tt.want)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.DebugLevel)

	logger.Info("records enriched", map[string]interface{}{
		"count": 42,
		"mode":  "quick",
	})

	entry := decode(t, &buf)
	if entry["message"] != "records enriched" {
		t.Errorf("Expected message field, got %v", entry["message"])
	}
	if entry["mode"] != "quick" {
		t.Errorf("Expected mode field, got %v", entry["mode"])
	}
	if entry["count"] != float64(42) {
		t.Errorf("Expected count field, got %v", entry["count"])
	}
}

func TestError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.DebugLevel)

	logger.Error("fetch failed", errors.New("connection refused"), map[string]interface{}{
		"urn": "101600",
	})

	entry := decode(t, &buf)
	if entry["error"] != "connection refused" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}
	if entry["level"] != "error" {
		t.Errorf("Expected error level, got %v", entry["level"])
	}
}

func TestWarnAndDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.DebugLevel)

	logger.Warn("record dropped", map[string]interface{}{"reason": "invalid phase"})
	if !strings.Contains(buf.String(), "invalid phase") {
		t.Error("Expected warn output to contain reason field")
	}

	buf.Reset()
	logger.Debug("fallback to synthetic", nil)
	if !strings.Contains(buf.String(), "fallback to synthetic") {
		t.Error("Expected debug output")
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)

	logger.With(map[string]interface{}{"component": "extract"}).Info("loaded", nil)

	entry := decode(t, &buf)
	if entry["component"] != "extract" {
		t.Errorf("Expected component field from context, got %v", entry["component"])
	}
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)

	logger.WithRequestID("req-12345").Info("request received", nil)

	entry := decode(t, &buf)
	if entry["request_id"] != "req-12345" {
		t.Errorf("Expected request_id field, got %v", entry["request_id"])
	}
}

func TestWithRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)

	logger.WithRunID("run-1").Info("pipeline started", nil)

	entry := decode(t, &buf)
	if entry["run_id"] != "run-1" {
		t.Errorf("Expected run_id field, got %v", entry["run_id"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)

	logger.Debug("debug message", nil)
	if buf.Len() != 0 {
		t.Errorf("Debug message should be filtered at info level, got %q", buf.String())
	}

	logger.Info("info message", nil)
	if !strings.Contains(buf.String(), "info message") {
		t.Error("Info message should appear at info level")
	}
}

func TestNop(t *testing.T) {
	// Should not panic
	Nop().Info("discarded", map[string]interface{}{"k": "v"})
	Nop().WithRunID("x").Warn("discarded", nil)
}
