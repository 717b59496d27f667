package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestStructuredLogger_LevelsAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)
	ctx := context.Background()

	logger.Debug(ctx, "should be filtered")
	logger.Info(ctx, "hello", Field{Key: "attempt", Value: 2})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1", len(lines))
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
	if entry["attempt"] != float64(2) {
		t.Errorf("attempt = %v, want 2", entry["attempt"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("timestamp missing")
	}
}

func TestStructuredLogger_WithCall(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf)

	callLogger := logger.WithCall(CallMeta{
		Component: "gateway",
		Operation: "fetch",
		Resource:  "/api/models",
		AppID:     "app1",
		ChatID:    "chat1",
	})
	callLogger.Info(context.Background(), "done")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["call.id"] != "gateway.fetch" {
		t.Errorf("call.id = %v, want gateway.fetch", entry["call.id"])
	}
	if entry["call.resource"] != "/api/models" {
		t.Errorf("call.resource = %v, want /api/models", entry["call.resource"])
	}
	if entry["chat.app_id"] != "app1" {
		t.Errorf("chat.app_id = %v, want app1", entry["chat.app_id"])
	}
}

func TestStructuredLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf)

	logger.Info(context.Background(), "submit",
		Field{Key: "content", Value: "user secret text"},
		Field{Key: "authorization", Value: "Bearer abc"},
		Field{Key: "status", Value: 200},
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["content"] != "[REDACTED]" {
		t.Errorf("content = %v, want [REDACTED]", entry["content"])
	}
	if entry["authorization"] != "[REDACTED]" {
		t.Errorf("authorization = %v, want [REDACTED]", entry["authorization"])
	}
	if entry["status"] != float64(200) {
		t.Errorf("status = %v, want 200", entry["status"])
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
