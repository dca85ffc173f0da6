package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestInitLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := InitLoggerWithWriter("warn", &buf)

	l.Info("dropped")
	l.Warn("kept", "reportID", 7)

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "kept" || entry["reportID"] != float64(7) {
		t.Errorf("unexpected entry %v", entry)
	}
	if L != l {
		t.Errorf("InitLogger should set the global logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	scoped := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := WithContext(context.Background(), scoped)
	if FromContext(ctx) != scoped {
		t.Errorf("FromContext should return the stored logger")
	}
	if FromContext(context.Background()) == nil {
		t.Errorf("FromContext should fall back to a global logger")
	}
}
