package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subtrans/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "subtrans.log")
	logger, err := New(Options{Level: "info", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hello", String("key", "value"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"hello"`) || !strings.Contains(out, `"key":"value"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
	if !strings.Contains(out, `"ts":"`) || !strings.Contains(out, `"level":"info"`) {
		t.Fatalf("expected normalized ts/level keys, got: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"critical", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := parseLevel(tc.input); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestNewComponentLoggerAttachesComponent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subtrans.log")
	base, err := New(Options{Level: "info", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	NewComponentLogger(base, "api-server").Info("ready")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"component":"api-server"`) {
		t.Fatalf("component attribute missing: %s", data)
	}

	// A nil base must not panic.
	NewComponentLogger(nil, "api-server").Info("discarded")
}

func TestWithContextAddsRequestFields(t *testing.T) {
	ctx := services.WithRequestID(context.Background(), "abc")
	fields := ContextFields(ctx)
	if len(fields) != 1 || fields[0].Key != FieldRequestID {
		t.Fatalf("unexpected fields: %v", fields)
	}
}
