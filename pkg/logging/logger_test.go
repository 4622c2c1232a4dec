package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		enable slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"warn level", "warn", slog.LevelWarn},
		{"error level", "error", slog.LevelError},
		{"default info", "", slog.LevelInfo},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			if !logger.Enabled(ctx, tt.enable) {
				t.Fatalf("expected level %s to be enabled", tt.enable)
			}
		})
	}
}

func TestNewWithWriterEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("info", &buf)

	logger.Info("inbound message", "platform", "whatsapp")

	out := buf.String()
	if !strings.Contains(out, `"platform":"whatsapp"`) {
		t.Errorf("expected structured attribute in output, got %s", out)
	}
	if !strings.Contains(out, `"msg":"inbound message"`) {
		t.Errorf("expected message in output, got %s", out)
	}
}

func TestWithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("info", &buf).With("conversation_id", "abc")

	logger.Info("slot filled")

	if !strings.Contains(buf.String(), `"conversation_id":"abc"`) {
		t.Errorf("expected bound attribute in output, got %s", buf.String())
	}
}
