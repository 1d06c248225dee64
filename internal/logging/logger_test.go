package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestWithFieldsCarriesRunID(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "info", "json")
	ctx := NewContext(context.Background(), base)
	ctx = NewContext(ctx, WithFields(ctx, "run_id", "abc"))

	FromContext(ctx).Info("export started", "target", "client")
	FromContext(ctx).Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, `"run_id":"abc"`) || !strings.Contains(out, `"target":"client"`) {
		t.Errorf("missing fields in %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug entry logged at info level: %s", out)
	}
}

func TestFromContextDefault(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Errorf("FromContext without logger should return slog.Default()")
	}
}
