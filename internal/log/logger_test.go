package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentLedger, Output: &buf})
	l.Info("hello", "k", "v")
	l.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "k=v") {
		t.Fatalf("unexpected output: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked at info level")
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Output: &buf}))
	r := httptest.NewRequest("GET", "/api/v1/transactions?x=1", nil)

	sl.LogHTTPEnd(context.Background(), r, 503, 12, "10.0.0.1")
	if !strings.Contains(buf.String(), "level=ERROR") || !strings.Contains(buf.String(), "status_code=503") {
		t.Fatalf("unexpected output: %s", buf.String())
	}

	buf.Reset()
	sl.LogError(context.Background(), "boom", errors.New("bad"), ComponentStorage, OpCreate, nil)
	if !strings.Contains(buf.String(), "error=bad") || !strings.Contains(buf.String(), "component=storage") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestFromContextFallback(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected fallback logger")
	}
	l := New(DefaultConfig())
	if FromContext(WithLogger(context.Background(), l)) != l {
		t.Fatalf("expected stored logger")
	}
}
