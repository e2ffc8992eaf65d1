package lgr

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInit_WritesRotatingFile(t *testing.T) {
	prev := Logger
	defer func() {
		Logger = prev
		slog.SetDefault(prev)
	}()

	path := filepath.Join(t.TempDir(), "bebas.log")
	closer := Init(Options{Level: "debug", File: path, JSON: true})

	Logger.Info("hello", slog.String("k", "v"))
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
}

func TestReplaceAttr_FormatsErrors(t *testing.T) {
	a := replaceAttr(nil, slog.Any("error", errors.New("boom")))

	if a.Value.Kind() != slog.KindGroup {
		t.Fatalf("expected group value, got %v", a.Value.Kind())
	}

	var msg string
	for _, ga := range a.Value.Group() {
		if ga.Key == "msg" {
			msg = ga.Value.String()
		}
	}
	if msg != "boom" {
		t.Errorf("msg = %q, want %q", msg, "boom")
	}

	t.Run("non-error attrs pass through", func(t *testing.T) {
		in := slog.Int("n", 3)
		if out := replaceAttr(nil, in); !out.Equal(in) {
			t.Errorf("attr changed: %v", out)
		}
	})
}
