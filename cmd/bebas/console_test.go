package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestConsole_PrintsChanges(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	c := newConsole(&buf)

	for _, l := range []string{"Saya", "Saya", "unknown", "Saya"} {
		c.OnLabel(l)
	}
	c.OnCaptureError(errors.New("unplugged"))
	c.OnLabel("Saya")

	want := "sign: Saya\nsign: unknown\nsign: Saya\ncamera lost: unplugged\nsign: Saya\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestBrowserURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://localhost:8080"},
		{"127.0.0.1:9000", "http://127.0.0.1:9000"},
	}
	for _, tt := range tests {
		if got := browserURL(tt.addr); got != tt.want {
			t.Errorf("browserURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(t.TempDir() + "/absent.yaml")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if !strings.HasSuffix(cfg.Store.Path, "bebas.db") {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
}
