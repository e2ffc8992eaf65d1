package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/bebas/internal/config"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(config.Trace{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.Enabled() {
		t.Error("disabled config produced an exporting provider")
	}

	_, span := p.Tracer().Start(context.Background(), "pipeline.frame")
	if span.SpanContext().IsValid() {
		t.Error("no-op tracer produced a valid span context")
	}
	span.End()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_ExportsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spans.json")

	p, err := New(config.Trace{Enabled: true, File: path, SampleRatio: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !p.Enabled() {
		t.Fatal("provider should export")
	}

	_, span := p.Tracer().Start(context.Background(), "pipeline.frame")
	if !span.SpanContext().IsSampled() {
		t.Error("span should be sampled at ratio 1")
	}
	span.End()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("span file not written: %v", err)
	}
	if !strings.Contains(string(data), "pipeline.frame") {
		t.Errorf("span file does not mention the span: %s", data)
	}
	if !strings.Contains(string(data), TracerName) {
		t.Errorf("span file does not carry the instrumentation scope: %s", data)
	}
}

func TestNew_ZeroRatioSamplesNothing(t *testing.T) {
	p, err := New(config.Trace{Enabled: true, File: filepath.Join(t.TempDir(), "spans.json")})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Shutdown(context.Background())

	_, span := p.Tracer().Start(context.Background(), "pipeline.frame")
	defer span.End()
	if span.SpanContext().IsSampled() {
		t.Error("span sampled at ratio 0")
	}
}
