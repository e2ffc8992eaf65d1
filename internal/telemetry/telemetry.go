// Package telemetry sets up OpenTelemetry tracing for the recognition pipeline.
package telemetry

import (
	"context"
	"io"
	"os"

	"github.com/ayusman/bebas/internal/config"
	"github.com/natefinch/lumberjack"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/xerrors"
)

// TracerName is the instrumentation scope of pipeline spans.
const TracerName = "github.com/ayusman/bebas/internal/pipeline"

// Provider hands out the pipeline tracer and flushes exported spans on Shutdown.
type Provider struct {
	tp  trace.TracerProvider
	sdk *sdktrace.TracerProvider
	out io.Closer
}

// New returns a no-op provider when tracing is disabled. Otherwise spans are batched
// to the stdout exporter, writing to cfg.File or stderr, and the provider becomes the
// global one.
func New(cfg config.Trace) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{tp: noop.NewTracerProvider()}, nil
	}

	var (
		w   io.Writer = os.Stderr
		out io.Closer
	)
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // MB
			MaxBackups: 3,
		}
		w, out = rotating, rotating
	}

	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, xerrors.Errorf("create span exporter: %w", err)
	}

	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(sdk)
	return &Provider{tp: sdk, sdk: sdk, out: out}, nil
}

// Tracer returns the tracer the pipeline records frames with.
func (p *Provider) Tracer() trace.Tracer {
	return p.tp.Tracer(TracerName)
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p.sdk != nil
}

// Shutdown exports buffered spans and closes the span file.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	err := p.sdk.Shutdown(ctx)
	if p.out != nil {
		if cerr := p.out.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return xerrors.Errorf("shutdown tracing: %w", err)
	}
	return nil
}
