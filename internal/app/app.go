// Package app wires configuration into a running recognition pipeline and the services
// around it.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ayusman/bebas/internal/capture"
	"github.com/ayusman/bebas/internal/config"
	"github.com/ayusman/bebas/internal/detector"
	"github.com/ayusman/bebas/internal/gesture"
	"github.com/ayusman/bebas/internal/lgr"
	"github.com/ayusman/bebas/internal/overlay"
	"github.com/ayusman/bebas/internal/pipeline"
	"github.com/ayusman/bebas/internal/practice"
	"github.com/ayusman/bebas/internal/server"
	"github.com/ayusman/bebas/internal/store"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotStarted is returned by SetEnabled before Start.
var ErrNotStarted = errors.New("app not started")

// Options configures an App. Only Config is required.
type Options struct {
	Config *config.Config
	Store  *store.Store
	// Source replaces the configured camera.
	Source pipeline.Source
	// Detector replaces the configured detection backend.
	Detector detector.Detector
	// Observers receive pipeline output after the built-in ones.
	Observers []pipeline.Observer
	// Tracer records pipeline frames. Nil disables tracing.
	Tracer trace.Tracer
}

// App owns one capture source and runs a pipeline session over it while enabled.
// A session cannot be restarted, so every enable creates a new controller.
type App struct {
	cfg        *config.Config
	store      *store.Store
	source     pipeline.Source
	detector   detector.Detector
	classifier gesture.Classifier
	templates  *gesture.TemplateClassifier
	hub        *server.Hub
	tap        *capture.Tap
	practice   *practice.Session
	observer   pipeline.Observers
	tracer     trace.Tracer
	log        *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	ctrl    *pipeline.Controller
	enabled bool
	last    pipeline.Stats
	changed chan struct{}
}

// New builds the application. It does not open the camera.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	a := &App{
		cfg:     cfg,
		store:   opts.Store,
		source:  opts.Source,
		hub:     server.NewHub(),
		tap:     capture.NewTap(),
		tracer:  opts.Tracer,
		log:     lgr.Logger,
		enabled: true,
		changed: make(chan struct{}, 1),
	}

	if a.source == nil {
		a.source = newSource(cfg.Camera)
	}

	a.detector = opts.Detector
	if a.detector == nil {
		a.detector = newDetector(cfg.Detector)
	}

	if cfg.Classifier.Plugin != "" {
		c, err := newPluginClassifier(cfg.Classifier)
		if err != nil {
			return nil, err
		}
		a.classifier = c
	} else {
		a.templates = gesture.NewTemplateClassifier()
		a.classifier = a.templates
		if err := a.ReloadTemplates(); err != nil {
			return nil, err
		}
	}

	sessionOpts := practice.Options{
		Streak:    cfg.Practice.Streak,
		MaxFrames: cfg.Practice.MaxFrames,
		OnAttempt: func(at store.Attempt) { a.hub.Publish("attempt", at) },
	}
	if a.store != nil {
		sessionOpts.Recorder = a.store.Attempts()
	}
	a.practice = practice.NewSession(sessionOpts)

	a.observer = append(pipeline.Observers{a.hub, a.practice}, opts.Observers...)
	return a, nil
}

// ReloadTemplates replaces the template set with the trained gestures in the store.
// It does nothing when a plugin classifies.
func (a *App) ReloadTemplates() error {
	if a.templates == nil || a.store == nil {
		return nil
	}

	templates, err := loadTemplates(a.store, a.cfg.Classifier.Tolerance)
	if err != nil {
		return err
	}
	a.templates.Replace(templates)
	a.log.Info("gesture templates loaded", slog.Int("count", len(templates)))
	return nil
}

func (a *App) controllerOptions() pipeline.Options {
	p := a.cfg.Pipeline
	opts := pipeline.DefaultOptions()
	opts.Display = a.display()
	opts.VerticalOffset = a.cfg.Display.VerticalOffset
	opts.ConfidenceThreshold = p.ConfidenceThreshold
	opts.Normalize = p.Normalize
	opts.Placeholder = p.Placeholder
	opts.SmoothingWindow = p.SmoothingWindow
	opts.ShutdownGrace = p.ShutdownGrace
	opts.MaxReadFailures = p.MaxReadFailures
	opts.Tap = a.tap
	opts.Tracer = a.tracer
	opts.Logger = a.log
	return opts
}

func (a *App) display() pipeline.DisplayMetrics {
	return pipeline.DisplayMetrics{Width: a.cfg.Display.Width, Height: a.cfg.Display.Height}
}

// Start begins a session if the app is enabled. Sessions end when ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ctx = ctx
	if !a.enabled {
		return nil
	}
	return a.startLocked()
}

func (a *App) startLocked() error {
	if a.ctrl != nil {
		return nil
	}
	ctrl := pipeline.New(a.detector, a.classifier, a.observer, a.controllerOptions())
	if err := ctrl.Start(a.ctx, a.source); err != nil {
		return err
	}
	a.ctrl = ctrl
	a.notify()
	return nil
}

func (a *App) stopLocked() {
	if a.ctrl == nil {
		return
	}
	a.ctrl.Stop()
	a.last = a.ctrl.Stats()
	a.ctrl = nil
	a.notify()
}

func (a *App) notify() {
	select {
	case a.changed <- struct{}{}:
	default:
	}
}

// SetEnabled starts or stops the session. Stopping releases the camera.
func (a *App) SetEnabled(enabled bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.enabled = enabled
	if a.ctx == nil {
		return ErrNotStarted
	}
	if !enabled {
		a.stopLocked()
		return nil
	}
	return a.startLocked()
}

// IsEnabled reports whether a session is wanted.
func (a *App) IsEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Running reports whether a session is active.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ctrl != nil
}

// Run starts the app and blocks until ctx is cancelled. A lost capture source
// disables the app instead of ending Run; SetEnabled(true) retries.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Stop()

	for {
		a.mu.Lock()
		ctrl := a.ctrl
		a.mu.Unlock()

		var done <-chan struct{}
		if ctrl != nil {
			done = ctrl.Done()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-a.changed:
		case <-done:
			a.mu.Lock()
			if a.ctrl == ctrl {
				a.last = ctrl.Stats()
				a.ctrl = nil
				a.enabled = false
			}
			a.mu.Unlock()
			if err := ctrl.Err(); err != nil {
				a.log.Error("pipeline session ended", lgr.Err(err))
			}
		}
	}
}

// Stop ends the current session, if any.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

// Close stops the session and releases the detector and preview buffer.
func (a *App) Close() error {
	a.Stop()
	a.tap.Close()
	return a.detector.Close()
}

// Stats returns the counters of the running session, or of the last one.
func (a *App) Stats() pipeline.Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ctrl != nil {
		return a.ctrl.Stats()
	}
	return a.last
}

// Hub returns the results hub.
func (a *App) Hub() *server.Hub {
	return a.hub
}

// Practice returns the practice session.
func (a *App) Practice() *practice.Session {
	return a.practice
}

// ServerConfig returns a server configuration backed by this app.
func (a *App) ServerConfig() server.Config {
	return server.Config{
		StaticDir: a.cfg.Server.StaticDir,
		Store:     a.store,
		Hub:       a.hub,
		Tap:       a.tap,
		Projector: overlay.Projector{
			Display:        a.display(),
			VerticalOffset: a.cfg.Display.VerticalOffset,
		},
		Practice: a.practice,
		Stats:    a.Stats,
		OnTemplatesChanged: func() {
			if err := a.ReloadTemplates(); err != nil {
				a.log.Warn("reload gesture templates", lgr.Err(err))
			}
		},
	}
}
