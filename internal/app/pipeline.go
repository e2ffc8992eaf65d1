package app

import (
	"encoding/json"
	"log/slog"

	"github.com/ayusman/bebas/internal/capture"
	"github.com/ayusman/bebas/internal/config"
	"github.com/ayusman/bebas/internal/detector"
	"github.com/ayusman/bebas/internal/gesture"
	"github.com/ayusman/bebas/internal/lgr"
	"github.com/ayusman/bebas/internal/pipeline"
	"github.com/ayusman/bebas/internal/plugin"
	"github.com/ayusman/bebas/internal/store"
	"golang.org/x/xerrors"
)

// newSource opens nothing; it only builds the capture source described by cfg.
func newSource(cfg config.Camera) pipeline.Source {
	if cfg.Mock {
		cam := capture.NewBlankMockCamera(1)
		cam.SetFPS(cfg.FPS)
		return cam
	}

	var cam capture.Camera = capture.NewCameraWithOptions(capture.Options{
		DeviceID: cfg.DeviceID,
		Width:    cfg.Width,
		Height:   cfg.Height,
		FPS:      cfg.FPS,
	})
	if cfg.IdleFPS > 0 && cfg.IdleFPS < cam.FPS() {
		cam = capture.NewAdaptiveCamera(cam, cfg.IdleFPS, cfg.IdleAfter, cfg.MotionThreshold)
	}
	return cam
}

// newDetector returns the configured backend. MediaPipe falls back to the mock
// detector when its service cannot be located.
func newDetector(cfg config.Detector) detector.Detector {
	if cfg.Backend == "mock" {
		lgr.Logger.Info("using mock hand detection")
		return detector.NewMockDetector()
	}

	mp, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:        cfg.MaxHands,
		MinConfidence:   cfg.MinConfidence,
		MinTrackingConf: cfg.MinConfidence,
		ScriptPath:      cfg.ScriptPath,
		PythonPath:      cfg.PythonPath,
		IdleTimeout:     cfg.IdleTimeout,
	})
	if err != nil {
		lgr.Logger.Warn("MediaPipe not available, using mock detector", lgr.Err(err))
		return detector.NewMockDetector()
	}
	lgr.Logger.Info("using MediaPipe hand detection")
	return mp
}

// newPluginClassifier loads the named classifier plugin.
func newPluginClassifier(cfg config.Classifier) (*plugin.Classifier, error) {
	mgr := plugin.NewManager(cfg.PluginDir)
	if err := mgr.Discover(); err != nil {
		return nil, xerrors.Errorf("discover plugins: %w", err)
	}

	p, err := mgr.Get(cfg.Plugin)
	if err != nil {
		return nil, xerrors.Errorf("classifier plugin %q in %s: %w", cfg.Plugin, cfg.PluginDir, err)
	}
	if unknown := plugin.UnknownLabels(p.Manifest.Labels); len(unknown) > 0 {
		lgr.Logger.Warn("plugin labels outside the vocabulary",
			slog.String("plugin", p.Manifest.Name),
			slog.Any("labels", unknown))
	}

	pluginCfg, err := json.Marshal(map[string]float64{"tolerance": cfg.Tolerance})
	if err != nil {
		return nil, err
	}

	lgr.Logger.Info("using classifier plugin",
		slog.String("plugin", p.Manifest.Name),
		slog.String("version", p.Manifest.Version))
	return plugin.NewClassifier(p, plugin.NewExecutor(cfg.TimeoutMs), cfg.MinConfidence, pluginCfg), nil
}

// loadTemplates builds one template per trained gesture in s.
func loadTemplates(s *store.Store, defaultTolerance float64) ([]*gesture.Template, error) {
	gestures, err := s.Gestures().List()
	if err != nil {
		return nil, xerrors.Errorf("list gestures: %w", err)
	}

	templates := make([]*gesture.Template, 0, len(gestures))
	for _, g := range gestures {
		if !g.Trained() {
			continue
		}
		tol := g.Tolerance
		if tol <= 0 {
			tol = defaultTolerance
		}
		templates = append(templates, &gesture.Template{
			ID:        g.ID,
			Name:      g.Name,
			Features:  g.Features,
			Tolerance: tol,
		})
	}
	return templates, nil
}
