// Package config loads bebas settings from a YAML file and BEBAS_* environment
// variables.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the full application configuration.
type Config struct {
	Camera     Camera     `yaml:"camera"`
	Display    Display    `yaml:"display"`
	Pipeline   Pipeline   `yaml:"pipeline"`
	Detector   Detector   `yaml:"detector"`
	Classifier Classifier `yaml:"classifier"`
	Practice   Practice   `yaml:"practice"`
	Server     Server     `yaml:"server"`
	Store      Store      `yaml:"store"`
	Log        Log        `yaml:"log"`
	Trace      Trace      `yaml:"trace"`
}

type Camera struct {
	DeviceID int `yaml:"device_id"`
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	FPS      int `yaml:"fps"`
	// Mock replaces the camera with blank generated frames.
	Mock bool `yaml:"mock"`
	// IdleFPS is the capture rate after IdleAfter without motion. Zero keeps FPS.
	IdleFPS         int           `yaml:"idle_fps"`
	IdleAfter       time.Duration `yaml:"idle_after"`
	MotionThreshold float64       `yaml:"motion_threshold"`
}

// Display is the consumer's drawing surface, in display units.
type Display struct {
	Width          float64 `yaml:"width"`
	Height         float64 `yaml:"height"`
	VerticalOffset float64 `yaml:"vertical_offset"`
}

type Pipeline struct {
	ConfidenceThreshold float64       `yaml:"confidence_threshold"`
	Normalize           bool          `yaml:"normalize"`
	Placeholder         string        `yaml:"placeholder"`
	SmoothingWindow     int           `yaml:"smoothing_window"`
	ShutdownGrace       time.Duration `yaml:"shutdown_grace"`
	MaxReadFailures     int           `yaml:"max_read_failures"`
}

type Detector struct {
	// Backend is "mediapipe" or "mock".
	Backend       string        `yaml:"backend"`
	MaxHands      int           `yaml:"max_hands"`
	MinConfidence float64       `yaml:"min_confidence"`
	ScriptPath    string        `yaml:"script_path"`
	PythonPath    string        `yaml:"python_path"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
}

type Classifier struct {
	// Plugin names a classifier plugin; empty uses the stored templates.
	Plugin        string  `yaml:"plugin"`
	PluginDir     string  `yaml:"plugin_dir"`
	TimeoutMs     int     `yaml:"timeout_ms"`
	MinConfidence float64 `yaml:"min_confidence"`
	Tolerance     float64 `yaml:"tolerance"`
}

type Practice struct {
	// Streak is the number of consecutive matching labels that completes an attempt.
	Streak int `yaml:"streak"`
	// MaxFrames ends an attempt as failed after that many labels without a streak.
	MaxFrames int `yaml:"max_frames"`
}

type Server struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type Store struct {
	Path string `yaml:"path"`
}

type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	JSON       bool   `yaml:"json"`
}

// Trace controls OpenTelemetry span export for the pipeline.
type Trace struct {
	Enabled bool `yaml:"enabled"`
	// File receives spans as JSON lines, rotated like the log. Empty writes to stderr.
	File        string  `yaml:"file"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// DataDir returns ~/.bebas, or .bebas when the home directory is unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bebas"
	}
	return filepath.Join(home, ".bebas")
}

// Default returns the built-in configuration.
func Default() *Config {
	dataDir := DataDir()
	return &Config{
		Camera:  Camera{Width: 640, Height: 480, FPS: 15, IdleFPS: 5, IdleAfter: 3 * time.Second, MotionThreshold: 1.0},
		Display: Display{Width: 390, Height: 844},
		Pipeline: Pipeline{
			ConfidenceThreshold: 0.5,
			Normalize:           true,
			Placeholder:         "unknown",
			ShutdownGrace:       2 * time.Second,
			MaxReadFailures:     30,
		},
		Detector: Detector{
			Backend:       "mediapipe",
			MaxHands:      2,
			MinConfidence: 0.5,
			IdleTimeout:   30 * time.Second,
		},
		Classifier: Classifier{
			PluginDir:     filepath.Join(dataDir, "plugins"),
			TimeoutMs:     500,
			MinConfidence: 0.5,
			Tolerance:     40,
		},
		Practice: Practice{Streak: 5, MaxFrames: 150},
		Server:   Server{Addr: ":8080"},
		Store:    Store{Path: filepath.Join(dataDir, "bebas.db")},
		Log:      Log{Level: "info", MaxSizeMB: 10, MaxBackups: 3},
		Trace:    Trace{SampleRatio: 1},
	}
}

// Load reads path over the defaults, applies environment overrides, and validates the
// result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, xerrors.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, xerrors.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from BEBAS_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"BEBAS_DETECTOR":          &c.Detector.Backend,
		"BEBAS_MEDIAPIPE_SCRIPT":  &c.Detector.ScriptPath,
		"BEBAS_PYTHON":            &c.Detector.PythonPath,
		"BEBAS_CLASSIFIER_PLUGIN": &c.Classifier.Plugin,
		"BEBAS_PLUGIN_DIR":        &c.Classifier.PluginDir,
		"BEBAS_PLACEHOLDER":       &c.Pipeline.Placeholder,
		"BEBAS_SERVER_ADDR":       &c.Server.Addr,
		"BEBAS_STATIC_DIR":        &c.Server.StaticDir,
		"BEBAS_STORE_PATH":        &c.Store.Path,
		"BEBAS_LOG_LEVEL":         &c.Log.Level,
		"BEBAS_LOG_FILE":          &c.Log.File,
		"BEBAS_TRACE_FILE":        &c.Trace.File,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"BEBAS_CAMERA_DEVICE":    &c.Camera.DeviceID,
		"BEBAS_IDLE_FPS":         &c.Camera.IdleFPS,
		"BEBAS_SMOOTHING_WINDOW": &c.Pipeline.SmoothingWindow,
		"BEBAS_PRACTICE_STREAK":  &c.Practice.Streak,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return xerrors.Errorf("%s=%q: %w", key, v, ErrInvalid)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"BEBAS_CONFIDENCE_THRESHOLD": &c.Pipeline.ConfidenceThreshold,
		"BEBAS_VERTICAL_OFFSET":      &c.Display.VerticalOffset,
	}
	for key, dst := range floats {
		if v, ok := lookup(key); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return xerrors.Errorf("%s=%q: %w", key, v, ErrInvalid)
			}
			*dst = f
		}
	}

	bools := map[string]*bool{
		"BEBAS_MOCK_CAMERA": &c.Camera.Mock,
		"BEBAS_LOG_JSON":    &c.Log.JSON,
		"BEBAS_TRACE":       &c.Trace.Enabled,
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return xerrors.Errorf("%s=%q: %w", key, v, ErrInvalid)
			}
			*dst = b
		}
	}

	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	check(c.Camera.IdleFPS >= 0 && c.Camera.IdleFPS <= c.Camera.FPS, "camera.idle_fps must be between 0 and camera.fps")
	check(c.Display.Width > 0 && c.Display.Height > 0, "display size must be positive")
	check(c.Pipeline.ConfidenceThreshold >= 0 && c.Pipeline.ConfidenceThreshold <= 1,
		"pipeline.confidence_threshold must be in [0, 1]")
	check(c.Pipeline.SmoothingWindow >= 0, "pipeline.smoothing_window must not be negative")
	check(c.Detector.Backend == "mediapipe" || c.Detector.Backend == "mock",
		"detector.backend must be mediapipe or mock")
	check(c.Detector.MaxHands >= 1 && c.Detector.MaxHands <= 2, "detector.max_hands must be 1 or 2")
	check(c.Classifier.MinConfidence >= 0 && c.Classifier.MinConfidence <= 1,
		"classifier.min_confidence must be in [0, 1]")
	check(c.Classifier.Tolerance > 0, "classifier.tolerance must be positive")
	check(c.Practice.Streak >= 1, "practice.streak must be at least 1")
	check(c.Store.Path != "", "store.path is required")
	check(c.Trace.SampleRatio >= 0 && c.Trace.SampleRatio <= 1, "trace.sample_ratio must be in [0, 1]")

	if len(problems) > 0 {
		return xerrors.Errorf("%s: %w", strings.Join(problems, "; "), ErrInvalid)
	}
	return nil
}
