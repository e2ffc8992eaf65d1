// Package detector extracts hand skeletons from camera frames.
package detector

import (
	"context"
	"errors"
	"time"

	"github.com/ayusman/bebas/internal/capture"
	"github.com/ayusman/bebas/internal/skeleton"
)

// ErrExtraction marks a failed extraction. An empty result is not a failure.
var ErrExtraction = errors.New("hand extraction failed")

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a frame and returns up to MaxHands skeletons in no particular
	// order. It returns an empty slice if no hands are visible and an error wrapping
	// ErrExtraction if the frame could not be analyzed.
	Detect(ctx context.Context, frame capture.Frame) ([]skeleton.Hand, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ScriptPath overrides the lookup of the MediaPipe service script.
	ScriptPath string

	// PythonPath overrides the interpreter used to run the service.
	PythonPath string

	// IdleTimeout stops the service after this long without requests.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        skeleton.NumSlots,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		IdleTimeout:     30 * time.Second,
	}
}
