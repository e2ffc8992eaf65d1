// Package main is a classifier plugin that matches feature vectors against the
// templates stored in templates.json next to the executable.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ayusman/bebas/internal/gesture"
	"github.com/ayusman/bebas/internal/plugin"
)

// TemplatesFile holds the trained templates, relative to the plugin directory.
const TemplatesFile = "templates.json"

// Config is the optional per-request configuration.
type Config struct {
	Tolerance float64 `json:"tolerance"`
}

type templateEntry struct {
	Label    string    `json:"label"`
	Features []float64 `json:"features"`
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(plugin.Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	resp, err := classify(req)
	if err != nil {
		writeResponse(plugin.Response{Error: err.Error()})
		return
	}
	writeResponse(resp)
}

func classify(req plugin.Request) (plugin.Response, error) {
	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return plugin.Response{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	classifier, err := loadTemplates(TemplatesFile, cfg.Tolerance)
	if err != nil {
		return plugin.Response{}, err
	}

	matches := classifier.Match(req.Features)
	if len(matches) == 0 {
		return plugin.Response{}, nil
	}
	best := matches[0]
	return plugin.Response{Label: best.Template.Name, Confidence: confidence(best, cfg.Tolerance)}, nil
}

// confidence scales the match distance into [0, 1]: 1 at zero distance, 0 at the tolerance.
func confidence(m gesture.Match, tolerance float64) float64 {
	if tolerance <= 0 {
		tolerance = gesture.DefaultTolerance
	}
	return 1 - m.Distance/tolerance
}

// loadTemplates reads the template file into a classifier.
func loadTemplates(path string, tolerance float64) (*gesture.TemplateClassifier, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return gesture.NewTemplateClassifier(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read templates: %w", err)
	}

	var entries []templateEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	classifier := gesture.NewTemplateClassifier()
	for i, e := range entries {
		classifier.AddTemplate(&gesture.Template{
			ID:        fmt.Sprintf("%d", i),
			Name:      e.Label,
			Features:  e.Features,
			Tolerance: tolerance,
		})
	}
	return classifier, nil
}

// writeResponse writes a response to stdout.
func writeResponse(resp plugin.Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
