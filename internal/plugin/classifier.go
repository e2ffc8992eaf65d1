package plugin

import (
	"context"
	"encoding/json"

	"github.com/ayusman/bebas/internal/gesture"
	"golang.org/x/xerrors"
)

// Classifier adapts a plugin to gesture.Classifier.
type Classifier struct {
	plugin        *Plugin
	exec          *Executor
	config        json.RawMessage
	minConfidence float64
}

// NewClassifier returns a classifier backed by p. Answers below minConfidence count
// as no match.
func NewClassifier(p *Plugin, exec *Executor, minConfidence float64, config json.RawMessage) *Classifier {
	return &Classifier{
		plugin:        p,
		exec:          exec,
		config:        config,
		minConfidence: minConfidence,
	}
}

// Plugin returns the backing plugin.
func (c *Classifier) Plugin() *Plugin {
	return c.plugin
}

// Classify sends the features to the plugin and returns its label.
func (c *Classifier) Classify(ctx context.Context, features []float64) (string, error) {
	if size := c.plugin.Manifest.InputSize; size > 0 && len(features) != size {
		return "", xerrors.Errorf("plugin %s expects %d features, got %d", c.plugin.Manifest.Name, size, len(features))
	}

	resp, err := c.exec.Execute(ctx, c.plugin, &Request{Features: features, Config: c.config})
	if err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", xerrors.Errorf("plugin %s: %s", c.plugin.Manifest.Name, resp.Error)
	}
	if resp.Label == "" || resp.Confidence < c.minConfidence {
		return "", gesture.ErrNoMatch
	}

	return resp.Label, nil
}
