// Package plugin runs external gesture classifiers as subprocess plugins.
//
// A plugin is a directory holding a plugin.json manifest and an executable. For every
// frame the executable receives one JSON Request on stdin and answers with one JSON
// Response on stdout.
package plugin

import "encoding/json"

// ManifestFile is the manifest file name inside a plugin directory.
const ManifestFile = "plugin.json"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Executable  string `json:"executable"`
	// Labels lists every label the classifier can return.
	Labels []string `json:"labels"`
	// InputSize is the feature vector length the model was trained on.
	InputSize    int             `json:"inputSize"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Request represents a request sent to a plugin for classification.
type Request struct {
	Features []float64      `json:"features"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
