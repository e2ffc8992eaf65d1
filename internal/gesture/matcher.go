package gesture

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/ayusman/bebas/internal/skeleton"
)

// DefaultTolerance is the mean per-point distance, in display units, below which a
// template matches.
const DefaultTolerance = 40.0

// Template is a trained gesture: the averaged feature vector of its samples.
type Template struct {
	ID        string    // Unique identifier for the template
	Name      string    // Label reported on a match
	Features  []float64 // skeleton.FeatureLen values
	Tolerance float64   // Maximum mean point distance for a match
}

// Match represents a matching result between input and a template.
type Match struct {
	Template *Template // The matched template
	Score    float64   // Match score (0-1, higher is better)
	Distance float64   // Mean distance between input and template points
}

// TemplateClassifier labels feature vectors with the nearest registered template.
// It is safe for concurrent use; templates may be replaced while classifying.
type TemplateClassifier struct {
	mu        sync.RWMutex
	templates []*Template
}

// NewTemplateClassifier creates a classifier with no templates.
func NewTemplateClassifier() *TemplateClassifier {
	return &TemplateClassifier{
		templates: make([]*Template, 0),
	}
}

// AddTemplate adds a gesture template. Templates with the wrong feature length are ignored.
func (m *TemplateClassifier) AddTemplate(t *Template) {
	if t == nil || len(t.Features) != skeleton.FeatureLen {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates = append(m.templates, t)
}

// RemoveTemplate removes a template by its ID.
func (m *TemplateClassifier) RemoveTemplate(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.templates {
		if t.ID == id {
			m.templates = append(m.templates[:i], m.templates[i+1:]...)
			return
		}
	}
}

// Replace swaps the whole template set.
func (m *TemplateClassifier) Replace(templates []*Template) {
	kept := make([]*Template, 0, len(templates))
	for _, t := range templates {
		if t != nil && len(t.Features) == skeleton.FeatureLen {
			kept = append(kept, t)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates = kept
}

// Len returns the number of registered templates.
func (m *TemplateClassifier) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.templates)
}

// Match finds templates within tolerance of the input.
// Returns matches sorted by score in descending order (best matches first).
func (m *TemplateClassifier) Match(features []float64) []Match {
	if len(features) != skeleton.FeatureLen {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Match
	for _, template := range m.templates {
		distance := meanPointDistance(features, template.Features)

		tolerance := template.Tolerance
		if tolerance <= 0 {
			tolerance = DefaultTolerance
		}

		if distance <= tolerance {
			matches = append(matches, Match{
				Template: template,
				Score:    1.0 / (1.0 + distance),
				Distance: distance,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}

// Classify returns the name of the best matching template, or ErrNoMatch.
func (m *TemplateClassifier) Classify(_ context.Context, features []float64) (string, error) {
	matches := m.Match(features)
	if len(matches) == 0 {
		return "", ErrNoMatch
	}
	return matches[0].Template.Name, nil
}

// meanPointDistance averages the 2D distance between corresponding points of two
// feature vectors. Points that are (0, 0) in both vectors are absent from both and
// do not count; a point present in only one vector counts at full distance.
func meanPointDistance(a, b []float64) float64 {
	var total float64
	n := 0
	for i := 0; i+1 < len(a) && i+1 < len(b); i += 2 {
		ax, ay, bx, by := a[i], a[i+1], b[i], b[i+1]
		if ax == 0 && ay == 0 && bx == 0 && by == 0 {
			continue
		}
		total += math.Hypot(ax-bx, ay-by)
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}
