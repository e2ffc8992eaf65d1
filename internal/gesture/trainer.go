package gesture

import (
	"encoding/json"

	"github.com/ayusman/bebas/internal/skeleton"
	"golang.org/x/xerrors"
)

// Trainer processes recorded samples into gesture templates.
type Trainer struct{}

// NewTrainer creates a new Trainer instance.
func NewTrainer() *Trainer {
	return &Trainer{}
}

// Sample is one recorded frame of a gesture: the feature vector the pipeline built.
type Sample struct {
	Features  []float64 `json:"features"`
	Timestamp int64     `json:"timestamp"`
}

// Train averages the feature vectors of several samples into a template vector.
func (t *Trainer) Train(samples []json.RawMessage) ([]float64, error) {
	if len(samples) == 0 {
		return nil, xerrors.New("no samples provided")
	}

	vectors := make([][]float64, 0, len(samples))
	for i, raw := range samples {
		var sample Sample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return nil, xerrors.Errorf("failed to parse sample %d: %w", i, err)
		}

		if len(sample.Features) != skeleton.FeatureLen {
			return nil, xerrors.Errorf("sample %d has %d features, expected %d", i, len(sample.Features), skeleton.FeatureLen)
		}

		vectors = append(vectors, sample.Features)
	}

	return Average(vectors), nil
}

// Average returns the element-wise mean of equally sized vectors.
func Average(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}

	averaged := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		for i := range averaged {
			averaged[i] += v[i]
		}
	}

	n := float64(len(vectors))
	for i := range averaged {
		averaged[i] /= n
	}
	return averaged
}
