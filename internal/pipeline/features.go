package pipeline

import (
	"fmt"

	"github.com/ayusman/bebas/internal/skeleton"
)

// BuildFeatures flattens points into the classifier input: x then y for every point in
// slot and joint order. Absent points become (0, 0) here and nowhere else.
//
// A point count other than skeleton.NumPoints means the joint catalog drifted from the
// trained layout, so it panics rather than classify garbage.
func BuildFeatures(pts []skeleton.Point) []float64 {
	if len(pts) != skeleton.NumPoints {
		panic(fmt.Sprintf("pipeline: feature input has %d points, want %d", len(pts), skeleton.NumPoints))
	}

	features := make([]float64, 0, skeleton.FeatureLen)
	for _, p := range pts {
		if !p.Valid {
			features = append(features, 0, 0)
			continue
		}
		features = append(features, p.X, p.Y)
	}

	if len(features) != skeleton.FeatureLen {
		panic(fmt.Sprintf("pipeline: feature vector has %d values, want %d", len(features), skeleton.FeatureLen))
	}
	return features
}
