package pipeline

import (
	"math"

	"github.com/ayusman/bebas/internal/skeleton"
)

// Normalize shifts every valid point so that the smallest valid x and the smallest
// valid y become zero. Absent points are left untouched, and a set with no valid
// points is returned unchanged. Normalizing twice equals normalizing once.
func Normalize(pts skeleton.Points) skeleton.Points {
	minX, minY := math.Inf(1), math.Inf(1)
	found := false

	for _, p := range pts {
		if !p.Valid {
			continue
		}
		found = true
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
	}

	if !found {
		return pts
	}

	out := pts
	for i, p := range out {
		if !p.Valid {
			continue
		}
		out[i] = skeleton.Pt(p.X-minX, p.Y-minY)
	}
	return out
}
