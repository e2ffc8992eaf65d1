// Package pipeline turns camera frames into hand-point sets and gesture labels.
package pipeline

import "github.com/ayusman/bebas/internal/skeleton"

// DisplayMetrics is the size of the consumer's display surface, in display units.
type DisplayMetrics struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Mapper converts capability-space landmarks into display points and gates them on
// confidence.
//
// The capability reports x growing downward in capture and y growing rightward, from
// a front camera. Display space is the mirrored view the user sees:
//
//	display_x = (1 - raw_y) * width
//	display_y = raw_x * height + verticalOffset
type Mapper struct {
	display        DisplayMetrics
	threshold      float64
	verticalOffset float64
}

// NewMapper returns a Mapper. Landmarks with confidence below threshold map to Absent.
func NewMapper(display DisplayMetrics, threshold, verticalOffset float64) *Mapper {
	return &Mapper{
		display:        display,
		threshold:      threshold,
		verticalOffset: verticalOffset,
	}
}

// Display returns the metrics the mapper projects into.
func (m *Mapper) Display() DisplayMetrics {
	return m.display
}

// Map converts one landmark.
func (m *Mapper) Map(lm skeleton.Landmark) skeleton.Point {
	if lm.Confidence < m.threshold {
		return skeleton.Absent
	}
	return skeleton.Pt(
		(1-lm.Y)*m.display.Width,
		lm.X*m.display.Height+m.verticalOffset,
	)
}

// MapHand converts every joint of a hand, preserving joint order.
func (m *Mapper) MapHand(h skeleton.Hand) skeleton.Slot {
	var s skeleton.Slot
	for j, lm := range h.Landmarks {
		s[j] = m.Map(lm)
	}
	return s
}
