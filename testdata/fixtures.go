// Package testdata builds synthetic frames and training payloads for tests.
package testdata

import (
	"encoding/json"
	"image"
	"image/color"
	"time"

	"github.com/ayusman/bebas/internal/gesture"
	"gocv.io/x/gocv"
)

// Frame returns a black BGR frame of the given size. The caller owns it.
func Frame(width, height int) *gocv.Mat {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	return &mat
}

// MovingSquare returns n frames with a white square sliding left to right, for motion
// tests. The caller owns them.
func MovingSquare(n, width, height int) []*gocv.Mat {
	side := height / 4
	frames := make([]*gocv.Mat, 0, n)
	for i := 0; i < n; i++ {
		f := Frame(width, height)
		x := (i * (width - side)) / max(n-1, 1)
		rect := image.Rect(x, height/2-side/2, x+side, height/2+side/2)
		gocv.Rectangle(f, rect, color.RGBA{255, 255, 255, 0}, -1)
		frames = append(frames, f)
	}
	return frames
}

// CloseAll releases frames.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}

// Samples encodes n recorded samples of features, one frame apart.
func Samples(features []float64, n int) []json.RawMessage {
	start := time.Unix(0, 0)
	out := make([]json.RawMessage, 0, n)
	for i := 0; i < n; i++ {
		data, _ := json.Marshal(gesture.Sample{
			Features:  features,
			Timestamp: start.Add(time.Duration(i) * 66 * time.Millisecond).UnixMilli(),
		})
		out = append(out, data)
	}
	return out
}
