package capture

import (
	"time"

	"gocv.io/x/gocv"
)

// Frame is one captured image with its capture order. Seq increases by one for every
// frame read from a source, including frames that are later dropped.
type Frame struct {
	Mat       *gocv.Mat
	Seq       uint64
	Timestamp time.Time
}

// Close releases the underlying Mat. It is safe on frames without one.
func (f Frame) Close() {
	if f.Mat != nil {
		f.Mat.Close()
	}
}

// Size returns the frame width and height, or zeros when the frame has no image.
func (f Frame) Size() (int, int) {
	if f.Mat == nil || f.Mat.Empty() {
		return 0, 0
	}
	return f.Mat.Cols(), f.Mat.Rows()
}
