package pipeline

import (
	"time"

	"github.com/ayusman/bebas/internal/skeleton"
)

// FrameResult is everything the pipeline derived from one frame.
type FrameResult struct {
	// Seq is the capture sequence number of the frame, zero for frames without one.
	Seq       uint64
	Timestamp time.Time

	// order is the intake position assigned by the controller; the mailbox orders by it.
	order uint64

	// Display holds the mapped points before normalization, for drawing over the frame.
	Display skeleton.Points
	// Points is what observers receive: Display, normalized when that stage is enabled.
	Points   skeleton.Points
	Features []float64

	// Label is set only when HasLabel is true, i.e. at least one point is valid.
	Label    string
	HasLabel bool

	// Hands is the number of hands the detector reported.
	Hands int
	// Err is the extraction error, if extraction failed. Points are all Absent then.
	Err error
}
