package capture

import (
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/bebas/internal/lgr"
	"gocv.io/x/gocv"
)

// Motion detection constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
)

// MotionDetector compares consecutive frames. Threshold is the percentage of pixels
// that must change, e.g. 1.0 means 1%.
type MotionDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionDetector creates a new MotionDetector with the given threshold.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect reports whether frame differs from the previous one, and by how much in
// percent. The first frame only sets the baseline. Frames without an image never count
// as motion.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized || m.prevGray.Rows() != blurred.Rows() || m.prevGray.Cols() != blurred.Cols() {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	changePercent := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100.0
	blurred.CopyTo(&m.prevGray)

	return changePercent > m.threshold, changePercent
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = false
}

// Close releases resources used by the motion detector.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prevGray.Close()
	m.prevGray = gocv.NewMat()
	m.initialized = false
}

// AdaptiveCamera lowers the capture rate while nothing moves in front of the camera
// and restores it as soon as something does. Every captured frame is still returned.
type AdaptiveCamera struct {
	Camera
	motion    *MotionDetector
	activeFPS int
	idleFPS   int
	idleAfter time.Duration
	now       func() time.Time

	lastMotion time.Time
	idle       atomic.Bool
}

// NewAdaptiveCamera wraps cam. The camera's current rate is used while active.
func NewAdaptiveCamera(cam Camera, idleFPS int, idleAfter time.Duration, threshold float64) *AdaptiveCamera {
	return &AdaptiveCamera{
		Camera:    cam,
		motion:    NewMotionDetector(threshold),
		activeFPS: cam.FPS(),
		idleFPS:   idleFPS,
		idleAfter: idleAfter,
		now:       time.Now,
	}
}

// Open opens the camera in active mode.
func (a *AdaptiveCamera) Open() error {
	if err := a.Camera.Open(); err != nil {
		return err
	}
	a.motion.Reset()
	a.lastMotion = a.now()
	if a.idle.Swap(false) {
		a.Camera.SetFPS(a.activeFPS)
	}
	return nil
}

// Close closes the camera.
func (a *AdaptiveCamera) Close() error {
	a.motion.Close()
	return a.Camera.Close()
}

// ReadFrame reads a frame and adjusts the rate for the next ones. It must not be
// called concurrently.
func (a *AdaptiveCamera) ReadFrame() (*gocv.Mat, error) {
	mat, err := a.Camera.ReadFrame()
	if err != nil {
		return nil, err
	}

	moved, _ := a.motion.Detect(mat)
	now := a.now()
	switch {
	case moved:
		a.lastMotion = now
		if a.idle.Swap(false) {
			a.Camera.SetFPS(a.activeFPS)
			lgr.Logger.Debug("camera active", slog.Int("fps", a.activeFPS))
		}
	case !a.idle.Load() && now.Sub(a.lastMotion) > a.idleAfter:
		a.idle.Store(true)
		a.Camera.SetFPS(a.idleFPS)
		lgr.Logger.Debug("camera idle", slog.Int("fps", a.idleFPS))
	}

	return mat, nil
}

// Idle reports whether the camera runs at the idle rate.
func (a *AdaptiveCamera) Idle() bool {
	return a.idle.Load()
}
