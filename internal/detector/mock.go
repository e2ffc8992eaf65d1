package detector

import (
	"context"
	"sync"
	"time"

	"github.com/ayusman/bebas/internal/capture"
	"github.com/ayusman/bebas/internal/skeleton"
	"golang.org/x/xerrors"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results and latency.
type MockDetector struct {
	mu    sync.Mutex
	hands []skeleton.Hand
	err   error
	delay time.Duration
	fn    func(capture.Frame) ([]skeleton.Hand, error)
	seen  []uint64
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []skeleton.Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetDelay makes every Detect call take at least d, unless its context ends first.
func (m *MockDetector) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetFunc computes results per frame. It takes precedence over SetHands and SetError.
func (m *MockDetector) SetFunc(fn func(capture.Frame) ([]skeleton.Hand, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
}

// Seen returns the sequence numbers of every frame passed to Detect, in call order.
func (m *MockDetector) Seen() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint64(nil), m.seen...)
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(ctx context.Context, frame capture.Frame) ([]skeleton.Hand, error) {
	m.mu.Lock()
	m.seen = append(m.seen, frame.Seq)
	delay, fn, hands, err := m.delay, m.fn, m.hands, m.err
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, xerrors.Errorf("detect frame %d: %v: %w", frame.Seq, ctx.Err(), ErrExtraction)
		}
	}

	if fn != nil {
		return fn(frame)
	}
	if err != nil {
		return nil, err
	}
	return append([]skeleton.Hand(nil), hands...), nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}
