package capture

import (
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// Tap keeps a copy of the most recent camera image for preview consumers. Copies are
// only taken while at least one consumer is subscribed, so the capture loop pays
// nothing when nobody is watching.
type Tap struct {
	subs   atomic.Int32
	mu     sync.Mutex
	latest gocv.Mat
	seq    uint64
	has    bool
}

// NewTap returns an empty Tap.
func NewTap() *Tap {
	return &Tap{}
}

// Subscribe registers a consumer and returns the function that unregisters it.
func (t *Tap) Subscribe() func() {
	t.subs.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { t.subs.Add(-1) })
	}
}

// Active reports whether any consumer is subscribed.
func (t *Tap) Active() bool {
	return t.subs.Load() > 0
}

// Store copies the frame image if a consumer is subscribed.
func (t *Tap) Store(f Frame) {
	if !t.Active() || f.Mat == nil || f.Mat.Empty() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.has {
		t.latest = gocv.NewMat()
	}
	f.Mat.CopyTo(&t.latest)
	t.seq = f.Seq
	t.has = true
}

// Latest returns a clone of the most recent image and its sequence number.
// The caller owns the returned Mat.
func (t *Tap) Latest() (gocv.Mat, uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.has {
		return gocv.Mat{}, 0, false
	}
	return t.latest.Clone(), t.seq, true
}

// Close releases the stored image.
func (t *Tap) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.has {
		t.latest.Close()
		t.has = false
	}
}
