package pipeline

import "github.com/ayusman/bebas/internal/skeleton"

// Observer consumes pipeline output. Its methods are called from a single delivery
// goroutine, never concurrently, and must not block for long.
type Observer interface {
	// OnPoints receives the 42 points of every processed frame, all Absent when no
	// hand was found.
	OnPoints(points skeleton.Points)
	// OnLabel receives the label of every processed frame with at least one valid point.
	OnLabel(label string)
}

// ResultObserver is implemented by observers that want the whole FrameResult.
// OnResult is called before OnPoints for the same frame.
type ResultObserver interface {
	OnResult(r FrameResult)
}

// ErrorObserver is implemented by observers that want to hear about a lost capture
// source. It is called at most once per session.
type ErrorObserver interface {
	OnCaptureError(err error)
}

// Observers fans out to several observers in order.
type Observers []Observer

func (obs Observers) OnPoints(points skeleton.Points) {
	for _, o := range obs {
		o.OnPoints(points)
	}
}

func (obs Observers) OnLabel(label string) {
	for _, o := range obs {
		o.OnLabel(label)
	}
}

func (obs Observers) OnResult(r FrameResult) {
	for _, o := range obs {
		if ro, ok := o.(ResultObserver); ok {
			ro.OnResult(r)
		}
	}
}

func (obs Observers) OnCaptureError(err error) {
	for _, o := range obs {
		if eo, ok := o.(ErrorObserver); ok {
			eo.OnCaptureError(err)
		}
	}
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Points func(skeleton.Points)
	Label  func(string)
}

func (f ObserverFuncs) OnPoints(points skeleton.Points) {
	if f.Points != nil {
		f.Points(points)
	}
}

func (f ObserverFuncs) OnLabel(label string) {
	if f.Label != nil {
		f.Label(label)
	}
}
