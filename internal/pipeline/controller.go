package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/bebas/internal/capture"
	"github.com/ayusman/bebas/internal/detector"
	"github.com/ayusman/bebas/internal/gesture"
	"github.com/ayusman/bebas/internal/lgr"
	"github.com/ayusman/bebas/internal/skeleton"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

var (
	// ErrCaptureLost is reported when the capture source keeps failing to deliver frames.
	ErrCaptureLost = errors.New("capture source lost")
	// ErrAlreadyStarted is returned by Start on a controller that was started before.
	ErrAlreadyStarted = errors.New("pipeline already started")
)

// Source is a capture device the controller reads frames from.
type Source interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
}

// Options tunes the controller.
type Options struct {
	Display             DisplayMetrics
	ConfidenceThreshold float64
	VerticalOffset      float64
	// Normalize enables the PointNormalizer stage.
	Normalize bool
	// Placeholder is delivered as the label when classification fails.
	Placeholder string
	// SmoothingWindow enables label smoothing over that many frames when above 1.
	SmoothingWindow int
	// ShutdownGrace bounds how long Stop waits for in-flight work.
	ShutdownGrace time.Duration
	// MaxReadFailures consecutive read errors end the session with ErrCaptureLost.
	MaxReadFailures int
	// ReadRetryDelay is the pause after a failed read.
	ReadRetryDelay time.Duration
	// Tap, if set, receives every captured frame before it is offered to the worker.
	Tap *capture.Tap
	// Tracer records one "pipeline.frame" span per processed frame. Defaults to a no-op
	// tracer.
	Tracer trace.Tracer
	Logger *slog.Logger
}

// DefaultOptions returns options for a 390x844 portrait display.
func DefaultOptions() Options {
	return Options{
		Display:             DisplayMetrics{Width: 390, Height: 844},
		ConfidenceThreshold: 0.5,
		Normalize:           true,
		Placeholder:         "unknown",
		ShutdownGrace:       2 * time.Second,
		MaxReadFailures:     30,
		ReadRetryDelay:      10 * time.Millisecond,
	}
}

// Controller runs the frame-to-gesture pipeline.
//
// Frames enter through Submit, which never blocks: a single worker goroutine processes
// one frame at a time and any frame arriving while it is busy is dropped. Results go
// through a latest-wins Mailbox to a delivery goroutine, the only goroutine that calls
// the Observer.
type Controller struct {
	opts       Options
	detector   detector.Detector
	classifier gesture.Classifier
	observer   Observer
	mapper     *Mapper
	smoother   *gesture.Smoother
	mailbox    *Mailbox
	tracer     trace.Tracer
	log        *slog.Logger

	jobs  chan job
	state atomic.Int32

	intake sync.Mutex
	order  uint64
	stats counters

	mu       sync.Mutex
	started  bool
	stopped  bool
	ctx      context.Context
	cancel   context.CancelFunc
	producer chan struct{}
	worker   chan struct{}
	group    *errgroup.Group
	done     chan struct{}
	err      error
	stopOnce sync.Once
}

// New creates a controller. The observer is fixed for the controller's lifetime.
func New(d detector.Detector, c gesture.Classifier, obs Observer, opts Options) *Controller {
	defaults := DefaultOptions()
	if opts.ShutdownGrace <= 0 {
		opts.ShutdownGrace = defaults.ShutdownGrace
	}
	if opts.MaxReadFailures <= 0 {
		opts.MaxReadFailures = defaults.MaxReadFailures
	}
	if opts.ReadRetryDelay <= 0 {
		opts.ReadRetryDelay = defaults.ReadRetryDelay
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("bebas/pipeline")
	}
	if opts.Logger == nil {
		opts.Logger = lgr.Logger
	}
	if obs == nil {
		obs = Observers{}
	}

	ctrl := &Controller{
		opts:       opts,
		detector:   d,
		classifier: c,
		observer:   obs,
		mapper:     NewMapper(opts.Display, opts.ConfidenceThreshold, opts.VerticalOffset),
		mailbox:    NewMailbox(),
		tracer:     opts.Tracer,
		log:        opts.Logger,
		jobs:       make(chan job),
		done:       make(chan struct{}),
	}
	if opts.SmoothingWindow > 1 {
		ctrl.smoother = gesture.NewSmoother(opts.SmoothingWindow)
	}
	ctrl.state.Store(int32(StateIdle))
	return ctrl
}

// Start opens src and starts the pipeline. A nil src starts the pipeline without a
// producer; frames then arrive only through Submit. An error opening src is returned
// as is and leaves the controller idle.
func (c *Controller) Start(ctx context.Context, src Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started || c.stopped {
		return ErrAlreadyStarted
	}

	if src != nil {
		if err := src.Open(); err != nil {
			return xerrors.Errorf("open capture source: %w", err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.group, c.ctx = errgroup.WithContext(runCtx)
	c.cancel = cancel
	c.started = true
	c.worker = make(chan struct{})
	c.setState(StateCapturing)

	c.group.Go(func() error {
		defer close(c.worker)
		c.runWorker(c.ctx)
		return nil
	})
	c.group.Go(func() error {
		c.runDelivery(c.ctx)
		return nil
	})

	if src != nil {
		c.producer = make(chan struct{})
		c.group.Go(func() error {
			defer close(c.producer)
			return c.runProducer(c.ctx, src)
		})
	}

	go func() {
		err := c.group.Wait()
		cancel()
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
	}()

	c.log.Info("pipeline started",
		slog.Bool("producer", src != nil),
		slog.Float64("threshold", c.opts.ConfidenceThreshold),
		slog.Bool("normalize", c.opts.Normalize))
	return nil
}

// job is a frame accepted by Submit together with its intake position.
type job struct {
	frame capture.Frame
	order uint64
}

// Submit offers a frame to the worker without blocking. It returns false, and closes
// the frame, if the worker is busy or the pipeline is not running. The controller owns
// the frame either way. Delivery order follows acceptance order, so f.Seq may be zero
// or repeat.
func (c *Controller) Submit(f capture.Frame) bool {
	c.stats.submitted.Add(1)

	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		c.stats.dropped.Add(1)
		f.Close()
		return false
	}

	c.intake.Lock()
	select {
	case c.jobs <- job{frame: f, order: c.order + 1}:
		c.order++
		c.intake.Unlock()
		return true
	default:
		c.intake.Unlock()
		c.stats.dropped.Add(1)
		f.Close()
		return false
	}
}

// Stop ends the session. It stops intake, cancels in-flight work, waits for the
// producer to release the capture source, and waits up to ShutdownGrace for the
// worker before abandoning it. Stop is idempotent and safe before Start.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.stopped = true
		cancel, producer, worker := c.cancel, c.producer, c.worker
		c.mu.Unlock()

		if cancel == nil {
			c.setState(StateStopped)
			close(c.done)
			return
		}

		cancel()

		if producer != nil {
			<-producer
		}

		select {
		case <-worker:
		case <-time.After(c.opts.ShutdownGrace):
			c.log.Warn("pipeline worker abandoned after shutdown grace",
				slog.Duration("grace", c.opts.ShutdownGrace))
		}

		c.setState(StateStopped)
		c.log.Info("pipeline stopped", slog.Any("stats", c.Stats()))
	})
}

// Done is closed once every pipeline goroutine has exited.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Err returns ErrCaptureLost, wrapped, if the session ended because the capture
// source failed. It is nil for sessions ended by Stop.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// State returns the current state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Stats returns a snapshot of the frame counters.
func (c *Controller) Stats() Stats {
	s := c.stats.snapshot()
	s.Superseded = c.mailbox.Superseded()
	return s
}

func (c *Controller) setState(s State) {
	for {
		cur := State(c.state.Load())
		if cur == StateStopped {
			return
		}
		if c.state.CompareAndSwap(int32(cur), int32(s)) {
			return
		}
	}
}

func (c *Controller) runProducer(ctx context.Context, src Source) error {
	defer func() {
		if err := src.Close(); err != nil {
			c.log.Warn("close capture source", lgr.Err(err))
		}
	}()

	var seq uint64
	failures := 0

	for ctx.Err() == nil {
		mat, err := src.ReadFrame()
		if err != nil {
			c.stats.readFailures.Add(1)
			failures++
			if failures >= c.opts.MaxReadFailures {
				lost := xerrors.Errorf("%d consecutive read failures, last: %v: %w", failures, err, ErrCaptureLost)
				c.log.Error("capture source lost", lgr.Err(lost))
				c.reportCaptureError(lost)
				c.setState(StateStopped)
				return lost
			}
			select {
			case <-ctx.Done():
			case <-time.After(c.opts.ReadRetryDelay):
			}
			continue
		}
		failures = 0

		seq++
		frame := capture.Frame{Mat: mat, Seq: seq, Timestamp: time.Now()}
		if c.opts.Tap != nil {
			c.opts.Tap.Store(frame)
		}
		c.Submit(frame)
	}
	return nil
}

func (c *Controller) reportCaptureError(err error) {
	if eo, ok := c.observer.(ErrorObserver); ok {
		eo.OnCaptureError(err)
	}
}

func (c *Controller) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-c.jobs:
			c.process(ctx, j)
		}
	}
}

// process runs one frame through every stage and posts the result to the mailbox.
func (c *Controller) process(ctx context.Context, j job) {
	f := j.frame
	defer f.Close()

	ctx, span := c.tracer.Start(ctx, "pipeline.frame",
		trace.WithAttributes(attribute.Int64("frame.seq", int64(f.Seq))))
	defer span.End()

	res := FrameResult{Seq: f.Seq, Timestamp: f.Timestamp, order: j.order}

	c.setState(StateExtracting)
	hands, err := c.detector.Detect(ctx, f)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		c.stats.extractionFailures.Add(1)
		c.log.Debug("hand extraction failed", slog.Uint64("seq", f.Seq), lgr.Err(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		res.Err = err
		hands = nil
	}

	res.Hands = len(hands)
	mapped := make([]skeleton.Slot, len(hands))
	for i, h := range hands {
		mapped[i] = c.mapper.MapHand(h)
	}

	res.Display = skeleton.Join(AssignSlots(mapped))
	res.Points = res.Display
	if c.opts.Normalize {
		res.Points = Normalize(res.Display)
	}
	res.Features = BuildFeatures(res.Points[:])

	span.SetAttributes(
		attribute.Int("hands", res.Hands),
		attribute.Int("points.valid", res.Points.ValidCount()))

	if res.Points.HasValid() {
		c.setState(StateClassifying)
		label, err := c.classifier.Classify(ctx, res.Features)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.stats.classificationFailures.Add(1)
			c.log.Debug("classification failed", slog.Uint64("seq", f.Seq), lgr.Err(err))
			span.SetStatus(codes.Error, err.Error())
			label = c.opts.Placeholder
		}
		res.Label, res.HasLabel = label, true
		span.SetAttributes(attribute.String("label", label))
	}

	c.setState(StateDelivering)
	if !c.mailbox.Put(res) {
		c.stats.stale.Add(1)
	}
	c.stats.processed.Add(1)
	c.setState(StateCapturing)
}

func (c *Controller) runDelivery(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.mailbox.Ready():
			r, ok := c.mailbox.Take()
			if !ok {
				continue
			}
			c.deliver(r)
		}
	}
}

func (c *Controller) deliver(r FrameResult) {
	c.stats.delivered.Add(1)

	if ro, ok := c.observer.(ResultObserver); ok {
		ro.OnResult(r)
	}
	c.observer.OnPoints(r.Points)

	if !r.HasLabel {
		return
	}

	label := r.Label
	if c.smoother != nil {
		label = c.smoother.Push(label)
	}
	c.observer.OnLabel(label)
}
