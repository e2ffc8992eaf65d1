// Package practice scores a learner's signing against a target word.
package practice

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/bebas/internal/gesture"
	"github.com/ayusman/bebas/internal/lgr"
	"github.com/ayusman/bebas/internal/skeleton"
	"github.com/ayusman/bebas/internal/store"
	"github.com/google/uuid"
)

// ErrUnknownWord is returned when the target is not in the vocabulary.
var ErrUnknownWord = errors.New("word not in vocabulary")

// Recorder persists finished attempts. *store.AttemptRepository implements it.
type Recorder interface {
	Create(a *store.Attempt) error
}

// Status is a snapshot of the session.
type Status struct {
	SessionID string `json:"session_id"`
	Target    string `json:"target"`
	LastLabel string `json:"last_label"`
	Streak    int    `json:"streak"`
	Frames    int    `json:"frames"`
	Matched   int    `json:"matched"`
	Failed    int    `json:"failed"`
}

// Session is a pipeline observer that turns labels into practice attempts.
//
// An attempt at the target succeeds once the classifier reports the target for
// streak consecutive labelled frames, and fails after maxFrames labelled frames
// without such a streak. Frames without a hand do not produce labels and so neither
// extend nor break a streak.
type Session struct {
	id        string
	streak    int
	maxFrames int
	recorder  Recorder
	onAttempt func(store.Attempt)
	now       func() time.Time

	mu     sync.Mutex
	status Status
}

// Options configures a Session.
type Options struct {
	Streak    int
	MaxFrames int
	Recorder  Recorder
	// OnAttempt is called after every finished attempt, from the delivery goroutine.
	OnAttempt func(store.Attempt)
}

// NewSession creates a session with no target.
func NewSession(opts Options) *Session {
	if opts.Streak < 1 {
		opts.Streak = 1
	}
	id := uuid.NewString()
	return &Session{
		id:        id,
		streak:    opts.Streak,
		maxFrames: opts.MaxFrames,
		recorder:  opts.Recorder,
		onAttempt: opts.OnAttempt,
		now:       time.Now,
		status:    Status{SessionID: id},
	}
}

// SetTarget starts a new attempt at word. An empty word pauses practice.
func (s *Session) SetTarget(word string) error {
	if word != "" && !gesture.InVocabulary(word) {
		return ErrUnknownWord
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Target = word
	s.status.Streak = 0
	s.status.Frames = 0
	return nil
}

// Status returns the current state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// OnPoints is part of pipeline.Observer; points are not scored.
func (s *Session) OnPoints(skeleton.Points) {}

// OnLabel scores one labelled frame.
func (s *Session) OnLabel(label string) {
	s.mu.Lock()
	st := &s.status
	st.LastLabel = label
	if st.Target == "" {
		s.mu.Unlock()
		return
	}

	st.Frames++
	if label == st.Target {
		st.Streak++
	} else {
		st.Streak = 0
	}

	var done *store.Attempt
	switch {
	case st.Streak >= s.streak:
		done = s.finish(true)
	case s.maxFrames > 0 && st.Frames >= s.maxFrames:
		done = s.finish(false)
	}
	s.mu.Unlock()

	if done != nil {
		s.record(*done)
	}
}

// finish closes the current attempt and starts the next one at the same target.
// Called with mu held.
func (s *Session) finish(matched bool) *store.Attempt {
	st := &s.status
	a := &store.Attempt{
		ID:        uuid.NewString(),
		SessionID: s.id,
		Target:    st.Target,
		Label:     st.LastLabel,
		Matched:   matched,
		Frames:    st.Frames,
		CreatedAt: s.now(),
	}
	if matched {
		st.Matched++
	} else {
		st.Failed++
	}
	st.Streak = 0
	st.Frames = 0
	return a
}

func (s *Session) record(a store.Attempt) {
	if s.recorder != nil {
		if err := s.recorder.Create(&a); err != nil {
			lgr.Logger.Error("failed to record attempt", slog.String("target", a.Target), lgr.Err(err))
		}
	}
	if s.onAttempt != nil {
		s.onAttempt(a)
	}
}
