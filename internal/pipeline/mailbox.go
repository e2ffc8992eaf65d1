package pipeline

import "sync"

// Mailbox is a single-slot, latest-wins hand-off between the worker and the delivery
// context. A result is accepted only if its frame entered the pipeline after every
// result accepted before it, so the consumer never sees an older frame after a newer one.
// Ordering uses the controller's intake order, not the capture sequence number.
type Mailbox struct {
	mu         sync.Mutex
	pending    FrameResult
	hasPending bool
	lastOrder  uint64
	superseded uint64
	ready      chan struct{}
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{ready: make(chan struct{}, 1)}
}

// Put offers a result. It returns false and discards r if a result taken in at the same
// or a later position was already accepted. An unread older result is overwritten.
func (m *Mailbox) Put(r FrameResult) bool {
	m.mu.Lock()
	if r.order <= m.lastOrder {
		m.mu.Unlock()
		return false
	}
	if m.hasPending {
		m.superseded++
	}
	m.pending = r
	m.hasPending = true
	m.lastOrder = r.order
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
	return true
}

// Take removes and returns the pending result, if any.
func (m *Mailbox) Take() (FrameResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasPending {
		return FrameResult{}, false
	}
	r := m.pending
	m.pending = FrameResult{}
	m.hasPending = false
	return r, true
}

// Ready is signalled after a successful Put. A signal may cover several Puts.
func (m *Mailbox) Ready() <-chan struct{} {
	return m.ready
}

// Superseded returns how many accepted results were overwritten before being read.
func (m *Mailbox) Superseded() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.superseded
}
