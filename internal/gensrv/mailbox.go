package gensrv

import (
	"context"
	"sync"
	"sync/atomic"
)

// mailbox is the bounded, context-aware channel transport shared by a
// Connection (sender side) and a Process (receiver side). Its send/close
// safety rules are identical to the teacher's ChannelMailbox: Close grabs
// a write lock so it can never race a concurrent Send into a
// soon-to-be-closed channel.
//
// Thread safety:
//   - send may be called concurrently from any number of goroutines.
//   - receive must only be called from the owning Process's loop
//     goroutine.
//   - closeMailbox is idempotent and safe to call concurrently with send.
type mailbox[Req, Resp any] struct {
	ch     chan Envelope[Req, Resp]
	closed atomic.Bool

	// mu is held for the duration of every send so that close cannot
	// race a concurrent channel send (which would panic). Close takes
	// the write lock, guaranteeing no send is in flight when the
	// channel is actually closed.
	mu        sync.RWMutex
	closeOnce sync.Once
}

// newMailbox allocates a mailbox with the given capacity, defaulting to 1
// for a non-positive value so the mailbox is always buffered.
func newMailbox[Req, Resp any](capacity int) *mailbox[Req, Resp] {
	if capacity <= 0 {
		capacity = 1
	}
	return &mailbox[Req, Resp]{
		ch: make(chan Envelope[Req, Resp], capacity),
	}
}

// send attempts to enqueue env, blocking until it is accepted, ctx is
// cancelled, or the mailbox is closed. Returns true only if the envelope
// was actually enqueued.
func (m *mailbox[Req, Resp]) send(ctx context.Context, env Envelope[Req, Resp]) bool {
	if ctx.Err() != nil {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed.Load() {
		return false
	}

	select {
	case m.ch <- env:
		return true
	case <-ctx.Done():
		return false
	}
}

// receive blocks until an envelope is available, ctx is cancelled, or the
// mailbox is closed and drained. The second return value is false exactly
// when the loop should exit: either ctx is done, or the channel is closed
// and empty.
func (m *mailbox[Req, Resp]) receive(ctx context.Context) (Envelope[Req, Resp], bool) {
	select {
	case env, ok := <-m.ch:
		return env, ok
	case <-ctx.Done():
		var zero Envelope[Req, Resp]
		return zero, false
	}
}

// closeMailbox closes the mailbox so that subsequent sends fail. Safe to
// call multiple times; only the first call has an effect.
func (m *mailbox[Req, Resp]) closeMailbox() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		m.closed.Store(true)
		close(m.ch)
	})
}

// isClosed reports whether closeMailbox has been called.
func (m *mailbox[Req, Resp]) isClosed() bool {
	return m.closed.Load()
}
