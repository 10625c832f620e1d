// Package asyncmu provides a fair mutex whose acquisition can be
// abandoned. Callers that find the mutex held are queued, and the lock
// is handed to them strictly in arrival order: there is no barging,
// not even by a caller that arrives at the very instant the holder
// releases.
//
// Acquisition returns a Releaser, a single-use capability that ends the
// hold. Releasing passes the lock directly to the next queued caller
// (the mutex is never observably free while anyone waits), or, if
// nobody is waiting, frees it. Releasing a second time is a caller bug,
// but a harmless one: it is logged at warn level and otherwise ignored.
//
// A queued acquisition can be abandoned by cancelling its context, or
// by using Mutex.AcquireTimeout. An abandoned request leaves the queue
// without disturbing the order of the remaining waiters. A request that
// has already been granted cannot be abandoned; cancelling its context
// afterward has no effect.
//
// The usual way to use the mutex is via RunExclusive, which guarantees
// release on every exit path:
//
//	n, err := asyncmu.RunExclusive(ctx, mu, func() (int, error) {
//		return counter.Inc(), nil
//	})
//
// Mutex also implements sync.Locker, plus TryLock and LockContext, so
// it can be used as a drop-in replacement for sync.Mutex where FIFO
// fairness is required.
package asyncmu

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/neilotoole/asyncmu/internal/waitq"
)

var _ sync.Locker = (*Mutex)(nil)

// noTimeout is passed to Mutex.acquire for unbounded waits.
const noTimeout time.Duration = -1

// Option is a functional option for New.
type Option func(m *Mutex)

// WithLogger sets the logger that receives the mutex's diagnostics.
// Currently, the only record emitted is the warn-level
// "mutex already released", logged when a Releaser is used twice.
// If log is nil, diagnostics are discarded.
func WithLogger(log *slog.Logger) Option {
	return func(m *Mutex) {
		m.log = log
	}
}

// New returns a new Mutex ready for use.
func New(opts ...Option) *Mutex {
	m := &Mutex{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mutex is a mutual exclusion lock that grants ownership in FIFO
// order.
//
// The zero value for a Mutex is an unlocked mutex that discards its
// diagnostics. A Mutex must not be copied after first use.
type Mutex struct {
	// log receives diagnostics. See WithLogger.
	log *slog.Logger

	// waiting is the FIFO queue of requests blocked in acquire.
	// Invariant: if holder is nil, waiting is empty.
	waiting waitq.List[*waiter]

	// holder is the outstanding Releaser, or nil when the mutex is free.
	holder *Releaser

	// idle holds the channels of WaitForUnlock callers. Each is
	// closed when the mutex next becomes free, or removed when its
	// caller gives up.
	idle waitq.List[chan struct{}]

	// grants is the number of Releasers minted so far.
	grants uint64

	// mu guards all of the above. It is only ever held for the
	// duration of a state transition, never while blocking.
	mu sync.Mutex
}

// waiter is a queued acquisition request.
type waiter struct {
	// ready receives the request's outcome exactly once. It is
	// buffered, so that the grant or rejection never blocks the
	// goroutine delivering it.
	ready chan outcome

	// stop deregisters the request's cancellation callback. It is
	// nil if the request's context can never be cancelled.
	stop func() bool

	// pinned is set for Lock callers, which have no way to report
	// failure. Cancel leaves pinned waiters in the queue.
	pinned bool
}

// outcome is delivered to a waiter: either a Releaser or the reason
// the request was rejected.
type outcome struct {
	r   *Releaser
	err error
}

// Acquire locks m, returning the Releaser that unlocks it.
//
// If m is free, Acquire returns immediately. Otherwise the calling
// goroutine is queued behind any other waiters, and blocks until m is
// handed to it, or until ctx is done. In the latter case, Acquire
// returns a *CancelError carrying context.Cause(ctx), and m is
// unaffected.
//
// If ctx is already done on entry, Acquire fails without inspecting
// m, even if m is free.
func (m *Mutex) Acquire(ctx context.Context) (*Releaser, error) {
	return m.acquire(ctx, noTimeout, false)
}

// AcquireTimeout is like Acquire, but gives up if m has not been
// granted within timeout, returning a *CancelError whose cause is
// ErrTimeout. A free mutex is always granted, even if timeout is
// zero. If timeout is negative, ErrInvalidTimeout is returned.
func (m *Mutex) AcquireTimeout(ctx context.Context, timeout time.Duration) (*Releaser, error) {
	if timeout < 0 {
		return nil, ErrInvalidTimeout
	}
	return m.acquire(ctx, timeout, false)
}

// acquire implements the acquisition path. If pinned is true, a
// queued request is immune to Cancel.
func (m *Mutex) acquire(ctx context.Context, timeout time.Duration, pinned bool) (*Releaser, error) {
	if ctx.Err() != nil {
		return nil, newCancelError(ctx)
	}

	m.mu.Lock()
	if m.holder == nil {
		r := m.grantLocked()
		m.mu.Unlock()
		return r, nil
	}

	if timeout != noTimeout {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, timeout, ErrTimeout)
		defer cancel()
	}

	w := &waiter{ready: make(chan outcome, 1), pinned: pinned}
	elem := m.waiting.PushBack(w)
	if ctx.Done() != nil {
		// Registered under m.mu, so it can't race the grant: the
		// callback takes m.mu, and by then w.stop is set.
		w.stop = context.AfterFunc(ctx, func() {
			m.reject(elem, newCancelError(ctx))
		})
	}
	m.mu.Unlock()

	o := <-w.ready
	return o.r, o.err
}

// TryAcquire acquires m if it is free, returning the Releaser and
// true. If m is held, TryAcquire returns nil and false without
// blocking.
func (m *Mutex) TryAcquire() (*Releaser, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.holder != nil {
		return nil, false
	}
	return m.grantLocked(), true
}

// reject removes elem from the queue and delivers err to its waiter.
// If elem has already left the queue, reject is a no-op.
func (m *Mutex) reject(elem *waitq.Element[*waiter], err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.waiting.Remove(elem) {
		// Already granted, or already rejected by Cancel.
		return
	}
	elem.Value.ready <- outcome{err: err}
}

// Cancel rejects every queued acquisition with a *CancelError whose
// cause is ErrCanceled, and returns the number rejected. The current
// holder, if any, is unaffected.
//
// Goroutines blocked in Lock are not rejected: Lock can't report
// failure, so they keep their place in the queue.
func (m *Mutex) Cancel() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int
	for elem := m.waiting.Front(); elem != nil; {
		next := elem.Next()
		w := elem.Value
		if !w.pinned {
			m.waiting.Remove(elem)
			if w.stop != nil {
				w.stop()
			}
			w.ready <- outcome{err: &CancelError{Cause: ErrCanceled}}
			n++
		}
		elem = next
	}
	return n
}

// IsLocked reports whether m is currently held.
func (m *Mutex) IsLocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holder != nil
}

// Waiting returns the number of queued acquisitions.
func (m *Mutex) Waiting() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiting.Len()
}

// WaitForUnlock blocks until m is free, without acquiring it. Note
// that by the time WaitForUnlock returns, another goroutine may
// already have acquired m. If ctx is done first, the error is
// context.Cause(ctx).
func (m *Mutex) WaitForUnlock(ctx context.Context) error {
	m.mu.Lock()
	if m.holder == nil {
		m.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	elem := m.idle.PushBack(ch)
	m.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		m.mu.Lock()
		m.idle.Remove(elem)
		m.mu.Unlock()
		return context.Cause(ctx)
	}
}

// grantLocked marks m as held and mints the Releaser for the new hold.
// The caller must hold m.mu.
func (m *Mutex) grantLocked() *Releaser {
	m.grants++
	m.holder = &Releaser{m: m, seq: m.grants}
	return m.holder
}

// releaseLocked ends the hold of r, which must be m.holder. If there
// are waiters, the front one is granted before releaseLocked returns;
// m stays locked throughout. Otherwise m becomes free.
// The caller must hold m.mu.
func (m *Mutex) releaseLocked(r *Releaser) {
	r.released = true

	if elem := m.waiting.Front(); elem != nil {
		m.waiting.Remove(elem)
		w := elem.Value
		if w.stop != nil {
			// Once stopped, the cancellation callback can't run; if it
			// has already started, it blocks on m.mu and then finds
			// elem unlinked.
			w.stop()
		}
		w.ready <- outcome{r: m.grantLocked()}
		return
	}

	m.holder = nil
	for elem := m.idle.Front(); elem != nil; elem = m.idle.Front() {
		m.idle.Remove(elem)
		close(elem.Value)
	}
}
