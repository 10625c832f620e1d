package asyncmu

import "context"

// The methods in this file give Mutex the methodset of sync.Mutex
// (plus LockContext), for callers that don't want to carry the
// Releaser around. They share the Releaser machinery: Unlock consumes
// the current holder's Releaser, so mixing the two styles on one hold
// is detected just like any other double release.

// Lock locks m.
//
// If the lock is already in use, the calling goroutine
// blocks until the mutex is available. Mutex.Cancel does not
// reject a goroutine blocked in Lock.
func (m *Mutex) Lock() {
	// A pinned request on a never-done context can't fail.
	_, _ = m.acquire(context.Background(), noTimeout, true)
}

// LockContext locks m.
//
// If the lock is already in use, the calling goroutine
// blocks until the mutex is available or ctx is done.
//
// On failure, LockContext returns a *CancelError and
// leaves the mutex unchanged.
func (m *Mutex) LockContext(ctx context.Context) error {
	_, err := m.acquire(ctx, noTimeout, false)
	return err
}

// TryLock tries to lock m and reports whether it succeeded.
func (m *Mutex) TryLock() bool {
	_, ok := m.TryAcquire()
	return ok
}

// Unlock unlocks m.
// It is a run-time error if m is not locked on entry to Unlock.
//
// A locked Mutex is not associated with a particular goroutine.
// It is allowed for one goroutine to lock a Mutex and then
// arrange for another goroutine to unlock it.
func (m *Mutex) Unlock() {
	m.mu.Lock()
	r := m.holder
	if r == nil {
		m.mu.Unlock()
		panic("asyncmu: unlock of unlocked mutex")
	}
	m.releaseLocked(r)
	m.mu.Unlock()
}
