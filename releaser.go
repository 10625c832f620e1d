package asyncmu

// Releaser is the capability to end a hold on a Mutex. Exactly one
// unconsumed Releaser exists for as long as the Mutex is held. It is
// returned by Mutex.Acquire and friends, and belongs to whoever holds
// the lock; it may be handed to another goroutine, but must be used
// only once.
type Releaser struct {
	m *Mutex

	// seq is the grant number of this hold, starting at 1.
	seq uint64

	// released is set on first use. It is guarded by m.mu.
	released bool
}

// Release ends the hold. If other goroutines are queued on the mutex,
// the one that has waited longest is granted the lock before Release
// returns; otherwise the mutex becomes free.
//
// Calling Release more than once does nothing beyond logging a
// "mutex already released" warning. It never panics.
func (r *Releaser) Release() {
	m := r.m
	m.mu.Lock()
	if r.released {
		m.mu.Unlock()
		m.getLog().Warn("mutex already released", "grant", r.seq)
		return
	}

	m.releaseLocked(r)
	m.mu.Unlock()
}

// Released reports whether Release has been called.
func (r *Releaser) Released() bool {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.released
}

// Seq returns the grant number of this hold. The first hold on a
// mutex is 1, and each subsequent grant increments it.
func (r *Releaser) Seq() uint64 {
	return r.seq
}
