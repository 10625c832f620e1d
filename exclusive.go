package asyncmu

import (
	"context"
	"time"
)

// RunExclusive acquires m, invokes fn, and releases m when fn
// returns, fails, or panics. The result and error of fn are returned
// verbatim.
//
// If m can't be acquired before ctx is done, fn is not invoked, and
// the *CancelError from Mutex.Acquire is returned.
func RunExclusive[R any](ctx context.Context, m *Mutex, fn func() (R, error)) (R, error) {
	r, err := m.Acquire(ctx)
	if err != nil {
		var zero R
		return zero, err
	}
	defer r.Release()

	return fn()
}

// RunExclusiveTimeout is like RunExclusive, but gives up acquiring m
// after timeout, as per Mutex.AcquireTimeout. The timeout bounds only
// the wait for m; fn itself is never interrupted.
func RunExclusiveTimeout[R any](ctx context.Context, m *Mutex, timeout time.Duration,
	fn func() (R, error),
) (R, error) {
	r, err := m.AcquireTimeout(ctx, timeout)
	if err != nil {
		var zero R
		return zero, err
	}
	defer r.Release()

	return fn()
}
