package asyncmu

import (
	"context"
	"errors"
)

// ErrTimeout is the cause of the *CancelError returned when
// Mutex.AcquireTimeout or RunExclusiveTimeout gives up waiting.
var ErrTimeout = errors.New("asyncmu: timeout waiting for mutex")

// ErrCanceled is the cause of the *CancelError returned to queued
// callers when Mutex.Cancel is invoked. Callers blocked in Mutex.Lock
// have no error to return, so Cancel skips them; they stay queued and
// are granted in turn.
var ErrCanceled = errors.New("asyncmu: request canceled")

// ErrInvalidTimeout is returned when a negative timeout is supplied.
var ErrInvalidTimeout = errors.New("asyncmu: timeout must not be negative")

// CancelError is returned when an acquisition is abandoned before the
// mutex was granted. Cause is never nil: if the context was cancelled
// without a cause, it is context.Canceled (or context.DeadlineExceeded).
//
// A CancelError is never returned after a grant.
type CancelError struct {
	// Cause is the reason the acquisition was abandoned.
	Cause error
}

// Error implements error.
func (e *CancelError) Error() string {
	return "asyncmu: acquire: " + e.Cause.Error()
}

// Unwrap returns e.Cause, so that errors.Is(err, context.Canceled),
// errors.Is(err, ErrTimeout) and so on work as expected.
func (e *CancelError) Unwrap() error {
	return e.Cause
}

// newCancelError returns a *CancelError for done context ctx.
func newCancelError(ctx context.Context) *CancelError {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = context.Canceled
	}
	return &CancelError{Cause: cause}
}
