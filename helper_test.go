package asyncmu_test

// File helper_test.go contains test helper functionality.

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neilotoole/asyncmu"
)

// waitTimeout bounds how long tests wait for something that should
// happen promptly.
const waitTimeout = 5 * time.Second

// result is the outcome of an Acquire call made in another goroutine.
type result struct {
	r   *asyncmu.Releaser
	err error
}

// enqueue calls mu.Acquire(ctx) in a new goroutine, and waits until
// that call is queued. The returned channel receives the outcome.
// The mutex must be held when enqueue is called.
func enqueue(t *testing.T, ctx context.Context, mu *asyncmu.Mutex) <-chan result {
	t.Helper()
	return enqueueFunc(t, mu, func() (*asyncmu.Releaser, error) {
		return mu.Acquire(ctx)
	})
}

// enqueueFunc is like enqueue, but invokes fn to do the acquiring.
func enqueueFunc(t *testing.T, mu *asyncmu.Mutex, fn func() (*asyncmu.Releaser, error)) <-chan result {
	t.Helper()
	require.True(t, mu.IsLocked(), "mutex must be held to enqueue")

	before := mu.Waiting()
	ch := make(chan result, 1)
	go func() {
		r, err := fn()
		ch <- result{r: r, err: err}
	}()

	require.Eventually(t, func() bool {
		return mu.Waiting() == before+1
	}, waitTimeout, time.Millisecond, "acquire call was not queued")
	return ch
}

// receive returns the value from ch, failing the test if nothing
// arrives within waitTimeout.
func receive(t *testing.T, ch <-chan result) result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for acquire result")
		return result{}
	}
}

// requirePending fails the test if ch has a value ready.
func requirePending(t *testing.T, ch <-chan result) {
	t.Helper()
	select {
	case res := <-ch:
		t.Fatalf("expected acquire to still be pending, got: %+v", res)
	default:
	}
}

// logRecorder is a concurrency-safe sink for a text slog handler.
type logRecorder struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

// Write implements io.Writer.
func (lr *logRecorder) Write(p []byte) (int, error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.buf.Write(p)
}

// Count returns the number of recorded lines containing s.
func (lr *logRecorder) Count(s string) int {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	var n int
	for _, line := range strings.Split(lr.buf.String(), "\n") {
		if strings.Contains(line, s) {
			n++
		}
	}
	return n
}

// newRecordingMutex returns a Mutex whose logger writes to
// the returned recorder.
func newRecordingMutex() (*asyncmu.Mutex, *logRecorder) {
	lr := &logRecorder{}
	log := slog.New(slog.NewTextHandler(lr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return asyncmu.New(asyncmu.WithLogger(log)), lr
}
