package asyncmu

// internal_test.go contains functions that
// expose internal state for testing.

// IdleLen returns the number of WaitForUnlock callers registered on m.
func IdleLen(m *Mutex) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idle.Len()
}
