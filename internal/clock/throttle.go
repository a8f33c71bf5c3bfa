package clock

import (
	"sync"
	"time"
)

// Throttle invokes fn on the leading edge and drops further calls until
// interval has elapsed.
type Throttle struct {
	clock    Clock
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	blocked bool
}

// NewThrottle wraps fn. A non-positive interval disables throttling.
func NewThrottle(c Clock, interval time.Duration, fn func()) *Throttle {
	return &Throttle{clock: c, interval: interval, fn: fn}
}

// Call runs fn unless a call happened within the current interval.
// It reports whether fn ran.
func (t *Throttle) Call() bool {
	if t.interval <= 0 {
		t.fn()
		return true
	}
	t.mu.Lock()
	if t.blocked {
		t.mu.Unlock()
		return false
	}
	t.blocked = true
	t.mu.Unlock()

	t.clock.AfterFunc(t.interval, func() {
		t.mu.Lock()
		t.blocked = false
		t.mu.Unlock()
	})
	t.fn()
	return true
}
