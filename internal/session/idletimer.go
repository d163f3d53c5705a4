package session

import (
	"sync"
	"time"
)

// IdleTimer is a single-shot countdown with cancel+reschedule semantics.
// Arm replaces any pending timer, so at most one fire is outstanding; a stale
// fire from a replaced timer is suppressed by the generation counter.
type IdleTimer struct {
	fire func()

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

// NewIdleTimer creates a disarmed timer invoking fire on expiry.
func NewIdleTimer(fire func()) *IdleTimer {
	return &IdleTimer{fire: fire}
}

// Arm cancels any pending timer and schedules a new one.
func (t *IdleTimer) Arm(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	gen := t.gen
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		live := gen == t.gen
		if live {
			t.timer = nil
		}
		t.mu.Unlock()
		if live && t.fire != nil {
			t.fire()
		}
	})
}

// Disarm cancels any pending timer without rescheduling.
func (t *IdleTimer) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Armed reports whether a fire is currently scheduled.
func (t *IdleTimer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}
