package sd

import (
	"sync"
	"time"
)

// TtlTimer is a restartable one-shot countdown used to track the validity
// of a service offer. The currently active discovery state owns the timer
// exclusively: it installs the expiry callback on entry and removes it on
// exit.
//
// The callback fires from the timer's own goroutine, never synchronously
// inside Reset or Cancel. A generation counter guards the expiry path so
// that a fire racing with Cancel, Reset or callback removal resolves to
// "no callback" rather than invoking a stale one.
type TtlTimer struct {
	mu         sync.Mutex
	timer      *time.Timer
	callback   func()
	generation uint64
}

// NewTtlTimer creates a disarmed timer with no expiry callback.
func NewTtlTimer() *TtlTimer {
	return &TtlTimer{}
}

// SetExpirationCallback installs the function invoked when the countdown
// reaches zero. It replaces any previously installed callback.
func (t *TtlTimer) SetExpirationCallback(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callback = fn
}

// ResetExpirationCallback removes the expiry callback. A countdown that
// has already reached zero concurrently will not invoke the removed
// callback.
func (t *TtlTimer) ResetExpirationCallback() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callback = nil
	t.generation++
}

// Reset (re)arms the countdown to d, discarding any prior countdown.
func (t *TtlTimer) Reset(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.generation++
	gen := t.generation

	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, func() {
		t.expire(gen)
	})
}

// Cancel disarms the countdown without invoking the callback. A fire
// already in flight becomes a no-op.
func (t *TtlTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.generation++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// IsArmed reports whether a countdown is currently pending.
func (t *TtlTimer) IsArmed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

// expire runs on the timer goroutine when a countdown reaches zero.
func (t *TtlTimer) expire(gen uint64) {
	t.mu.Lock()
	if gen != t.generation || t.callback == nil {
		// The countdown was cancelled, restarted, or the callback was
		// removed after this fire was scheduled.
		t.mu.Unlock()
		return
	}
	cb := t.callback
	t.timer = nil
	t.mu.Unlock()

	cb()
}
