package sd

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTtlTimerFiresOnce(t *testing.T) {
	timer := NewTtlTimer()
	var fires atomic.Int32
	timer.SetExpirationCallback(func() { fires.Add(1) })

	timer.Reset(10 * time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	if got := fires.Load(); got != 1 {
		t.Errorf("callback fired %d times, want 1", got)
	}
	if timer.IsArmed() {
		t.Error("timer still armed after firing")
	}
}

func TestTtlTimerResetRestartsCountdown(t *testing.T) {
	timer := NewTtlTimer()
	var fires atomic.Int32
	timer.SetExpirationCallback(func() { fires.Add(1) })

	timer.Reset(40 * time.Millisecond)
	time.Sleep(25 * time.Millisecond)
	timer.Reset(40 * time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	// 50ms elapsed but the countdown was restarted at 25ms.
	if got := fires.Load(); got != 0 {
		t.Fatalf("callback fired %d times before restarted countdown elapsed", got)
	}

	time.Sleep(40 * time.Millisecond)
	if got := fires.Load(); got != 1 {
		t.Errorf("callback fired %d times, want 1", got)
	}
}

func TestTtlTimerCancelSuppressesCallback(t *testing.T) {
	timer := NewTtlTimer()
	var fires atomic.Int32
	timer.SetExpirationCallback(func() { fires.Add(1) })

	timer.Reset(10 * time.Millisecond)
	timer.Cancel()

	time.Sleep(50 * time.Millisecond)
	if got := fires.Load(); got != 0 {
		t.Errorf("callback fired %d times after Cancel, want 0", got)
	}
	if timer.IsArmed() {
		t.Error("timer armed after Cancel")
	}
}

func TestTtlTimerRemovedCallbackNeverFires(t *testing.T) {
	timer := NewTtlTimer()
	var fires atomic.Int32
	timer.SetExpirationCallback(func() { fires.Add(1) })

	timer.Reset(20 * time.Millisecond)
	timer.ResetExpirationCallback()

	time.Sleep(60 * time.Millisecond)
	if got := fires.Load(); got != 0 {
		t.Errorf("removed callback fired %d times, want 0", got)
	}
}

func TestTtlTimerCallbackNotSynchronous(t *testing.T) {
	timer := NewTtlTimer()
	done := make(chan struct{})
	timer.SetExpirationCallback(func() { close(done) })

	// Reset must return before the callback can run, even with a zero
	// countdown.
	timer.Reset(0)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
}

func TestTtlTimerReplaceCallback(t *testing.T) {
	timer := NewTtlTimer()
	var first, second atomic.Int32
	timer.SetExpirationCallback(func() { first.Add(1) })
	timer.SetExpirationCallback(func() { second.Add(1) })

	timer.Reset(5 * time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	if got := first.Load(); got != 0 {
		t.Errorf("replaced callback fired %d times, want 0", got)
	}
	if got := second.Load(); got != 1 {
		t.Errorf("installed callback fired %d times, want 1", got)
	}
}
