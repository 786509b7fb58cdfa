// Package debounce provides a cancellable delayed task with supersede
// semantics: scheduling new work invalidates any work still pending.
//
// The scheduler is injectable so callers can drive time explicitly in tests
// (see ManualScheduler) or post callbacks onto their own event loop.
package debounce

import (
	"sync"
	"time"
)

// Timer is a pending scheduled callback.
type Timer interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or was already stopped.
	Stop() bool
}

// Scheduler runs fn once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// RealScheduler schedules with time.AfterFunc. Callbacks run on their own
// goroutine.
type RealScheduler struct{}

// AfterFunc implements Scheduler.
func (RealScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Task runs at most the most recently scheduled callback, after the delay
// has passed without another Schedule call. Task is safe for concurrent use.
type Task struct {
	scheduler Scheduler
	delay     time.Duration

	mu    sync.Mutex
	gen   uint64
	timer Timer
}

// NewTask creates a task with the given delay. A nil scheduler uses
// RealScheduler.
func NewTask(delay time.Duration, scheduler Scheduler) *Task {
	if scheduler == nil {
		scheduler = RealScheduler{}
	}
	return &Task{scheduler: scheduler, delay: delay}
}

// Delay returns the quiescence delay.
func (t *Task) Delay() time.Duration {
	return t.delay
}

// Schedule arranges for fn to run after the delay, superseding anything
// still pending. A zero or negative delay runs fn synchronously.
func (t *Task) Schedule(fn func()) {
	t.mu.Lock()
	t.gen++
	gen := t.gen
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.delay <= 0 {
		t.mu.Unlock()
		fn()
		return
	}
	t.timer = t.scheduler.AfterFunc(t.delay, func() {
		t.mu.Lock()
		// A superseded timer may fire before Stop takes effect; the
		// generation check discards it.
		if gen != t.gen {
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.mu.Unlock()
		fn()
	})
	t.mu.Unlock()
}

// Cancel discards pending work. It returns true if something was pending.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.timer == nil {
		return false
	}
	t.timer.Stop()
	t.timer = nil
	return true
}

// Pending reports whether a callback is waiting to run.
func (t *Task) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}
