package usecase

import (
	"sync"
	"time"
)

// DefaultParticipantThrottle bounds roster dispatches during join/leave churn.
const DefaultParticipantThrottle = 1250 * time.Millisecond

// latestThrottle forwards at most one value per interval. The first value of a
// window arms a timer; when it fires, the most recent value is emitted.
// Values superseded inside the window are dropped.
type latestThrottle[T any] struct {
	interval time.Duration
	emit     func(T)

	mu         sync.Mutex
	timer      *time.Timer
	pending    T
	hasPending bool
	stopped    bool
}

func newLatestThrottle[T any](interval time.Duration, emit func(T)) *latestThrottle[T] {
	if interval <= 0 {
		interval = DefaultParticipantThrottle
	}
	return &latestThrottle[T]{interval: interval, emit: emit}
}

func (t *latestThrottle[T]) Push(v T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = v
	t.hasPending = true
	if t.timer == nil && !t.stopped {
		t.timer = time.AfterFunc(t.interval, t.flush)
	}
}

// flush emits under the lock so a concurrent Stop never races a late emit.
// emit must not call back into the throttle.
func (t *latestThrottle[T]) flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.timer = nil
	if t.stopped || !t.hasPending {
		return
	}
	v := t.pending
	var zero T
	t.pending = zero
	t.hasPending = false
	t.emit(v)
}

// Stop disarms the timer. Nothing is emitted afterwards; the latest value,
// including one pushed after Stop, stays available to Drain.
func (t *latestThrottle[T]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Drain returns and clears the value not yet emitted.
func (t *latestThrottle[T]) Drain() (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.pending, t.hasPending
	var zero T
	t.pending = zero
	t.hasPending = false
	return v, ok
}

// distinct forwards a value only when it differs from the previous one.
type distinct[T comparable] struct {
	emit func(T)

	mu   sync.Mutex
	last T
	seen bool
}

func newDistinct[T comparable](emit func(T)) *distinct[T] {
	return &distinct[T]{emit: emit}
}

func (d *distinct[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.seen && d.last == v {
		return
	}
	d.last = v
	d.seen = true
	d.emit(v)
}
