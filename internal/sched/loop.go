// Package sched provides a single-threaded cooperative event loop.
//
// Every callback scheduled on a Loop runs to completion on the goroutine that
// drives the loop (RunUntil, Advance, Sync or Run). Callbacks never overlap, so
// state owned by loop callbacks needs no locking. The only goroutine-safe
// entry point is Post, which queues work for the driving goroutine.
package sched

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// idleWait bounds how long Run sleeps when nothing is scheduled.
const idleWait = time.Minute

// Timer is a one-shot callback scheduled on a Loop.
type Timer struct {
	loop  *Loop
	at    time.Time
	seq   uint64
	fn    func()
	index int // position in the queue, -1 once fired or stopped
}

// Stop cancels the timer. It returns true if the call prevented the callback
// from running. Stopping a nil, fired or already stopped timer is a no-op.
func (t *Timer) Stop() bool {
	if t == nil || t.index < 0 {
		return false
	}
	heap.Remove(&t.loop.queue, t.index)
	return true
}

// Pending reports whether the timer is still waiting to fire.
func (t *Timer) Pending() bool {
	return t != nil && t.index >= 0
}

// Deadline returns the loop time at which the timer fires.
func (t *Timer) Deadline() time.Time {
	return t.at
}

// Loop is a cooperative scheduler: a priority queue of timers ordered by
// deadline, with FIFO order among equal deadlines.
type Loop struct {
	clock Clock
	now   time.Time
	queue timerQueue
	seq   uint64
	fired uint64

	mu    sync.Mutex
	inbox []func()
	wake  chan struct{}
}

// New creates a loop whose notion of "now" starts at clock.Now().
func New(clock Clock) *Loop {
	if clock == nil {
		clock = WallClock{}
	}
	return &Loop{
		clock: clock,
		now:   clock.Now(),
		wake:  make(chan struct{}, 1),
	}
}

// Now returns the loop time: the deadline of the running callback, or the
// time of the last advance when called outside a callback.
func (l *Loop) Now() time.Time {
	return l.now
}

// Clock returns the loop's time source.
func (l *Loop) Clock() Clock {
	return l.clock
}

// After schedules fn to run once, no earlier than d after the current loop time.
// Must be called from the driving goroutine.
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	l.seq++
	t := &Timer{
		loop: l,
		at:   l.now.Add(d),
		seq:  l.seq,
		fn:   fn,
	}
	heap.Push(&l.queue, t)
	return t
}

// Post queues fn to run on the driving goroutine before the next due timer.
// Safe to call from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.inbox = append(l.inbox, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of pending timers.
func (l *Loop) Len() int {
	return len(l.queue)
}

// Fired returns the number of timer callbacks run so far.
func (l *Loop) Fired() uint64 {
	return l.fired
}

// Next returns the deadline of the earliest pending timer.
func (l *Loop) Next() (time.Time, bool) {
	if len(l.queue) == 0 {
		return time.Time{}, false
	}
	return l.queue[0].at, true
}

// RunUntil drains posted work, then runs every timer due at or before t in
// deadline order, including timers scheduled by those callbacks. Loop time
// never moves backwards. Returns the number of timer callbacks run.
func (l *Loop) RunUntil(t time.Time) int {
	l.drainInbox()

	ran := 0
	for len(l.queue) > 0 && !l.queue[0].at.After(t) {
		next := heap.Pop(&l.queue).(*Timer)
		if next.at.After(l.now) {
			l.now = next.at
		}
		next.fn()
		ran++
		l.fired++
	}

	if t.After(l.now) {
		l.now = t
	}
	return ran
}

// Advance runs the loop forward by d of loop time.
func (l *Loop) Advance(d time.Duration) int {
	return l.RunUntil(l.now.Add(d))
}

// Sync runs everything due at the clock's current time.
func (l *Loop) Sync() int {
	return l.RunUntil(l.clock.Now())
}

// Run drives the loop against its clock until ctx is cancelled, sleeping
// between deadlines and waking early for posted work.
func (l *Loop) Run(ctx context.Context) error {
	sleep := time.NewTimer(idleWait)
	defer sleep.Stop()

	for {
		l.Sync()

		wait := idleWait
		if next, ok := l.Next(); ok {
			wait = next.Sub(l.clock.Now())
			if wait < 0 {
				wait = 0
			}
		}
		sleep.Reset(wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		case <-sleep.C:
		}
	}
}

func (l *Loop) drainInbox() {
	for {
		l.mu.Lock()
		work := l.inbox
		l.inbox = nil
		l.mu.Unlock()

		if len(work) == 0 {
			return
		}
		for _, fn := range work {
			fn()
		}
	}
}

// timerQueue implements heap.Interface ordered by (deadline, sequence).
type timerQueue []*Timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].seq < q[j].seq
	}
	return q[i].at.Before(q[j].at)
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*Timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
