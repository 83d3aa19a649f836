package objectloop

import (
	"sync"
	"time"
)

// Timer is a single-shot deadline, dispatched on its owning thread's event
// loop. It fires Timeout at most once per Start call; a repeating timer is
// just a Timeout slot that calls Start again. Start/Stop reject calls from
// any thread but the timer's own, and Stop always marks the timer
// not-running before touching the dispatcher so a concurrent Timeout
// delivery already in flight sees a consistent IsRunning().
type Timer struct {
	Object

	mu       sync.Mutex
	deadline time.Time
	running  bool

	heapIndex int // maintained by the dispatcher's timerHeap

	// Timeout fires when the deadline elapses.
	Timeout Signal0
}

// NewTimer constructs a Timer as a child of parent (nil for a root timer).
func NewTimer(parent *Object) *Timer {
	t := &Timer{heapIndex: -1}
	InitObject(&t.Object, t, parent)
	return t
}

// IsRunning reports whether the timer is currently registered with a
// dispatcher.
func (t *Timer) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Deadline returns the absolute time the timer will next fire. The zero
// Time is returned when the timer isn't running.
func (t *Timer) Deadline() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return time.Time{}
	}
	return t.deadline
}

// Start arms the timer to fire after d, on the calling thread. Calling
// Start from any thread other than the timer's own is a usage error.
// Calling Start again (including from within a Timeout slot) rearms it,
// which is how a repeating timer is built.
func (t *Timer) Start(d time.Duration) error {
	return t.startAt(time.Now().Add(d))
}

func (t *Timer) startAt(deadline time.Time) error {
	th := t.Thread()
	if th == nil || currentThread() != th {
		return ErrWrongThread
	}

	t.mu.Lock()
	wasRunning := t.running
	t.deadline = deadline
	t.running = true
	t.mu.Unlock()

	if wasRunning {
		th.Dispatcher().unregisterTimer(t)
	}
	th.Dispatcher().registerTimer(t)
	return nil
}

// Stop disarms the timer. It is a no-op if the timer isn't running. The
// running flag is cleared before the dispatcher is told to unregister, so a
// fire already in progress on this same thread observes IsRunning() ==
// false immediately.
func (t *Timer) Stop() error {
	th := t.Thread()
	if th == nil || currentThread() != th {
		return ErrWrongThread
	}

	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	t.mu.Unlock()

	th.Dispatcher().unregisterTimer(t)
	return nil
}

// fire is called by the Dispatcher on the timer's own thread when the
// deadline elapses. The timer is marked not-running before Timeout is
// emitted, so a slot that calls Start again (to repeat) or Stop sees
// consistent state; firing never re-arms the timer on its own.
func (t *Timer) fire() {
	t.mu.Lock()
	t.running = false
	t.mu.Unlock()

	t.Timeout.Emit()
}

// willMoveThread detaches a running timer from its old thread's dispatcher
// before Object.MoveToThread repoints t.thread; HandleMessage re-attaches it
// to the new thread once the move message arrives there.
func (t *Timer) willMoveThread(old, next *Thread) {
	t.mu.Lock()
	running := t.running
	t.mu.Unlock()
	if running && old != nil {
		old.Dispatcher().unregisterTimer(t)
	}
}

// HandleMessage reacts to MessageThreadMove: a running timer re-registers
// itself with the new thread's dispatcher, since the old dispatcher's timer
// heap has already been told to drop it (see Object.MoveToThread).
func (t *Timer) HandleMessage(msg *Message) {
	if msg.Type() != MessageThreadMove {
		t.Object.HandleMessage(msg)
		return
	}
	t.mu.Lock()
	running := t.running
	t.mu.Unlock()
	if !running {
		return
	}
	if th := t.Thread(); th != nil {
		th.Dispatcher().registerTimer(t)
	}
}
