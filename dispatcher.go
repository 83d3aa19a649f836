package objectloop

import (
	"container/heap"
	"sync"
	"time"
)

// timerHeap orders *Timer by deadline, giving the Dispatcher O(log n)
// register/unregister/next-deadline operations via container/heap.Interface,
// so Timer.Stop can remove an arbitrary element, not just the root.
type timerHeap []*Timer

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}
func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.heapIndex = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.heapIndex = -1
	*h = old[:n-1]
	return t
}

// notifierSlot aggregates the up-to-three EventNotifiers (one per
// NotifierType) that can share a single fd.
type notifierSlot struct {
	read, write, exception *EventNotifier
}

func (s *notifierSlot) empty() bool {
	return s.read == nil && s.write == nil && s.exception == nil
}

func (s *notifierSlot) mask() ioEvents {
	var m ioEvents
	if s.read != nil {
		m |= ioEventRead
	}
	if s.write != nil {
		m |= ioEventWrite
	}
	if s.exception != nil {
		m |= ioEventError | ioEventHangup
	}
	return m
}

func (s *notifierSlot) slotFor(typ NotifierType) **EventNotifier {
	switch typ {
	case NotifierRead:
		return &s.read
	case NotifierWrite:
		return &s.write
	default:
		return &s.exception
	}
}

// Dispatcher is the reactor at the heart of a Thread: an I/O multiplexer
// (epoll on Linux, kqueue on Darwin), a timer min-heap, and the notifier
// registry tying watched descriptors back to the EventNotifier objects that
// care about them.
type Dispatcher struct {
	mu        sync.Mutex
	state     dispatcherState
	notifiers map[int]*notifierSlot
	timers    timerHeap
	poller    fdPoller
	wake      wakeSource
	logger    Logger
	metrics   *Metrics

	// maxPollTimeoutMs bounds how long a single wait() call blocks when no
	// timer is registered. Zero means block indefinitely until I/O or a
	// wakeup.
	maxPollTimeoutMs int
}

func newDispatcher(logger Logger) *Dispatcher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Dispatcher{
		notifiers: make(map[int]*notifierSlot),
		logger:    logger,
	}
}

// open creates the platform poller and self-wakeup descriptor. Called once
// by Thread.exec before the dispatch loop starts.
func (d *Dispatcher) open() error {
	if !d.state.transition(dispatcherStateIdle, dispatcherStateOpen) {
		return ErrDispatcherClosed
	}
	d.poller = newFdPoller()
	if err := d.poller.init(); err != nil {
		return err
	}
	d.wake = newWakeSource()
	if err := d.wake.init(); err != nil {
		d.poller.close()
		return err
	}
	return d.poller.registerFD(d.wake.fd(), ioEventRead)
}

// close tears down the poller and wakeup descriptor. Idempotent.
func (d *Dispatcher) close() error {
	if !d.state.transition(dispatcherStateOpen, dispatcherStateClosed) {
		return nil
	}
	var err error
	if d.wake != nil {
		if e := d.wake.close(); e != nil {
			err = e
		}
	}
	if d.poller != nil {
		if e := d.poller.close(); e != nil {
			err = e
		}
	}
	return err
}

// Interrupt wakes a blocked ProcessEvents call immediately, from any
// goroutine. Safe to call before open or after close (becomes a no-op).
func (d *Dispatcher) Interrupt() {
	if d.state.load() != dispatcherStateOpen {
		return
	}
	d.wake.wake()
}

// registerTimer adds t to the heap (or re-adds it after it fired).
func (d *Dispatcher) registerTimer(t *Timer) {
	d.mu.Lock()
	heap.Push(&d.timers, t)
	n := d.timers.Len()
	d.mu.Unlock()
	if d.metrics != nil {
		d.metrics.Timers.Set(float64(n))
	}
}

// unregisterTimer removes t from the heap if present.
func (d *Dispatcher) unregisterTimer(t *Timer) {
	d.mu.Lock()
	if t.heapIndex >= 0 && t.heapIndex < d.timers.Len() && d.timers[t.heapIndex] == t {
		heap.Remove(&d.timers, t.heapIndex)
	}
	n := d.timers.Len()
	d.mu.Unlock()
	if d.metrics != nil {
		d.metrics.Timers.Set(float64(n))
	}
}

// registerNotifier adds n to its fd's slot and (re)computes the epoll/kqueue
// registration for that fd. Logs and returns ErrAlreadyRegistered if another
// notifier of the same type already watches this fd.
func (d *Dispatcher) registerNotifier(n *EventNotifier) error {
	d.mu.Lock()
	slot, ok := d.notifiers[n.Fd()]
	if !ok {
		slot = &notifierSlot{}
		d.notifiers[n.Fd()] = slot
	}
	ptr := slot.slotFor(n.Type())
	if *ptr != nil && *ptr != n {
		d.mu.Unlock()
		d.logger.Log(SeverityError, "dispatcher", ErrAlreadyRegistered.Error())
		return ErrAlreadyRegistered
	}
	wasEmpty := slot.empty()
	*ptr = n
	mask := slot.mask()
	total := len(d.notifiers)
	d.mu.Unlock()

	var err error
	if wasEmpty {
		err = d.poller.registerFD(n.Fd(), mask)
	} else {
		err = d.poller.modifyFD(n.Fd(), mask)
	}
	if d.metrics != nil {
		d.metrics.Notifiers.Set(float64(total))
	}
	return err
}

// unregisterNotifier removes n from its fd's slot, updating or dropping the
// poller registration for that fd as needed.
func (d *Dispatcher) unregisterNotifier(n *EventNotifier) error {
	d.mu.Lock()
	slot, ok := d.notifiers[n.Fd()]
	if !ok {
		d.mu.Unlock()
		return ErrNotRegistered
	}
	ptr := slot.slotFor(n.Type())
	if *ptr != n {
		d.mu.Unlock()
		return ErrNotRegistered
	}
	*ptr = nil
	empty := slot.empty()
	if empty {
		delete(d.notifiers, n.Fd())
	}
	mask := slot.mask()
	total := len(d.notifiers)
	d.mu.Unlock()

	var err error
	if empty {
		err = d.poller.unregisterFD(n.Fd())
	} else {
		err = d.poller.modifyFD(n.Fd(), mask)
	}
	if d.metrics != nil {
		d.metrics.Notifiers.Set(float64(total))
	}
	return err
}

// nextTimeoutMs computes how long ProcessEvents should block: the time
// until the earliest timer deadline, clamped to maxPollTimeoutMs when that's
// set and smaller, or -1 (block indefinitely) when there's nothing to wait
// for.
func (d *Dispatcher) nextTimeoutMs() int {
	d.mu.Lock()
	var timerMs int = -1
	if d.timers.Len() > 0 {
		until := time.Until(d.timers[0].deadline)
		if until < 0 {
			until = 0
		}
		timerMs = int(until / time.Millisecond)
	}
	d.mu.Unlock()

	switch {
	case timerMs < 0:
		if d.maxPollTimeoutMs > 0 {
			return d.maxPollTimeoutMs
		}
		return -1
	case d.maxPollTimeoutMs > 0 && d.maxPollTimeoutMs < timerMs:
		return d.maxPollTimeoutMs
	default:
		return timerMs
	}
}

// fireExpiredTimers pops and fires every timer whose deadline has elapsed.
// Each Timer is single-shot: a Timeout slot that wants to repeat calls
// Start again itself, which re-registers it with this same heap.
func (d *Dispatcher) fireExpiredTimers() {
	now := time.Now()
	for {
		d.mu.Lock()
		if d.timers.Len() == 0 || d.timers[0].deadline.After(now) {
			d.mu.Unlock()
			return
		}
		t := heap.Pop(&d.timers).(*Timer)
		d.mu.Unlock()

		t.fire()
		if d.metrics != nil {
			d.metrics.TimersFired.Inc()
		}
	}
}

// dispatchFD routes one readiness report to the notifiers registered for
// that fd, always in Read, Write, Exception order.
func (d *Dispatcher) dispatchFD(fd int, events ioEvents) {
	d.mu.Lock()
	slot, ok := d.notifiers[fd]
	d.mu.Unlock()
	if !ok {
		return
	}

	if events&ioEventRead != 0 && slot.read != nil && slot.read.IsEnabled() {
		slot.read.activate()
		if d.metrics != nil {
			d.metrics.NotifiersFired.Inc()
		}
	}
	if events&ioEventWrite != 0 && slot.write != nil && slot.write.IsEnabled() {
		slot.write.activate()
		if d.metrics != nil {
			d.metrics.NotifiersFired.Inc()
		}
	}
	if events&(ioEventError|ioEventHangup) != 0 && slot.exception != nil && slot.exception.IsEnabled() {
		slot.exception.activate()
		if d.metrics != nil {
			d.metrics.NotifiersFired.Inc()
		}
	}
}

// ProcessEvents runs one iteration: block for up to the next timer deadline
// (or forever), fire whatever timers came due, then dispatch whatever
// descriptors became ready. Called repeatedly by Thread.exec.
func (d *Dispatcher) ProcessEvents() {
	timeout := d.nextTimeoutMs()
	ready, err := d.poller.wait(timeout)
	if err != nil {
		d.logger.Log(SeverityError, "dispatcher", "poll wait failed: "+err.Error())
		return
	}

	d.fireExpiredTimers()

	for _, r := range ready {
		if r.fd == d.wake.fd() {
			d.wake.drain()
			continue
		}
		d.dispatchFD(r.fd, r.events)
	}

	if d.metrics != nil {
		d.metrics.Iterations.Inc()
	}
}
