package objectloop

import "sync"

// NotifierType selects which readiness condition an EventNotifier watches.
type NotifierType int

const (
	NotifierRead NotifierType = iota
	NotifierWrite
	NotifierException
)

func (t NotifierType) String() string {
	switch t {
	case NotifierRead:
		return "read"
	case NotifierWrite:
		return "write"
	case NotifierException:
		return "exception"
	default:
		return "unknown"
	}
}

// EventNotifier watches one (fd, NotifierType) pair and emits Activated when
// the descriptor becomes ready, on its owning thread. SetEnabled is
// idempotent (toggling to the state it's already in is a no-op) and a
// notifier that was enabled before a MoveToThread re-registers itself,
// queued through the move message, on the new thread's dispatcher.
type EventNotifier struct {
	Object

	mu      sync.Mutex
	fd      int
	typ     NotifierType
	enabled bool

	// Activated fires with the notifier itself as the argument, so one slot
	// can serve several notifiers and tell them apart by Fd()/Type().
	Activated Signal1[*EventNotifier]
}

// NewEventNotifier constructs an EventNotifier watching fd for typ
// readiness, enabled by default, registering immediately with parent's (or
// the calling thread's) dispatcher.
func NewEventNotifier(parent *Object, fd int, typ NotifierType) *EventNotifier {
	n := &EventNotifier{fd: fd, typ: typ, enabled: true}
	InitObject(&n.Object, n, parent)
	if th := n.Thread(); th != nil {
		th.Dispatcher().registerNotifier(n)
	}
	return n
}

// Fd returns the watched file descriptor.
func (n *EventNotifier) Fd() int { return n.fd }

// Type returns which readiness condition this notifier watches.
func (n *EventNotifier) Type() NotifierType { return n.typ }

// IsEnabled reports whether the notifier currently participates in polling.
func (n *EventNotifier) IsEnabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled
}

// SetEnabled arms or disarms the notifier. Setting it to its current state
// is a documented no-op: it neither touches the dispatcher nor logs
// anything.
func (n *EventNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	if n.enabled == enabled {
		n.mu.Unlock()
		return
	}
	n.enabled = enabled
	n.mu.Unlock()

	th := n.Thread()
	if th == nil {
		return
	}
	if enabled {
		th.Dispatcher().registerNotifier(n)
	} else {
		th.Dispatcher().unregisterNotifier(n)
	}
}

// willMoveThread detaches an enabled notifier from its old dispatcher before
// Object.MoveToThread repoints n.thread.
func (n *EventNotifier) willMoveThread(old, next *Thread) {
	n.mu.Lock()
	enabled := n.enabled
	n.mu.Unlock()
	if enabled && old != nil {
		old.Dispatcher().unregisterNotifier(n)
	}
}

// HandleMessage reacts to MessageThreadMove by re-registering with the new
// thread's dispatcher, if the notifier was enabled at the time of the move.
func (n *EventNotifier) HandleMessage(msg *Message) {
	if msg.Type() != MessageThreadMove {
		n.Object.HandleMessage(msg)
		return
	}
	if !n.IsEnabled() {
		return
	}
	if th := n.Thread(); th != nil {
		th.Dispatcher().registerNotifier(n)
	}
}

// activate is invoked by the Dispatcher on readiness.
func (n *EventNotifier) activate() {
	n.Activated.Emit(n)
}
