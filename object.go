package objectloop

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Objecter is the virtual-dispatch seam message delivery uses: every
// concrete object type overrides HandleMessage to intercept the message
// kinds it cares about (EventNotifier and Timer both react to
// MessageThreadMove), then optionally falls through to Object.HandleMessage
// for anything else. Go has no dispatch-through-base-pointer, so a subclass
// must pass itself as InitObject's self argument, from its own constructor,
// to register itself as the delivery target.
type Objecter interface {
	HandleMessage(msg *Message)
}

// Object is the base of every participant in the object tree: it owns
// thread affinity, parent/child lifetime, and the back-links needed to
// sever signal connections on destruction. Embed Object by value and call
// InitObject in the embedding constructor.
type Object struct {
	id uuid.UUID

	mu        sync.Mutex
	parent    *Object
	children  []*Object
	thread    *Thread
	signals   []signalBacklink
	destroyed bool

	pending atomic.Int64

	handler Objecter
}

// InitObject wires an Object embedded in a concrete type. self must be the
// outermost value (the concrete type embedding Object), so message dispatch
// and disconnect-by-receiver compare against the right identity. Call this
// once, first, in every constructor that embeds Object.
func InitObject(o *Object, self Objecter, parent *Object) {
	o.id = uuid.New()
	o.handler = self
	o.parent = parent
	if parent != nil {
		o.thread = parent.Thread()
		parent.addChild(o)
	} else {
		o.thread = currentThread()
	}
}

// NewObject constructs a standalone Object (not embedded in a richer type).
func NewObject(parent *Object) *Object {
	o := &Object{}
	InitObject(o, o, parent)
	return o
}

// NewObjectForThread constructs a root Object (no parent) with explicit
// thread affinity, for bootstrapping an object from outside the thread that
// will own it — the one case where defaulting to currentThread() would give
// the wrong answer.
func NewObjectForThread(t *Thread) *Object {
	o := &Object{thread: t}
	o.id = uuid.New()
	o.handler = o
	return o
}

func (o *Object) asObject() *Object { return o }

// ID is a log-correlation identifier; it plays no role in equality or
// ownership, which always compare *Object pointers.
func (o *Object) ID() uuid.UUID { return o.id }

// Thread returns the object's current thread affinity. Reads are safe from
// any goroutine; the pointer only changes under MoveToThread, which itself
// requires running on the object's current thread.
func (o *Object) Thread() *Thread {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.thread
}

// Parent returns the object's parent, or nil for a root object.
func (o *Object) Parent() *Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.parent
}

func (o *Object) addChild(c *Object) {
	o.mu.Lock()
	o.children = append(o.children, c)
	o.mu.Unlock()
}

func (o *Object) removeChild(c *Object) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, ch := range o.children {
		if ch == c {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

func (o *Object) addSignalBacklink(b signalBacklink) {
	o.mu.Lock()
	o.signals = append(o.signals, b)
	o.mu.Unlock()
}

// isDestroyed reports whether Destroy has already run for this object. A
// dispatch loop consults this before running a queued message so a message
// that was already dequeued out of the mailbox (and so escaped
// removeMessages) still can't reach a dead receiver.
func (o *Object) isDestroyed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.destroyed
}

// HandleMessage is Object's base message handler: it does nothing. Embedding
// types override it to react to MessageThreadMove and similar; Thread's
// dispatch loop handles MessageDeferredDelete itself, so neither base nor
// subclass ever sees that kind here.
func (o *Object) HandleMessage(msg *Message) {}

// postMessage enqueues msg on the object's current thread mailbox,
// incrementing the pending-message counter the Thread decrements on
// delivery.
func (o *Object) postMessage(msg *Message) {
	t := o.Thread()
	if t == nil {
		return
	}
	o.pending.Add(1)
	t.postMessage(msg)
}

// PendingMessages reports how many messages targeting this object are still
// sitting in its thread's mailbox.
func (o *Object) PendingMessages() int64 { return o.pending.Load() }

// InvokeMethod posts fn (a zero-argument slot) to run on the object's
// thread under the given connection policy, without requiring a Signal.
func (o *Object) InvokeMethod(fn func(), policy ...ConnectionType) {
	inv := &boundInvocation{receiver: o, fn: reflect.ValueOf(fn), policy: resolvePolicy(policy)}
	inv.activate(nil, true)
}

// MoveToThread reassigns the object (and its whole subtree) to a different
// thread. Only a root object (no parent) may be moved directly, and the
// call must happen on the object's current thread.
func (o *Object) MoveToThread(t *Thread) error {
	o.mu.Lock()
	if o.parent != nil {
		o.mu.Unlock()
		return ErrHasParent
	}
	cur := o.thread
	o.mu.Unlock()

	if currentThread() != cur {
		return ErrWrongThread
	}

	var walk func(*Object)
	walk = func(obj *Object) {
		obj.mu.Lock()
		old := obj.thread
		kids := append([]*Object(nil), obj.children...)
		obj.mu.Unlock()

		if mover, ok := obj.handler.(threadMover); ok {
			mover.willMoveThread(old, t)
		}

		if old != nil {
			old.removeMessages(obj)
		}

		obj.mu.Lock()
		obj.thread = t
		obj.mu.Unlock()

		if t != nil {
			obj.postMessage(newThreadMoveMessage(obj))
		}
		for _, k := range kids {
			walk(k)
		}
	}
	walk(o)
	return nil
}

// threadMover is implemented by object types that register themselves with
// their thread's Dispatcher (Timer, EventNotifier): it lets MoveToThread
// detach from the old dispatcher before the thread pointer changes, so the
// object's MessageThreadMove handler can re-attach to the new one.
type threadMover interface {
	willMoveThread(old, next *Thread)
}

// destroyer is an optional hook: object types that need to release their own
// resources (closing a wrapped fd, say) implement onDestroy and it runs
// after children are gone and signal connections are severed, but before
// the object is detached from its parent.
type destroyer interface {
	onDestroy()
}

// Destroy tears the object down immediately: children are destroyed first,
// in reverse registration order, then every signal connection that has this
// object as its receiver is severed, then the object is detached
// from its parent. Destroying an object with undelivered messages still
// targeting it is a usage error, logged rather than fatal.
func (o *Object) Destroy(logger Logger) {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return
	}
	o.destroyed = true
	kids := append([]*Object(nil), o.children...)
	backlinks := append([]signalBacklink(nil), o.signals...)
	parent := o.parent
	thread := o.thread
	o.mu.Unlock()

	for i := len(kids) - 1; i >= 0; i-- {
		kids[i].Destroy(logger)
	}

	for _, b := range backlinks {
		b.disconnectReceiver(o)
	}

	if d, ok := o.handler.(destroyer); ok {
		d.onDestroy()
	}

	if pending := o.pending.Load(); pending > 0 && logger != nil {
		logger.Log(SeverityWarn, "object", ErrPendingMessages.Error())
	}

	// Purge whatever is still sitting in the mailbox targeting this object,
	// so a message already queued by another thread never reaches a dead
	// receiver once dispatched.
	if thread != nil {
		thread.removeMessages(o)
	}

	if parent != nil {
		parent.removeChild(o)
	}
}

// DeleteLater schedules destruction on the object's own thread via a
// MessageDeferredDelete, so an object never destroys itself mid-call-stack.
// The thread's dispatch loop calls Destroy with its own logger when the
// message is delivered.
func (o *Object) DeleteLater() {
	o.postMessage(newDeferredDeleteMessage(o))
}

// dispatch delivers msg to the most-derived HandleMessage implementation
// registered via InitObject.
func (o *Object) dispatch(msg *Message) {
	o.handler.HandleMessage(msg)
}
