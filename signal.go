package objectloop

import (
	"reflect"
	"sync"
)

// objectRef is implemented by Object and, by embedding, by every concrete
// object type (EventNotifier, Timer, ...). It lets signalCore recognise an
// "owner" argument as object-bound without importing a concrete subtype.
type objectRef interface {
	asObject() *Object
}

func resolveReceiver(owner any) *Object {
	if owner == nil {
		return nil
	}
	if r, ok := owner.(objectRef); ok {
		return r.asObject()
	}
	return nil
}

// signalBacklink is how an Object reaches back into every signal holding an
// invocation bound to it, so Destroy can sever those connections instead of
// leaving dangling receivers. Implemented by *signalCore.
type signalBacklink interface {
	disconnectReceiver(obj *Object)
}

// signalCore is the type-erased body shared by every SignalN wrapper: a
// connection list plus snapshot-then-iterate emit semantics (a slot may
// disconnect itself, disconnect another slot, or destroy its receiver while
// the signal is still emitting).
type signalCore struct {
	mu    sync.Mutex
	conns []*boundInvocation
}

func (c *signalCore) connect(owner any, fn reflect.Value, policy ConnectionType) {
	recv := resolveReceiver(owner)
	if recv == nil {
		// No receiver thread to compare against, so Auto/Queued/Blocking
		// would be meaningless; free functions and non-Object functors
		// always run Direct.
		policy = ConnectionDirect
	}
	inv := &boundInvocation{receiver: recv, fn: fn, policy: policy}

	c.mu.Lock()
	c.conns = append(c.conns, inv)
	c.mu.Unlock()

	if recv != nil {
		recv.addSignalBacklink(c)
	}
}

// emit snapshots the connection list under lock, then invokes each
// connection outside the lock so a slot is free to call back into Connect
// or Disconnect on this same signal.
func (c *signalCore) emit(args []any) {
	c.mu.Lock()
	snapshot := make([]*boundInvocation, len(c.conns))
	copy(snapshot, c.conns)
	c.mu.Unlock()

	for _, inv := range snapshot {
		inv.activate(args, false)
	}
}

func (c *signalCore) disconnectAll() {
	c.mu.Lock()
	c.conns = nil
	c.mu.Unlock()
}

func (c *signalCore) disconnectReceiver(obj *Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.conns[:0]
	for _, inv := range c.conns {
		if inv.receiver != obj {
			kept = append(kept, inv)
		}
	}
	c.conns = kept
}

func (c *signalCore) disconnectReceiverArg(owner any) {
	recv := resolveReceiver(owner)
	c.disconnectReceiver(recv)
}

// disconnectFunc removes every connection matching both the given receiver
// (nil for free functions) and the exact slot method pointer.
func (c *signalCore) disconnectFunc(owner any, fn reflect.Value) {
	recv := resolveReceiver(owner)
	ptr := methodPointer(fn)

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.conns[:0]
	for _, inv := range c.conns {
		if inv.receiver == recv && methodPointer(inv.fn) == ptr {
			continue
		}
		kept = append(kept, inv)
	}
	c.conns = kept
}

func resolvePolicy(policy []ConnectionType) ConnectionType {
	if len(policy) > 0 {
		return policy[0]
	}
	return ConnectionAuto
}

// Signal0 carries no arguments.
type Signal0 struct{ core signalCore }

func (s *Signal0) Connect(owner any, fn func(), policy ...ConnectionType) {
	s.core.connect(owner, reflect.ValueOf(fn), resolvePolicy(policy))
}
func (s *Signal0) Disconnect()                       { s.core.disconnectAll() }
func (s *Signal0) DisconnectObject(owner any)        { s.core.disconnectReceiverArg(owner) }
func (s *Signal0) DisconnectFunc(owner any, fn func()) {
	s.core.disconnectFunc(owner, reflect.ValueOf(fn))
}
func (s *Signal0) Emit() { s.core.emit(nil) }

// Signal1 carries one argument.
type Signal1[A any] struct{ core signalCore }

func (s *Signal1[A]) Connect(owner any, fn func(A), policy ...ConnectionType) {
	s.core.connect(owner, reflect.ValueOf(fn), resolvePolicy(policy))
}
func (s *Signal1[A]) Disconnect()                { s.core.disconnectAll() }
func (s *Signal1[A]) Emit(a A)                    { s.core.emit([]any{a}) }
func (s *Signal1[A]) DisconnectObject(owner any)  { s.core.disconnectReceiverArg(owner) }
func (s *Signal1[A]) DisconnectFunc(owner any, fn func(A)) {
	s.core.disconnectFunc(owner, reflect.ValueOf(fn))
}

// Signal2 carries two arguments.
type Signal2[A, B any] struct{ core signalCore }

func (s *Signal2[A, B]) Connect(owner any, fn func(A, B), policy ...ConnectionType) {
	s.core.connect(owner, reflect.ValueOf(fn), resolvePolicy(policy))
}
func (s *Signal2[A, B]) Disconnect()                      { s.core.disconnectAll() }
func (s *Signal2[A, B]) Emit(a A, b B)                    { s.core.emit([]any{a, b}) }
func (s *Signal2[A, B]) DisconnectObject(owner any)       { s.core.disconnectReceiverArg(owner) }
func (s *Signal2[A, B]) DisconnectFunc(owner any, fn func(A, B)) {
	s.core.disconnectFunc(owner, reflect.ValueOf(fn))
}

// Signal3 carries three arguments.
type Signal3[A, B, C any] struct{ core signalCore }

func (s *Signal3[A, B, C]) Connect(owner any, fn func(A, B, C), policy ...ConnectionType) {
	s.core.connect(owner, reflect.ValueOf(fn), resolvePolicy(policy))
}
func (s *Signal3[A, B, C]) Disconnect()                { s.core.disconnectAll() }
func (s *Signal3[A, B, C]) Emit(a A, b B, c C)          { s.core.emit([]any{a, b, c}) }
func (s *Signal3[A, B, C]) DisconnectObject(owner any) { s.core.disconnectReceiverArg(owner) }
func (s *Signal3[A, B, C]) DisconnectFunc(owner any, fn func(A, B, C)) {
	s.core.disconnectFunc(owner, reflect.ValueOf(fn))
}
