package objectloop

import "reflect"

// ConnectionType selects how a bound invocation is delivered relative to the
// receiver's thread.
type ConnectionType int

const (
	// ConnectionAuto resolves to Direct when the emitting goroutine already
	// runs on the receiver's thread, Queued otherwise. This is the default
	// for every Connect call.
	ConnectionAuto ConnectionType = iota
	// ConnectionDirect always calls the slot synchronously, on the calling
	// goroutine.
	ConnectionDirect
	// ConnectionQueued always posts an Invoke message to the receiver's
	// mailbox and returns immediately, regardless of which thread is
	// calling.
	ConnectionQueued
	// ConnectionBlocking posts an Invoke message and waits for it to run,
	// unless the calling goroutine is already the receiver's thread (in
	// which case it degrades to Direct, since waiting would deadlock).
	ConnectionBlocking
)

func (c ConnectionType) String() string {
	switch c {
	case ConnectionAuto:
		return "auto"
	case ConnectionDirect:
		return "direct"
	case ConnectionQueued:
		return "queued"
	case ConnectionBlocking:
		return "blocking"
	default:
		return "unknown"
	}
}

// boundInvocation is the type-erased connection record: whatever shape the
// slot is (method value on an Object, method value on a plain receiver,
// functor, or free function), it ends up here as a reflect.Value plus the
// policy and receiver needed to resolve a connection type at emission time.
// There is no separate variant tag: the
// receiver field alone distinguishes "object-bound" (participates in thread
// affinity and disconnect-on-destroy) from everything else, which always
// runs Direct.
type boundInvocation struct {
	receiver *Object
	fn       reflect.Value
	policy   ConnectionType
}

// activate resolves the connection policy against the current goroutine and
// either calls the slot inline or posts a message for delivery on the
// receiver's own thread.
func (inv *boundInvocation) activate(args []any, deleteAfter bool) {
	effective := inv.policy
	if inv.receiver == nil {
		// No thread to compare against: free functions and functors not
		// bound to an Object always run where they're emitted.
		inv.invoke(args)
		return
	}

	sameThread := currentThread() == inv.receiver.Thread()
	switch effective {
	case ConnectionAuto:
		if sameThread {
			effective = ConnectionDirect
		} else {
			effective = ConnectionQueued
		}
	case ConnectionBlocking:
		if sameThread {
			effective = ConnectionDirect
		}
	}

	switch effective {
	case ConnectionQueued:
		inv.receiver.postMessage(newInvokeMessage(inv.receiver, inv, args, nil, deleteAfter))
	case ConnectionBlocking:
		done := newSemaphore(0)
		inv.receiver.postMessage(newInvokeMessage(inv.receiver, inv, args, done, deleteAfter))
		done.acquire(1)
	default:
		inv.invoke(args)
	}
}

// invoke calls the underlying callable synchronously with the packed
// argument list, zero-valuing any nil argument against the slot's declared
// parameter type.
func (inv *boundInvocation) invoke(args []any) {
	fnType := inv.fn.Type()
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		if a == nil {
			in[i] = reflect.Zero(fnType.In(i))
			continue
		}
		v := reflect.ValueOf(a)
		if !v.Type().AssignableTo(fnType.In(i)) && v.Type().ConvertibleTo(fnType.In(i)) {
			v = v.Convert(fnType.In(i))
		}
		in[i] = v
	}
	inv.fn.Call(in)
}

// methodPointer returns the code address backing a slot, used for exact
// method-pointer disconnect matching. Go method values of the same method on
// different receivers share one underlying function pointer, so this is
// sufficient to compare "the same slot", independent of receiver identity
// (receiver identity is compared separately via boundInvocation.receiver).
func methodPointer(fn reflect.Value) uintptr {
	return fn.Pointer()
}
