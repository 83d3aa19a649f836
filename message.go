package objectloop

// MessageType tags the kind of a queued Message.
type MessageType int

const (
	// MessageInvoke carries a bound invocation to run on the receiver's
	// thread.
	MessageInvoke MessageType = iota + 1
	// MessageThreadMove notifies an object that it has just been moved to
	// a new thread, so subclasses (EventNotifier, Timer) can re-register
	// themselves with the new dispatcher.
	MessageThreadMove
	// MessageDeferredDelete destroys the receiver when dispatched.
	MessageDeferredDelete
)

// firstUserMessageType is the first value available to caller-defined
// message tags.
const firstUserMessageType MessageType = 1000

// Message is a unit deliverable into an Object's mailbox. The zero value is
// not valid; use one of the message constructors below.
type Message struct {
	kind     MessageType
	receiver *Object

	// invoke fields, set only when kind == MessageInvoke.
	invocation    *boundInvocation
	args          []any
	done          *semaphore
	deleteAfter   bool
}

// Type returns the message's kind tag.
func (m *Message) Type() MessageType { return m.kind }

// Receiver returns the object the message targets.
func (m *Message) Receiver() *Object { return m.receiver }

func newInvokeMessage(receiver *Object, inv *boundInvocation, args []any, done *semaphore, deleteAfter bool) *Message {
	return &Message{
		kind:        MessageInvoke,
		receiver:    receiver,
		invocation:  inv,
		args:        args,
		done:        done,
		deleteAfter: deleteAfter,
	}
}

func newThreadMoveMessage(receiver *Object) *Message {
	return &Message{kind: MessageThreadMove, receiver: receiver}
}

func newDeferredDeleteMessage(receiver *Object) *Message {
	return &Message{kind: MessageDeferredDelete, receiver: receiver}
}

// newUserMessage constructs a message carrying a caller-defined tag (>=
// firstUserMessageType) with no invocation payload; HandleMessage
// implementations may switch on Type() and ignore anything they don't
// recognise.
func newUserMessage(receiver *Object, tag MessageType) *Message {
	if tag < firstUserMessageType {
		tag = firstUserMessageType
	}
	return &Message{kind: tag, receiver: receiver}
}

// invoke runs the bound invocation carried by an Invoke message. It is
// called from Thread.dispatchMessages on the receiver's own thread.
func (m *Message) invoke() {
	if m.invocation == nil {
		return
	}
	m.invocation.invoke(m.args)
	if m.done != nil {
		m.done.release(1)
	}
	if m.deleteAfter {
		m.invocation = nil
	}
}
