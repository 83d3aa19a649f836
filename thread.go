package objectloop

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// goroutineID extracts the calling goroutine's numeric ID by parsing the
// first line of runtime.Stack, to tell "am I running on my own loop
// goroutine" apart from everywhere else, since Go exposes no public
// goroutine-local storage.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, _ := strconv.ParseUint(string(fields[1]), 10, 64)
	return id
}

// threadRegistry maps the goroutine ID of each running Thread's dispatch
// loop back to the *Thread it belongs to. This is the Go substitute for the
// C++ thread-local "current thread" pointer: registration happens once, when
// Thread.exec starts running on its own goroutine.
var threadRegistry sync.Map // uint64 -> *Thread

func currentThread() *Thread {
	if v, ok := threadRegistry.Load(goroutineID()); ok {
		return v.(*Thread)
	}
	return nil
}

// Thread owns one dispatch loop: a mailbox of Messages plus a Dispatcher,
// run on a single locked OS thread for the lifetime of the Thread.
type Thread struct {
	id         uuid.UUID
	dispatcher *Dispatcher
	logger     Logger

	mailboxMu sync.Mutex
	mailbox   []*Message

	running atomic.Bool
	done    chan struct{}

	isMain bool

	// Finished fires once the dispatch loop has returned. It is emitted
	// from the loop's own goroutine (before that goroutine unregisters),
	// and before Wait unblocks.
	Finished Signal0
}

// NewThread constructs a Thread that is not yet running. Call Start to spawn
// its dispatch loop.
func NewThread(opts ...ThreadOption) *Thread {
	t := &Thread{
		id:     uuid.New(),
		logger: noopLogger{},
		done:   make(chan struct{}),
	}
	t.dispatcher = newDispatcher(t.logger)
	for _, o := range opts {
		o.applyThread(t)
	}
	t.dispatcher.logger = t.logger
	return t
}

// ID is a log-correlation identifier.
func (t *Thread) ID() uuid.UUID { return t.id }

// Dispatcher returns the thread's Dispatcher, for registering timers
// and notifiers that should fire on this thread.
func (t *Thread) Dispatcher() *Dispatcher { return t.dispatcher }

// IsRunning reports whether the dispatch loop is currently executing.
func (t *Thread) IsRunning() bool { return t.running.Load() }

// Start spawns the thread's dispatch loop on a new goroutine locked to its
// own OS thread, since the epoll/kqueue backends assume one native thread
// per Thread.
func (t *Thread) Start() error {
	if !t.running.CompareAndSwap(false, true) {
		return ErrThreadRunning
	}
	t.done = make(chan struct{})
	go t.exec()
	return nil
}

func (t *Thread) exec() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	id := goroutineID()
	threadRegistry.Store(id, t)
	defer threadRegistry.Delete(id)

	if err := t.dispatcher.open(); err != nil {
		t.logger.Log(SeverityError, "thread", "dispatcher open failed: "+err.Error())
		t.running.Store(false)
		close(t.done)
		return
	}
	defer t.dispatcher.close()

	for t.running.Load() {
		t.dispatchMessages()
		t.dispatcher.ProcessEvents()
	}

	// Drain whatever is left so DeferredDelete/Invoke messages posted just
	// before Exit still run.
	t.dispatchMessages()

	t.Finished.Emit()
	close(t.done)
}

// Exit requests the dispatch loop stop after its current iteration and
// wakes it immediately instead of waiting for the next poll timeout.
func (t *Thread) Exit() {
	if t.running.CompareAndSwap(true, false) {
		t.dispatcher.Interrupt()
	}
}

// Wait blocks until the dispatch loop has returned.
func (t *Thread) Wait() {
	<-t.done
}

// postMessage enqueues msg and wakes the dispatch loop. Safe from any
// goroutine.
func (t *Thread) postMessage(msg *Message) {
	t.mailboxMu.Lock()
	t.mailbox = append(t.mailbox, msg)
	n := len(t.mailbox)
	t.mailboxMu.Unlock()
	if m := t.dispatcher.metrics; m != nil {
		m.MailboxDepth.Set(float64(n))
	}
	t.dispatcher.Interrupt()
}

// removeMessages drops every still-pending message targeting obj without
// running them, used when an object is destroyed or moved off this thread.
func (t *Thread) removeMessages(obj *Object) {
	t.mailboxMu.Lock()
	kept := t.mailbox[:0]
	for _, m := range t.mailbox {
		if m.Receiver() == obj {
			obj.pending.Add(-1)
			continue
		}
		kept = append(kept, m)
	}
	t.mailbox = kept
	n := len(t.mailbox)
	t.mailboxMu.Unlock()
	if m := t.dispatcher.metrics; m != nil {
		m.MailboxDepth.Set(float64(n))
	}
}

// dispatchMessages drains and runs every message currently queued, in FIFO
// order. MessageDeferredDelete is handled here directly (not forwarded to
// HandleMessage) since destruction is the dispatch loop's job, not the
// object's.
func (t *Thread) dispatchMessages() {
	t.mailboxMu.Lock()
	pending := t.mailbox
	t.mailbox = nil
	t.mailboxMu.Unlock()
	if m := t.dispatcher.metrics; m != nil {
		m.MailboxDepth.Set(0)
	}

	for _, m := range pending {
		recv := m.Receiver()
		if recv != nil {
			recv.pending.Add(-1)
		}

		// removeMessages only purges what's still sitting in the mailbox at
		// the moment an object is destroyed or moved; a message already
		// spliced into this batch escapes that purge, so every delivery
		// still needs its own liveness check against a dead receiver.
		if recv != nil && recv.isDestroyed() && m.Type() != MessageDeferredDelete {
			continue
		}

		switch m.Type() {
		case MessageDeferredDelete:
			if recv != nil {
				recv.Destroy(t.logger)
			}
		case MessageInvoke:
			m.invoke()
		default:
			if recv != nil {
				recv.dispatch(m)
			}
		}
	}
}
