package objectloop

import "testing"

type orderTrackingObject struct {
	Object
	label string
	order *[]string
}

func newOrderTrackingObject(parent *Object, label string, order *[]string) *orderTrackingObject {
	o := &orderTrackingObject{label: label, order: order}
	InitObject(&o.Object, o, parent)
	return o
}

func (o *orderTrackingObject) onDestroy() {
	*o.order = append(*o.order, o.label)
}

func TestObjectDestroyOrderIsReverseRegistration(t *testing.T) {
	root := NewObject(nil)
	var order []string
	newOrderTrackingObject(root, "first", &order)
	newOrderTrackingObject(root, "second", &order)
	newOrderTrackingObject(root, "third", &order)

	root.Destroy(nil)

	want := []string{"third", "second", "first"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if len(root.children) != 0 {
		t.Fatalf("root.children = %v, want empty after Destroy", root.children)
	}
}

func TestObjectDestroySeversSignalConnections(t *testing.T) {
	receiver := NewObject(nil)

	var sig Signal0
	fired := false
	sig.Connect(receiver, func() { fired = true })

	receiver.Destroy(nil)
	sig.Emit()

	if fired {
		t.Fatal("slot bound to a destroyed receiver still fired")
	}
}

func TestObjectMoveToThreadRejectsParented(t *testing.T) {
	parent := NewObject(nil)
	child := NewObject(parent)

	other := NewThread()
	if err := child.MoveToThread(other); err != ErrHasParent {
		t.Fatalf("MoveToThread on parented object: got %v, want ErrHasParent", err)
	}
}

func TestObjectMoveToThreadRejectsWrongThread(t *testing.T) {
	root := NewObject(nil)
	other := NewThread()
	if err := other.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		other.Exit()
		other.Wait()
	}()

	// Pretend root already belongs to `other`, so calling MoveToThread from
	// this (unrelated) test goroutine is a cross-thread call.
	root.mu.Lock()
	root.thread = other
	root.mu.Unlock()

	if err := root.MoveToThread(NewThread()); err != ErrWrongThread {
		t.Fatalf("MoveToThread from wrong thread: got %v, want ErrWrongThread", err)
	}
}

func TestObjectMoveToThreadPurgesSourceMailbox(t *testing.T) {
	a := NewThread()
	b := NewThread()

	root := &Object{}
	InitObject(root, root, nil)
	root.mu.Lock()
	root.thread = a
	root.mu.Unlock()

	ran := false
	root.InvokeMethod(func() { ran = true }, ConnectionQueued)

	a.mailboxMu.Lock()
	queuedBefore := len(a.mailbox)
	a.mailboxMu.Unlock()
	if queuedBefore == 0 {
		t.Fatal("expected the invocation to be queued on a's mailbox before the move")
	}

	// Register this test goroutine as thread a, so MoveToThread's
	// current-thread check accepts the call.
	id := goroutineID()
	threadRegistry.Store(id, a)
	defer threadRegistry.Delete(id)

	if err := root.MoveToThread(b); err != nil {
		t.Fatalf("MoveToThread: %v", err)
	}

	a.mailboxMu.Lock()
	queuedAfter := len(a.mailbox)
	a.mailboxMu.Unlock()
	if queuedAfter != 0 {
		t.Fatalf("a.mailbox still has %d message(s) targeting the moved object after MoveToThread", queuedAfter)
	}

	a.dispatchMessages()
	if ran {
		t.Fatal("invocation queued on the source thread ran after the object moved away")
	}
}

func TestObjectDestroyPurgesQueuedMailboxMessages(t *testing.T) {
	th := NewThread()

	obj := &Object{}
	InitObject(obj, obj, nil)
	obj.mu.Lock()
	obj.thread = th
	obj.mu.Unlock()

	ran := false
	obj.InvokeMethod(func() { ran = true }, ConnectionQueued)

	obj.Destroy(nil)

	th.mailboxMu.Lock()
	queued := len(th.mailbox)
	th.mailboxMu.Unlock()
	if queued != 0 {
		t.Fatalf("th.mailbox still has %d message(s) targeting the destroyed object", queued)
	}

	th.dispatchMessages()
	if ran {
		t.Fatal("invocation targeting a destroyed object still ran")
	}
}

func TestDispatchMessagesSkipsReceiverDestroyedEarlierInSameBatch(t *testing.T) {
	th := NewThread()

	obj := &Object{}
	InitObject(obj, obj, nil)
	obj.mu.Lock()
	obj.thread = th
	obj.mu.Unlock()

	ran := false
	// Queue both in one mailbox so a single dispatchMessages call splices
	// them into the same batch before either runs, the way a DeleteLater
	// from one thread and a Queued invoke from another can race.
	obj.DeleteLater()
	obj.InvokeMethod(func() { ran = true }, ConnectionQueued)

	th.dispatchMessages()

	if ran {
		t.Fatal("invocation ran against a receiver destroyed earlier in the same batch")
	}
}

func TestObjectInvokeMethodQueuedRunsOnOwningThread(t *testing.T) {
	th := NewThread()
	if err := th.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		th.Exit()
		th.Wait()
	}()

	obj := &Object{}
	InitObject(obj, obj, nil)
	obj.mu.Lock()
	obj.thread = th
	obj.mu.Unlock()

	done := make(chan *Thread, 1)
	obj.InvokeMethod(func() { done <- currentThread() }, ConnectionQueued)

	runner := <-done
	if runner != th {
		t.Fatalf("invocation ran on thread %v, want the owning thread %v", runner, th)
	}
}
