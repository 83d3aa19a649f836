package objectloop

import (
	"testing"
	"time"
)

func TestThreadStartTwiceFails(t *testing.T) {
	th := NewThread()
	if err := th.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer func() {
		th.Exit()
		th.Wait()
	}()

	if err := th.Start(); err != ErrThreadRunning {
		t.Fatalf("second Start: got %v, want ErrThreadRunning", err)
	}
}

func TestThreadFinishedSignalFiresOnExit(t *testing.T) {
	th := NewThread()
	finished := make(chan struct{})
	th.Finished.Connect(nil, func() { close(finished) })

	if err := th.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	th.Exit()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Finished never fired")
	}
	th.Wait()
}

func TestThreadMailboxIsFIFO(t *testing.T) {
	th := NewThread()
	if err := th.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		th.Exit()
		th.Wait()
	}()

	root := &Object{}
	InitObject(root, root, nil)
	root.mu.Lock()
	root.thread = th
	root.mu.Unlock()

	results := make(chan int, 3)
	for i := 0; i < 3; i++ {
		i := i
		root.InvokeMethod(func() { results <- i }, ConnectionQueued)
	}

	for i := 0; i < 3; i++ {
		select {
		case got := <-results:
			if got != i {
				t.Fatalf("results[%d] = %d, want %d (mailbox not FIFO)", i, got, i)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("invocation never ran")
		}
	}
}

func TestConnectionAutoResolvesDirectOnSameThread(t *testing.T) {
	th := NewThread()
	if err := th.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		th.Exit()
		th.Wait()
	}()

	root := &Object{}
	InitObject(root, root, nil)
	root.mu.Lock()
	root.thread = th
	root.mu.Unlock()

	done := make(chan bool, 1)
	root.InvokeMethod(func() {
		var sig Signal0
		sameGoroutine := false
		callerID := goroutineID()
		sig.Connect(root, func() { sameGoroutine = goroutineID() == callerID })
		sig.Emit() // Auto, receiver's thread == emitting goroutine -> Direct
		done <- sameGoroutine
	}, ConnectionQueued)

	select {
	case same := <-done:
		if !same {
			t.Fatal("Auto policy did not resolve to Direct on same thread")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("invocation never ran")
	}
}

func TestConnectionAutoResolvesQueuedAcrossThreads(t *testing.T) {
	receiverThread := NewThread()
	if err := receiverThread.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		receiverThread.Exit()
		receiverThread.Wait()
	}()

	receiver := &Object{}
	InitObject(receiver, receiver, nil)
	receiver.mu.Lock()
	receiver.thread = receiverThread
	receiver.mu.Unlock()

	var sig Signal0
	ran := make(chan uint64, 1)
	sig.Connect(receiver, func() { ran <- goroutineID() })

	sig.Emit() // called from the test goroutine, not receiverThread

	select {
	case id := <-ran:
		if id == goroutineID() {
			t.Fatal("Auto policy ran inline across threads instead of queuing")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("slot never ran")
	}
}
