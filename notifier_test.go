package objectloop

import (
	"os"
	"testing"
	"time"
)

func TestEventNotifierActivatesOnReadiness(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

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

	activated := make(chan struct{}, 1)
	root.InvokeMethod(func() {
		n := NewEventNotifier(root, int(r.Fd()), NotifierRead)
		n.Activated.Connect(n, func(*EventNotifier) {
			var buf [1]byte
			r.Read(buf[:])
			activated <- struct{}{}
		})
	}, ConnectionQueued)

	time.Sleep(20 * time.Millisecond) // let registration land before we write
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-activated:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier never activated")
	}
}

func TestEventNotifierSetEnabledIsIdempotent(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

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
		n := NewEventNotifier(root, int(r.Fd()), NotifierRead)
		n.SetEnabled(true) // already enabled: documented no-op
		done <- n.IsEnabled()
	}, ConnectionQueued)

	select {
	case enabled := <-done:
		if !enabled {
			t.Fatal("IsEnabled() false after redundant SetEnabled(true)")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("invocation never ran")
	}
}
