package objectloop

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMailboxDepthReflectsQueuedMessages(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "objectloop_test_mailbox")

	th := NewThread(WithMetrics(metrics))

	obj := &Object{}
	InitObject(obj, obj, nil)
	obj.mu.Lock()
	obj.thread = th
	obj.mu.Unlock()

	obj.InvokeMethod(func() {}, ConnectionQueued)
	obj.InvokeMethod(func() {}, ConnectionQueued)

	if got := testutil.ToFloat64(metrics.MailboxDepth); got != 2 {
		t.Fatalf("MailboxDepth after two queued invocations = %v, want 2", got)
	}

	th.dispatchMessages()

	if got := testutil.ToFloat64(metrics.MailboxDepth); got != 0 {
		t.Fatalf("MailboxDepth after drain = %v, want 0", got)
	}
}

func TestMailboxDepthReflectsDestroyPurge(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "objectloop_test_mailbox_purge")

	th := NewThread(WithMetrics(metrics))

	obj := &Object{}
	InitObject(obj, obj, nil)
	obj.mu.Lock()
	obj.thread = th
	obj.mu.Unlock()

	obj.InvokeMethod(func() {}, ConnectionQueued)
	if got := testutil.ToFloat64(metrics.MailboxDepth); got != 1 {
		t.Fatalf("MailboxDepth before Destroy = %v, want 1", got)
	}

	obj.Destroy(nil)

	if got := testutil.ToFloat64(metrics.MailboxDepth); got != 0 {
		t.Fatalf("MailboxDepth after Destroy purged the mailbox = %v, want 0", got)
	}
}

func TestTimersGaugeTracksRegisteredTimers(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "objectloop_test_timers")

	th := NewThread(WithMetrics(metrics))
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

	done := make(chan struct{})
	root.InvokeMethod(func() {
		timer := NewTimer(root)
		if err := timer.Start(time.Hour); err != nil {
			t.Error(err)
		}
		close(done)
	}, ConnectionQueued)
	<-done

	deadline := time.Now().Add(2 * time.Second)
	for testutil.ToFloat64(metrics.Timers) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := testutil.ToFloat64(metrics.Timers); got != 1 {
		t.Fatalf("Timers gauge = %v, want 1 after registering one timer", got)
	}
}
