package objectloop

import "sync"

var (
	mainThreadOnce sync.Once
	mainThreadInst *Thread
)

func init() { MainThread() }

// MainThread returns the process-wide Thread representing the goroutine
// that first calls it; package initialization calls it, so that goroutine is
// the one running func main. It does not spawn a dispatch loop: the caller
// drives it with RunMain on that goroutine, which also opens its
// Dispatcher (ProcessEvents cannot run before that). Every other
// package-level Thread is created with NewThread instead; MainThread exists
// only so root Objects constructed before any Thread.Start call have a
// thread identity to compare against.
func MainThread() *Thread {
	mainThreadOnce.Do(func() {
		mainThreadInst = &Thread{
			logger: noopLogger{},
			done:   make(chan struct{}),
			isMain: true,
		}
		mainThreadInst.dispatcher = newDispatcher(mainThreadInst.logger)
		mainThreadInst.running.Store(true)
		threadRegistry.Store(goroutineID(), mainThreadInst)
	})
	return mainThreadInst
}

// IsMain reports whether t is the process's main thread.
func (t *Thread) IsMain() bool { return t.isMain }

// RunMain drives the main thread's dispatch loop on the calling goroutine
// until Exit is called. Must be called from the same goroutine that first
// called MainThread.
func (t *Thread) RunMain() error {
	if !t.isMain {
		return ErrWrongThread
	}
	if err := t.dispatcher.open(); err != nil {
		return err
	}
	defer t.dispatcher.close()

	for t.running.Load() {
		t.dispatchMessages()
		t.dispatcher.ProcessEvents()
	}
	t.dispatchMessages()
	t.Finished.Emit()
	close(t.done)
	return nil
}
