package objectloop

import "errors"

// Sentinel errors for the dispatcher, thread and object-model usage
// contract. Usage errors never panic: callers get one of these back (or see
// it logged, for APIs with no error return) and the call is a no-op.
var (
	// ErrWrongThread is returned when an operation that spec requires to run
	// on a specific thread (Timer.Start/Stop, Object.MoveToThread) is
	// attempted from another goroutine's thread.
	ErrWrongThread = errors.New("objectloop: operation attempted from the wrong thread")

	// ErrAlreadyRegistered is returned (and logged) by the Dispatcher's
	// registerNotifier when a different notifier is already registered for
	// the same (fd, type) pair.
	ErrAlreadyRegistered = errors.New("objectloop: notifier already registered for this fd and type")

	// ErrNotRegistered is returned by the Dispatcher's unregisterNotifier for
	// a notifier that isn't currently registered, and by the Linux poller for
	// a descriptor outside the range it can track.
	ErrNotRegistered = errors.New("objectloop: source not registered")

	// ErrThreadRunning is returned by Thread.Start when the thread has
	// already been started.
	ErrThreadRunning = errors.New("objectloop: thread is already running")

	// ErrThreadNotRunning reports that a thread is not running. No function
	// in this package returns it: posting to a thread that was never started
	// queues the message until the thread runs.
	ErrThreadNotRunning = errors.New("objectloop: thread is not running")

	// ErrHasParent is returned by Object.MoveToThread when called on an
	// object that has a parent; only root objects may change thread
	// affinity directly.
	ErrHasParent = errors.New("objectloop: cannot move a parented object to another thread")

	// ErrPendingMessages is the debug-assertion error reported (not
	// returned — see Object.Destroy) when an object is destroyed directly
	// while it still has undelivered messages targeting it.
	ErrPendingMessages = errors.New("objectloop: object destroyed with pending messages")

	// ErrDispatcherClosed is returned once a Dispatcher's self-wakeup
	// descriptor has been torn down.
	ErrDispatcherClosed = errors.New("objectloop: dispatcher is closed")
)
