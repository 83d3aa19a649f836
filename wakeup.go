package objectloop

// wakeSource is the self-wakeup primitive that lets Dispatcher.Interrupt
// unblock a ProcessEvents call that's parked in the platform poller's wait
// syscall, from any goroutine. Linux uses an eventfd, Darwin a self-pipe;
// both are registered for read-readiness with the same poller the rest of
// the dispatcher uses, so a single wait() call covers both I/O and wakeups.
type wakeSource interface {
	init() error
	close() error
	fd() int
	wake()
	drain()
}
