// Package objectloop implements a small Qt/libcamera-style object and event
// framework: a reactor-based Dispatcher (epoll on Linux, kqueue on
// Darwin), a thread/mailbox runtime that gives every goroutine-backed
// Thread its own FIFO message queue, an Object base class providing
// parent/child ownership and thread affinity, and a generic Signal/slot
// system supporting Auto, Direct, Queued and Blocking connection policies.
//
// A Thread owns exactly one Dispatcher and runs its own dispatch loop on a
// goroutine locked to an OS thread (runtime.LockOSThread), matching the
// one-native-thread-per-Thread assumption the platform pollers are built
// around. Objects are always affine to exactly one Thread; connecting a
// signal to a slot on an Object records that Object's thread, and emitting
// the signal resolves, at emission time, whether the slot runs inline or is
// queued onto the receiver's mailbox.
//
// The zero value of most types here is not useful; use the constructors
// (NewThread, NewObject, NewTimer, NewEventNotifier) and call InitObject
// from any type that embeds Object directly.
package objectloop
