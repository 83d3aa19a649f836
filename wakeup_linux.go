//go:build linux

package objectloop

import "golang.org/x/sys/unix"

// wakeLinux implements wakeSource with a single eventfd: writing any
// non-zero uint64 to it makes it read-ready, which is all Interrupt needs.
type wakeLinux struct {
	efd int
}

func newWakeSource() wakeSource { return &wakeLinux{efd: -1} }

func (w *wakeLinux) init() error {
	efd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return err
	}
	w.efd = efd
	return nil
}

func (w *wakeLinux) close() error {
	if w.efd < 0 {
		return nil
	}
	return unix.Close(w.efd)
}

func (w *wakeLinux) fd() int { return w.efd }

func (w *wakeLinux) wake() {
	var buf [8]byte
	buf[0] = 1
	_, _ = unix.Write(w.efd, buf[:])
}

func (w *wakeLinux) drain() {
	var buf [8]byte
	for {
		_, err := unix.Read(w.efd, buf[:])
		if err != nil {
			return
		}
	}
}
