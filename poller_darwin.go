//go:build darwin

package objectloop

import (
	"sync"

	"golang.org/x/sys/unix"
)

// pollerDarwin is the kqueue-backed fdPoller. Grounded on the reference
// event loop's Darwin FastPoller: a dynamically grown fd-indexed slice
// (kqueue has no fixed descriptor ceiling the way epoll's array did in the
// Linux variant) and delta-based ModifyFD, since kqueue requires separate
// EV_ADD/EV_DELETE changes rather than a single replace like epoll's
// EPOLL_CTL_MOD.
type pollerDarwin struct {
	kq       int
	mu       sync.RWMutex
	masks    []ioEvents // registered mask per fd, grown on demand
	eventBuf [256]unix.Kevent_t
}

func newFdPoller() fdPoller { return &pollerDarwin{kq: -1} }

func (p *pollerDarwin) init() error {
	kq, err := unix.Kqueue()
	if err != nil {
		return err
	}
	unix.CloseOnExec(kq)
	p.kq = kq
	return nil
}

func (p *pollerDarwin) close() error {
	if p.kq < 0 {
		return nil
	}
	return unix.Close(p.kq)
}

func (p *pollerDarwin) ensureSize(fd int) {
	if fd < len(p.masks) {
		return
	}
	grown := make([]ioEvents, fd*2+1)
	copy(grown, p.masks)
	p.masks = grown
}

func (p *pollerDarwin) registerFD(fd int, events ioEvents) error {
	p.mu.Lock()
	p.ensureSize(fd)
	p.masks[fd] = events
	p.mu.Unlock()

	kevents := eventsToKevents(fd, events, unix.EV_ADD|unix.EV_ENABLE)
	if len(kevents) == 0 {
		return nil
	}
	_, err := unix.Kevent(p.kq, kevents, nil, nil)
	return err
}

func (p *pollerDarwin) unregisterFD(fd int) error {
	p.mu.Lock()
	var old ioEvents
	if fd < len(p.masks) {
		old = p.masks[fd]
		p.masks[fd] = 0
	}
	p.mu.Unlock()

	kevents := eventsToKevents(fd, old, unix.EV_DELETE)
	if len(kevents) == 0 {
		return nil
	}
	_, err := unix.Kevent(p.kq, kevents, nil, nil)
	return err
}

func (p *pollerDarwin) modifyFD(fd int, events ioEvents) error {
	p.mu.Lock()
	p.ensureSize(fd)
	old := p.masks[fd]
	p.masks[fd] = events
	p.mu.Unlock()

	if removed := old &^ events; removed != 0 {
		if del := eventsToKevents(fd, removed, unix.EV_DELETE); len(del) > 0 {
			unix.Kevent(p.kq, del, nil, nil)
		}
	}
	if added := events &^ old; added != 0 {
		if add := eventsToKevents(fd, added, unix.EV_ADD|unix.EV_ENABLE); len(add) > 0 {
			if _, err := unix.Kevent(p.kq, add, nil, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *pollerDarwin) wait(timeoutMs int) ([]readyFD, error) {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		ts = &unix.Timespec{
			Sec:  int64(timeoutMs / 1000),
			Nsec: int64((timeoutMs % 1000) * 1000000),
		}
	}

	n, err := unix.Kevent(p.kq, nil, p.eventBuf[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}

	out := make([]readyFD, 0, n)
	for i := 0; i < n; i++ {
		fd := int(p.eventBuf[i].Ident)
		if fd < 0 {
			continue
		}
		out = append(out, readyFD{fd: fd, events: keventToEvents(&p.eventBuf[i])})
	}
	return out, nil
}

func eventsToKevents(fd int, events ioEvents, flags uint16) []unix.Kevent_t {
	var kevents []unix.Kevent_t
	if events&ioEventRead != 0 {
		kevents = append(kevents, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if events&ioEventWrite != 0 {
		kevents = append(kevents, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	return kevents
}

func keventToEvents(kev *unix.Kevent_t) ioEvents {
	var events ioEvents
	switch kev.Filter {
	case unix.EVFILT_READ:
		events |= ioEventRead
	case unix.EVFILT_WRITE:
		events |= ioEventWrite
	}
	if kev.Flags&unix.EV_ERROR != 0 {
		events |= ioEventError
	}
	if kev.Flags&unix.EV_EOF != 0 {
		events |= ioEventHangup
	}
	return events
}
