//go:build darwin

package objectloop

import "syscall"

// wakeDarwin implements wakeSource with a self-pipe, since Darwin has no
// eventfd.
type wakeDarwin struct {
	readFD, writeFD int
}

func newWakeSource() wakeSource { return &wakeDarwin{readFD: -1, writeFD: -1} }

func (w *wakeDarwin) init() error {
	var fds [2]int
	if err := syscall.Pipe(fds[:]); err != nil {
		return err
	}
	syscall.CloseOnExec(fds[0])
	syscall.CloseOnExec(fds[1])
	if err := syscall.SetNonblock(fds[0], true); err != nil {
		syscall.Close(fds[0])
		syscall.Close(fds[1])
		return err
	}
	if err := syscall.SetNonblock(fds[1], true); err != nil {
		syscall.Close(fds[0])
		syscall.Close(fds[1])
		return err
	}
	w.readFD, w.writeFD = fds[0], fds[1]
	return nil
}

func (w *wakeDarwin) close() error {
	if w.readFD >= 0 {
		syscall.Close(w.readFD)
	}
	if w.writeFD >= 0 && w.writeFD != w.readFD {
		syscall.Close(w.writeFD)
	}
	return nil
}

func (w *wakeDarwin) fd() int { return w.readFD }

func (w *wakeDarwin) wake() {
	buf := [1]byte{1}
	_, _ = syscall.Write(w.writeFD, buf[:])
}

func (w *wakeDarwin) drain() {
	var buf [64]byte
	for {
		_, err := syscall.Read(w.readFD, buf[:])
		if err != nil {
			return
		}
	}
}
