//go:build windows

package eventloop

import (
	"time"

	"golang.org/x/sys/windows"
)

// platformInitReactor replaces the -1,-1 fd pair createWakeFd reports on
// Windows with a manual-reset event object, the closest idiomatic stand-in
// for an IOCP completion wake when there are no registered sockets to
// complete against.
func platformInitReactor(r *reactor) error {
	h, err := windows.CreateEvent(nil, 1 /* manual reset */, 0, nil)
	if err != nil {
		return err
	}
	r.wakeEvent = uintptr(h)
	return nil
}

// wake signals the loop goroutine blocked in wait. Safe from any goroutine.
func (r *reactor) wake() error {
	return windows.SetEvent(windows.Handle(r.wakeEvent))
}

// drain resets the event so the next wait blocks until the next wake.
func (r *reactor) drain() {
	_ = windows.ResetEvent(windows.Handle(r.wakeEvent))
}

// wait blocks until wake() is called or timeout elapses. A negative
// timeout blocks indefinitely.
func (r *reactor) wait(timeout time.Duration) error {
	ms := uint32(windows.INFINITE)
	if timeout >= 0 {
		ms = uint32(timeout.Milliseconds())
	}
	result, err := windows.WaitForSingleObject(windows.Handle(r.wakeEvent), ms)
	if err != nil {
		return err
	}
	if result == uint32(windows.WAIT_OBJECT_0) {
		r.drain()
	}
	return nil
}

// close releases the event handle.
func (r *reactor) close() error {
	return windows.CloseHandle(windows.Handle(r.wakeEvent))
}
