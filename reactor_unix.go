//go:build linux || darwin

package eventloop

import (
	"time"

	"golang.org/x/sys/unix"
)

// platformInitReactor is a no-op on Unix: createWakeFd already produced a
// usable fd pair.
func platformInitReactor(r *reactor) error {
	return nil
}

// wake signals the loop goroutine blocked in wait to return early. Safe to
// call from any goroutine, concurrently, and after close (the write simply
// fails and the error is discarded by callers — the loop isn't listening
// anymore anyway).
func (r *reactor) wake() error {
	var one uint64 = 1
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(one >> (8 * i))
	}
	_, err := writeFD(r.wakeWriteFD, buf[:])
	return err
}

// drain consumes whatever wake() wrote, so a subsequent wait doesn't return
// immediately on stale wake data.
func (r *reactor) drain() {
	for {
		_, err := readFD(r.wakeReadFD, r.wakeBuf[:])
		if err != nil {
			return
		}
	}
}

// wait blocks until either wake() is called from another goroutine or
// timeout elapses. A negative timeout blocks indefinitely.
func (r *reactor) wait(timeout time.Duration) error {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout.Milliseconds())
		if ms == 0 && timeout > 0 {
			ms = 1
		}
	}

	fds := []unix.PollFd{{Fd: int32(r.wakeReadFD), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		if n > 0 {
			r.drain()
		}
		return nil
	}
}

// close releases the wake primitive. Not safe to call concurrently with
// wait/wake.
func (r *reactor) close() error {
	err := closeFD(r.wakeReadFD)
	if r.wakeWriteFD != r.wakeReadFD {
		if err2 := closeFD(r.wakeWriteFD); err == nil {
			err = err2
		}
	}
	return err
}
