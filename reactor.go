package eventloop

// reactor is the minimal external-collaborator surface spec.md §2 calls the
// "reactor handle": a cross-goroutine wakeup primitive plus a monotonic
// wait-with-timeout. It owns no file descriptors, sockets, or readiness
// registration — those are explicitly out of scope (spec.md §1). wake,
// drain, wait, and close are implemented per-platform (reactor_unix.go,
// reactor_windows.go); this file holds the shared type and constructor.
type reactor struct {
	wakeReadFD  int
	wakeWriteFD int
	wakeBuf     [8]byte
	methodName  string

	// wakeEvent holds a platform handle (a windows.Handle on Windows,
	// unused elsewhere) as a plain uintptr so this file stays buildable on
	// every GOOS without importing golang.org/x/sys/windows here.
	wakeEvent uintptr
}

// newReactor opens the platform wake primitive. If methodOverride is
// non-empty, it is reported verbatim by method() instead of the detected
// platform name — an escape hatch for portable diagnostic tests.
func newReactor(methodOverride string) (*reactor, error) {
	readFD, writeFD, err := createWakeFd(0, EFD_CLOEXEC|EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}

	r := &reactor{
		wakeReadFD:  readFD,
		wakeWriteFD: writeFD,
		methodName:  methodOverride,
	}
	if err := platformInitReactor(r); err != nil {
		return nil, err
	}
	if r.methodName == "" {
		r.methodName = platformReactorMethod()
	}
	return r, nil
}

// method reports a diagnostic identifier for the backend, mirroring the
// original source's event_base_get_method call.
func (r *reactor) method() string {
	return r.methodName
}
