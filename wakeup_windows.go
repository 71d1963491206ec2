//go:build windows

package eventloop

// EFD_CLOEXEC and EFD_NONBLOCK are Unix eventfd flags, unused on Windows
// but defined so createWakeFd's call signature compiles on every platform.
const (
	EFD_CLOEXEC  = 0
	EFD_NONBLOCK = 0
)

// createWakeFd returns the -1,-1 sentinel on Windows: the wake primitive
// here is a manual-reset event object (see reactor_windows.go), not a file
// descriptor, so there is nothing to register with closeFD/readFD/writeFD.
func createWakeFd(initval uint, flags int) (int, int, error) {
	return -1, -1, nil
}
