//go:build windows

package eventloop

// platformReactorMethod names the Windows completion mechanism the wake
// primitive stands in for.
func platformReactorMethod() string {
	return "iocp"
}
