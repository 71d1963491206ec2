//go:build linux

package eventloop

// platformReactorMethod mirrors what the original source reports via
// event_base_get_method for its default Linux backend.
func platformReactorMethod() string {
	return "epoll"
}
