//go:build darwin

package eventloop

// platformReactorMethod mirrors what the original source reports via
// event_base_get_method for its default Darwin backend.
func platformReactorMethod() string {
	return "kqueue"
}
