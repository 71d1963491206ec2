package eventloop

import (
	"sync/atomic"
)

// Shared is a reference-counted handle whose destructor is guaranteed to
// run on its owning Loop's goroutine, regardless of which goroutine drops
// the last reference. It is the Go realization of spec.md's loop-affine
// shared ownership: Go has no shared_ptr, so reference counting is made
// explicit via Retain/Release instead of copy-on-assign.
type Shared[T any] struct {
	loop    *Loop
	value   *T
	deleter func(*T)
	count   atomic.Int64
}

// MakeShared constructs a T in place and returns a Shared handle holding
// one reference. destroy is invoked with the constructed value when the
// last reference is released; it may be nil if T needs no explicit cleanup.
func MakeShared[T any](loop *Loop, value T, destroy func(*T)) *Shared[T] {
	s := &Shared[T]{
		loop:    loop,
		value:   &value,
		deleter: destroy,
	}
	s.count.Store(1)
	return s
}

// WrapShared wraps an already-constructed value with a caller-supplied
// destruction action, returning a Shared handle holding one reference.
func WrapShared[T any](loop *Loop, raw *T, deleter func(*T)) *Shared[T] {
	s := &Shared[T]{
		loop:    loop,
		value:   raw,
		deleter: deleter,
	}
	s.count.Store(1)
	return s
}

// Get returns the underlying pointer. Valid until the last reference is
// released; callers must hold a reference (via Retain) for as long as they
// intend to dereference it from outside the loop goroutine.
func (s *Shared[T]) Get() *T {
	return s.value
}

// Retain adds a reference and returns the same handle, so callers can chain
// e.g. `store(h.Retain())`.
func (s *Shared[T]) Retain() *Shared[T] {
	s.count.Add(1)
	return s
}

// Release drops a reference. On the last release, the destructor runs
// inline if the releasing goroutine is already the loop goroutine;
// otherwise it is submitted via [Loop.CallSoon]. If the loop cannot accept
// the task (teardown has already closed the queue), the destructor runs
// synchronously on the releasing goroutine instead, and the fallback is
// logged at Err level — see DESIGN.md for why this, rather than a panic or
// a dropped destructor, is the chosen behavior.
func (s *Shared[T]) Release() {
	if s.count.Add(-1) != 0 {
		return
	}

	destroy := func() {
		s.loop.safeExecute(func() {
			if s.deleter != nil {
				s.deleter(s.value)
			}
		}, "destructor")
	}

	if s.loop.In() {
		destroy()
		return
	}

	if !s.loop.CallSoon(destroy) {
		s.loop.logger.Err().Str("reason", "loop unavailable for loop-affine destruction").Log("shared destructor fallback ran off-loop")
		destroy()
	}
}
