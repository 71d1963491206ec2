package eventloop

import (
	"errors"
	"fmt"
)

// ErrBackendInit indicates the reactor's platform wake primitive failed to
// construct. Returned (wrapped) from [New].
var ErrBackendInit = errors.New("eventloop: backend initialization failed")

// ErrLoopClosed indicates an operation was attempted against a loop that has
// already finished tearing down.
var ErrLoopClosed = errors.New("eventloop: loop closed")

// CallbackPanic wraps a recovered panic value from user code run on the loop
// goroutine (a task, one-shot timer, watcher tick, or destructor). It never
// surfaces to a caller; it exists so the logger can record both the original
// value and, where possible, an error chain via [errors.Is]/[errors.As].
type CallbackPanic struct {
	// Value is the raw value passed to panic.
	Value any
	// Site names what kind of callback panicked, e.g. "task", "timer",
	// "watcher", "destructor".
	Site string
}

func (e *CallbackPanic) Error() string {
	return fmt.Sprintf("eventloop: panic recovered in %s callback: %v", e.Site, e.Value)
}

// Unwrap returns the underlying error if the panic value was itself an
// error, so errors.Is/errors.As can see through to it.
func (e *CallbackPanic) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// PropagatedPanic wraps a panic value recovered from a callback invoked by
// [CallGet], re-raised in the calling goroutine. Unlike CallbackPanic,
// this one is meant to cross goroutine boundaries via a second panic.
type PropagatedPanic struct {
	Value any
}

func (e *PropagatedPanic) Error() string {
	return fmt.Sprintf("eventloop: propagated panic: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value was itself an
// error, preserving errors.Is/errors.As across the re-panic.
func (e *PropagatedPanic) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
