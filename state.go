package eventloop

import (
	"sync/atomic"
)

// loopState represents the current phase of the loop goroutine's lifecycle.
//
//	stateAwake (0) → stateRunning (1)        [loop goroutine starts]
//	stateRunning (1) → stateSleeping (2)     [blocked in reactor.wait]
//	stateSleeping (2) → stateRunning (1)     [woken by task/timer/watcher]
//	stateRunning (1) → stateTerminating (3)  [Close() requested]
//	stateSleeping (2) → stateTerminating (3) [Close() requested]
//	stateTerminating (3) → stateTerminated (4) [loop goroutine returns]
//
// stateTerminated is terminal. TryTransition (CAS) is used for the
// reversible Running/Sleeping pair and by requestTermination, so exactly
// one Close wins the move into Terminating; Store is used for the loop
// goroutine's own one-way moves (into Running at start, into Terminating
// when the reactor wait fails, and into Terminated).
type loopState uint32

const (
	stateAwake loopState = iota
	stateRunning
	stateSleeping
	stateTerminating
	stateTerminated
)

func (s loopState) String() string {
	switch s {
	case stateAwake:
		return "awake"
	case stateRunning:
		return "running"
	case stateSleeping:
		return "sleeping"
	case stateTerminating:
		return "terminating"
	case stateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// fastState is a lock-free state machine for the loop's lifecycle phase.
type fastState struct {
	v atomic.Uint32
}

func newFastState() *fastState {
	s := &fastState{}
	s.v.Store(uint32(stateAwake))
	return s
}

// Load returns the current state.
func (s *fastState) Load() loopState {
	return loopState(s.v.Load())
}

// Store unconditionally sets the state, for one-way transitions.
func (s *fastState) Store(state loopState) {
	s.v.Store(uint32(state))
}

// TryTransition attempts an atomic from→to move, returning whether it
// succeeded.
func (s *fastState) TryTransition(from, to loopState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

// CanAcceptWork reports whether the loop is in a phase that still services
// call_soon/call_later/call_every submissions.
func (s *fastState) CanAcceptWork() bool {
	switch s.Load() {
	case stateAwake, stateRunning, stateSleeping:
		return true
	default:
		return false
	}
}
