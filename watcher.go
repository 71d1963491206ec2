package eventloop

import (
	"sync/atomic"
	"time"
	"weak"
)

// Watcher is the external control handle for a periodic timer ("ticker")
// created by [Loop.CallEvery]. It is safe to Start/Stop/IsRunning from any
// goroutine; the actual state transition always happens on the loop
// goroutine, with off-loop calls bouncing through [CallGet].
type Watcher struct {
	loop     weak.Pointer[Loop]
	interval time.Duration
	callback func()
	wait     bool

	// armed is written only on the loop goroutine; atomic so IsRunning can
	// read it from any goroutine without a data race.
	armed atomic.Bool

	regID   uint64
	timerID *timerEntry // the currently-armed backend entry, nil when Idle
}

func newWatcher(l *Loop, interval time.Duration, callback func(), wait bool) *Watcher {
	return &Watcher{
		loop:     weak.Make(l),
		interval: interval,
		callback: callback,
		wait:     wait,
	}
}

// isArmed reports the watcher's current state. Safe from any goroutine.
func (w *Watcher) isArmed() bool {
	return w.armed.Load()
}

// Start arms the watcher if it is Idle. Returns true iff this call actually
// transitioned Idle→Armed. Safe to call from any goroutine.
func (w *Watcher) Start() bool {
	l := w.loop.Value()
	if l == nil {
		return false
	}
	if l.In() {
		return w.startOnLoop(l)
	}
	return CallGet(l, func() bool { return w.startOnLoop(l) })
}

// Stop disarms the watcher if it is Armed. Returns true iff this call
// actually transitioned Armed→Idle. Safe to call from any goroutine,
// including from within the watcher's own callback.
func (w *Watcher) Stop() bool {
	l := w.loop.Value()
	if l == nil {
		return false
	}
	if l.In() {
		return w.stopOnLoop(l)
	}
	return CallGet(l, func() bool { return w.stopOnLoop(l) })
}

// IsRunning reports whether the watcher is currently Armed.
func (w *Watcher) IsRunning() bool {
	return w.isArmed()
}

func (w *Watcher) startOnLoop(l *Loop) bool {
	if w.armed.Load() {
		return false
	}
	if !l.state.CanAcceptWork() {
		return false
	}
	w.arm(l)
	return true
}

func (w *Watcher) stopOnLoop(l *Loop) bool {
	if !w.armed.Load() {
		return false
	}
	w.disarmOnLoop(l)
	return true
}

// arm transitions Idle→Armed: schedules the first backend deadline (the
// pending timer entry keeps the watcher reachable even if the external
// handle is dropped) and registers with the loop's watcherRegistry so
// teardown can disarm it.
func (w *Watcher) arm(l *Loop) {
	w.armed.Store(true)
	w.regID = l.watchers.Add(w)
	w.scheduleNext(l, l.now())
	logLifecycleField(l.logger, "watcher armed", "interval", w.interval.String())
}

func (w *Watcher) scheduleNext(l *Loop, from time.Time) {
	w.timerID = l.timers.schedule(from, w.interval, func() { w.fire(l) })
}

// disarm is the internal, registry-driven teardown path: called from
// watcherRegistry.DisarmAll when the owning Loop is torn down and external
// code may not be able to call Stop in time.
func (w *Watcher) disarm() {
	if l := w.loop.Value(); l != nil {
		w.disarmOnLoop(l)
		return
	}
	w.armed.Store(false)
	if w.timerID != nil {
		w.timerID.canceled = true
		w.timerID = nil
	}
}

func (w *Watcher) disarmOnLoop(l *Loop) {
	w.armed.Store(false)
	if w.timerID != nil {
		w.timerID.canceled = true
		w.timerID = nil
	}
	l.watchers.Remove(w.regID)
	logLifecycleField(l.logger, "watcher disarmed", "interval", w.interval.String())
}

// fire is invoked by the loop goroutine when the backend timer for this
// watcher expires. It implements the Idle/Armed table in full, including
// wait-mode's disarm-invoke-rearm sequence.
func (w *Watcher) fire(l *Loop) {
	if !w.armed.Load() {
		// stopped between scheduling and firing (e.g. callback called Stop
		// on a previous tick, or loop teardown already ran DisarmAll).
		return
	}

	if w.wait {
		// disarm first: eliminates reentrancy by construction, and lets the
		// callback call Stop on itself without racing a rearm.
		w.timerID = nil
		w.invoke(l)
		if w.armed.Load() {
			w.scheduleNext(l, l.now())
		}
		return
	}

	// fixed-cadence mode: rearm relative to the deadline that just fired,
	// not to "now", so drift doesn't accumulate under light invocation cost.
	prevDeadline := l.now()
	if w.timerID != nil {
		prevDeadline = w.timerID.deadline
	}
	w.invoke(l)
	if w.armed.Load() {
		w.scheduleNext(l, prevDeadline)
	}
}

func (w *Watcher) invoke(l *Loop) {
	defer func() {
		if r := recover(); r != nil {
			logCallbackPanic(l.logger, "watcher", r)
		}
	}()
	w.callback()
}
