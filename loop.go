package eventloop

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
)

// Loop is a single-threaded cooperative event loop: one dedicated goroutine
// onto which every call_soon task, call_later timer, call_every watcher
// tick, and Shared destructor is multiplexed. No user callback ever runs
// concurrently with another on the same Loop.
type Loop struct {
	state    *fastState
	reactor  *reactor
	tasks    *taskQueue
	timers   *timerRegistry
	watchers *watcherRegistry
	logger   *logiface.Logger[logiface.Event]

	loopGoroutineID atomic.Uint64
	doneCh          chan struct{}
}

// New constructs a Loop, spawns its dedicated goroutine, and blocks until
// that goroutine has recorded its identity and entered the dispatch phase
// — so that In() called from any other goroutine immediately after New
// returns is meaningful. Fails with a wrapped [ErrBackendInit] if the
// platform wake primitive cannot be constructed.
func New(opts ...LoopOption) (*Loop, error) {
	cfg, err := resolveLoopOptions(opts)
	if err != nil {
		return nil, err
	}

	r, err := newReactor(cfg.reactorMethodOverride)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendInit, err)
	}

	l := &Loop{
		state:    newFastState(),
		reactor:  r,
		tasks:    newTaskQueue(cfg.queueCapacity),
		timers:   &timerRegistry{},
		watchers: newWatcherRegistry(),
		logger:   loggerOrDefault(cfg.logger),
		doneCh:   make(chan struct{}),
	}

	ready := make(chan struct{})
	go l.run(ready)
	<-ready

	return l, nil
}

// In reports whether the calling goroutine is this Loop's dedicated
// goroutine. Pure; no synchronization beyond an atomic load.
func (l *Loop) In() bool {
	id := l.loopGoroutineID.Load()
	if id == 0 {
		return false
	}
	return getGoroutineID() == id
}

// ReactorMethod returns a diagnostic identifier for the backend wake
// primitive (e.g. "epoll", "kqueue", "iocp"), mirroring the original
// source's event_base_get_method.
func (l *Loop) ReactorMethod() string {
	return l.reactor.method()
}

// Call guarantees f runs on the loop goroutine. If the caller is already on
// the loop goroutine, f is invoked inline before Call returns. Otherwise f
// is submitted and Call returns immediately — f may still be running (or
// not yet started) when Call returns. Use [CallGet] when the caller needs
// to wait for f to finish or observe its result.
func (l *Loop) Call(f func()) {
	if l.In() {
		f()
		return
	}

	l.pushTask(func() { l.safeExecute(f, "task") })
}

// CallGet has the same affinity rule as [Loop.Call], but returns f's
// result to the caller. On the loop goroutine it is a direct, inline call.
// Off the loop goroutine, it submits a wrapper that captures either the
// return value or a recovered panic, blocks until the wrapper completes,
// then either returns the value or re-panics in the caller's goroutine
// with the original value wrapped in [PropagatedPanic]. Go has no generic
// methods, so this is a free function rather than a method on *Loop.
func CallGet[T any](l *Loop, f func() T) T {
	if l.In() {
		return f()
	}

	type outcome struct {
		value    T
		panicked bool
		panicVal any
	}
	ch := make(chan outcome, 1)

	accepted := l.pushTask(func() {
		out := outcome{}
		func() {
			defer func() {
				if r := recover(); r != nil {
					out.panicked = true
					out.panicVal = r
				}
			}()
			out.value = f()
		}()
		ch <- out
	})
	if !accepted {
		var zero T
		return zero
	}

	out := <-ch
	if out.panicked {
		panic(&PropagatedPanic{Value: out.panicVal})
	}
	return out.value
}

// CallSoon unconditionally enqueues f onto the task queue, even when called
// from the loop goroutine itself — it never inlines. Tasks drain in strict
// FIFO submission order, including tasks enqueued by other tasks during a
// drain cycle (those run in the following cycle, never interleaved with
// the one in progress). Returns false if the loop is no longer accepting
// work, in which case f is dropped and never runs.
func (l *Loop) CallSoon(f func()) bool {
	return l.pushTask(func() { l.safeExecute(f, "task") })
}

// CallLater arms a one-shot timer for now+delay. A delay of zero (or
// negative, treated as zero) still goes through the timer path on its next
// tick rather than being inlined — even when CallLater itself is called
// from the loop goroutine. If the loop is being torn down, the timer is
// dropped.
func (l *Loop) CallLater(delay time.Duration, f func()) {
	schedule := func() {
		l.timers.schedule(l.now(), delay, func() { l.safeExecute(f, "timer") })
	}

	if l.In() {
		if !l.state.CanAcceptWork() {
			return
		}
		schedule()
		return
	}

	l.pushTask(schedule)
}

// CallEvery creates a [Watcher] with the given interval and callback,
// optionally arming it immediately. wait controls whether the next tick is
// measured from the previous tick's deadline (false, fixed cadence) or
// from when the callback returns (true, reentrancy-free).
func (l *Loop) CallEvery(interval time.Duration, f func(), start, wait bool) *Watcher {
	w := newWatcher(l, interval, f, wait)
	if start {
		w.Start()
	}
	return w
}

// now returns the current time used for timer deadline computation.
func (l *Loop) now() time.Time {
	return time.Now()
}

// pushTask is the single cross-goroutine entry point into the task queue:
// every Call/CallSoon/CallLater/CallGet/Shared-Release submission that
// can't inline goes through here. Returns false (without enqueueing
// anything) once the loop has begun tearing down.
func (l *Loop) pushTask(fn func()) bool {
	if !l.state.CanAcceptWork() {
		logLifecycle(l.logger, "task dropped after teardown began")
		return false
	}
	wasEmpty := l.tasks.push(fn)
	if wasEmpty {
		_ = l.reactor.wake()
	}
	return true
}

// safeExecute runs fn with panic recovery, logging at Err level via site
// ("task", "timer", "destructor") and never re-raising — the dispatcher-never-
// re-raises policy applies to everything except CallGet.
func (l *Loop) safeExecute(fn func(), site string) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logCallbackPanic(l.logger, site, r)
		}
	}()
	fn()
}

// run is the body of the loop goroutine: pinned to one OS thread for the
// whole lifetime of the Loop so goroutine-identity comparisons in In() stay
// valid, and so platform wake primitives that are thread-affine (Windows
// events) behave predictably.
func (l *Loop) run(ready chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	l.loopGoroutineID.Store(getGoroutineID())
	l.state.Store(stateRunning)
	close(ready)
	logLifecycle(l.logger, "loop start")

	defer close(l.doneCh)

	for {
		if l.state.Load() == stateTerminating {
			l.teardown()
			return
		}
		l.tick()
	}
}

// tick is a single iteration: run due timers, drain the task queue, then
// block in the reactor until woken or the next timer deadline, whichever
// comes first.
func (l *Loop) tick() {
	now := l.now()

	for _, e := range l.timers.popExpired(now) {
		l.safeExecute(e.fn, "timer")
	}

	l.tasks.drain(func(fn func()) { l.safeExecute(fn, "task") })

	l.watchers.Scavenge(32)

	if l.state.Load() == stateTerminating {
		return
	}

	if !l.state.TryTransition(stateRunning, stateSleeping) {
		return
	}

	if l.tasks.length() > 0 {
		l.state.TryTransition(stateSleeping, stateRunning)
		return
	}

	if l.state.Load() == stateTerminating {
		return
	}

	timeout := l.nextWaitTimeout(l.now())
	if err := l.reactor.wait(timeout); err != nil {
		l.logger.Err().Err(err).Log("reactor wait failed, terminating loop")
		l.state.Store(stateTerminating)
		return
	}

	l.state.TryTransition(stateSleeping, stateRunning)
}

// nextWaitTimeout reports how long tick may block in the reactor: zero or
// positive if a timer is pending, -1 (block indefinitely) otherwise.
func (l *Loop) nextWaitTimeout(now time.Time) time.Duration {
	deadline, ok := l.timers.nextDeadline()
	if !ok {
		return -1
	}
	d := deadline.Sub(now)
	if d < 0 {
		d = 0
	}
	return d
}

// teardown runs once, on the loop goroutine, after Close has requested
// termination: it disarms every watcher and one-shot timer, drains
// whatever tasks were already queued (tasks submitted after this point are
// rejected by pushTask's CanAcceptWork check), then releases the reactor.
func (l *Loop) teardown() {
	logLifecycle(l.logger, "shutdown begin")
	l.timers.cancelAll()
	l.watchers.DisarmAll()
	l.tasks.drain(func(fn func()) { l.safeExecute(fn, "task") })
	l.state.Store(stateTerminated)
	_ = l.reactor.close()
	logLifecycle(l.logger, "shutdown end")
}

// Close requests termination and blocks until the loop goroutine has
// drained its queue and exited. Calling Close from within the loop
// goroutine itself (e.g. a task that closes its own loop) only requests
// termination — it cannot block on its own goroutine's exit without
// deadlocking, so it returns immediately and lets teardown happen after
// the current tick.
func (l *Loop) Close() error {
	if l.In() {
		l.requestTermination()
		return nil
	}

	if !l.requestTermination() {
		if l.state.Load() == stateTerminated {
			return ErrLoopClosed
		}
		// Another goroutine's Close already moved the state to Terminating
		// but teardown hasn't finished yet — still join it rather than
		// returning early.
		<-l.doneCh
		return nil
	}
	<-l.doneCh
	return nil
}

// requestTermination performs the Running/Sleeping/Awake → Terminating
// transition exactly once, waking the reactor if the loop was sleeping.
// Returns false if the loop was already terminating or terminated.
func (l *Loop) requestTermination() bool {
	for {
		cur := l.state.Load()
		if cur == stateTerminating || cur == stateTerminated {
			return false
		}
		if l.state.TryTransition(cur, stateTerminating) {
			_ = l.reactor.wake()
			return true
		}
	}
}

// getGoroutineID extracts the numeric goroutine ID from the current
// goroutine's stack trace header ("goroutine 123 [running]: ..."). It is
// the cheapest portable way to get a comparable goroutine identity without
// threading a context value through every call site.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
