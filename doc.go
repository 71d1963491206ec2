// Package eventloop provides a single-threaded cooperative event loop: one
// dedicated goroutine onto which immediate tasks, one-shot timers, and
// repeating watchers are all multiplexed.
//
// # Architecture
//
// A [Loop] owns exactly one loop goroutine, a reactor (cross-goroutine
// wakeup plus a monotonic timer wait), a task queue, and a timer heap.
// Everything that runs user code — [Loop.CallSoon] tasks, [Loop.CallLater]
// one-shot timers, [Watcher] ticks, and [Shared] destructors — runs on that
// one goroutine, never concurrently with anything else on the same loop.
//
// # Thread affinity
//
//	loop, err := eventloop.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer loop.Close()
//
//	loop.CallSoon(func() {
//	    fmt.Println("on the loop goroutine")
//	})
//
//	watcher := loop.CallEvery(100*time.Millisecond, func() {
//	    fmt.Println("tick")
//	}, true, false)
//	defer watcher.Stop()
//
// [Loop.Call] and [CallGet] detect whether the caller is already on the
// loop goroutine and either run inline or bounce through the task queue.
// [Loop.CallSoon] always defers, even from the loop goroutine itself, which
// is what gives FIFO ordering its teeth across nested scheduling.
//
// # Loop-affine ownership
//
// [MakeShared] and [WrapShared] return a [Shared] handle whose destructor is
// guaranteed to run on the loop goroutine, regardless of which goroutine
// drops the last reference. This is the ownership primitive higher-level
// protocol and I/O code is expected to build on: anything that must tear
// down exclusively on the loop goroutine (connection state, buffers handed
// to a reactor backend, etc.) should be held through a [Shared].
//
// # What this package is not
//
// It does not do file I/O, sockets, or TLS; the reactor here is reduced to
// its cross-goroutine wakeup and timer-wait responsibilities. It does not
// parallelize callback execution, steal work across loops, or schedule by
// priority beyond FIFO-vs-timer-deadline ordering — those are the jobs of
// whatever is layered on top.
package eventloop
