package eventloop_test

import (
	"fmt"
	"sync"
	"time"

	eventloop "github.com/unevent/eventloop"
)

// Example demonstrates the basic lifecycle: construct a loop, submit a
// task, and close it down.
func Example() {
	loop, err := eventloop.New()
	if err != nil {
		fmt.Println("failed to start loop:", err)
		return
	}
	defer loop.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	loop.CallSoon(func() {
		fmt.Println("running on the loop goroutine")
		wg.Done()
	})
	wg.Wait()

	// Output:
	// running on the loop goroutine
}

// Example_callSoonOrdering shows that call_soon preserves FIFO submission
// order, including for tasks scheduled by other tasks.
func Example_callSoonOrdering() {
	loop, err := eventloop.New()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer loop.Close()

	var wg sync.WaitGroup
	wg.Add(3)

	loop.CallSoon(func() {
		fmt.Println("first")
		wg.Done()
	})
	loop.CallSoon(func() {
		fmt.Println("second")
		wg.Done()
		// scheduled from within a task: runs after every task present at
		// the start of this drain cycle, not interleaved with them.
		loop.CallSoon(func() {
			fmt.Println("fourth")
		})
	})
	loop.CallSoon(func() {
		fmt.Println("third")
		wg.Done()
	})
	wg.Wait()
	// CallGet (unlike Call) blocks its off-loop caller, so this is a drain
	// barrier: it only returns once "fourth" has already run ahead of it.
	eventloop.CallGet(loop, func() bool { return true })

	// Output:
	// first
	// second
	// third
	// fourth
}

// Example_callLater shows a one-shot timer firing after the loop is given a
// chance to drain it.
func Example_callLater() {
	loop, err := eventloop.New()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer loop.Close()

	done := make(chan struct{})
	loop.CallLater(10*time.Millisecond, func() {
		fmt.Println("timer fired")
		close(done)
	})
	<-done

	// Output:
	// timer fired
}

// Example_callEvery shows a repeating watcher started immediately, stopped
// after a few ticks.
func Example_callEvery() {
	loop, err := eventloop.New()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer loop.Close()

	var count int
	done := make(chan struct{})
	var watcher *eventloop.Watcher
	watcher = loop.CallEvery(5*time.Millisecond, func() {
		count++
		if count == 3 {
			watcher.Stop()
			close(done)
		}
	}, true, false)
	<-done
	fmt.Println("ticks:", count)

	// Output:
	// ticks: 3
}

// Example_sharedDestructorAffinity shows a Shared value's destructor
// running on the loop goroutine even though the last reference is dropped
// from a different goroutine.
func Example_sharedDestructorAffinity() {
	loop, err := eventloop.New()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer loop.Close()

	destroyed := make(chan bool, 1)
	h := eventloop.MakeShared(loop, "resource", func(v *string) {
		destroyed <- loop.In()
	})

	// Release from this goroutine, which is not the loop goroutine.
	h.Release()
	fmt.Println("destroyed on loop goroutine:", <-destroyed)

	// Output:
	// destroyed on loop goroutine: true
}
