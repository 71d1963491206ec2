package eventloop

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoop(t *testing.T) *Loop {
	t.Helper()
	l, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestCallSoonFIFOOrdering(t *testing.T) {
	l := newTestLoop(t)

	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		i := i
		l.CallSoon(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestCallSoonNestedRunsNextCycle(t *testing.T) {
	l := newTestLoop(t)

	var mu sync.Mutex
	var order []string

	done := make(chan struct{})
	l.CallSoon(func() {
		mu.Lock()
		order = append(order, "outer")
		mu.Unlock()
		l.CallSoon(func() {
			mu.Lock()
			order = append(order, "inner")
			mu.Unlock()
			close(done)
		})
	})
	l.CallSoon(func() {
		mu.Lock()
		order = append(order, "sibling")
		mu.Unlock()
	})
	<-done

	mu.Lock()
	defer mu.Unlock()
	// "sibling" was queued in the same drain pass as "outer" and must run
	// before "inner", which was only queued once that pass was underway.
	assert.Equal(t, []string{"outer", "sibling", "inner"}, order)
}

func TestCallSoonNeverInlinesOnLoopGoroutine(t *testing.T) {
	l := newTestLoop(t)

	var innerRan, ranInline bool
	done := make(chan struct{})
	l.CallSoon(func() {
		l.CallSoon(func() {
			innerRan = true
			close(done)
		})
		ranInline = innerRan
	})
	<-done
	assert.False(t, ranInline)
}

func TestInReportsLoopGoroutineIdentity(t *testing.T) {
	l := newTestLoop(t)

	assert.False(t, l.In(), "caller goroutine is not the loop goroutine")

	result := make(chan bool, 1)
	l.CallSoon(func() { result <- l.In() })
	assert.True(t, <-result)
}

func TestCallLaterZeroDelayDefersThroughTimerPath(t *testing.T) {
	l := newTestLoop(t)

	var stage atomic.Int32
	observed := make(chan int32, 1)

	l.CallSoon(func() {
		l.CallLater(0, func() {
			observed <- stage.Load()
		})
		stage.Store(2)
	})

	assert.EqualValues(t, 2, <-observed)
}

func TestCallLaterFiresAfterDelay(t *testing.T) {
	l := newTestLoop(t)

	start := time.Now()
	done := make(chan time.Duration, 1)
	l.CallLater(20*time.Millisecond, func() {
		done <- time.Since(start)
	})

	elapsed := <-done
	assert.GreaterOrEqual(t, elapsed, 15*time.Millisecond)
}

func TestCallback_PanicContinuesLoop(t *testing.T) {
	l := newTestLoop(t)

	l.CallSoon(func() {
		panic("boom")
	})

	// the loop must still be alive and servicing further work afterward.
	done := make(chan struct{})
	l.CallSoon(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not recover from a panicking task")
	}
}

func TestCallGetReturnsValueFromLoopGoroutine(t *testing.T) {
	l := newTestLoop(t)

	v := CallGet(l, func() bool { return l.In() })
	assert.True(t, v)
}

func TestCallGetPropagatesPanic(t *testing.T) {
	l := newTestLoop(t)

	assert.Panics(t, func() {
		CallGet(l, func() int {
			panic("callget boom")
		})
	})

	var pp *PropagatedPanic
	func() {
		defer func() {
			r := recover()
			var ok bool
			pp, ok = r.(*PropagatedPanic)
			require.True(t, ok)
		}()
		CallGet(l, func() int { panic("again") })
	}()
	assert.Equal(t, "again", pp.Value)
}

func TestCallGetInlinesOnLoopGoroutine(t *testing.T) {
	l := newTestLoop(t)

	done := make(chan struct{})
	l.CallSoon(func() {
		v := CallGet(l, func() int { return 42 })
		assert.Equal(t, 42, v)
		close(done)
	})
	<-done
}

func TestCallInlinesOnLoopGoroutine(t *testing.T) {
	l := newTestLoop(t)

	done := make(chan struct{})
	l.CallSoon(func() {
		var ran bool
		l.Call(func() { ran = true })
		// l.In() is true here, so Call must have run f inline already.
		assert.True(t, ran)
		close(done)
	})
	<-done
}

func TestCallOffLoopReturnsWithoutWaitingForCallback(t *testing.T) {
	l := newTestLoop(t)

	block := make(chan struct{})
	started := make(chan struct{})
	// block is only closed after Call returns below. If Call waited for f
	// to finish (the old, incorrect behavior), this would deadlock: f can't
	// return until block closes, and block can't close until Call returns.
	l.Call(func() {
		close(started)
		<-block
	})
	close(block)

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("submitted callback never ran")
	}
}

func TestConcurrentCloseBothCallersJoinTeardown(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	// Give the loop something slow enough that a naive "loser returns
	// immediately" implementation would plausibly race ahead of teardown.
	l.CallLater(20*time.Millisecond, func() {})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	for i := range errs {
		i := i
		go func() {
			defer wg.Done()
			errs[i] = l.Close()
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.True(t, err == nil || errors.Is(err, ErrLoopClosed))
	}
	// Both calls have returned, so teardown must be fully done by now.
	assert.Equal(t, stateTerminated, l.state.Load())
}

func TestCloseCancelsOutstandingTimer(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	fired := atomic.Bool{}
	l.CallLater(time.Hour, func() { fired.Store(true) })

	require.NoError(t, l.Close())
	assert.False(t, fired.Load())
}

func TestCloseDropsSubmissionsAfterTeardown(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	require.NoError(t, l.Close())

	accepted := l.CallSoon(func() { t.Fatal("must never run") })
	assert.False(t, accepted)
}

func TestCloseFromLoopGoroutineDoesNotDeadlock(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	done := make(chan struct{})
	l.CallSoon(func() {
		_ = l.Close()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close() from the loop goroutine blocked")
	}
}

func TestCloseTwiceReturnsErrLoopClosed(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	require.NoError(t, l.Close())

	assert.ErrorIs(t, l.Close(), ErrLoopClosed)
}

func TestReactorMethodReportsOverride(t *testing.T) {
	l, err := New(WithReactorMethodOverride("test-backend"))
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, "test-backend", l.ReactorMethod())
}

func TestNewBlocksUntilLoopGoroutineReady(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	defer l.Close()

	// In() must already be meaningful immediately after New returns: the
	// loop goroutine has recorded its identity.
	assert.NotZero(t, l.loopGoroutineID.Load())
	assert.False(t, l.In())
}
