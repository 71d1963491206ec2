package eventloop

import (
	"sync"

	"github.com/eapache/queue"
)

// taskQueue is a mutex-protected FIFO of deferred work, backed by an
// eapache/queue ring buffer. push reports whether the queue transitioned
// empty→non-empty, which is the caller's cue to wake the reactor exactly
// once rather than on every push.
type taskQueue struct {
	mu sync.Mutex
	q  *queue.Queue
}

func newTaskQueue(capacityHint int) *taskQueue {
	q := queue.New()
	if capacityHint > 0 {
		// eapache/queue grows on demand; nothing to preallocate against,
		// the hint exists purely as a documented configuration knob.
		_ = capacityHint
	}
	return &taskQueue{q: q}
}

// push appends fn to the tail. The returned bool is true exactly when the
// queue held nothing before this call.
func (t *taskQueue) push(fn func()) bool {
	t.mu.Lock()
	wasEmpty := t.q.Length() == 0
	t.q.Add(fn)
	t.mu.Unlock()
	return wasEmpty
}

// length reports the current queue depth.
func (t *taskQueue) length() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.q.Length()
}

// drain runs every task present at the moment drain is called, then loops
// once more if new tasks arrived while running the snapshot — the snapshot-
// then-run cycle repeats until a pass observes nothing left to run. Each
// pass is bounded by its snapshot, so tasks queued during a pass run in the
// next one; drain itself returns only once the queue is empty, so under
// sustained submission it keeps running passes.
func (t *taskQueue) drain(run func(fn func())) {
	for {
		t.mu.Lock()
		n := t.q.Length()
		if n == 0 {
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()

		for i := 0; i < n; i++ {
			t.mu.Lock()
			if t.q.Length() == 0 {
				t.mu.Unlock()
				break
			}
			fn := t.q.Peek().(func())
			t.q.Remove()
			t.mu.Unlock()

			run(fn)
		}
	}
}
