package eventloop

import (
	"container/heap"
	"time"
)

// timerEntry is a single scheduled one-shot callback.
type timerEntry struct {
	deadline time.Time
	seq      uint64 // breaks ties between equal deadlines, FIFO among them
	fn       func()
	canceled bool
}

// timerHeap is a min-heap of timerEntry ordered by deadline, loop-goroutine
// exclusive: every method below is only ever called from the loop goroutine.
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	*h = append(*h, x.(*timerEntry))
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// timerRegistry owns the heap plus a monotonically increasing sequence
// counter used to keep equal-deadline entries in FIFO submission order.
type timerRegistry struct {
	heap timerHeap
	seq  uint64
}

// schedule inserts a new one-shot timer and returns the entry, which the
// caller may later mark canceled.
func (r *timerRegistry) schedule(now time.Time, delay time.Duration, fn func()) *timerEntry {
	if delay < 0 {
		delay = 0
	}
	r.seq++
	e := &timerEntry{deadline: now.Add(delay), seq: r.seq, fn: fn}
	heap.Push(&r.heap, e)
	return e
}

// nextDeadline reports the deadline of the earliest live timer, if any.
func (r *timerRegistry) nextDeadline() (time.Time, bool) {
	for len(r.heap) > 0 {
		e := r.heap[0]
		if e.canceled {
			heap.Pop(&r.heap)
			continue
		}
		return e.deadline, true
	}
	return time.Time{}, false
}

// popExpired removes and returns every timer whose deadline is at or before
// now, in deadline (then FIFO) order.
func (r *timerRegistry) popExpired(now time.Time) []*timerEntry {
	var expired []*timerEntry
	for len(r.heap) > 0 {
		e := r.heap[0]
		if e.canceled {
			heap.Pop(&r.heap)
			continue
		}
		if e.deadline.After(now) {
			break
		}
		heap.Pop(&r.heap)
		expired = append(expired, e)
	}
	return expired
}

// len reports the number of live (non-canceled) entries.
func (r *timerRegistry) len() int {
	n := 0
	for _, e := range r.heap {
		if !e.canceled {
			n++
		}
	}
	return n
}

// cancelAll marks every live timer canceled, used during loop teardown.
func (r *timerRegistry) cancelAll() {
	for _, e := range r.heap {
		e.canceled = true
	}
	r.heap = r.heap[:0]
}
