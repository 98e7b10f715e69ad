// Package pqueue implements the idle-connection timer wheel: a binary
// min-heap keyed by deadline with lazy tombstone deletion, matching
// original_source/src/timer.h (add_timer/del_timer/find_timer/
// handle_expired_timers). No third-party priority-queue or timing-wheel
// library appears anywhere in the retrieval pack, so this is built directly
// on stdlib container/heap.
package pqueue

import "container/heap"

// Callback is invoked when a timer expires. It is responsible for closing
// the associated connection, matching original_source's http_close_conn
// being passed as the timer_callback.
type Callback[C any] func(conn C)

// item is one entry in the heap. Once pushed, an item's heap index is kept
// current by Swap. Cancel finds a connection's entry through Queue.byKey and
// marks it deleted in O(1) without a linear scan.
type item[C any] struct {
	deadlineMs int64
	conn       C
	cb         Callback[C]
	deleted    bool
	index      int
}

type innerHeap[C any] []*item[C]

func (h innerHeap[C]) Len() int            { return len(h) }
func (h innerHeap[C]) Less(i, j int) bool  { return h[i].deadlineMs < h[j].deadlineMs }
func (h innerHeap[C]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *innerHeap[C]) Push(x any) {
	it := x.(*item[C])
	it.index = len(*h)
	*h = append(*h, it)
}
func (h *innerHeap[C]) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*h = old[:n-1]
	return it
}

// Queue is a min-heap of timer entries, one live (non-tombstoned) entry per
// connection at a time (spec invariant). Queue is not safe for concurrent
// use — it is owned exclusively by the single reactor goroutine.
type Queue[C comparable] struct {
	h     innerHeap[C]
	byKey map[C]*item[C]
	now   func() int64
}

// New creates an empty timer queue. now supplies the current time in
// milliseconds (injected so tests can control it deterministically); the
// reactor passes a wall-clock source in production.
func New[C comparable](now func() int64) *Queue[C] {
	return &Queue[C]{byKey: make(map[C]*item[C]), now: now}
}

// Add arms a timer for conn that fires cb after timeoutMs. If conn already
// has a live timer it is tombstoned first — the spec invariant is "at most
// one live entry per connection", not "at most one entry ever."
func (q *Queue[C]) Add(conn C, timeoutMs int64, cb Callback[C]) {
	q.Cancel(conn)
	it := &item[C]{deadlineMs: q.now() + timeoutMs, conn: conn, cb: cb}
	heap.Push(&q.h, it)
	q.byKey[conn] = it
}

// Cancel lazily tombstones conn's current timer, if any. It does not
// re-heapify — the tombstone is skipped the next time it reaches the root.
func (q *Queue[C]) Cancel(conn C) {
	if it, ok := q.byKey[conn]; ok {
		it.deleted = true
		delete(q.byKey, conn)
	}
}

// NextDeadline returns the number of milliseconds until the next live
// deadline (clamped to >= 0), popping and discarding tombstones as it goes.
// The second return value is false if the heap has no live entries left.
func (q *Queue[C]) NextDeadline() (int64, bool) {
	for q.h.Len() > 0 {
		top := q.h[0]
		if top.deleted {
			heap.Pop(&q.h)
			continue
		}
		d := top.deadlineMs - q.now()
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

// ExpireDue pops and invokes the callback for every live entry whose
// deadline has passed, discarding tombstones along the way. An entry fires
// at most once.
func (q *Queue[C]) ExpireDue() {
	now := q.now()
	for q.h.Len() > 0 {
		top := q.h[0]
		if top.deleted {
			heap.Pop(&q.h)
			continue
		}
		if top.deadlineMs > now {
			break
		}
		heap.Pop(&q.h)
		delete(q.byKey, top.conn)
		top.cb(top.conn)
	}
}

// Len reports the number of entries physically in the heap, tombstones
// included — exposed for tests that assert lazy-deletion behavior.
func (q *Queue[C]) Len() int { return q.h.Len() }
