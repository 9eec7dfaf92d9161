package coroutines

import "sync"

// A Processor's deque is a plain FIFO/LIFO structure behind a mutex --
// lock-free is not required, only bounded and cheap. This deliberately
// leaves out priority ordering: every runnable coroutine is equal, there
// are no priority classes.
//
// The owner end is the tail: pushBottom/popBottom, LIFO, so the most
// recently enqueued coroutine runs next (good locality, same intuition
// as Go's own runnext slot). Thieves take from the head: steal always
// removes the oldest, roughly half, entries.

// defaultDequeCapacity bounds a Processor's local deque. Once full,
// [Scheduler.schedule] falls through to the next candidate processor,
// and eventually the global queue.
const defaultDequeCapacity = 256

type deque struct {
	mu       sync.Mutex
	items    []*Coroutine
	capacity int
}

func newDeque(capacity int) *deque {
	return &deque{capacity: capacity}
}

// pushBottom appends to the owner end, refusing if the deque is at
// capacity.
func (d *deque) pushBottom(co *Coroutine) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.capacity > 0 && len(d.items) >= d.capacity {
		return false
	}
	d.items = append(d.items, co)
	return true
}

// pushBottomBatch appends a batch to the owner end as a unit, refusing
// (and mutating nothing) if it would put the deque over capacity.
func (d *deque) pushBottomBatch(cos []*Coroutine) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.capacity > 0 && len(d.items)+len(cos) > d.capacity {
		return false
	}
	d.items = append(d.items, cos...)
	return true
}

// pushManyBottom appends a batch to the owner end, ignoring capacity --
// used for hand-offs the deque must accept (starved-processor delivery,
// blocked-processor's own deque coming back through schedule).
func (d *deque) pushManyBottom(cos []*Coroutine) {
	if len(cos) == 0 {
		return
	}
	d.mu.Lock()
	d.items = append(d.items, cos...)
	d.mu.Unlock()
}

// popBottom removes and returns the owner-end entry, if any.
func (d *deque) popBottom() (*Coroutine, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.items)
	if n == 0 {
		return nil, false
	}
	co := d.items[n-1]
	d.items[n-1] = nil
	d.items = d.items[:n-1]
	return co, true
}

// steal removes and returns roughly half the deque, taken from the
// thief-accessible end (the head, oldest first).
func (d *deque) steal() []*Coroutine {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.items)
	if n == 0 {
		return nil
	}
	k := (n + 1) / 2
	stolen := append([]*Coroutine(nil), d.items[:k]...)
	copy(d.items, d.items[k:])
	clear(d.items[n-k:])
	d.items = d.items[:n-k]
	return stolen
}

// drainAll removes and returns every entry, emptying the deque. Used
// when a processor enters a blocking call and must hand its whole
// remaining queue back to the scheduler.
func (d *deque) drainAll() []*Coroutine {
	d.mu.Lock()
	defer d.mu.Unlock()
	items := d.items
	d.items = nil
	return items
}

func (d *deque) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}
