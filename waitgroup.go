package coroutines

import "sync"

// A WaitGroup is a [Monitor] with a counter: Wait suspends the calling
// coroutine until the counter reaches zero, rather than registering a
// listener a driver loop resumes later.
type WaitGroup struct {
	mu   sync.Mutex
	n    int
	done Monitor
}

// Add adds delta, which may be negative, to wg's counter, waking every
// coroutine parked in Wait once the counter reaches zero. Must be called
// from coroutine context. Panics if the counter goes negative.
func (wg *WaitGroup) Add(co *Coroutine, delta int) {
	wg.mu.Lock()
	wg.n += delta
	n := wg.n
	wg.mu.Unlock()

	if n < 0 {
		panic("coroutines: negative WaitGroup counter")
	}
	if n == 0 && delta != 0 {
		wg.done.WakeAll(co)
	}
}

// Done decrements wg's counter by one. Must be called from coroutine
// context.
func (wg *WaitGroup) Done(co *Coroutine) {
	wg.Add(co, -1)
}

// Wait suspends the calling coroutine until wg's counter is zero. Must
// be called from coroutine context.
func (wg *WaitGroup) Wait(co *Coroutine) {
	for {
		wg.mu.Lock()
		if wg.n == 0 {
			wg.mu.Unlock()
			return
		}
		// wg.mu stays held until co is in the wait set, so a concurrent
		// Done driving the counter to zero cannot fire its wake before
		// co is there to receive it.
		wg.done.WaitAndUnlock(co, wg.mu.Unlock)
	}
}
