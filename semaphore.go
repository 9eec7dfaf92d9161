package coroutines

import "sync"

// A Semaphore bounds concurrent access to a resource of a given combined
// weight, built directly on [Monitor]: a blocked Acquire suspends the
// calling coroutine, and every Release wakes the whole wait set so
// waiters re-check whether their own weight now fits, the same
// loop-and-retry shape [Mutex] uses.
type Semaphore struct {
	mu      sync.Mutex
	size    int64
	cur     int64
	waiters Monitor
}

// NewSemaphore creates a semaphore with the given maximum combined
// weight.
func NewSemaphore(n int64) *Semaphore {
	if n < 0 {
		panic("coroutines: negative semaphore size")
	}
	return &Semaphore{size: n}
}

// Acquire suspends the calling coroutine until a weight of n is
// available, then takes it. Must be called from coroutine context.
func (s *Semaphore) Acquire(co *Coroutine, n int64) {
	if n < 0 {
		panic("coroutines: negative weight")
	}
	if n > s.size {
		panic("coroutines: weight exceeds semaphore size")
	}
	for {
		s.mu.Lock()
		if s.size-s.cur >= n {
			s.cur += n
			s.mu.Unlock()
			return
		}
		// s.mu stays held until co is in the wait set, so a concurrent
		// Release cannot free enough weight and wake the set before co
		// is there to receive it.
		s.waiters.WaitAndUnlock(co, s.mu.Unlock)
	}
}

// Release returns a weight of n, waking every waiter so they can
// re-check whether their own weight now fits. Must be called from
// coroutine context.
func (s *Semaphore) Release(co *Coroutine, n int64) {
	if n < 0 {
		panic("coroutines: negative weight")
	}
	s.mu.Lock()
	s.cur -= n
	negative := s.cur < 0
	s.mu.Unlock()
	if negative {
		panic("coroutines: released more than held")
	}
	s.waiters.WakeAll(co)
}
