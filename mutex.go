package coroutines

import "sync"

// Mutex is built directly on [Monitor], the same way higher-level
// primitives like WaitGroup and Semaphore are built directly on a wait
// set rather than on each other.

// A Mutex is a coroutine-aware, non-reentrant mutual-exclusion lock.
// Unlike [sync.Mutex], contended acquisition suspends the calling
// coroutine instead of blocking an OS thread.
type Mutex struct {
	mu      sync.Mutex
	locked  bool
	waiters Monitor
}

// Lock acquires m, suspending the calling coroutine while m is held by
// another coroutine. Must be called from coroutine context.
func (m *Mutex) Lock(co *Coroutine) {
	for {
		m.mu.Lock()
		if !m.locked {
			m.locked = true
			m.mu.Unlock()
			return
		}
		// m.mu stays held until co is in the wait set, so a concurrent
		// Unlock (which also needs m.mu) cannot fire its wake before
		// co is there to receive it.
		m.waiters.WaitAndUnlock(co, m.mu.Unlock)
	}
}

// Unlock releases m and wakes one waiter, FIFO, if any are parked.
// Unlocking an unlocked Mutex is a programming error. Must be called
// from coroutine context.
func (m *Mutex) Unlock(co *Coroutine) {
	m.mu.Lock()
	if !m.locked {
		m.mu.Unlock()
		panic("coroutines: unlock of unlocked Mutex")
	}
	m.locked = false
	m.mu.Unlock()

	m.waiters.WakeOne(co)
}

// TryLock acquires m without suspending, reporting whether it
// succeeded. Must be called from coroutine context.
func (m *Mutex) TryLock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked {
		return false
	}
	m.locked = true
	return true
}
