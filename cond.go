package coroutines

// A Cond implements a coroutine-aware condition variable, always used
// with an associated [Mutex] held by the calling coroutine, analogous to
// [sync.Cond] but suspending the calling coroutine instead of blocking
// an OS thread. The lock is released before parking and re-acquired only
// once the coroutine resumes, rather than atomically with parking (see
// DESIGN.md decision 1).
type Cond struct {
	waiters Monitor
}

// Wait atomically-in-appearance unlocks m, parks the calling coroutine,
// and re-locks m before returning. See the [Cond] type's doc comment for
// the precise unlock/park ordering.
func (c *Cond) Wait(co *Coroutine, m *Mutex) {
	// The wait set's own lock is held from before m is released until co
	// is in the wait set, so a NotifyAll issued after the unlock cannot
	// run its wake before co is there to receive it.
	c.waiters.mu.Lock()
	m.Unlock(co)
	co.Yield(func() {
		c.waiters.waiting = append(c.waiters.waiting, co)
		c.waiters.mu.Unlock()
	})
	m.Lock(co)
}

// WaitPred calls Wait in a loop until pred reports true, so that on
// return pred() holds even in the presence of a WakeAll aimed at
// multiple waiters. m must be held by the calling coroutine.
func (c *Cond) WaitPred(co *Coroutine, m *Mutex, pred func() bool) {
	for !pred() {
		c.Wait(co, m)
	}
}

// NotifyAll wakes every coroutine parked in Wait, in FIFO order. They
// will re-contend for the associated Mutex once resumed. Must be called
// from coroutine context.
func (c *Cond) NotifyAll(co *Coroutine) {
	c.waiters.WakeAll(co)
}
