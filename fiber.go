package coroutines

// fiber is the stack-switching primitive underneath a Coroutine:
// create-with-entry-function, suspend-to-caller, resume-to-where-it-
// yielded. Go has no public stackful-coroutine API, so fiber builds one
// out of a dedicated goroutine plus a pair of unbuffered handoff
// channels, the same technique the Go 1.23 standard library uses
// internally for iter.Pull. Only one of {the caller of resume, the
// fiber's own goroutine} ever runs at a time, which is exactly the
// stackful-coroutine contract: whichever side isn't running is blocked
// on a channel receive, not spinning.
type fiber struct {
	resume chan struct{}
	yield  chan struct{}
	done   bool
	active bool // true only while the fiber's own goroutine holds the baton
	panic  *coroutinePanic
}

// newFiber starts entry on its own goroutine, immediately parked until
// the first resumeTo.
func newFiber(entry func()) *fiber {
	f := &fiber{
		resume: make(chan struct{}),
		yield:  make(chan struct{}),
	}
	go func() {
		<-f.resume
		f.active = true
		f.panic = runProtected(entry)
		f.done = true
		f.active = false
		f.yield <- struct{}{}
	}()
	return f
}

// resumeTo runs the fiber until it suspends (via suspend) or returns.
// Must be called from outside the fiber's own goroutine.
func (f *fiber) resumeTo() {
	f.resume <- struct{}{}
	<-f.yield
}

// suspend must be called from inside entry, on the fiber's own
// goroutine. It hands control back to whoever is blocked in resumeTo
// and blocks until the next resumeTo.
func (f *fiber) suspend() {
	if !f.active {
		panic("coroutines: Yield called outside coroutine context")
	}
	f.active = false
	f.yield <- struct{}{}
	<-f.resume
	f.active = true
}
