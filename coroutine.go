package coroutines

import "sync/atomic"

// A Coroutine is a stateful execution unit with a name, a running flag
// and a panic-carrying result -- but stackful, backed by a fiber (see
// fiber.go), rather than driven by re-invoking a stepper function. Plain
// loops, defer and panic/recover in a Task work exactly like they would
// in any other Go function; Go's own call stack does the work a
// continuation-passing controller would otherwise need to do by hand.

var nextCoroutineID uint64

// A Task is the entry function of a [Coroutine]. It receives the
// coroutine that is running it, threaded explicitly through the call
// rather than looked up via a thread-local accessor.
type Task func(co *Coroutine)

// A Coroutine is a stackful unit of execution identified by a stable,
// process-unique id. The scheduler owns a Coroutine for its lifetime;
// a Processor or Monitor holding one only ever holds a non-owning
// reference.
type Coroutine struct {
	id        uint64
	name      string
	scheduler *Scheduler
	fiber     *fiber

	checkpoint atomic.Pointer[string]

	// proc is set for the duration this coroutine is actually running
	// (i.e. between the processor's resumeTo call and its return) and
	// cleared immediately after. See DESIGN.md decision 4.
	proc *Processor

	// pendingHook is set by Yield and consumed by the processor's
	// scheduling loop immediately after the coroutine suspends, giving
	// an atomic suspend-and-reparent: it runs on the processor's stack,
	// not the coroutine's, right after suspension.
	pendingHook func()
}

func newCoroutine(s *Scheduler, name string, entry Task) *Coroutine {
	co := &Coroutine{
		id:        atomic.AddUint64(&nextCoroutineID, 1),
		name:      name,
		scheduler: s,
	}
	co.fiber = newFiber(func() { entry(co) })
	return co
}

// ID returns co's stable, process-unique id.
func (co *Coroutine) ID() uint64 { return co.id }

// Name returns co's debug name, which may be empty.
func (co *Coroutine) Name() string { return co.name }

// Scheduler returns the [Scheduler] that owns co.
func (co *Coroutine) Scheduler() *Scheduler { return co.scheduler }

// Checkpoint records a debug location tag for co, surfaced by
// [Scheduler.DebugDump]. Safe to call at any time,
// including concurrently with a debug dump from another goroutine.
func (co *Coroutine) Checkpoint(tag string) {
	co.checkpoint.Store(&tag)
}

// LastCheckpoint returns the most recent tag recorded with Checkpoint,
// or "" if none was ever recorded.
func (co *Coroutine) LastCheckpoint() string {
	if p := co.checkpoint.Load(); p != nil {
		return *p
	}
	return ""
}

// Processor returns the [Processor] currently running co. Must be
// called from coroutine context (from within the Task that co is
// running, on co's own stack); calling it otherwise is a programming
// error.
func (co *Coroutine) Processor() *Processor {
	p := co.proc
	if p == nil {
		panic("coroutines: Processor() called outside coroutine context")
	}
	return p
}

// Yield suspends the calling coroutine. hook runs on the processor's
// stack immediately after co has suspended and must place co into its
// new home (a [Monitor]'s wait set, a processor's deque, ...); hook
// must not itself suspend. Yield is only legal from co's own stack, and
// only from within co's Task -- see [Coroutine.Processor].
func (co *Coroutine) Yield(hook func()) {
	if hook == nil {
		panic("coroutines: Yield called with a nil hook")
	}
	co.pendingHook = hook
	co.fiber.suspend()
}

// Gosched suspends the calling coroutine and immediately re-enqueues it
// on its current processor, letting other runnable coroutines run first.
func (co *Coroutine) Gosched() {
	p := co.Processor()
	co.Yield(func() {
		p.enqueueSelf(co)
	})
}

// resumeOnce drives co one step: it runs until co suspends or its Task
// returns. Called only by the owning processor's scheduling loop.
func (co *Coroutine) resumeOnce(p *Processor) (finished bool, panicVal *coroutinePanic) {
	co.proc = p
	co.fiber.resumeTo()
	co.proc = nil

	if co.fiber.done {
		return true, co.fiber.panic
	}

	hook := co.pendingHook
	co.pendingHook = nil
	if hook != nil {
		hook()
	}
	return false, nil
}
