package coroutines

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// A Processor's contract is defined by the calls it receives: enqueue,
// steal, starved, blocked/unblocked. Its run loop -- pop, run, repeat --
// takes the same shape as a single-loop task runner, scaled out to one
// loop per OS thread instead of one loop total.

// ProcessorState is one of the four states a [Processor] can be in.
type ProcessorState int32

const (
	// StateRunning is the state of a processor that is neither blocked
	// in a foreign call nor stopping. It covers both "actively running
	// a coroutine" and "idle, waiting for work" -- those are not
	// distinguished as separate states.
	StateRunning ProcessorState = iota
	// StateBlocked is entered by BeginBlockingCall and left by
	// EndBlockingCall.
	StateBlocked
	// StateStopping is entered once the scheduler has asked a processor
	// to stop and its deque has drained.
	StateStopping
	// StateStopped is the terminal state; the processor's goroutine has
	// exited.
	StateStopped
)

func (s ProcessorState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// A Processor is an OS thread running a scheduling loop over a local
// deque of runnable coroutines. The scheduler creates and destroys
// processors to keep the number of non-blocked ones near the configured
// parallelism; user code never constructs one directly.
type Processor struct {
	id        int
	scheduler *Scheduler
	deque     *deque

	state atomic.Int32

	mu      sync.Mutex
	current *Coroutine // non-nil only while resumeOnce is in flight

	stopRequested atomic.Bool
	wake          chan struct{} // buffered(1): new work, or a stop request
	stopped       chan struct{} // closed once the loop goroutine exits
}

// newProcessor allocates a Processor but does not start its scheduling
// loop; call start once the processor is reachable from
// Scheduler.processors, so its very first processorStarved call sees a
// consistent slice. See New and Scheduler.processorBlocked.
func newProcessor(id int, s *Scheduler) *Processor {
	return &Processor{
		id:        id,
		scheduler: s,
		deque:     newDeque(defaultDequeCapacity),
		wake:      make(chan struct{}, 1),
		stopped:   make(chan struct{}),
	}
}

func (p *Processor) start() {
	go p.run()
}

// State reports p's current state. Safe for concurrent use.
func (p *Processor) State() ProcessorState {
	return ProcessorState(p.state.Load())
}

func (p *Processor) setState(s ProcessorState) {
	p.state.Store(int32(s))
}

// QueueLen reports the number of runnable coroutines currently sitting
// in p's local deque. Safe for concurrent use; racy by nature (a snapshot,
// good enough for debug output and for picking a steal victim).
func (p *Processor) QueueLen() int {
	return p.deque.len()
}

// run is the scheduling loop. It pins itself to one OS thread for its
// entire lifetime.
func (p *Processor) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(p.stopped)

	for {
		co, ok := p.deque.popBottom()
		if !ok {
			if p.stopRequested.Load() {
				p.setState(StateStopping)
				p.setState(StateStopped)
				return
			}
			if p.scheduler.processorStarved(p) {
				continue // work was handed straight onto our deque
			}
			<-p.wake
			continue
		}

		p.mu.Lock()
		p.current = co
		p.mu.Unlock()

		p.scheduler.emit(EventCoroutineEnter, co, p)
		finished, panicVal := co.resumeOnce(p)
		p.scheduler.emit(EventCoroutineExit, co, p)

		p.mu.Lock()
		p.current = nil
		p.mu.Unlock()

		if finished {
			p.scheduler.coroutineFinished(co, panicVal)
		}
	}
}

// wakeUp nudges a possibly-parked run loop; harmless (and cheap) to call
// when the processor isn't parked.
func (p *Processor) wakeUp() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// tryEnqueueBatch pushes cos onto the owner end of p's deque as a unit,
// refusing if that would put the deque over capacity. Used by
// [Scheduler.schedule]'s random-placement step, which must place a
// whole batch on one processor rather than splitting it.
func (p *Processor) tryEnqueueBatch(cos []*Coroutine) bool {
	if !p.deque.pushBottomBatch(cos) {
		return false
	}
	p.wakeUp()
	return true
}

// enqueueMany force-pushes a batch onto the owner end, ignoring
// capacity: used for hand-offs the deque must accept regardless (a
// starved processor being fed, a Monitor waking its parked coroutines).
func (p *Processor) enqueueMany(cos []*Coroutine) {
	if len(cos) == 0 {
		return
	}
	p.deque.pushManyBottom(cos)
	p.wakeUp()
}

// enqueueSelf re-enqueues a single coroutine, used by [Coroutine.Gosched].
// It goes in at the head, not the owner end, so every coroutine already
// in p's deque is popped before it.
func (p *Processor) enqueueSelf(co *Coroutine) {
	p.deque.mu.Lock()
	p.deque.items = append([]*Coroutine{co}, p.deque.items...)
	p.deque.mu.Unlock()
	p.wakeUp()
}

// steal moves roughly half of p's deque into a fresh slice, taken from
// the thief-accessible end.
func (p *Processor) steal() []*Coroutine {
	return p.deque.steal()
}

// stopIfIdle asks p to stop, but only if it is currently idle: empty
// deque and no coroutine in flight. It reports whether the request was
// accepted. Called only by [Scheduler.removeInactiveProcessorsLocked], which
// already holds the scheduler's processors lock.
func (p *Processor) stopIfIdle() bool {
	p.mu.Lock()
	idle := p.current == nil && p.State() == StateRunning
	p.mu.Unlock()
	if !idle || p.deque.len() != 0 {
		return false
	}
	p.stopRequested.Store(true)
	p.wakeUp()
	return true
}

// beginBlockingCall hands p's remaining deque back to the scheduler and
// marks p blocked. Called on the fiber goroutine of the coroutine that
// is entering the foreign call; the processor's run loop stays parked
// inside resumeOnce for the whole duration, exactly as if this were an
// ordinary (if long) coroutine step -- the parallelism floor is instead
// preserved by the replacement processor processorBlocked may spin up.
func (p *Processor) beginBlockingCall() {
	if p.State() == StateBlocked {
		panic("coroutines: BeginBlockingCall called twice without a matching end")
	}
	p.setState(StateBlocked)
	queue := p.deque.drainAll()
	p.scheduler.emit(EventProcessorBlock, nil, p)
	p.scheduler.processorBlocked(p, queue)
}

// endBlockingCall reverses beginBlockingCall.
func (p *Processor) endBlockingCall() {
	if p.State() != StateBlocked {
		panic("coroutines: EndBlockingCall without a matching BeginBlockingCall")
	}
	p.setState(StateRunning)
	p.scheduler.emit(EventProcessorUnblock, nil, p)
	p.scheduler.processorUnblocked(p)
}

// BeginBlockingCall brackets a foreign (non-cooperative) blocking call
// made from co's Task, e.g. a synchronous syscall. It hands the
// processor's remaining runnable coroutines back to the scheduler and
// may cause a replacement processor to be created, so that overall
// parallelism is preserved while this processor is tied up. Call the
// returned function (with defer, for correctness on every exit path
// including a panic) once the foreign call returns:
//
//	end := co.BeginBlockingCall()
//	defer end()
//	data, err := os.ReadFile(path)
func (co *Coroutine) BeginBlockingCall() (end func()) {
	p := co.Processor()
	p.beginBlockingCall()
	var done atomic.Bool
	return func() {
		if done.CompareAndSwap(false, true) {
			p.endBlockingCall()
		}
	}
}
