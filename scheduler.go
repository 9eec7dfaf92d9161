package coroutines

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
)

// A Scheduler owns a pool of [Processor]s and every [Coroutine] spawned
// through it. It is safe for concurrent use from any goroutine (not just
// coroutine context) for [Scheduler.Go], [Scheduler.Wait] and
// [Scheduler.Shutdown]; the rest of the package's operations require
// coroutine context.
//
// Two locks guard disjoint state: coroMu protects the coroutine registry
// and its drain condition; procMu protects the processor pool, the
// global overflow queue, and the starved-processor list. Where both are
// needed, coroMu is always acquired first.
type Scheduler struct {
	coroMu      sync.Mutex
	coroCond    *sync.Cond
	coroutines  map[uint64]*Coroutine
	highWater   int
	shuttingDown bool

	procMu             sync.Mutex
	processors         []*Processor
	nextProcID         int
	activeProcessors   int
	blockedProcessors  int
	starvedProcessors  []*Processor
	globalQueue        []*Coroutine
	rng                *rand.Rand

	channelCount int64

	logger *slog.Logger
	tracer Tracer
}

// New creates a Scheduler with activeProcessors processors already
// running, ready to accept work via [Scheduler.Go].
func New(activeProcessors int, opts ...Option) *Scheduler {
	if activeProcessors <= 0 {
		panic("coroutines: activeProcessors must be positive")
	}
	s := &Scheduler{
		coroutines:       make(map[uint64]*Coroutine),
		activeProcessors: activeProcessors,
		rng:              rand.New(rand.NewSource(1)),
		logger:           slog.New(discardHandler{}),
		tracer:           noopTracer{},
	}
	s.coroCond = sync.NewCond(&s.coroMu)
	for _, opt := range opts {
		opt(s)
	}

	s.procMu.Lock()
	for i := 0; i < activeProcessors; i++ {
		s.processors = append(s.processors, s.newProcessorLocked())
	}
	procs := append([]*Processor(nil), s.processors...)
	s.procMu.Unlock()

	for _, p := range procs {
		p.start()
	}

	s.logger.Debug("scheduler started", "processors", activeProcessors)
	return s
}

func (s *Scheduler) newProcessorLocked() *Processor {
	id := s.nextProcID
	s.nextProcID++
	return newProcessor(id, s)
}

// Go spawns an anonymous coroutine running entry and returns it
// immediately runnable.
func (s *Scheduler) Go(entry func(co *Coroutine)) *Coroutine {
	return s.spawn("", entry)
}

// GoNamed spawns a coroutine running entry, tagging it with name for use
// in [Scheduler.DebugDump] and log records.
func (s *Scheduler) GoNamed(name string, entry func(co *Coroutine)) *Coroutine {
	return s.spawn(name, entry)
}

func (s *Scheduler) spawn(name string, entry Task) *Coroutine {
	co := newCoroutine(s, name, entry)

	s.coroMu.Lock()
	if s.shuttingDown {
		s.coroMu.Unlock()
		panic("coroutines: Go called after Shutdown")
	}
	s.coroutines[co.id] = co
	if len(s.coroutines) > s.highWater {
		s.highWater = len(s.coroutines)
	}
	s.coroMu.Unlock()

	s.logger.Debug("coroutine spawned", "id", co.id, "name", name)
	s.emit(EventCoroutineCreate, co, nil)
	s.schedule([]*Coroutine{co})
	return co
}

// schedule places a batch of runnable coroutines: onto a starved
// processor if one is waiting, else a random live processor (with
// linear-probe fallback), else the global overflow queue.
func (s *Scheduler) schedule(cos []*Coroutine) {
	if len(cos) == 0 {
		return
	}

	s.procMu.Lock()

	if len(s.starvedProcessors) > 0 {
		p := s.starvedProcessors[0]
		s.starvedProcessors = s.starvedProcessors[1:]
		s.procMu.Unlock()
		p.enqueueMany(cos)
		return
	}

	n := s.activeProcessors + s.blockedProcessors
	if n > len(s.processors) {
		n = len(s.processors)
	}
	if n > 0 {
		start := s.rng.Intn(n)
		for i := 0; i < n; i++ {
			p := s.processors[(start+i)%n]
			if p.tryEnqueueBatch(cos) {
				s.procMu.Unlock()
				return
			}
		}
	}

	s.globalQueue = append(s.globalQueue, cos...)
	s.procMu.Unlock()
	s.logger.Debug("coroutines overflowed to global queue", "count", len(cos))
}

// processorStarved is called by p's own run loop once its deque is
// empty. It reports whether work was handed directly onto p's deque; if
// not, p has been recorded as starved and should park.
func (s *Scheduler) processorStarved(p *Processor) bool {
	s.procMu.Lock()
	defer s.procMu.Unlock()

	if len(s.globalQueue) > 0 {
		batch := s.globalQueue
		s.globalQueue = nil
		p.deque.pushManyBottom(batch)
		return true
	}

	if victim := s.pickBusiestLocked(p); victim != nil {
		if stolen := victim.steal(); len(stolen) > 0 {
			p.deque.pushManyBottom(stolen)
			return true
		}
	}

	s.starvedProcessors = append(s.starvedProcessors, p)
	return false
}

// pickBusiestLocked returns the processor with the deepest deque among
// the first activeProcessors entries, excluding exclude. Called with
// procMu held.
func (s *Scheduler) pickBusiestLocked(exclude *Processor) *Processor {
	n := s.activeProcessors
	if n > len(s.processors) {
		n = len(s.processors)
	}
	var best *Processor
	bestLen := 0
	for i := 0; i < n; i++ {
		cand := s.processors[i]
		if cand == exclude {
			continue
		}
		if l := cand.QueueLen(); l > bestLen {
			best, bestLen = cand, l
		}
	}
	return best
}

// processorBlocked redistributes p's handed-off queue and, if needed,
// spins up a replacement processor to keep the non-blocked count at
// activeProcessors.
func (s *Scheduler) processorBlocked(p *Processor, queue []*Coroutine) {
	s.schedule(queue)

	s.procMu.Lock()
	s.blockedProcessors++
	var replacement *Processor
	if len(s.processors) < s.activeProcessors+s.blockedProcessors {
		replacement = s.newProcessorLocked()
		s.processors = append(s.processors, replacement)
	}
	blocked := s.blockedProcessors
	s.procMu.Unlock()

	if replacement != nil {
		replacement.start()
	}
	s.logger.Debug("processor blocked", "id", p.id, "blocked", blocked)
}

// processorUnblocked reverses processorBlocked and reaps surplus
// processors.
func (s *Scheduler) processorUnblocked(p *Processor) {
	s.procMu.Lock()
	s.blockedProcessors--
	s.removeInactiveProcessorsLocked()
	blocked := s.blockedProcessors
	s.procMu.Unlock()

	s.logger.Debug("processor unblocked", "id", p.id, "blocked", blocked)
}

// removeInactiveProcessorsLocked stops surplus idle processors from the
// back of the pool while the pool exceeds twice the target parallelism
// plus the number currently blocked. Called with procMu held.
func (s *Scheduler) removeInactiveProcessorsLocked() {
	for len(s.processors) > 2*s.activeProcessors+s.blockedProcessors {
		last := s.processors[len(s.processors)-1]
		if !last.stopIfIdle() {
			break
		}
		s.processors = s.processors[:len(s.processors)-1]
		s.removeFromStarvedLocked(last)
	}
}

func (s *Scheduler) removeFromStarvedLocked(p *Processor) {
	for i, sp := range s.starvedProcessors {
		if sp == p {
			s.starvedProcessors = append(s.starvedProcessors[:i], s.starvedProcessors[i+1:]...)
			return
		}
	}
}

// coroutineFinished removes co from the registry, waking any [Wait]
// callers once it is empty.
func (s *Scheduler) coroutineFinished(co *Coroutine, panicVal *coroutinePanic) {
	if panicVal != nil {
		s.logger.Error("coroutine panicked", "id", co.id, "name", co.name, "err", panicVal)
	}

	s.coroMu.Lock()
	delete(s.coroutines, co.id)
	empty := len(s.coroutines) == 0
	s.coroMu.Unlock()

	if empty {
		s.coroCond.Broadcast()
	}
}

// Wait blocks the calling goroutine until every spawned coroutine has
// completed. Must be called from outside coroutine context (it blocks
// an OS thread, not a coroutine).
func (s *Scheduler) Wait() {
	s.coroMu.Lock()
	defer s.coroMu.Unlock()
	for len(s.coroutines) > 0 {
		s.coroCond.Wait()
	}
}

// Shutdown waits for every coroutine to finish, then stops every
// processor and blocks until each has exited. After Shutdown returns,
// [Scheduler.Go] panics.
func (s *Scheduler) Shutdown() {
	s.Wait()

	s.coroMu.Lock()
	s.shuttingDown = true
	s.coroMu.Unlock()

	s.procMu.Lock()
	procs := s.processors
	s.processors = nil
	s.starvedProcessors = nil
	s.procMu.Unlock()

	for _, p := range procs {
		p.stopRequested.Store(true)
		p.wakeUp()
	}
	for _, p := range procs {
		<-p.stopped
	}
	s.logger.Debug("scheduler stopped")
}

// registerChannel records that a new [Channel] was created, for
// [Scheduler.Stats].
func (s *Scheduler) registerChannel() {
	atomic.AddInt64(&s.channelCount, 1)
}

// Stats is a point-in-time snapshot of scheduler load, returned by
// [Scheduler.Stats].
type Stats struct {
	LiveCoroutines     int
	HighWaterMark      int
	Processors         int
	BlockedProcessors  int
	StarvedProcessors  int
	GlobalQueueDepth   int
	ChannelsCreated    int64
}

// Stats returns a point-in-time snapshot of scheduler load.
func (s *Scheduler) Stats() Stats {
	s.coroMu.Lock()
	live, hwm := len(s.coroutines), s.highWater
	s.coroMu.Unlock()

	s.procMu.Lock()
	procs, blocked, starved, global := len(s.processors), s.blockedProcessors, len(s.starvedProcessors), len(s.globalQueue)
	s.procMu.Unlock()

	return Stats{
		LiveCoroutines:    live,
		HighWaterMark:     hwm,
		Processors:        procs,
		BlockedProcessors: blocked,
		StarvedProcessors: starved,
		GlobalQueueDepth:  global,
		ChannelsCreated:   atomic.LoadInt64(&s.channelCount),
	}
}

// DebugDump writes a human-readable report of every live coroutine, its
// name and last checkpoint, plus pool-level counters, to w. Intended for
// diagnosing a stuck scheduler; unlike the debugging aid it is grounded
// on, it never terminates the calling process.
func (s *Scheduler) DebugDump(w io.Writer) {
	s.coroMu.Lock()
	defer s.coroMu.Unlock()

	s.procMu.Lock()
	fmt.Fprintf(w, "processors: %d (blocked=%d starved=%d global_queue=%d)\n",
		len(s.processors), s.blockedProcessors, len(s.starvedProcessors), len(s.globalQueue))
	s.procMu.Unlock()

	fmt.Fprintf(w, "coroutines: %d live, %d high-water mark\n", len(s.coroutines), s.highWater)
	for _, co := range s.coroutines {
		fmt.Fprintf(w, "  #%d %q last-checkpoint=%q\n", co.id, co.name, co.LastCheckpoint())
	}
}
