package coroutines

import "time"

// EventKind identifies the kind of occurrence a [TraceEvent] describes.
type EventKind int

const (
	// EventCoroutineCreate fires once, when a coroutine is spawned.
	EventCoroutineCreate EventKind = iota
	// EventCoroutineEnter fires each time a processor resumes a
	// coroutine.
	EventCoroutineEnter
	// EventCoroutineExit fires each time a processor regains control
	// from a coroutine (yield or completion).
	EventCoroutineExit
	// EventProcessorBlock fires when a processor enters a foreign
	// blocking call.
	EventProcessorBlock
	// EventProcessorUnblock fires when a processor returns from one.
	EventProcessorUnblock
)

func (k EventKind) String() string {
	switch k {
	case EventCoroutineCreate:
		return "coroutine_create"
	case EventCoroutineEnter:
		return "coroutine_enter"
	case EventCoroutineExit:
		return "coroutine_exit"
	case EventProcessorBlock:
		return "processor_block"
	case EventProcessorUnblock:
		return "processor_unblock"
	default:
		return "unknown"
	}
}

// A TraceEvent describes a single scheduling occurrence, aimed at an
// external profiler or visualizer; the runtime only ever produces these
// records, never interprets them.
type TraceEvent struct {
	Kind          EventKind
	Tick          time.Time
	ProcessorID   int
	CoroutineID   uint64   // 0 if the event has no associated coroutine
	CoroutineName string   // "" if CoroutineID is 0
}

// A Tracer receives [TraceEvent] records as the scheduler runs. Trace
// must not block or call back into the scheduler; it runs synchronously
// on whichever goroutine produced the event (the spawning caller for
// coroutine creation, the processor or coroutine goroutine otherwise).
type Tracer interface {
	Trace(TraceEvent)
}

// TracerFunc adapts a plain function to the [Tracer] interface.
type TracerFunc func(TraceEvent)

// Trace implements [Tracer].
func (f TracerFunc) Trace(e TraceEvent) { f(e) }

type noopTracer struct{}

func (noopTracer) Trace(TraceEvent) {}

// emit builds and dispatches a TraceEvent. co may be nil for
// processor-only events; p may be nil for coroutine-creation events that
// have not yet been placed on any processor.
func (s *Scheduler) emit(kind EventKind, co *Coroutine, p *Processor) {
	e := TraceEvent{Kind: kind, Tick: time.Now(), ProcessorID: -1}
	if p != nil {
		e.ProcessorID = p.id
	}
	if co != nil {
		e.CoroutineID = co.id
		e.CoroutineName = co.name
	}
	s.tracer.Trace(e)
}
