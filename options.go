package coroutines

import (
	"log/slog"
	"math/rand"
)

// An Option configures a [Scheduler] at construction time.
type Option func(*Scheduler)

// WithLogger sets the [slog.Logger] the scheduler and its processors
// emit Debug-level state-transition records to. The default discards
// everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the [Tracer] that receives [TraceEvent] records for
// coroutine and processor lifecycle events. The default is a no-op.
func WithTracer(tracer Tracer) Option {
	return func(s *Scheduler) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithRandSource sets the source used for the scheduler's random
// placement policy, primarily for reproducible tests.
func WithRandSource(src rand.Source) Option {
	return func(s *Scheduler) {
		if src != nil {
			s.rng = rand.New(src)
		}
	}
}
