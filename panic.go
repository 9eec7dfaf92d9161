package coroutines

// A coroutine's entry function runs under recover() so that an
// unrecovered panic ends that coroutine only, instead of taking down the
// processor goroutine underneath it. Because coroutines have a real Go
// call stack (see fiber.go), a single recover at the top of the entry
// function is enough; nested Go code unwinds through ordinary deferred
// functions on the way up, no per-frame chaining required.

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// coroutinePanic is the value recovered from a coroutine's entry
// function. It carries the original panic value and a stack trace, and
// implements error so it can be passed to the scheduler's logger, which
// records it at Error level when the coroutine finishes.
type coroutinePanic struct {
	value any
	stack []byte
}

func (p *coroutinePanic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "coroutines: panic: %v\n\n", p.value)
	b.Write(p.stack)
	return b.String()
}

func (p *coroutinePanic) Unwrap() error {
	if err, ok := p.value.(error); ok {
		return err
	}
	return nil
}

// runProtected calls f and converts any panic other than [runtime.Goexit]
// into a *coroutinePanic, returned instead of propagating.
func runProtected(f func()) (caught *coroutinePanic) {
	defer func() {
		if v := recover(); v != nil {
			caught = &coroutinePanic{value: v, stack: debug.Stack()}
		}
	}()
	f()
	return nil
}
