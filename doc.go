// Package coroutines is an M:N coroutine runtime: a scheduler that
// multiplexes many lightweight, stackful coroutines over a small, elastic
// pool of OS-level worker threads called processors.
//
// # Coroutines and Processors
//
// A [Coroutine] is a stackful unit of execution created with an entry
// function. Coroutines are cheap: a program can spawn thousands of them.
// A [Processor] is an OS thread running a scheduling loop over a local
// deque of runnable coroutines; the number of processors tracks the
// configured parallelism, not the number of live coroutines.
//
// Call [New] to create a [Scheduler] fixing the target parallelism, then
// use [Scheduler.Go] to spawn coroutines onto it:
//
//	sched := coroutines.New(4)
//	sched.Go(func(co *coroutines.Coroutine) {
//		fmt.Println("hello from a coroutine")
//	})
//	sched.Wait()
//	sched.Shutdown()
//
// # Suspension
//
// A coroutine suspends itself at well-defined points: acquiring a
// contended [Mutex], waiting on a [Cond], sending to a full [Channel] or
// receiving from an empty one. There is no preemption; a coroutine that
// never suspends and never returns starves its processor (and, if every
// processor is starved this way, the whole scheduler).
//
// # Foreign Blocking Calls
//
// Coroutines are meant to be cheap and numerous, which only holds if they
// don't tie up an OS thread while blocked in a foreign (non-cooperative)
// call such as a syscall or cgo. Bracket such a call with
// [Coroutine.BeginBlockingCall]:
//
//	end := co.BeginBlockingCall()
//	defer end()
//	data, err := os.ReadFile(path) // synchronous, foreign to the scheduler
//
// Entering the bracket hands the processor's remaining runnable
// coroutines back to the scheduler and, if needed, spins up a
// replacement processor so overall parallelism is preserved while this
// one is tied up in the foreign call. Leaving the bracket (guaranteed by
// defer, on every exit path including panics) undoes this, and the
// processor may be reclaimed if it has become surplus.
//
// # Channels, Mutexes and Condition Variables
//
// [Channel] is a bounded, closable, coroutine-aware MPMC queue. [Mutex]
// and [Cond] are coroutine-aware analogues of [sync.Mutex] and
// [sync.Cond]: contended acquisition and predicate waits suspend the
// calling coroutine instead of blocking an OS thread. [Mutex] and [Cond]
// are built on a FIFO parking structure ([Monitor]), which is also what
// backs [Semaphore] and [WaitGroup]; [Channel] parks its senders and
// receivers in FIFO queues of its own, using the same suspend mechanism.
//
// # What This Package Does Not Do
//
// There is no preemptive scheduling, no cross-process scheduling, no
// priority classes, and no fairness guarantee beyond "eventually runs".
// Coroutine state is not persisted or migrated across processes. A
// canceled or unrecovered panic inside one coroutine ends that coroutine
// only; it never propagates across a channel or a monitor implicitly.
package coroutines
