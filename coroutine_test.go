package coroutines_test

import (
	"testing"
	"time"

	"github.com/riftrun/coroutines"
)

func TestGoRunsEntry(t *testing.T) {
	s := coroutines.New(2)

	ran := make(chan struct{})
	s.Go(func(co *coroutines.Coroutine) {
		close(ran)
	})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("entry function never ran")
	}

	s.Shutdown()
}

func TestGoNamedSetsName(t *testing.T) {
	s := coroutines.New(1)

	names := make(chan string, 1)
	s.GoNamed("worker-0", func(co *coroutines.Coroutine) {
		names <- co.Name()
	})

	if got := <-names; got != "worker-0" {
		t.Fatalf("Name() = %q, want %q", got, "worker-0")
	}

	s.Shutdown()
}

func TestGoschedYieldsToOtherCoroutines(t *testing.T) {
	s := coroutines.New(1)

	var order []int
	done := make(chan struct{})

	s.Go(func(co *coroutines.Coroutine) {
		order = append(order, 1)
		s.Go(func(co *coroutines.Coroutine) {
			order = append(order, 2)
		})
		co.Gosched()
		order = append(order, 3)
		close(done)
	})

	<-done
	s.Wait()

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("unexpected interleaving: %v", order)
	}

	s.Shutdown()
}

func TestCheckpointRoundTrip(t *testing.T) {
	s := coroutines.New(1)

	tags := make(chan string, 1)
	s.Go(func(co *coroutines.Coroutine) {
		if co.LastCheckpoint() != "" {
			t.Error("LastCheckpoint should start empty")
		}
		co.Checkpoint("reading input")
		tags <- co.LastCheckpoint()
	})

	if got := <-tags; got != "reading input" {
		t.Fatalf("LastCheckpoint() = %q, want %q", got, "reading input")
	}

	s.Shutdown()
}

func TestPanicEndsOnlyThatCoroutine(t *testing.T) {
	s := coroutines.New(2)

	survived := make(chan struct{})
	s.Go(func(co *coroutines.Coroutine) {
		panic("boom")
	})
	s.Go(func(co *coroutines.Coroutine) {
		close(survived)
	})

	select {
	case <-survived:
	case <-time.After(time.Second):
		t.Fatal("sibling coroutine never ran after the other panicked")
	}

	s.Wait()
	s.Shutdown()
}

func TestProcessorOutsideCoroutineContextPanics(t *testing.T) {
	s := coroutines.New(1)

	finished := make(chan struct{})
	captured := s.Go(func(co *coroutines.Coroutine) {
		close(finished)
	})
	<-finished
	s.Wait()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("Processor() called after completion should panic")
			}
		}()
		captured.Processor()
	}()

	s.Shutdown()
}
