package coroutines_test

import (
	"testing"
	"time"

	"github.com/riftrun/coroutines"
)

func TestSemaphoreBlocksUntilWeightAvailable(t *testing.T) {
	s := coroutines.New(4)
	sem := coroutines.NewSemaphore(2)

	acquired := make(chan struct{})
	s.Go(func(co *coroutines.Coroutine) {
		sem.Acquire(co, 2)
		close(acquired)
	})
	<-acquired

	third := make(chan struct{})
	s.Go(func(co *coroutines.Coroutine) {
		sem.Acquire(co, 1)
		close(third)
	})

	select {
	case <-third:
		t.Fatal("Acquire succeeded while the semaphore was fully held")
	case <-time.After(30 * time.Millisecond):
	}

	s.Go(func(co *coroutines.Coroutine) {
		sem.Release(co, 2)
	})

	select {
	case <-third:
	case <-time.After(time.Second):
		t.Fatal("Acquire never unblocked after Release")
	}

	s.Wait()
	s.Shutdown()
}

func TestSemaphoreReleaseTooMuchPanics(t *testing.T) {
	s := coroutines.New(1)
	sem := coroutines.NewSemaphore(1)

	done := make(chan struct{})
	s.Go(func(co *coroutines.Coroutine) {
		defer close(done)
		defer func() {
			if recover() == nil {
				t.Error("expected a panic")
			}
		}()
		sem.Release(co, 5)
	})
	<-done

	s.Shutdown()
}

func TestWaitGroupWaitsForAllDone(t *testing.T) {
	s := coroutines.New(4)
	var wg coroutines.WaitGroup

	const n = 4
	waiting := make(chan struct{})
	s.Go(func(co *coroutines.Coroutine) {
		wg.Add(co, n)
		close(waiting)
	})
	<-waiting

	finished := make(chan struct{})
	s.Go(func(co *coroutines.Coroutine) {
		wg.Wait(co)
		close(finished)
	})

	select {
	case <-finished:
		t.Fatal("Wait returned before any Done")
	case <-time.After(30 * time.Millisecond):
	}

	for i := 0; i < n; i++ {
		s.Go(func(co *coroutines.Coroutine) {
			wg.Done(co)
		})
	}

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Wait never returned after all workers called Done")
	}

	s.Wait()
	s.Shutdown()
}

func TestWaitGroupNegativeCounterPanics(t *testing.T) {
	s := coroutines.New(1)
	var wg coroutines.WaitGroup

	done := make(chan struct{})
	s.Go(func(co *coroutines.Coroutine) {
		defer close(done)
		defer func() {
			if recover() == nil {
				t.Error("expected a panic")
			}
		}()
		wg.Done(co)
	})
	<-done

	s.Shutdown()
}
