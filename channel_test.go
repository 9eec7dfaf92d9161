package coroutines_test

import (
	"testing"
	"time"

	"github.com/riftrun/coroutines"
)

func TestChannelBufferedSendThenReceive(t *testing.T) {
	s := coroutines.New(2)
	send, recv := coroutines.MakeChannel[int](s, 2)

	results := make(chan int, 2)
	s.Go(func(co *coroutines.Coroutine) {
		if err := send.Send(co, 1); err != nil {
			t.Errorf("Send: %v", err)
		}
		if err := send.Send(co, 2); err != nil {
			t.Errorf("Send: %v", err)
		}
	})
	s.Go(func(co *coroutines.Coroutine) {
		v, ok := recv.Receive(co)
		if !ok {
			t.Error("Receive reported closed early")
		}
		results <- v
		v, ok = recv.Receive(co)
		if !ok {
			t.Error("Receive reported closed early")
		}
		results <- v
	})

	s.Wait()
	close(results)
	got := map[int]bool{}
	for v := range results {
		got[v] = true
	}
	if !got[1] || !got[2] {
		t.Fatalf("got %v, want both 1 and 2 delivered", got)
	}

	s.Shutdown()
}

func TestChannelRendezvousAtCapacityZero(t *testing.T) {
	s := coroutines.New(2)
	send, recv := coroutines.MakeChannel[string](s, 0)

	received := make(chan string, 1)
	s.Go(func(co *coroutines.Coroutine) {
		v, ok := recv.Receive(co)
		if !ok {
			t.Error("Receive reported closed")
		}
		received <- v
	})

	// Give the receiver time to park before the sender arrives; a
	// capacity-0 Send must still succeed by handing off directly.
	time.Sleep(20 * time.Millisecond)

	s.Go(func(co *coroutines.Coroutine) {
		if err := send.Send(co, "hello"); err != nil {
			t.Errorf("Send: %v", err)
		}
	})

	select {
	case v := <-received:
		if v != "hello" {
			t.Fatalf("received %q, want %q", v, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("rendezvous never completed")
	}

	s.Wait()
	s.Shutdown()
}

func TestChannelSendBlocksAtCapacity(t *testing.T) {
	s := coroutines.New(2)
	send, recv := coroutines.MakeChannel[int](s, 1)

	secondSent := make(chan struct{})
	s.Go(func(co *coroutines.Coroutine) {
		send.Send(co, 1)
		send.Send(co, 2) // must block until the buffered 1 is drained
		close(secondSent)
	})

	select {
	case <-secondSent:
		t.Fatal("second Send returned before the buffer had room")
	case <-time.After(30 * time.Millisecond):
	}

	s.Go(func(co *coroutines.Coroutine) {
		recv.Receive(co)
	})

	select {
	case <-secondSent:
	case <-time.After(time.Second):
		t.Fatal("second Send never unblocked after a Receive freed room")
	}

	s.Wait()
	s.Shutdown()
}

func TestChannelCloseWakesParkedReceiveWithFalse(t *testing.T) {
	s := coroutines.New(2)
	send, recv := coroutines.MakeChannel[int](s, 0)

	result := make(chan bool, 1)
	s.Go(func(co *coroutines.Coroutine) {
		_, ok := recv.Receive(co)
		result <- ok
	})

	time.Sleep(20 * time.Millisecond)

	s.Go(func(co *coroutines.Coroutine) {
		send.Close(co)
	})

	select {
	case ok := <-result:
		if ok {
			t.Fatal("Receive reported ok=true after Close with nothing sent")
		}
	case <-time.After(time.Second):
		t.Fatal("Close never woke the parked Receive")
	}

	s.Wait()
	s.Shutdown()
}

func TestChannelCloseFailsParkedSendWithErrChannelClosed(t *testing.T) {
	s := coroutines.New(2)
	send, _ := coroutines.MakeChannel[int](s, 0)

	result := make(chan error, 1)
	s.Go(func(co *coroutines.Coroutine) {
		result <- send.Send(co, 42)
	})

	time.Sleep(20 * time.Millisecond)

	s.Go(func(co *coroutines.Coroutine) {
		send.Close(co)
	})

	select {
	case err := <-result:
		if err != coroutines.ErrChannelClosed {
			t.Fatalf("Send returned %v, want ErrChannelClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Close never woke the parked Send")
	}

	s.Wait()
	s.Shutdown()
}

func TestChannelSendAfterCloseFailsImmediately(t *testing.T) {
	s := coroutines.New(1)
	send, _ := coroutines.MakeChannel[int](s, 1)

	done := make(chan struct{})
	s.Go(func(co *coroutines.Coroutine) {
		defer close(done)
		send.Close(co)
		if err := send.Send(co, 1); err != coroutines.ErrChannelClosed {
			t.Errorf("Send after Close = %v, want ErrChannelClosed", err)
		}
	})
	<-done

	s.Shutdown()
}

func TestChannelReceiveDrainsBufferBeforeReportingClosed(t *testing.T) {
	s := coroutines.New(1)
	send, recv := coroutines.MakeChannel[int](s, 2)

	done := make(chan struct{})
	s.Go(func(co *coroutines.Coroutine) {
		defer close(done)
		send.Send(co, 1)
		send.Close(co)

		v, ok := recv.Receive(co)
		if !ok || v != 1 {
			t.Errorf("Receive = (%d, %v), want (1, true)", v, ok)
		}
		_, ok = recv.Receive(co)
		if ok {
			t.Error("Receive on a drained closed channel reported ok=true")
		}
	})
	<-done

	s.Shutdown()
}

func TestChannelSendAllStopsAtFirstError(t *testing.T) {
	s := coroutines.New(1)
	send, recv := coroutines.MakeChannel[int](s, 3)

	done := make(chan struct{})
	s.Go(func(co *coroutines.Coroutine) {
		defer close(done)
		if err := send.SendAll(co, 1, 2, 3); err != nil {
			t.Errorf("SendAll: %v", err)
		}
		send.Close(co)
		if err := send.SendAll(co, 4, 5); err != coroutines.ErrChannelClosed {
			t.Errorf("SendAll after Close = %v, want ErrChannelClosed", err)
		}

		var got []int
		for v, ok := recv.Receive(co); ok; v, ok = recv.Receive(co) {
			got = append(got, v)
		}
		if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
			t.Errorf("got %v, want [1 2 3]", got)
		}
	})
	<-done

	s.Shutdown()
}

func TestReceiverAllRangesUntilClosed(t *testing.T) {
	s := coroutines.New(2)
	send, recv := coroutines.MakeChannel[int](s, 0)

	s.Go(func(co *coroutines.Coroutine) {
		send.SendAll(co, 1, 2, 3)
		send.Close(co)
	})

	done := make(chan struct{})
	var got []int
	s.Go(func(co *coroutines.Coroutine) {
		defer close(done)
		for v := range recv.All(co) {
			got = append(got, v)
		}
	})
	<-done

	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("got %v, want [1 2 3]", got)
	}

	s.Shutdown()
}
