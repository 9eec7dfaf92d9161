package coroutines

import (
	"iter"
	"sync"
)

// A Channel is a bounded, closable MPMC queue of T, built directly on
// [Coroutine.Yield] rather than on [Monitor]: a parked sender or
// receiver needs to carry a value alongside its place in line, which a
// bare FIFO of coroutines can't express. The waiting-side queues below
// follow the same suspend/hook/wake shape Monitor uses internally, just
// with a payload attached to each waiter.
//
// Unlike a native Go channel, a full send or empty receive suspends the
// calling coroutine instead of parking an OS thread, so a Channel is
// only usable from coroutine context. Capacity 0 is a rendezvous: a
// waiting receiver is served directly out of a sender's hand (or vice
// versa) without ever touching the buffer.
//
// Callers never see a *Channel directly: [MakeChannel] hands out a
// [Sender]/[Receiver] pair instead, mirroring the directional
// chan<-/<-chan split of a native Go channel.
type Channel[T any] struct {
	mu        sync.Mutex
	capacity  int
	buffer    []T
	closed    bool
	sendQueue []*sendWaiter[T]
	recvQueue []*recvWaiter[T]
}

type sendWaiter[T any] struct {
	co        *Coroutine
	value     T
	delivered bool // true once a receiver has claimed value
}

type recvWaiter[T any] struct {
	co    *Coroutine
	value T
	ok    bool // true once a sender has delivered a value
}

// A Sender is the send-only, closing half of a channel created by
// [MakeChannel].
type Sender[T any] struct{ ch *Channel[T] }

// A Receiver is the receive-only half of a channel created by
// [MakeChannel].
type Receiver[T any] struct{ ch *Channel[T] }

// MakeChannel creates a channel of the given capacity, registered with s
// purely for bookkeeping ([Scheduler.Stats]), and returns its two
// handles. The channel has no other tie to s and may be shared freely
// across any coroutine, regardless of which scheduler spawned it; either
// handle may itself be shared across many coroutines (a Channel is MPMC).
func MakeChannel[T any](s *Scheduler, capacity int) (Sender[T], Receiver[T]) {
	if capacity < 0 {
		panic("coroutines: negative channel capacity")
	}
	ch := &Channel[T]{capacity: capacity}
	s.registerChannel()
	return Sender[T]{ch}, Receiver[T]{ch}
}

// Send pushes v onto s's channel, suspending the calling coroutine while
// it is at capacity and no receiver is waiting. It reports
// [ErrChannelClosed] if the channel is already closed, or becomes closed
// while the call is parked. Must be called from coroutine context.
func (s Sender[T]) Send(co *Coroutine, v T) error {
	return s.ch.send(co, v)
}

// SendAll sends every value in vs, in order, stopping and reporting the
// first error (typically [ErrChannelClosed]) if the channel closes partway
// through. Must be called from coroutine context.
func (s Sender[T]) SendAll(co *Coroutine, vs ...T) error {
	for _, v := range vs {
		if err := s.ch.send(co, v); err != nil {
			return err
		}
	}
	return nil
}

// Close marks the channel closed: pending and future Sends fail with
// [ErrChannelClosed]; parked Receives return !ok once whatever is still
// buffered has drained. Idempotent. Must be called from coroutine
// context, since waking parked coroutines requires a current processor
// to place them on.
func (s Sender[T]) Close(co *Coroutine) {
	s.ch.close(co)
}

// Cap reports the channel's capacity.
func (s Sender[T]) Cap() int { return s.ch.capacity }

func (ch *Channel[T]) send(co *Coroutine, v T) error {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return ErrChannelClosed
	}
	if len(ch.recvQueue) > 0 {
		rw := ch.recvQueue[0]
		ch.recvQueue = ch.recvQueue[1:]
		rw.value, rw.ok = v, true
		ch.mu.Unlock()
		co.Processor().enqueueMany([]*Coroutine{rw.co})
		return nil
	}
	if len(ch.buffer) < ch.capacity {
		ch.buffer = append(ch.buffer, v)
		ch.mu.Unlock()
		return nil
	}

	// ch.mu stays held until w is queued, so a receive that drains the
	// buffer in the meantime cannot miss this sender.
	w := &sendWaiter[T]{co: co, value: v}
	co.Yield(func() {
		ch.sendQueue = append(ch.sendQueue, w)
		ch.mu.Unlock()
	})

	ch.mu.Lock()
	delivered := w.delivered
	ch.mu.Unlock()
	if !delivered {
		return ErrChannelClosed
	}
	return nil
}

// Receive pops a value from r's channel, suspending the calling
// coroutine while it is empty. ok is false only once the channel is
// closed and drained, mirroring the comma-ok idiom of a native Go
// channel receive. Must be called from coroutine context.
func (r Receiver[T]) Receive(co *Coroutine) (v T, ok bool) {
	return r.ch.receive(co)
}

// All returns an iterator over every value the channel delivers until it
// is closed and drained, the coroutine-aware equivalent of
// "for v := range someChan" over a native channel. Must be called from
// coroutine context; breaking out of the range loop early simply stops
// calling Receive.
func (r Receiver[T]) All(co *Coroutine) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := r.ch.receive(co)
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Len reports the number of values currently buffered. Racy by nature;
// intended for debug/metrics use.
func (r Receiver[T]) Len() int {
	r.ch.mu.Lock()
	defer r.ch.mu.Unlock()
	return len(r.ch.buffer)
}

// Cap reports the channel's capacity.
func (r Receiver[T]) Cap() int { return r.ch.capacity }

func (ch *Channel[T]) receive(co *Coroutine) (v T, ok bool) {
	ch.mu.Lock()
	if len(ch.buffer) > 0 {
		v = ch.buffer[0]
		ch.buffer = ch.buffer[1:]
		var woken *Coroutine
		if len(ch.sendQueue) > 0 {
			sw := ch.sendQueue[0]
			ch.sendQueue = ch.sendQueue[1:]
			ch.buffer = append(ch.buffer, sw.value)
			sw.delivered = true
			woken = sw.co
		}
		ch.mu.Unlock()
		if woken != nil {
			co.Processor().enqueueMany([]*Coroutine{woken})
		}
		return v, true
	}
	if len(ch.sendQueue) > 0 {
		sw := ch.sendQueue[0]
		ch.sendQueue = ch.sendQueue[1:]
		sw.delivered = true
		ch.mu.Unlock()
		co.Processor().enqueueMany([]*Coroutine{sw.co})
		return sw.value, true
	}
	if ch.closed {
		ch.mu.Unlock()
		var zero T
		return zero, false
	}

	// ch.mu stays held until rw is queued, so a send that fills the
	// buffer in the meantime cannot miss this receiver.
	rw := &recvWaiter[T]{co: co}
	co.Yield(func() {
		ch.recvQueue = append(ch.recvQueue, rw)
		ch.mu.Unlock()
	})

	ch.mu.Lock()
	value, delivered := rw.value, rw.ok
	ch.mu.Unlock()
	if !delivered {
		var zero T
		return zero, false
	}
	return value, true
}

func (ch *Channel[T]) close(co *Coroutine) {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return
	}
	ch.closed = true
	senders := ch.sendQueue
	receivers := ch.recvQueue
	ch.sendQueue, ch.recvQueue = nil, nil
	ch.mu.Unlock()

	wake := make([]*Coroutine, 0, len(senders)+len(receivers))
	for _, sw := range senders {
		wake = append(wake, sw.co) // delivered stays false: ErrChannelClosed
	}
	for _, rw := range receivers {
		wake = append(wake, rw.co) // ok stays false: (zero, false)
	}
	if len(wake) > 0 {
		co.Processor().enqueueMany(wake)
	}
}
