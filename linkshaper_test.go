package netem

import (
	"context"
	"testing"
	"time"
)

type staticSource struct {
	pkts []QueuedPacket
}

func (s *staticSource) ReadPacket() (QueuedPacket, bool) {
	if len(s.pkts) == 0 {
		return QueuedPacket{}, false
	}
	pkt := s.pkts[0]
	s.pkts = s.pkts[1:]
	return pkt, true
}

type collectingSink struct {
	delivered [][]byte
	failWith  error
}

func (s *collectingSink) WritePacket(contents []byte) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.delivered = append(s.delivered, contents)
	return nil
}

func TestLinkShaper(t *testing.T) {
	t.Run("delivers queued packets on trace deadlines", func(t *testing.T) {
		clock := NewFixedClock(0)
		source := &staticSource{pkts: []QueuedPacket{
			NewQueuedPacket([]byte("a"), 0),
			NewQueuedPacket([]byte("b"), 0),
		}}
		sink := &collectingSink{}
		queue := NewInfinitePacketQueue()
		trace := &Trace{Deadlines: []uint64{0, 1}}

		ls := NewLinkShaper(source, sink, queue, trace, clock, false, nil, nil)

		if err := ls.tick(); err != nil {
			t.Fatal(err)
		}
		if len(sink.delivered) != 1 {
			t.Fatalf("expected 1 delivery at t=0, got %d", len(sink.delivered))
		}

		clock.Advance(1)
		if err := ls.tick(); err != nil {
			t.Fatal(err)
		}
		if len(sink.delivered) != 2 {
			t.Fatalf("expected 2 deliveries at t=1, got %d", len(sink.delivered))
		}
		if !ls.done() {
			t.Fatal("expected the shaper to be done once the trace is exhausted without repeat")
		}
	})

	t.Run("WaitTime reports the next trace deadline when the queue is empty", func(t *testing.T) {
		clock := NewFixedClock(0)
		source := &staticSource{}
		sink := &collectingSink{}
		queue := NewInfinitePacketQueue()
		trace := &Trace{Deadlines: []uint64{10}}

		ls := NewLinkShaper(source, sink, queue, trace, clock, false, nil, nil)
		if wait := ls.WaitTime(); wait != 10 {
			t.Fatalf("expected wait=10, got %d", wait)
		}
	})

	t.Run("a sink write error aborts the direction instead of being swallowed", func(t *testing.T) {
		clock := NewFixedClock(0)
		source := &staticSource{pkts: []QueuedPacket{NewQueuedPacket([]byte("a"), 0)}}
		sink := &collectingSink{failWith: ErrSinkClosed}
		queue := NewInfinitePacketQueue()
		trace := &Trace{Deadlines: []uint64{0}}

		ls := NewLinkShaper(source, sink, queue, trace, clock, false, nil, nil)

		err := ls.tick()
		if err == nil {
			t.Fatal("expected tick to return the sink's write error")
		}
		if len(sink.delivered) != 0 {
			t.Fatal("expected no successful deliveries")
		}
	})

	t.Run("Run stops when the context is cancelled", func(t *testing.T) {
		clock := NewSystemClock(nil)
		source := &staticSource{}
		sink := &collectingSink{}
		queue := NewInfinitePacketQueue()
		trace := &Trace{Deadlines: []uint64{}}

		ls := NewLinkShaper(source, sink, queue, trace, clock, true, nil, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		if err := ls.Run(ctx); err != nil {
			t.Fatal(err)
		}
		select {
		case <-ls.Done():
		default:
			t.Fatal("expected the shaper to report done after Run returns")
		}
	})
}
