package netem

import "testing"

func TestCoDelPacketQueue(t *testing.T) {
	t.Run("invariant: sojourn always below target means no drops", func(t *testing.T) {
		clock := NewFixedClock(0)
		args, err := ParseQueueArgs("target=5,interval=100")
		if err != nil {
			t.Fatal(err)
		}
		q := NewCoDelPacketQueue(args, clock)

		for i := 0; i < 50; i++ {
			q.Enqueue(NewQueuedPacket(make([]byte, 100), clock.NowMillis()))
			clock.Advance(1)
			pkt, ok := q.Dequeue()
			if !ok {
				t.Fatal("expected a packet")
			}
			if pkt.Len() != 100 {
				t.Fatal("unexpected packet size")
			}
		}
		if q.dropping {
			t.Fatal("expected no drops when sojourn stays below target")
		}
	})

	t.Run("sustained excess sojourn eventually triggers a drop", func(t *testing.T) {
		clock := NewFixedClock(0)
		args, err := ParseQueueArgs("target=5,interval=100")
		if err != nil {
			t.Fatal(err)
		}
		q := NewCoDelPacketQueue(args, clock)

		for i := 0; i < 200; i++ {
			q.Enqueue(NewQueuedPacket(make([]byte, 100), 0))
		}

		clock.Advance(200)

		drops := 0
		for !q.Empty() {
			before := q.SizePackets()
			_, ok := q.Dequeue()
			if !ok {
				break
			}
			after := q.SizePackets()
			if before-after > 1 {
				drops += before - after - 1
			}
			clock.Advance(1)
		}
		if drops == 0 {
			t.Fatal("expected at least one drop under sustained excess sojourn")
		}
	})

	t.Run("a drop long after the previous one resets count instead of backing off", func(t *testing.T) {
		clock := NewFixedClock(0)
		args, err := ParseQueueArgs("target=5,interval=100")
		if err != nil {
			t.Fatal(err)
		}
		q := NewCoDelPacketQueue(args, clock)

		for i := 0; i < 200; i++ {
			q.Enqueue(NewQueuedPacket(make([]byte, 100), 0))
		}
		clock.Advance(16 * q.intervalMillis)

		// Pretend a drop already happened long enough ago that the gap
		// to the upcoming drop exceeds 16*interval, and that count had
		// climbed high during that earlier dropping episode. If the
		// implementation stamped lastDropTime before comparing the gap,
		// this would look "recent" and back off from 10 instead of
		// resetting to 1.
		q.haveLastDrop = true
		q.lastDropTime = 0
		q.count = 10

		for !q.dropping {
			if _, ok := q.Dequeue(); !ok {
				t.Fatal("expected sustained excess sojourn to trigger a drop")
			}
			clock.Advance(1)
		}
		if q.count != 1 {
			t.Fatalf("expected count to reset to 1 after a stale last drop, got %d", q.count)
		}
	})
}
