package netem

import "testing"

func TestFairPacketQueue(t *testing.T) {
	t.Run("scenario: 8 packets with flow ids 0,1,2,3,0,1,2,3 across 4 queues", func(t *testing.T) {
		args, err := ParseQueueArgs("queues=4")
		if err != nil {
			t.Fatal(err)
		}
		q := NewFairPacketQueue(args)

		ids := []uint32{0, 1, 2, 3, 0, 1, 2, 3}
		for _, id := range ids {
			q.Enqueue(flowPacket(id, 64))
		}

		if q.SizePackets() != 8 {
			t.Fatalf("expected 8 packets, got %d", q.SizePackets())
		}
		for i, inner := range q.inner {
			if inner.SizePackets() != 2 {
				t.Fatalf("inner queue %d: expected 2 packets, got %d", i, inner.SizePackets())
			}
		}
	})

	t.Run("dequeue on fully empty queue returns ok=false, never loops forever", func(t *testing.T) {
		args, err := ParseQueueArgs("queues=4")
		if err != nil {
			t.Fatal(err)
		}
		q := NewFairPacketQueue(args)
		if _, ok := q.Dequeue(); ok {
			t.Fatal("expected ok=false on empty fair queue")
		}
	})

	t.Run("drains every enqueued packet", func(t *testing.T) {
		args, err := ParseQueueArgs("queues=3")
		if err != nil {
			t.Fatal(err)
		}
		q := NewFairPacketQueue(args)
		for i := uint32(0); i < 30; i++ {
			q.Enqueue(flowPacket(i, 64))
		}
		drained := 0
		for !q.Empty() {
			if _, ok := q.Dequeue(); ok {
				drained++
			} else {
				t.Fatal("unexpected dequeue failure while non-empty")
			}
		}
		if drained != 30 {
			t.Fatalf("expected 30 packets drained, got %d", drained)
		}
	})
}
