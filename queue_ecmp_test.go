package netem

import "testing"

func flowPacket(flowID uint32, size int) QueuedPacket {
	contents := make([]byte, size)
	contents[flowHashOffset] = byte(flowID)
	contents[flowHashOffset+1] = byte(flowID >> 8)
	contents[flowHashOffset+2] = byte(flowID >> 16)
	contents[flowHashOffset+3] = byte(flowID >> 24)
	return NewQueuedPacket(contents, 0)
}

func TestECMPPacketQueue(t *testing.T) {
	t.Run("invariant: identical flow bytes land in the same inner queue", func(t *testing.T) {
		clock := NewFixedClock(0)
		args, err := ParseQueueArgs("queues=4")
		if err != nil {
			t.Fatal(err)
		}
		q := NewECMPPacketQueue(args, clock)

		for i := 0; i < 5; i++ {
			q.Enqueue(flowPacket(42, 64))
		}
		total := 0
		for _, inner := range q.inner {
			total += inner.SizePackets()
		}
		if total != 5 {
			t.Fatalf("expected 5 packets total, got %d", total)
		}

		nonEmpty := 0
		for _, inner := range q.inner {
			if inner.SizePackets() > 0 {
				nonEmpty++
			}
		}
		if nonEmpty != 1 {
			t.Fatalf("expected exactly one inner queue to hold the flow, got %d", nonEmpty)
		}
	})

	t.Run("short packets hash to the fixed sentinel", func(t *testing.T) {
		if hashFlow(make([]byte, 10)) != 1 {
			t.Fatal("expected hash=1 for packets shorter than 28 bytes")
		}
	})

	t.Run("work-conserving mode counts and drains every enqueued packet", func(t *testing.T) {
		clock := NewFixedClock(1000)
		args, err := ParseQueueArgs("queues=4")
		if err != nil {
			t.Fatal(err)
		}
		q := NewECMPPacketQueue(args, clock)

		for i := uint32(0); i < 8; i++ {
			q.Enqueue(flowPacket(i%4, 64))
		}
		if q.SizePackets() != 8 {
			t.Fatalf("expected 8 packets, got %d", q.SizePackets())
		}

		drained := 0
		for !q.Empty() {
			_, ok := q.Dequeue()
			if ok {
				drained++
			} else {
				break
			}
		}
		if drained != 8 {
			t.Fatalf("expected to drain 8 packets, got %d", drained)
		}
	})
}
