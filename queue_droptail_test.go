package netem

import "testing"

func TestDropTailPacketQueue(t *testing.T) {
	t.Run("scenario: three 1500-byte packets with a 3000-byte cap", func(t *testing.T) {
		args, err := ParseQueueArgs("bytes=3000")
		if err != nil {
			t.Fatal(err)
		}
		q := NewDropTailPacketQueue(args)

		a := NewQueuedPacket(make([]byte, 1500), 0)
		b := NewQueuedPacket(make([]byte, 1500), 1)
		c := NewQueuedPacket(make([]byte, 1500), 2)

		q.Enqueue(a)
		q.Enqueue(b)
		q.Enqueue(c)

		if q.SizeBytes() != 3000 {
			t.Fatalf("expected size_bytes=3000, got %d", q.SizeBytes())
		}
		if q.SizePackets() != 2 {
			t.Fatalf("expected size_packets=2, got %d", q.SizePackets())
		}

		first, ok := q.Dequeue()
		if !ok || first.ArrivalTime != 0 {
			t.Fatal("expected A to survive")
		}
		second, ok := q.Dequeue()
		if !ok || second.ArrivalTime != 1 {
			t.Fatal("expected B to survive")
		}
		if !q.Empty() {
			t.Fatal("expected queue to be empty")
		}
	})

	t.Run("dequeue on empty queue returns ok=false", func(t *testing.T) {
		q := NewDropTailPacketQueue(QueueArgs{})
		if _, ok := q.Dequeue(); ok {
			t.Fatal("expected ok=false")
		}
	})

	t.Run("SetDropHook reports the size of every rejected packet", func(t *testing.T) {
		args, err := ParseQueueArgs("bytes=1500")
		if err != nil {
			t.Fatal(err)
		}
		q := NewDropTailPacketQueue(args)
		var dropped []int
		q.SetDropHook(func(n int) { dropped = append(dropped, n) })

		q.Enqueue(NewQueuedPacket(make([]byte, 1500), 0))
		q.Enqueue(NewQueuedPacket(make([]byte, 1500), 1))

		if len(dropped) != 1 || dropped[0] != 1500 {
			t.Fatalf("expected a single 1500-byte drop, got %v", dropped)
		}
	})

	t.Run("good holds after every enqueue", func(t *testing.T) {
		args, err := ParseQueueArgs("bytes=1500,packets=1")
		if err != nil {
			t.Fatal(err)
		}
		q := NewDropTailPacketQueue(args)
		for i := 0; i < 10; i++ {
			q.Enqueue(NewQueuedPacket(make([]byte, 100), uint64(i)))
			if !q.good() {
				t.Fatal("good() does not hold after enqueue")
			}
		}
	})
}
