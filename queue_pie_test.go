package netem

import "testing"

func TestPIEPacketQueue(t *testing.T) {
	t.Run("invariant: drop_prob stays within [0,1]", func(t *testing.T) {
		clock := NewFixedClock(0)
		args, err := ParseQueueArgs("qdelay_ref=20,max_burst=100")
		if err != nil {
			t.Fatal(err)
		}
		q := NewPIEPacketQueue(args, clock, 1.0)

		for i := 0; i < 2000; i++ {
			q.Enqueue(NewQueuedPacket(make([]byte, 500), clock.NowMillis()))
			clock.Advance(1)
			if i%3 == 0 {
				q.Dequeue()
			}
			if q.dropProb < 0 || q.dropProb > 1 {
				t.Fatalf("drop_prob out of range: %f", q.dropProb)
			}
		}
	})

	t.Run("burst allowance forces acceptance early on", func(t *testing.T) {
		clock := NewFixedClock(0)
		q := NewPIEPacketQueue(QueueArgs{}, clock, 1.0)
		q.burstAllowance = 100
		q.Enqueue(NewQueuedPacket(make([]byte, 100), 0))
		if q.SizePackets() != 1 {
			t.Fatal("expected the packet to be accepted during burst allowance")
		}
	})
}
