package netem

import (
	"testing"

	"github.com/montanaflynn/stats"
)

type fakeSink struct {
	written [][]byte
}

func (s *fakeSink) WritePacket(contents []byte) error {
	s.written = append(s.written, contents)
	return nil
}

func TestIIDLossPolicy(t *testing.T) {
	t.Run("loss rate 0 never drops", func(t *testing.T) {
		p := NewIIDLossPolicy(0, 1)
		q := NewLossQueue(p)
		for i := 0; i < 1000; i++ {
			q.ReadPacket([]byte{byte(i)})
		}
		if q.Empty() {
			t.Fatal("expected packets to survive a zero loss rate")
		}
	})

	t.Run("loss rate 1 always drops", func(t *testing.T) {
		p := NewIIDLossPolicy(1, 1)
		q := NewLossQueue(p)
		for i := 0; i < 1000; i++ {
			q.ReadPacket([]byte{byte(i)})
		}
		if !q.Empty() {
			t.Fatal("expected every packet to be dropped at loss rate 1")
		}
	})
}

func TestDeterministicLossPolicy(t *testing.T) {
	p := NewDeterministicLossPolicy(0.5, 1)
	q := NewLossQueue(p)
	const n = 10000
	for i := 0; i < n; i++ {
		q.ReadPacket([]byte{byte(i)})
	}

	sink := &fakeSink{}
	if err := q.WritePackets(sink); err != nil {
		t.Fatal(err)
	}

	fraction := float64(len(sink.written)) / float64(n)
	median, err := stats.Median(stats.Float64Data{fraction})
	if err != nil {
		t.Fatal(err)
	}
	if median < 0.4 || median > 0.6 {
		t.Fatalf("expected survival fraction near 0.5, got %f", median)
	}
}

func TestSwitchingLinkPolicy(t *testing.T) {
	t.Run("scenario: mean_on=mean_off=10 over 10000ms arrival stream", func(t *testing.T) {
		clock := NewFixedClock(0)
		p := NewSwitchingLinkPolicy(clock, 10, 10, 1)

		drops := 0
		for i := 0; i < 10_000; i++ {
			clock.Set(uint64(i))
			if p.DropPacket(nil) {
				drops++
			}
		}
		if drops < 3000 || drops > 7000 {
			t.Fatalf("expected drops in [3000, 7000], got %d", drops)
		}
	})

	t.Run("bound clamps overflow-prone exponential draws", func(t *testing.T) {
		if got := bound(1 << 40); got != 1<<30 {
			t.Fatalf("expected bound to clamp to 1<<30, got %d", got)
		}
		if got := bound(5); got != 5 {
			t.Fatalf("expected bound to pass through small values, got %d", got)
		}
	})
}
