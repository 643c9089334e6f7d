package netem

//
// LossQueue family: IID Bernoulli loss, deterministic loss, and the
// Markov-modulated switching-link on/off model.
//
// Grounded on original_source/src/frontend/loss_queue.cc.
//

import (
	"math"
	"math/rand"
)

const maxWaitMillis = uint64(1<<16 - 1)

// LossPolicy decides whether an arriving packet's bytes should be dropped.
type LossPolicy interface {
	DropPacket(contents []byte) bool
}

// LossQueue wraps an inner FIFO behind a [LossPolicy]. ReadPacket asks the
// policy before admitting a packet; WritePackets drains everything queued
// into a sink immediately; WaitTime reports how long the caller can sleep
// before there is something to deliver.
type LossQueue struct {
	policy LossPolicy
	fifo   [][]byte
}

// NewLossQueue wraps policy in a [LossQueue].
func NewLossQueue(policy LossPolicy) *LossQueue {
	return &LossQueue{policy: policy}
}

// ReadPacket offers contents to the policy; if not dropped, it is queued.
func (q *LossQueue) ReadPacket(contents []byte) {
	if q.policy.DropPacket(contents) {
		return
	}
	q.fifo = append(q.fifo, contents)
}

// WritePackets drains every queued packet into sink in order, stopping at
// the first error.
func (q *LossQueue) WritePackets(sink PacketSink) error {
	for len(q.fifo) > 0 {
		pkt := q.fifo[0]
		q.fifo = q.fifo[1:]
		if err := sink.WritePacket(pkt); err != nil {
			return err
		}
	}
	return nil
}

// WaitTime returns 0 if packets are ready for delivery, or the saturated
// "effectively infinite" sentinel (2^16-1 ms) otherwise. Policies that
// track their own timing provide their own wait: [SwitchingLinkPolicy.WaitTime]
// combines this queue's state with the time until the next on/off switch.
func (q *LossQueue) WaitTime() uint64 {
	if len(q.fifo) == 0 {
		return maxWaitMillis
	}
	return 0
}

// Empty reports whether the inner FIFO currently holds no packets.
func (q *LossQueue) Empty() bool {
	return len(q.fifo) == 0
}

// IIDLossPolicy drops each packet independently with a fixed probability.
type IIDLossPolicy struct {
	lossRate float64
	rng      *rand.Rand
}

var _ LossPolicy = &IIDLossPolicy{}

// NewIIDLossPolicy constructs an IID Bernoulli loss policy. lossRate is a
// fraction in [0, 1]. seed seeds the per-queue PRNG.
func NewIIDLossPolicy(lossRate float64, seed int64) *IIDLossPolicy {
	return &IIDLossPolicy{lossRate: lossRate, rng: rand.New(rand.NewSource(seed))}
}

// DropPacket implements LossPolicy.
func (p *IIDLossPolicy) DropPacket([]byte) bool {
	return p.rng.Float64() < p.lossRate
}

// DeterministicLossPolicy drops with the same aggregate probability as
// [IIDLossPolicy] but via the original tool's integer-modulo draw,
// preserved here for parity with traces that depend on its exact
// distribution boundary.
type DeterministicLossPolicy struct {
	lossRate float64
	rng      *rand.Rand
}

var _ LossPolicy = &DeterministicLossPolicy{}

// NewDeterministicLossPolicy constructs a deterministic-loss policy.
func NewDeterministicLossPolicy(lossRate float64, seed int64) *DeterministicLossPolicy {
	return &DeterministicLossPolicy{lossRate: lossRate, rng: rand.New(rand.NewSource(seed))}
}

// DropPacket implements LossPolicy.
func (p *DeterministicLossPolicy) DropPacket([]byte) bool {
	draw := p.rng.Intn(10000)
	return draw < int(p.lossRate*10000)
}

// bound clamps x to 1<<30 to avoid overflow when an exponential mean is 0.
func bound(x float64) uint64 {
	const limit = uint64(1) << 30
	if x > float64(limit) {
		return limit
	}
	if x < 0 {
		return 0
	}
	return uint64(x)
}

// SwitchingLinkPolicy models an on/off Markov-modulated link: packets are
// dropped while the link is off. The on and off sojourn times are drawn
// from independent exponential distributions parameterised by their mean
// durations in seconds.
type SwitchingLinkPolicy struct {
	clock Clock
	rng   *rand.Rand

	linkIsOn       bool
	onRate         float64
	offRate        float64
	nextSwitchTime uint64
}

var _ LossPolicy = &SwitchingLinkPolicy{}

// NewSwitchingLinkPolicy constructs a switching-link policy. meanOnTime
// and meanOffTime are in seconds; clock supplies the millisecond "now"
// used to seed and evolve next_switch_time.
func NewSwitchingLinkPolicy(clock Clock, meanOnTime, meanOffTime float64, seed int64) *SwitchingLinkPolicy {
	const msPerSecond = 1000.0
	return &SwitchingLinkPolicy{
		clock:          clock,
		rng:            rand.New(rand.NewSource(seed)),
		linkIsOn:       false,
		onRate:         1.0 / (msPerSecond * meanOffTime),
		offRate:        1.0 / (msPerSecond * meanOnTime),
		nextSwitchTime: clock.NowMillis(),
	}
}

// expSample draws an Exp(rate) sample; rate is in 1/milliseconds.
func (p *SwitchingLinkPolicy) expSample(rate float64) float64 {
	if rate <= 0 {
		return math.MaxFloat64
	}
	return -math.Log(1-p.rng.Float64()) / rate
}

// advance flips linkIsOn and reschedules nextSwitchTime for every switch
// boundary already passed, matching the original tool's catch-up loop.
func (p *SwitchingLinkPolicy) advance(now uint64) {
	for p.nextSwitchTime <= now {
		p.linkIsOn = !p.linkIsOn
		rate := p.offRate
		if !p.linkIsOn {
			rate = p.onRate
		}
		p.nextSwitchTime += bound(p.expSample(rate))
	}
}

// DropPacket implements LossPolicy.
func (p *SwitchingLinkPolicy) DropPacket([]byte) bool {
	p.advance(p.clock.NowMillis())
	return !p.linkIsOn
}

// WaitTime returns the minimum of the inner loss-queue wait and the time
// remaining until the next on/off switch, saturated at 2^16-1 ms.
func (p *SwitchingLinkPolicy) WaitTime(inner *LossQueue) uint64 {
	now := p.clock.NowMillis()
	p.advance(now)

	if !inner.Empty() {
		return 0
	}

	remaining := p.nextSwitchTime - now
	if remaining > maxWaitMillis {
		return maxWaitMillis
	}
	return remaining
}
