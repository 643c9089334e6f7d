package netem

//
// ECMPPacketQueue: flow-hashed multiplexing of inner drop-tail queues with
// optional jitter and non-work-conserving mode.
//
// Grounded on original_source/src/packet/ecmp_packet_queue.{hh,cc}: FNV-1
// (not FNV-1a) 64-bit hash over the 4-byte flow identifier at offset 24.
//

import (
	"math"
	"math/rand"
)

const (
	fnv1_64Init    = uint64(0xcbf29ce484222325)
	fnv64Prime     = uint64(0x100000001b3)
	flowHashOffset = 24
	flowHashLen    = 4
)

// fnv1Hash64 computes the classic (non-"a") FNV-1 hash: multiply by the
// prime, then XOR in the next byte, matching fnv_64_buf in the original
// link-emulation tooling this discipline is modeled on.
func fnv1Hash64(data []byte, hval uint64) uint64 {
	for _, b := range data {
		hval *= fnv64Prime
		hval ^= uint64(b)
	}
	return hval
}

// hashFlow returns the 64-bit flow hash for a packet, or 1 if the packet
// is too short to carry a flow identifier at the expected offset.
func hashFlow(contents []byte) uint64 {
	if len(contents) < flowHashOffset+flowHashLen {
		return 1
	}
	return fnv1Hash64(contents[flowHashOffset:flowHashOffset+flowHashLen], fnv1_64Init)
}

// ECMPPacketQueue hashes each arriving packet's flow identifier to one of
// numQueues inner drop-tail queues, then releases packets round-robin from
// curr_queue, optionally gated by Poisson jitter and optionally stopping
// at the first inspected slot each tick (non-work-conserving mode).
type ECMPPacketQueue struct {
	inner []*DropTailPacketQueue

	numQueues      int
	currQueue      int
	sizeBytesTotal int
	sizePktsTotal  int

	workConserving bool
	meanJitter     uint64
	clock          Clock
	rng            *rand.Rand
}

var _ AbstractPacketQueue = &ECMPPacketQueue{}

// NewECMPPacketQueue constructs an ECMP queue. args must set "queues" to a
// value greater than zero.
func NewECMPPacketQueue(args QueueArgs, clock Clock) *ECMPPacketQueue {
	numQueues := int(args.Get("queues"))
	if numQueues <= 0 {
		numQueues = 1
	}
	inner := make([]*DropTailPacketQueue, numQueues)
	for i := range inner {
		inner[i] = NewDropTailPacketQueue(args)
	}
	seed := args.Get("seed")
	return &ECMPPacketQueue{
		inner:          inner,
		numQueues:      numQueues,
		workConserving: args.Get("nonworkconserving") == 0,
		meanJitter:     args.Get("mean_jitter"),
		clock:          clock,
		rng:            rand.New(rand.NewSource(int64(seed))),
	}
}

// Enqueue implements AbstractPacketQueue.
func (q *ECMPPacketQueue) Enqueue(pkt QueuedPacket) {
	hash := hashFlow(pkt.Contents)
	qid := int(hash % uint64(q.numQueues))
	inner := q.inner[qid]
	before := inner.SizePackets()
	inner.Enqueue(pkt)
	if inner.SizePackets() > before {
		q.sizeBytesTotal += pkt.Len()
		q.sizePktsTotal++
	}
}

// poissonSample draws from a Poisson(meanJitter) distribution using
// Knuth's algorithm, returning milliseconds of jitter.
func (q *ECMPPacketQueue) poissonSample() uint64 {
	if q.meanJitter == 0 {
		return 0
	}
	lambda := float64(q.meanJitter)
	l := math.Exp(-lambda)
	k := uint64(0)
	p := 1.0
	for {
		k++
		p *= q.rng.Float64()
		if p <= l {
			return k - 1
		}
	}
}

// Dequeue implements AbstractPacketQueue. It scans up to numQueues inner
// queues starting at currQueue, returning the first eligible packet found.
// If no eligible packet is found it returns ok=false, which means "no
// release this tick": the caller must not treat it as a queue-level Empty().
func (q *ECMPPacketQueue) Dequeue() (QueuedPacket, bool) {
	now := q.clock.NowMillis()

	i := 0
	var result QueuedPacket
	found := false
	for i < q.numQueues {
		idx := (q.currQueue + i) % q.numQueues
		inner := q.inner[idx]
		if !inner.Empty() {
			head := inner.fifo[0]
			eligible := q.meanJitter == 0 || now-head.ArrivalTime >= q.poissonSample()
			if eligible {
				result, found = inner.Dequeue()
				q.sizeBytesTotal -= result.Len()
				q.sizePktsTotal--
				i++
				break
			}
		}
		if !q.workConserving {
			i++
			break
		}
		i++
	}
	q.currQueue = (q.currQueue + i) % q.numQueues

	return result, found
}

// Empty implements AbstractPacketQueue.
func (q *ECMPPacketQueue) Empty() bool {
	return q.sizeBytesTotal == 0
}

// SizeBytes implements AbstractPacketQueue.
func (q *ECMPPacketQueue) SizeBytes() int {
	return q.sizeBytesTotal
}

// SizePackets implements AbstractPacketQueue.
func (q *ECMPPacketQueue) SizePackets() int {
	return q.sizePktsTotal
}

// SetBDP implements AbstractPacketQueue, propagating to every inner queue.
func (q *ECMPPacketQueue) SetBDP(bdpBytes int) {
	for _, inner := range q.inner {
		inner.SetBDP(bdpBytes)
	}
}

// SetDropHook implements AbstractPacketQueue, propagating to every inner
// drop-tail queue; drops are always caused by an inner queue's own limits.
func (q *ECMPPacketQueue) SetDropHook(fn func(int)) {
	for _, inner := range q.inner {
		inner.SetDropHook(fn)
	}
}

// String implements AbstractPacketQueue.
func (q *ECMPPacketQueue) String() string {
	s := "ecmp {"
	for _, inner := range q.inner {
		s += inner.String()
	}
	s += "}"
	return s
}
