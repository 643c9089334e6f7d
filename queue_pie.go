package netem

//
// PIEPacketQueue: Proportional Integral controller for queueing delay.
//
// Grounded on the shared dropping-queue base in queue.go; the control law
// itself follows the PIE draft's drop-probability update.
//

import "math/rand"

const (
	pieDefaultQDelayRefMillis = 20
	pieDefaultMaxBurstMillis  = 100
	pieDefaultTUpdateMillis   = 30
	pieAlpha                  = 0.125
	pieBeta                   = 1.25
	pieDQThresholdBytes       = 10_000
)

// PIEPacketQueue probabilistically drops arriving packets based on an
// estimate of queueing delay derived from the measured departure rate.
type PIEPacketQueue struct {
	droppingPacketQueue
	clock Clock
	rng   *rand.Rand

	qdelayRefMillis uint64
	maxBurstMillis  uint64
	tUpdateMillis   uint64

	dropProb        float64
	qdelayOldMillis float64
	burstAllowance  float64
	lastUpdateTime  uint64
	haveLastUpdate  bool

	// departure-rate measurement: accumulate dequeued bytes since
	// measureStart until dqThreshold bytes have left, then derive a rate.
	measureStartTime  uint64
	measuredBytes     int
	departureRate     float64
	haveDepartureRate bool

	// linkCapacityBytesPerMillis is the OPTIONAL fallback used before the
	// first full departure-rate measurement window completes.
	linkCapacityBytesPerMillis float64
}

var _ AbstractPacketQueue = &PIEPacketQueue{}

// NewPIEPacketQueue constructs a PIE queue from parsed args and a Clock.
// linkCapacityBytesPerMillis is the OPTIONAL pre-measurement delay-estimate
// fallback; pass 0 if unknown.
func NewPIEPacketQueue(args QueueArgs, clock Clock, linkCapacityBytesPerMillis float64) *PIEPacketQueue {
	qdelayRef := args.Get("qdelay_ref")
	if qdelayRef == 0 {
		qdelayRef = pieDefaultQDelayRefMillis
	}
	maxBurst := args.Get("max_burst")
	if maxBurst == 0 {
		maxBurst = pieDefaultMaxBurstMillis
	}
	seed := args.Get("seed")
	return &PIEPacketQueue{
		droppingPacketQueue:        newDroppingPacketQueue(args, 0),
		clock:                      clock,
		rng:                        rand.New(rand.NewSource(int64(seed))),
		qdelayRefMillis:            qdelayRef,
		maxBurstMillis:             maxBurst,
		tUpdateMillis:              pieDefaultTUpdateMillis,
		linkCapacityBytesPerMillis: linkCapacityBytesPerMillis,
	}
}

// currentQDelayMillis estimates queueing delay from occupancy and the
// measured (or fallback) departure rate. Returns ok=false if neither is
// available yet, meaning drop_prob should not be adjusted.
func (q *PIEPacketQueue) currentQDelayMillis() (float64, bool) {
	rate := q.departureRate
	if !q.haveDepartureRate {
		if q.linkCapacityBytesPerMillis <= 0 {
			return 0, false
		}
		rate = q.linkCapacityBytesPerMillis
	}
	if rate <= 0 {
		return 0, false
	}
	return float64(q.sizeBytes) / rate, true
}

// maybeUpdate runs the periodic drop-prob update if t_update has elapsed.
func (q *PIEPacketQueue) maybeUpdate(now uint64) {
	if q.haveLastUpdate && now-q.lastUpdateTime < q.tUpdateMillis {
		return
	}
	q.lastUpdateTime = now
	q.haveLastUpdate = true

	qdelay, ok := q.currentQDelayMillis()
	if !ok {
		return
	}

	qdelayRef := float64(q.qdelayRefMillis)
	q.dropProb += pieAlpha*(qdelay-qdelayRef) + pieBeta*(qdelay-q.qdelayOldMillis)
	if q.dropProb < 0 {
		q.dropProb = 0
	}
	if q.dropProb > 1 {
		q.dropProb = 1
	}

	half := qdelayRef / 2
	if q.dropProb == 0 && qdelay < half && q.qdelayOldMillis < half {
		q.burstAllowance = float64(q.maxBurstMillis)
	}
	q.qdelayOldMillis = qdelay

	if q.burstAllowance > 0 {
		q.burstAllowance -= float64(q.tUpdateMillis)
		if q.burstAllowance < 0 {
			q.burstAllowance = 0
		}
	}
}

// Enqueue implements AbstractPacketQueue.
func (q *PIEPacketQueue) Enqueue(pkt QueuedPacket) {
	if !q.goodWith(q.sizeBytes+pkt.Len(), q.sizePackets+1) {
		q.reportDrop(pkt.Len())
		return
	}

	now := q.clock.NowMillis()
	q.maybeUpdate(now)

	if q.burstAllowance <= 0 {
		qdelayRef := float64(q.qdelayRefMillis)
		forceAccept := q.qdelayOldMillis < qdelayRef/2 && q.dropProb < 0.2
		if !forceAccept && q.rng.Float64() < q.dropProb {
			q.reportDrop(pkt.Len())
			return
		}
	}

	q.accept(pkt)
}

// Dequeue implements AbstractPacketQueue, feeding the departure-rate
// measurement used to estimate queueing delay.
func (q *PIEPacketQueue) Dequeue() (QueuedPacket, bool) {
	now := q.clock.NowMillis()
	pkt, ok := q.dequeue()
	if !ok {
		return QueuedPacket{}, false
	}

	if q.measuredBytes == 0 {
		q.measureStartTime = now
	}
	q.measuredBytes += pkt.Len()
	if q.measuredBytes >= pieDQThresholdBytes {
		elapsed := now - q.measureStartTime
		if elapsed > 0 {
			q.departureRate = float64(q.measuredBytes) / float64(elapsed)
			q.haveDepartureRate = true
		}
		q.measuredBytes = 0
	}

	return pkt, true
}

// Empty implements AbstractPacketQueue.
func (q *PIEPacketQueue) Empty() bool {
	return q.empty()
}

// SizeBytes implements AbstractPacketQueue.
func (q *PIEPacketQueue) SizeBytes() int {
	return q.sizeBytes
}

// SizePackets implements AbstractPacketQueue.
func (q *PIEPacketQueue) SizePackets() int {
	return q.sizePackets
}

// SetBDP implements AbstractPacketQueue.
func (q *PIEPacketQueue) SetBDP(bdpBytes int) {
	q.setBDP(bdpBytes)
}

// SetDropHook implements AbstractPacketQueue.
func (q *PIEPacketQueue) SetDropHook(fn func(int)) {
	q.setDropHook(fn)
}

// String implements AbstractPacketQueue.
func (q *PIEPacketQueue) String() string {
	return "pie"
}
