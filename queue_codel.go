package netem

//
// CoDelPacketQueue: controlled delay AQM.
//
// Enqueue honours the same byte/packet caps as DropTail; the CoDel state
// machine runs on dequeue. Grounded on the shared dropping-queue base in
// queue.go and the CoDel backoff curve (interval/sqrt(count)).
//

import "math"

const (
	codelDefaultTargetMillis   = 5
	codelDefaultIntervalMillis = 100
)

// CoDelPacketQueue bounds standing queue delay by dropping when sojourn
// time exceeds target for longer than interval, backing off along a
// 1/sqrt(count) curve while it keeps dropping.
type CoDelPacketQueue struct {
	droppingPacketQueue
	clock Clock

	targetMillis   uint64
	intervalMillis uint64

	firstAboveTime uint64
	dropNext       uint64
	count          uint64
	dropping       bool
	lastDropTime   uint64
	haveLastDrop   bool
}

var _ AbstractPacketQueue = &CoDelPacketQueue{}

// NewCoDelPacketQueue constructs a CoDel queue from parsed args and a Clock.
func NewCoDelPacketQueue(args QueueArgs, clock Clock) *CoDelPacketQueue {
	target := args.Get("target")
	if target == 0 {
		target = codelDefaultTargetMillis
	}
	interval := args.Get("interval")
	if interval == 0 {
		interval = codelDefaultIntervalMillis
	}
	return &CoDelPacketQueue{
		droppingPacketQueue: newDroppingPacketQueue(args, 0),
		clock:               clock,
		targetMillis:        target,
		intervalMillis:      interval,
	}
}

// Enqueue implements AbstractPacketQueue using DropTail-style acceptance.
func (q *CoDelPacketQueue) Enqueue(pkt QueuedPacket) {
	if !q.goodWith(q.sizeBytes+pkt.Len(), q.sizePackets+1) {
		q.reportDrop(pkt.Len())
		return
	}
	q.accept(pkt)
}

// Dequeue implements AbstractPacketQueue, running the CoDel state machine.
func (q *CoDelPacketQueue) Dequeue() (QueuedPacket, bool) {
	now := q.clock.NowMillis()

	head, ok := q.peek()
	if !ok {
		q.firstAboveTime = 0
		return QueuedPacket{}, false
	}

	sojourn := now - head.ArrivalTime
	okToDrop := false
	if sojourn < q.targetMillis {
		q.firstAboveTime = 0
	} else {
		if q.firstAboveTime == 0 {
			q.firstAboveTime = now + q.intervalMillis
		} else if now >= q.firstAboveTime {
			okToDrop = true
		}
	}

	if q.dropping {
		for now >= q.dropNext && q.dropping {
			q.dropFront()
			q.count++
			head, ok = q.peek()
			if !ok {
				q.dropping = false
				q.firstAboveTime = 0
				break
			}
			sojourn = now - head.ArrivalTime
			if sojourn < q.targetMillis {
				q.dropping = false
				break
			}
			q.dropNext = q.dropNext + q.backoffInterval()
		}
	} else if okToDrop {
		q.dropFront()
		q.dropping = true
		if q.haveLastDrop && now-q.lastDropTime < 16*q.intervalMillis {
			if q.count > 2 {
				q.count -= 2
			} else {
				q.count = 1
			}
		} else {
			q.count = 1
		}
		q.lastDropNow(now)
		q.dropNext = now + q.backoffInterval()
	}

	return q.dequeue()
}

// lastDropNow records the current time as the most recent drop time.
func (q *CoDelPacketQueue) lastDropNow(now uint64) {
	q.lastDropTime = now
	q.haveLastDrop = true
}

// backoffInterval computes interval/sqrt(count), the CoDel backoff curve.
func (q *CoDelPacketQueue) backoffInterval() uint64 {
	if q.count == 0 {
		return q.intervalMillis
	}
	return uint64(float64(q.intervalMillis) / math.Sqrt(float64(q.count)))
}

// peek returns the head packet without removing it.
func (q *CoDelPacketQueue) peek() (QueuedPacket, bool) {
	if len(q.fifo) == 0 {
		return QueuedPacket{}, false
	}
	return q.fifo[0], true
}

// Empty implements AbstractPacketQueue.
func (q *CoDelPacketQueue) Empty() bool {
	return q.empty()
}

// SizeBytes implements AbstractPacketQueue.
func (q *CoDelPacketQueue) SizeBytes() int {
	return q.sizeBytes
}

// SizePackets implements AbstractPacketQueue.
func (q *CoDelPacketQueue) SizePackets() int {
	return q.sizePackets
}

// SetBDP implements AbstractPacketQueue.
func (q *CoDelPacketQueue) SetBDP(bdpBytes int) {
	q.setBDP(bdpBytes)
}

// SetDropHook implements AbstractPacketQueue.
func (q *CoDelPacketQueue) SetDropHook(fn func(int)) {
	q.setDropHook(fn)
}

// String implements AbstractPacketQueue.
func (q *CoDelPacketQueue) String() string {
	return "codel"
}
