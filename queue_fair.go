package netem

//
// FairPacketQueue: flow-hashed round-robin of inner drop-tail queues.
//
// Grounded on original_source/src/packet/fair_packet_queue.{hh,cc}: the
// hash interprets bytes 24..28 as a little-endian uint32, unlike ECMP's
// FNV-1 hash.
//

import "encoding/binary"

// FairPacketQueue is like [ECMPPacketQueue] but without jitter or
// non-work-conserving mode, and with a simpler hash: the raw little-endian
// uint32 at offset 24.
type FairPacketQueue struct {
	inner []*DropTailPacketQueue

	numQueues      int
	currQueue      int
	sizeBytesTotal int
	sizePktsTotal  int
}

var _ AbstractPacketQueue = &FairPacketQueue{}

// NewFairPacketQueue constructs a fair queue. args must set "queues" to a
// value greater than zero.
func NewFairPacketQueue(args QueueArgs) *FairPacketQueue {
	numQueues := int(args.Get("queues"))
	if numQueues <= 0 {
		numQueues = 1
	}
	inner := make([]*DropTailPacketQueue, numQueues)
	for i := range inner {
		inner[i] = NewDropTailPacketQueue(args)
	}
	return &FairPacketQueue{inner: inner, numQueues: numQueues}
}

// hashFlowFair interprets bytes 24..28 of contents as a little-endian
// uint32. Packets shorter than 28 bytes hash to 0.
func hashFlowFair(contents []byte) uint32 {
	if len(contents) < flowHashOffset+flowHashLen {
		return 0
	}
	return binary.LittleEndian.Uint32(contents[flowHashOffset : flowHashOffset+flowHashLen])
}

// Enqueue implements AbstractPacketQueue.
func (q *FairPacketQueue) Enqueue(pkt QueuedPacket) {
	qid := int(hashFlowFair(pkt.Contents) % uint32(q.numQueues))
	inner := q.inner[qid]
	before := inner.SizePackets()
	inner.Enqueue(pkt)
	if inner.SizePackets() > before {
		q.sizeBytesTotal += pkt.Len()
		q.sizePktsTotal++
	}
}

// Dequeue implements AbstractPacketQueue. It advances currQueue by one
// slot per call, wrapping around until it finds a non-empty inner queue.
// If every inner queue is empty it returns (QueuedPacket{}, false) rather
// than looping forever.
func (q *FairPacketQueue) Dequeue() (QueuedPacket, bool) {
	if q.Empty() {
		return QueuedPacket{}, false
	}
	for i := 0; i < q.numQueues; i++ {
		q.currQueue = (q.currQueue + 1) % q.numQueues
		inner := q.inner[q.currQueue]
		if !inner.Empty() {
			pkt, ok := inner.Dequeue()
			if ok {
				q.sizeBytesTotal -= pkt.Len()
				q.sizePktsTotal--
			}
			return pkt, ok
		}
	}
	return QueuedPacket{}, false
}

// Empty implements AbstractPacketQueue.
func (q *FairPacketQueue) Empty() bool {
	return q.sizeBytesTotal == 0
}

// SizeBytes implements AbstractPacketQueue.
func (q *FairPacketQueue) SizeBytes() int {
	return q.sizeBytesTotal
}

// SizePackets implements AbstractPacketQueue.
func (q *FairPacketQueue) SizePackets() int {
	return q.sizePktsTotal
}

// SetBDP implements AbstractPacketQueue, propagating to every inner queue.
func (q *FairPacketQueue) SetBDP(bdpBytes int) {
	for _, inner := range q.inner {
		inner.SetBDP(bdpBytes)
	}
}

// SetDropHook implements AbstractPacketQueue, propagating to every inner
// drop-tail queue; drops are always caused by an inner queue's own limits.
func (q *FairPacketQueue) SetDropHook(fn func(int)) {
	for _, inner := range q.inner {
		inner.SetDropHook(fn)
	}
}

// String implements AbstractPacketQueue.
func (q *FairPacketQueue) String() string {
	s := "fq {"
	for _, inner := range q.inner {
		s += inner.String()
	}
	s += "}"
	return s
}
