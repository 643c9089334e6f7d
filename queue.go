package netem

//
// AbstractPacketQueue contract and the shared dropping-queue base.
//
// Grounded on the commented-out DroppingPacketQueue reference copy embedded
// in original_source/src/packet/ecmp_packet_queue.cc (good/good_with/accept/
// size_bytes/size_packets).
//

// AbstractPacketQueue is the polymorphic capability every queue discipline
// implements: [InfinitePacketQueue], [DropTailPacketQueue],
// [DropHeadPacketQueue], [CoDelPacketQueue], [PIEPacketQueue],
// [ECMPPacketQueue], and [FairPacketQueue].
type AbstractPacketQueue interface {
	// Enqueue takes ownership of pkt. It may drop pkt itself, drop
	// already-queued packets to make room, or both. It never fails.
	Enqueue(pkt QueuedPacket)

	// Dequeue removes and returns the head packet. The caller must check
	// Empty first; calling Dequeue on an empty queue returns the zero
	// value QueuedPacket{} and ok=false rather than panicking.
	Dequeue() (pkt QueuedPacket, ok bool)

	// Empty reports whether the queue currently holds no packets.
	Empty() bool

	// SizeBytes returns the current aggregate byte occupancy.
	SizeBytes() int

	// SizePackets returns the current packet occupancy.
	SizePackets() int

	// SetBDP sets the BDP-derived byte cap to the current multiplier
	// times bdpBytes. Idempotent; a zero multiplier (the default) makes
	// this a no-op.
	SetBDP(bdpBytes int)

	// SetDropHook installs fn to be called, synchronously, with the byte
	// length of every packet the queue drops from then on, whether
	// rejected on arrival or evicted to make room. A nil fn disables
	// reporting. Queues that never drop (InfinitePacketQueue) ignore it.
	SetDropHook(fn func(bytesDropped int))

	// String returns a human description for logs.
	String() string
}

// droppingPacketQueue is the shared byte/packet/BDP bookkeeping every
// concrete queue discipline embeds. It is not itself an AbstractPacketQueue:
// concrete disciplines define their own Enqueue policy around accept/evict.
type droppingPacketQueue struct {
	byteLimit          int
	packetLimit        int
	bdpByteLimit       int
	bdpLimitMultiplier int
	sizeBytes          int
	sizePackets        int
	fifo               []QueuedPacket
	onDrop             func(bytesDropped int)
}

// newDroppingPacketQueue builds the shared base from parsed args. A
// multiplier of 0 (the default for disciplines that never call SetBDP with
// a nonzero multiplier configured) keeps the BDP cap permanently inactive.
func newDroppingPacketQueue(args QueueArgs, bdpLimitMultiplier int) droppingPacketQueue {
	return droppingPacketQueue{
		byteLimit:          int(args.Get("bytes")),
		packetLimit:        int(args.Get("packets")),
		bdpByteLimit:       0,
		bdpLimitMultiplier: bdpLimitMultiplier,
	}
}

// goodWith reports whether totals (b, p) would satisfy every active
// (nonzero) limit among byteLimit, bdpByteLimit, and packetLimit.
func (q *droppingPacketQueue) goodWith(b, p int) bool {
	if q.byteLimit != 0 && b > q.byteLimit {
		return false
	}
	if q.bdpByteLimit != 0 && b > q.bdpByteLimit {
		return false
	}
	if q.packetLimit != 0 && p > q.packetLimit {
		return false
	}
	return true
}

// good reports whether the current occupancy satisfies every active limit.
func (q *droppingPacketQueue) good() bool {
	return q.goodWith(q.sizeBytes, q.sizePackets)
}

// accept appends pkt to the fifo and updates the occupancy counters. It
// does not check limits; callers decide policy around it.
func (q *droppingPacketQueue) accept(pkt QueuedPacket) {
	q.fifo = append(q.fifo, pkt)
	q.sizeBytes += pkt.Len()
	q.sizePackets++
}

// dropFront discards the head packet without returning it, updating the
// occupancy counters. Used by DropHead-style eviction.
func (q *droppingPacketQueue) dropFront() {
	if len(q.fifo) == 0 {
		return
	}
	head := q.fifo[0]
	q.fifo = q.fifo[1:]
	q.sizeBytes -= head.Len()
	q.sizePackets--
	q.reportDrop(head.Len())
}

// dropBack discards the tail packet without returning it, updating the
// occupancy counters. Used by DropTail to reject the just-enqueued packet.
func (q *droppingPacketQueue) dropBack() {
	if len(q.fifo) == 0 {
		return
	}
	last := len(q.fifo) - 1
	tail := q.fifo[last]
	q.fifo = q.fifo[:last]
	q.sizeBytes -= tail.Len()
	q.sizePackets--
	q.reportDrop(tail.Len())
}

// reportDrop notifies the installed drop hook, if any. Concrete
// disciplines also call this directly when they reject an arriving
// packet before it ever reaches the fifo.
func (q *droppingPacketQueue) reportDrop(bytesDropped int) {
	if q.onDrop != nil {
		q.onDrop(bytesDropped)
	}
}

// setDropHook implements the shared half of AbstractPacketQueue.SetDropHook.
func (q *droppingPacketQueue) setDropHook(fn func(int)) {
	q.onDrop = fn
}

// dequeue pops and returns the head packet, updating the occupancy
// counters. Returns ok=false if the fifo is empty.
func (q *droppingPacketQueue) dequeue() (QueuedPacket, bool) {
	if len(q.fifo) == 0 {
		return QueuedPacket{}, false
	}
	head := q.fifo[0]
	q.fifo = q.fifo[1:]
	q.sizeBytes -= head.Len()
	q.sizePackets--
	return head, true
}

// empty reports whether the fifo currently holds no packets.
func (q *droppingPacketQueue) empty() bool {
	return len(q.fifo) == 0
}

// setBDP implements AbstractPacketQueue.SetBDP for the shared base.
func (q *droppingPacketQueue) setBDP(bdpBytes int) {
	if q.bdpLimitMultiplier == 0 {
		return
	}
	q.bdpByteLimit = q.bdpLimitMultiplier * bdpBytes
}
