package netem

//
// QueuedPacket: the unit of data the core moves around.
//

// QueuedPacket is an immutable packet sitting in, or passing through, an
// [AbstractPacketQueue]. Once enqueued it is owned by exactly one queue
// at a time; nothing in this module mutates Contents after construction.
type QueuedPacket struct {
	// Contents is the raw packet payload.
	Contents []byte

	// ArrivalTime is the millisecond timestamp at which this packet was
	// enqueued, used by CoDel/PIE to compute sojourn time and by ECMP to
	// compute jitter-gated eligibility.
	ArrivalTime uint64
}

// NewQueuedPacket wraps contents with the given arrival time. The caller
// must not mutate contents afterwards.
func NewQueuedPacket(contents []byte, arrivalTime uint64) QueuedPacket {
	return QueuedPacket{Contents: contents, ArrivalTime: arrivalTime}
}

// Empty reports whether this is the zero-value sentinel packet that
// dequeue-style operations return to mean "nothing to release right now."
func (p QueuedPacket) Empty() bool {
	return len(p.Contents) == 0
}

// Len returns the packet size in bytes.
func (p QueuedPacket) Len() int {
	return len(p.Contents)
}

// PacketSource produces arriving packets for one direction of a link. It
// is the host-provided collaborator named in §1 of the specification: the
// core never decides how packets physically arrive.
type PacketSource interface {
	// ReadPacket returns the next available packet without blocking, or
	// (QueuedPacket{}, false) if none is currently available. It never
	// blocks and never returns an error for "nothing available"; a fatal
	// source failure should be surfaced some other way the host controls
	// (e.g. closing the underlying NIC and stopping the shaper).
	ReadPacket() (QueuedPacket, bool)
}

// PacketSink accepts packets released by a [LinkShaper]. It is the
// host-provided collaborator on the delivery side.
type PacketSink interface {
	// WritePacket delivers contents to the sink. It returns
	// [ErrSinkClosed] once the direction has been shut down; any other
	// error is treated as fatal to the owning [LinkShaper] direction.
	WritePacket(contents []byte) error
}
