package netem

//
// HostNICAdapter and EmulatedLink: wiring a pair of HostNICs into the
// PacketSource/PacketSink pair each LinkShaper direction needs.
//
// Adapted from the teacher's point-to-point link wiring, generalized from
// a fixed delay/loss-rate pair to a queue-discipline-plus-trace pair per
// direction.
//

import (
	"context"
	"errors"
	"io"
	"syscall"
)

// HostNICAdapter bridges a [NIC] into a [PacketSource]/[PacketSink] pair.
type HostNICAdapter struct {
	nic   NIC
	clock Clock
}

var _ PacketSource = &HostNICAdapter{}
var _ PacketSink = &HostNICAdapter{}

// NewHostNICAdapter wraps nic for use by a [LinkShaper] direction.
func NewHostNICAdapter(nic NIC, clock Clock) *HostNICAdapter {
	return &HostNICAdapter{nic: nic, clock: clock}
}

// ReadPacket implements PacketSource. It never blocks: if no frame is
// currently queued on the NIC, it reports ok=false.
func (a *HostNICAdapter) ReadPacket() (QueuedPacket, bool) {
	select {
	case <-a.nic.FrameAvailable():
	default:
		return QueuedPacket{}, false
	}
	frame, err := a.nic.ReadFrameNonblocking()
	if err != nil {
		return QueuedPacket{}, false
	}
	return NewQueuedPacket(frame.Payload, a.clock.NowMillis()), true
}

// WritePacket implements PacketSink.
func (a *HostNICAdapter) WritePacket(contents []byte) error {
	err := a.nic.WriteFrame(&Frame{Payload: contents})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, syscall.EPIPE) || errors.Is(err, io.EOF):
		return ErrSinkClosed
	default:
		return err
	}
}

// EmulatedLink pairs two [LinkShaper] directions, uplink and downlink,
// each with its own queue discipline and trace, connecting two
// [HostNIC]s through their [HostNICAdapter] wrappers.
type EmulatedLink struct {
	Uplink   *LinkShaper
	Downlink *LinkShaper
}

// NewEmulatedLink builds the two directions between local and remote. Each
// direction's queue is constructed fresh from its own spec string so the
// two directions never share mutable queue state. uplinkMeter and
// downlinkMeter are OPTIONAL; pass nil to disable event logging for that
// direction.
func NewEmulatedLink(local, remote NIC, clock Clock, logger Logger,
	uplinkQueueSpec, downlinkQueueSpec string, uplinkTrace, downlinkTrace *Trace, repeat bool,
	uplinkMeter, downlinkMeter *Meter) (*EmulatedLink, error) {

	localAdapter := NewHostNICAdapter(local, clock)
	remoteAdapter := NewHostNICAdapter(remote, clock)

	uplinkQueue, err := NewPacketQueue(uplinkQueueSpec, clock)
	if err != nil {
		return nil, err
	}
	downlinkQueue, err := NewPacketQueue(downlinkQueueSpec, clock)
	if err != nil {
		return nil, err
	}

	return &EmulatedLink{
		Uplink:   NewLinkShaper(localAdapter, remoteAdapter, uplinkQueue, uplinkTrace, clock, repeat, logger, uplinkMeter),
		Downlink: NewLinkShaper(remoteAdapter, localAdapter, downlinkQueue, downlinkTrace, clock, repeat, logger, downlinkMeter),
	}, nil
}

// Run drives both directions concurrently and returns once both have
// stopped. A fatal error stops only the direction it occurred on; the
// other keeps running until ctx is cancelled or its own trace ends. It
// returns the first fatal error observed, if any.
func (el *EmulatedLink) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() { errCh <- el.Uplink.Run(ctx) }()
	go func() { errCh <- el.Downlink.Run(ctx) }()

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
