package netem

//
// Host NIC adapter: bridges an OS-independent userspace network interface
// to the [PacketSource]/[PacketSink] pair a [LinkShaper] direction needs.
//
// This file, and the gvisor-based stack it builds on, are the "host"
// half described in §1 of the specification: network-namespace creation,
// veth plumbing, and OS-specific packet I/O stay out of the emulator
// core. What lives here is the external collaborator a real host program
// would write — kept in-tree as a runnable demonstration (see
// cmd/shaperd) rather than as something the core depends on.
//
// Adapted from https://github.com/WireGuard/wireguard-go
//
// SPDX-License-Identifier: MIT
//

import (
	"errors"
	"io"
	"net/netip"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"gvisor.dev/gvisor/pkg/bufferv2"
	"gvisor.dev/gvisor/pkg/tcpip"
	"gvisor.dev/gvisor/pkg/tcpip/header"
	"gvisor.dev/gvisor/pkg/tcpip/link/channel"
	"gvisor.dev/gvisor/pkg/tcpip/network/ipv4"
	"gvisor.dev/gvisor/pkg/tcpip/network/ipv6"
	"gvisor.dev/gvisor/pkg/tcpip/stack"
)

// nicID is the unique ID of each host NIC, used only for log messages.
var nicID = &atomic.Int64{}

// newNICName constructs a new, unique name for a NIC.
func newNICName() string {
	n := nicID.Add(1)
	return "veth" + itoa(n)
}

// itoa avoids pulling in fmt for a single counter-to-string conversion.
func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// HostNIC is a minimal userspace IP-layer interface backed by gvisor's
// channel endpoint. It exists purely as a demonstration [NIC]: enough to
// produce and accept raw IP packets so a host program can wire two of
// them into an [EmulatedLink] without needing real veth devices or
// root privileges.
type HostNIC struct {
	closeOnce      sync.Once
	closed         chan any
	endpoint       *channel.Endpoint
	incomingPacket chan any
	ipAddress      netip.Addr
	logger         Logger
	name           string
	stack          *stack.Stack
}

var _ NIC = &HostNIC{}

// NewHostNIC creates a new [HostNIC] bound to the given IPv4 address.
func NewHostNIC(logger Logger, address netip.Addr, mtu uint32) (*HostNIC, error) {
	if logger == nil {
		logger = &nullLogger{}
	}

	stackOptions := stack.Options{
		NetworkProtocols: []stack.NetworkProtocolFactory{
			ipv4.NewProtocol,
			ipv6.NewProtocol,
		},
		HandleLocal: true,
	}

	name := newNICName()
	hn := &HostNIC{
		closeOnce:      sync.Once{},
		closed:         make(chan any),
		endpoint:       channel.New(1024, mtu, ""),
		incomingPacket: make(chan any),
		ipAddress:      address,
		logger:         logger,
		name:           name,
		stack:          stack.New(stackOptions),
	}
	hn.endpoint.AddNotify(hn)

	if err := hn.stack.CreateNIC(1, hn.endpoint); err != nil {
		return nil, errors.New(err.String())
	}

	protoAddr := tcpip.ProtocolAddress{
		Protocol:          ipv4.ProtocolNumber,
		AddressWithPrefix: tcpip.Address(address.AsSlice()).WithPrefix(),
	}
	if err := hn.stack.AddProtocolAddress(1, protoAddr, stack.AddressProperties{}); err != nil {
		return nil, errors.New(err.String())
	}
	hn.stack.AddRoute(tcpip.Route{Destination: header.IPv4EmptySubnet, NIC: 1})

	logger.Infof("netem: ifconfig %s mtu %d", name, mtu)
	logger.Infof("netem: ifconfig %s %s up", name, address)
	return hn, nil
}

// IPAddress implements NIC.
func (hn *HostNIC) IPAddress() string {
	return hn.ipAddress.String()
}

// FrameAvailable implements NIC.
func (hn *HostNIC) FrameAvailable() <-chan any {
	return hn.incomingPacket
}

// ReadFrameNonblocking implements NIC.
func (hn *HostNIC) ReadFrameNonblocking() (*Frame, error) {
	select {
	case <-hn.closed:
		return nil, io.EOF
	default:
	}

	pktbuf := hn.endpoint.Read()
	if pktbuf.IsNil() {
		return nil, syscall.EAGAIN
	}
	view := pktbuf.ToView()
	pktbuf.DecRef()

	buffer := make([]byte, hn.endpoint.MTU())
	count, err := view.Read(buffer)
	if err != nil {
		return nil, err
	}

	return &Frame{
		Deadline: time.Time{},
		Payload:  buffer[:count],
	}, nil
}

// InterfaceName implements NIC.
func (hn *HostNIC) InterfaceName() string {
	return hn.name
}

// StackClosed implements NIC.
func (hn *HostNIC) StackClosed() <-chan any {
	return hn.closed
}

// WriteNotify implements channel.Notification.
func (hn *HostNIC) WriteNotify() {
	hn.incomingPacket <- true
}

// WriteFrame implements NIC.
func (hn *HostNIC) WriteFrame(frame *Frame) error {
	select {
	case <-hn.closed:
		return syscall.EPIPE
	default:
	}

	packet := frame.Payload
	if len(packet) == 0 {
		return nil
	}
	pkb := stack.NewPacketBuffer(stack.PacketBufferOptions{Payload: bufferv2.MakeWithData(packet)})
	switch packet[0] >> 4 {
	case 4:
		hn.endpoint.InjectInbound(header.IPv4ProtocolNumber, pkb)
	case 6:
		hn.endpoint.InjectInbound(header.IPv6ProtocolNumber, pkb)
	}
	return nil
}

// Close implements NIC.
func (hn *HostNIC) Close() error {
	hn.closeOnce.Do(func() {
		close(hn.closed)
		hn.logger.Infof("netem: ifconfig %s down", hn.name)
	})
	return nil
}
