package netem

//
// Data model
//

import "time"

// Logger is the logger used throughout this module.
type Logger interface {
	// Debugf formats and emits a debug message.
	Debugf(format string, v ...any)

	// Debug emits a debug message.
	Debug(message string)

	// Infof formats and emits an informational message.
	Infof(format string, v ...any)

	// Info emits an informational message.
	Info(message string)

	// Warnf formats and emits a warning message.
	Warnf(format string, v ...any)

	// Warn emits a warning message.
	Warn(message string)
}

// nullLogger is a [Logger] that discards every message. It is the
// zero-config default for constructors that accept an OPTIONAL logger.
type nullLogger struct{}

var _ Logger = &nullLogger{}

func (*nullLogger) Debug(string)          {}
func (*nullLogger) Debugf(string, ...any) {}
func (*nullLogger) Info(string)           {}
func (*nullLogger) Infof(string, ...any)  {}
func (*nullLogger) Warn(string)           {}
func (*nullLogger) Warnf(string, ...any)  {}

// Frame contains an IPv4 or IPv6 packet read from, or written to, a host
// network interface. It is the wire format used by the [NIC] collaborator
// that a host program can plug into a [HostNICAdapter] to obtain a
// [PacketSource]/[PacketSink] pair for a [LinkShaper] direction.
type Frame struct {
	// Deadline is the time when this frame should be delivered. Producers
	// leave it zero; the emulator core is the only one that assigns it.
	Deadline time.Time

	// Payload contains the packet payload.
	Payload []byte
}

// FrameReader allows one to read incoming frames from a NIC.
type FrameReader interface {
	// FrameAvailable returns a channel that becomes readable
	// when a new frame has arrived.
	FrameAvailable() <-chan any

	// ReadFrameNonblocking reads an incoming frame. You should only call
	// this function after FrameAvailable has been readable. This function
	// returns syscall.EAGAIN if no packet is available and io.EOF once the
	// underlying stack has been closed.
	ReadFrameNonblocking() (*Frame, error)

	// StackClosed returns a channel that becomes readable when the
	// underlying network stack has been closed.
	StackClosed() <-chan any
}

// NIC is a network interface card with which you can send and receive
// [Frame]s. NICs are an external, OS-dependent collaborator: §1 of the
// specification keeps packet I/O mechanisms out of the emulator core and
// only requires that the host expose a [PacketSource]/[PacketSink] pair.
// [HostNICAdapter] bridges the two worlds.
type NIC interface {
	// A NIC implements FrameReader.
	FrameReader

	// Close closes this network interface.
	Close() error

	// IPAddress returns the IP address assigned to the NIC.
	IPAddress() string

	// InterfaceName returns the name of the NIC.
	InterfaceName() string

	// WriteFrame writes a frame or returns an error once the
	// underlying stack has been closed.
	WriteFrame(frame *Frame) error
}
