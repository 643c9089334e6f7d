package netem

//
// Meter: per-direction event log writer.
//
// Log format grounded on original_source/src/frontend/linkshell.cc: one
// line per event, "<timestamp_ms> <event_code> <bytes>", arrival "#",
// drop "-", delivery "+", with a "# init timestamp: <ms>" header line
// naming the command line that produced the run.
//

import (
	"fmt"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	meterEventArrival  = '#'
	meterEventDrop     = '-'
	meterEventDelivery = '+'
)

// Meter records arrival, drop, and delivery events for one link direction
// to an underlying writer, in the whitespace-delimited format external
// tooling expects.
type Meter struct {
	w          io.Writer
	logger     Logger
	decodeFlow bool
}

// NewMeter wraps w, emitting the init-timestamp header immediately.
// commandLine is logged verbatim as the header's quoted command. If
// decodeFlow is set, [Meter.DescribeFlow] returns a human-readable flow
// summary (via gopacket); otherwise it returns "". The event lines written
// by Arrival, Drop, and Delivery never include that summary, and it never
// affects queueing decisions, which always hash raw bytes.
func NewMeter(w io.Writer, logger Logger, nowMillis uint64, commandLine string, decodeFlow bool) *Meter {
	if logger == nil {
		logger = &nullLogger{}
	}
	fmt.Fprintf(w, "# init timestamp: %d %q\n", nowMillis, commandLine)
	return &Meter{w: w, logger: logger, decodeFlow: decodeFlow}
}

// Arrival records a packet arrival event.
func (m *Meter) Arrival(nowMillis uint64, bytes int) {
	m.writeEvent(nowMillis, meterEventArrival, bytes)
}

// Drop records a packet drop event.
func (m *Meter) Drop(nowMillis uint64, bytes int) {
	m.writeEvent(nowMillis, meterEventDrop, bytes)
}

// Delivery records a packet delivery event. slotIndex is the trace slot
// that released it, logged at debug level alongside the event line.
func (m *Meter) Delivery(nowMillis uint64, slotIndex int, bytes int) {
	m.writeEvent(nowMillis, meterEventDelivery, bytes)
	m.logger.Debugf("netem: delivery %d slot=%d bytes=%d", nowMillis, slotIndex, bytes)
}

func (m *Meter) writeEvent(nowMillis uint64, code byte, bytes int) {
	fmt.Fprintf(m.w, "%d %c %d\n", nowMillis, code, bytes)
}

// DescribeFlow decodes contents as an IPv4 or IPv6 packet and returns a
// short human-readable summary ("10.0.0.1->10.0.0.2") for log
// lines. It returns "" if decodeFlow is disabled or decoding fails;
// queueing decisions never depend on this.
func (m *Meter) DescribeFlow(contents []byte) string {
	if !m.decodeFlow || len(contents) == 0 {
		return ""
	}

	var firstLayer gopacket.LayerType
	switch contents[0] >> 4 {
	case 4:
		firstLayer = layers.LayerTypeIPv4
	case 6:
		firstLayer = layers.LayerTypeIPv6
	default:
		return ""
	}

	packet := gopacket.NewPacket(contents, firstLayer, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	network := packet.NetworkLayer()
	if network == nil {
		return ""
	}
	flow := network.NetworkFlow()
	src, dst := flow.Endpoints()
	return fmt.Sprintf("%s->%s", src, dst)
}
