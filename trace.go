package netem

//
// Trace: recorded or synthesised delivery-opportunity schedules.
//
// Grounded on original_source/src/util/util.cc's gcd-based CBR synthesis
// (create_cbr_trace) and str_to_mbps.
//

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// Trace is an ordered, non-decreasing-recommended sequence of delivery
// opportunity timestamps in milliseconds since trace start. Each entry
// represents one MTU-sized (1500-byte) delivery opportunity.
type Trace struct {
	// Deadlines holds the parsed timestamps, in file order.
	Deadlines []uint64
}

// LoadTrace reads a trace file: UTF-8 text, one non-negative integer per
// line, blank lines ignored. Malformed lines are reported as
// [ErrTraceIO] wrapping the underlying parse error.
func LoadTrace(r io.Reader) (*Trace, error) {
	var deadlines []uint64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		value, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			return nil, errors.Join(ErrTraceIO, err)
		}
		deadlines = append(deadlines, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Join(ErrTraceIO, err)
	}
	return &Trace{Deadlines: deadlines}, nil
}

// mtuBytes is the packet size a single trace slot is assumed to carry.
const mtuBytes = 1500

// ParseBandwidth parses a "<number>{K|M}" bandwidth string (Kbps or Mbps)
// into megabits per second.
func ParseBandwidth(bw string) (float64, error) {
	if len(bw) < 2 {
		return 0, errors.Join(ErrTraceIO, errors.New("bandwidth string too short"))
	}
	unit := bw[len(bw)-1]
	value, err := strconv.ParseFloat(bw[:len(bw)-1], 64)
	if err != nil {
		return 0, errors.Join(ErrTraceIO, err)
	}
	switch unit {
	case 'M':
		return value, nil
	case 'K':
		return value / 1000.0, nil
	default:
		return 0, errors.Join(ErrTraceIO, errors.New("invalid units for cbr trace, use K (Kbps) or M (Mbps)"))
	}
}

// gcd returns the greatest common divisor of a and b.
func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// SynthesizeCBRTrace builds a constant-bit-rate [Trace] from a bandwidth
// string. It reproduces the exact slot-distribution algorithm: derive
// packets-per-1000ms and their gcd-reduced period, then spread packets
// across the period either forward (dense) or backward with a stride
// (sparse), finally emitting one (ms+1) deadline per token per slot.
func SynthesizeCBRTrace(bw string) (*Trace, error) {
	mbps, err := ParseBandwidth(bw)
	if err != nil {
		return nil, err
	}

	ppms := mbps / 12.0
	pps := int(ppms*1000.0 + 0.5)
	divisor := gcd(pps, 1000)
	if divisor == 0 {
		return &Trace{}, nil
	}
	packets := pps / divisor
	numSlots := 1000 / divisor

	slots := make([]int, numSlots)
	if packets >= numSlots {
		i := 0
		for packets > 0 {
			slots[i%numSlots]++
			i++
			packets--
		}
	} else if packets > 0 {
		i := numSlots - 1
		spacing := numSlots / packets
		for packets > 0 {
			slots[i]++
			i -= spacing
			if i < 0 {
				i += numSlots
			}
			packets--
		}
	}

	var deadlines []uint64
	for ms := 0; ms < numSlots; ms++ {
		for j := 0; j < slots[ms]; j++ {
			deadlines = append(deadlines, uint64(ms+1))
		}
	}
	return &Trace{Deadlines: deadlines}, nil
}

// Len returns the number of delivery opportunities in the trace.
func (t *Trace) Len() int {
	return len(t.Deadlines)
}

// PeriodMillis returns the trace's replay period: its last deadline, so
// that rewinding and adding this offset preserves the inter-arrival
// spacing across the repeat boundary. Returns 0 for an empty trace.
func (t *Trace) PeriodMillis() uint64 {
	if len(t.Deadlines) == 0 {
		return 0
	}
	return t.Deadlines[len(t.Deadlines)-1]
}
