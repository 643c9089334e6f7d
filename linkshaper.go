package netem

//
// LinkShaper: trace-driven, millisecond-tick packet releaser.
//
// Grounded on the ticker-plus-deadline forwarding pattern used throughout
// the teacher's link-forwarding code, generalized here to a trace/queue
// pair instead of a fixed delay.
//

import (
	"context"
	"sync"
	"time"
)

// LinkShaper drives one direction of a link: it pulls arriving packets
// from a [PacketSource], enqueues them into an [AbstractPacketQueue], and
// releases packets to a [PacketSink] as a [Trace] grants delivery
// opportunities, one millisecond slot at a time.
type LinkShaper struct {
	source   PacketSource
	sink     PacketSink
	queue    AbstractPacketQueue
	trace    *Trace
	clock    Clock
	logger   Logger
	repeat   bool
	meter    *Meter
	startMs  uint64
	slot     int
	epochMs  uint64
	closed   chan any
	closeErr error
	mu       sync.Mutex
}

// NewLinkShaper builds a shaper for one direction. logger and meter are
// OPTIONAL. If repeat is false, the direction closes once the trace is
// exhausted; if true, the trace rewinds and its deadlines are offset by
// one trace period each time it is replayed.
func NewLinkShaper(source PacketSource, sink PacketSink, queue AbstractPacketQueue,
	trace *Trace, clock Clock, repeat bool, logger Logger, meter *Meter) *LinkShaper {
	if logger == nil {
		logger = &nullLogger{}
	}
	ls := &LinkShaper{
		source:  source,
		sink:    sink,
		queue:   queue,
		trace:   trace,
		clock:   clock,
		logger:  logger,
		repeat:  repeat,
		meter:   meter,
		startMs: clock.NowMillis(),
		closed:  make(chan any),
	}
	ls.epochMs = ls.startMs
	if meter != nil {
		queue.SetDropHook(func(bytesDropped int) {
			meter.Drop(ls.clock.NowMillis(), bytesDropped)
		})
	}
	return ls
}

// Run drives the shaper's millisecond ticks until ctx is cancelled, the
// trace is exhausted without repeat, or a fatal sink/trace error occurs.
// It returns the fatal error, if any.
func (ls *LinkShaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ls.finish(nil)
			return nil
		case <-ticker.C:
			if err := ls.tick(); err != nil {
				ls.logger.Warnf("netem: linkshaper: direction aborted: %v", err)
				ls.finish(err)
				return err
			}
			if ls.done() {
				ls.finish(nil)
				return nil
			}
		}
	}
}

// done reports whether the trace has been exhausted and will not repeat.
func (ls *LinkShaper) done() bool {
	return !ls.repeat && ls.slot >= ls.trace.Len()
}

// finish closes the shaper's done channel exactly once, recording err.
func (ls *LinkShaper) finish(err error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	select {
	case <-ls.closed:
		return
	default:
	}
	ls.closeErr = err
	close(ls.closed)
}

// Done returns a channel that is closed when the shaper stops running.
func (ls *LinkShaper) Done() <-chan any {
	return ls.closed
}

// tick performs one millisecond's worth of work: drain the source into
// the queue, then release a packet for every trace slot whose deadline
// has arrived.
func (ls *LinkShaper) tick() error {
	now := ls.clock.NowMillis()

	for {
		pkt, ok := ls.source.ReadPacket()
		if !ok {
			break
		}
		ls.queue.Enqueue(pkt)
		if ls.meter != nil {
			ls.meter.Arrival(now, pkt.Len())
		}
	}

	for ls.slot < ls.trace.Len() && ls.epochMs+ls.trace.Deadlines[ls.slot] <= now {
		consumed, err := ls.releaseSlot(now)
		if err != nil {
			return err
		}
		if !consumed {
			break
		}
		ls.slot++
	}

	if ls.repeat && ls.slot >= ls.trace.Len() && ls.trace.Len() > 0 {
		ls.epochMs += ls.trace.PeriodMillis()
		ls.slot = 0
	}

	return nil
}

// releaseSlot dequeues at most one packet for the current trace slot and
// writes it to the sink, reporting whether the slot was consumed. An
// empty queue consumes the slot without a release. A non-empty queue
// whose dequeue yields nothing (ECMP's "nothing ready" sentinel) means
// no release this tick and the slot is not consumed, so tick retries it
// on the next tick; this is not an error and is not logged as a
// delivery. Any sink write error is fatal to this direction and is
// returned to the caller to abort tick/Run.
func (ls *LinkShaper) releaseSlot(now uint64) (bool, error) {
	if ls.queue.Empty() {
		return true, nil
	}
	pkt, ok := ls.queue.Dequeue()
	if !ok || pkt.Empty() {
		return false, nil
	}
	if err := ls.sink.WritePacket(pkt.Contents); err != nil {
		return false, err
	}
	if ls.meter != nil {
		ls.meter.Delivery(now, ls.slot, pkt.Len())
	}
	return true, nil
}

// WaitTime returns how long the surrounding event loop could sleep before
// this shaper has more work to do: the minimum of the time until the next
// trace deadline and a queue wait that is 0 when the queue holds packets
// and the saturated maximum otherwise. The queue's own internal timers
// (CoDel, PIE) are not consulted.
func (ls *LinkShaper) WaitTime() uint64 {
	now := ls.clock.NowMillis()

	var traceWait uint64 = maxWaitMillis
	if ls.slot < ls.trace.Len() {
		deadline := ls.epochMs + ls.trace.Deadlines[ls.slot]
		if deadline > now {
			traceWait = deadline - now
		} else {
			traceWait = 0
		}
	}

	queueWait := maxWaitMillis
	if !ls.queue.Empty() {
		queueWait = 0
	}

	if queueWait < traceWait {
		return queueWait
	}
	return traceWait
}
