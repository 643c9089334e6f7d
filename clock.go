package netem

//
// Monotonic millisecond clock
//

import "time"

// Clock returns monotonic milliseconds. The [LinkShaper] and every AQM
// queue that needs a notion of "now" (CoDel, PIE, ECMP jitter,
// SwitchingLink) take a Clock rather than calling time.Now directly, so
// tests can supply a [FixedClock] and get reproducible behavior.
type Clock interface {
	// NowMillis returns the current monotonic time in milliseconds. It
	// MUST be non-decreasing across calls; implementations that wrap a
	// wall clock should clamp backwards jumps to zero delta and log
	// [ErrClockWentBackwards] rather than return a smaller value.
	NowMillis() uint64
}

// SystemClock is a [Clock] backed by the Go runtime's monotonic clock.
// Create one with [NewSystemClock]; the zero value has no epoch or logger
// set and is not usable.
type SystemClock struct {
	// logger is the OPTIONAL logger used to report backwards jumps.
	logger Logger

	// epoch is the time origin used to convert time.Since into milliseconds.
	epoch time.Time

	// last is the last value returned by NowMillis, used to defend
	// against a backwards jump (which should not happen with a
	// monotonic clock, but we have been burned before).
	last uint64
}

var _ Clock = &SystemClock{}

// NewSystemClock creates a new [SystemClock]. The OPTIONAL logger receives
// a warning if the clock is ever observed to move backwards.
func NewSystemClock(logger Logger) *SystemClock {
	if logger == nil {
		logger = &nullLogger{}
	}
	return &SystemClock{
		logger: logger,
		epoch:  time.Now(),
		last:   0,
	}
}

// NowMillis implements Clock.
func (sc *SystemClock) NowMillis() uint64 {
	elapsed := time.Since(sc.epoch)
	now := uint64(elapsed.Milliseconds())
	if now < sc.last {
		sc.logger.Warnf("%s: %d < %d", ErrClockWentBackwards.Error(), now, sc.last)
		now = sc.last
	}
	sc.last = now
	return now
}

// FixedClock is a [Clock] you can advance manually. Used by tests that
// need deterministic timing for CoDel, PIE, and SwitchingLink.
type FixedClock struct {
	now uint64
}

var _ Clock = &FixedClock{}

// NewFixedClock creates a [FixedClock] starting at the given time.
func NewFixedClock(startMillis uint64) *FixedClock {
	return &FixedClock{now: startMillis}
}

// NowMillis implements Clock.
func (fc *FixedClock) NowMillis() uint64 {
	return fc.now
}

// Advance moves the clock forward by delta milliseconds.
func (fc *FixedClock) Advance(delta uint64) {
	fc.now += delta
}

// Set pins the clock to an absolute millisecond value. The caller is
// responsible for ensuring it does not move backwards.
func (fc *FixedClock) Set(millis uint64) {
	fc.now = millis
}
