package netem

//
// Error taxonomy
//

import "errors"

// ErrBadQueueArgs indicates that a queue-arguments string could not be parsed:
// a recognised name was found without a following "=", or the digit run
// after "=" was empty.
var ErrBadQueueArgs = errors.New("netem: bad queue arguments")

// ErrUnknownQueueType indicates that a queue spec string named a type
// that NewPacketQueue does not know how to construct.
var ErrUnknownQueueType = errors.New("netem: unknown queue type")

// ErrTraceIO indicates that loading or synthesising a trace failed.
var ErrTraceIO = errors.New("netem: trace I/O error")

// ErrSinkClosed indicates that a PacketSink refused a packet because
// the underlying direction has been shut down.
var ErrSinkClosed = errors.New("netem: sink closed")

// ErrEmptyQueue indicates that Dequeue was called on an empty queue.
var ErrEmptyQueue = errors.New("netem: dequeue on empty queue")

// ErrClockWentBackwards is logged (not returned) when a Clock observes
// time moving backwards; the caller recovers by treating the delta as zero.
var ErrClockWentBackwards = errors.New("netem: clock went backwards")
