package netem

//
// QueueArgs parser
//
// Grounded on original_source/src/packet/ecmp_packet_queue.cc's and
// fair_packet_queue.cc's get_arg: scan for the name as a substring, require
// the following character to be "=", and take the longest run of decimal
// digits after it as the value.
//

import "strings"

// queueArgNames lists every recognised QueueArgs name. Unknown names in a
// spec string are ignored by [ParseQueueArgs] and default to 0 when asked
// for via [QueueArgs.Get].
var queueArgNames = []string{
	"bytes",
	"packets",
	"target",
	"interval",
	"qdelay_ref",
	"max_burst",
	"queues",
	"nonworkconserving",
	"seed",
	"mean_jitter",
}

// QueueArgs is a parsed "name=number[, name2=number2, ...]" queue spec
// string. The zero value behaves as "every arg is unset" (0).
type QueueArgs struct {
	values map[string]uint64
}

// Get returns the value associated with name, or 0 if name was not
// present in the parsed string (or is not a recognised name).
func (a QueueArgs) Get(name string) uint64 {
	return a.values[name]
}

// ParseQueueArgs parses a free-form queue-arguments string. For each
// recognised name, it looks for the name as a substring of args; the
// character immediately following the match must be "="; the longest run
// of decimal digits after "=" becomes the value. A name that does not
// appear in args is left at 0. [ErrBadQueueArgs] is returned if a
// recognised name appears without a following "=", or with an empty
// digit run after "=".
func ParseQueueArgs(args string) (QueueArgs, error) {
	values := make(map[string]uint64)
	for _, name := range queueArgNames {
		value, present, err := findQueueArg(args, name)
		if err != nil {
			return QueueArgs{}, err
		}
		if present {
			values[name] = value
		}
	}
	return QueueArgs{values: values}, nil
}

// findQueueArg implements the get_arg substring scan for a single name.
func findQueueArg(args, name string) (value uint64, present bool, err error) {
	offset := strings.Index(args, name)
	if offset < 0 {
		return 0, false, nil
	}
	offset += len(name)
	if offset >= len(args) || args[offset] != '=' {
		return 0, false, ErrBadQueueArgs
	}
	offset++

	start := offset
	for offset < len(args) && args[offset] >= '0' && args[offset] <= '9' {
		offset++
	}
	digits := args[start:offset]
	if digits == "" {
		return 0, false, ErrBadQueueArgs
	}

	for _, ch := range digits {
		value = value*10 + uint64(ch-'0')
	}
	return value, true, nil
}
