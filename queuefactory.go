package netem

//
// Queue spec string parsing and construction.
//

import "strings"

// NewPacketQueue parses a queue spec string ("TYPE" optionally followed by
// "name=number[, ...]" args) and constructs the matching discipline.
// Recognised types: infinite, droptail, drophead, codel, pie, ecmp, fair.
// Returns [ErrUnknownQueueType] for anything else.
func NewPacketQueue(spec string, clock Clock) (AbstractPacketQueue, error) {
	queueType, rest, _ := strings.Cut(spec, " ")
	args, err := ParseQueueArgs(rest)
	if err != nil {
		return nil, err
	}

	switch queueType {
	case "infinite":
		return NewInfinitePacketQueue(), nil
	case "droptail":
		return NewDropTailPacketQueue(args), nil
	case "drophead":
		return NewDropHeadPacketQueue(args), nil
	case "codel":
		return NewCoDelPacketQueue(args, clock), nil
	case "pie":
		return NewPIEPacketQueue(args, clock, 0), nil
	case "ecmp":
		return NewECMPPacketQueue(args, clock), nil
	case "fair":
		return NewFairPacketQueue(args), nil
	default:
		return nil, ErrUnknownQueueType
	}
}
