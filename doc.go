// Package netem is a user-space network link emulator. It interposes
// between a contained workload and the host network, shaping two
// directional virtual links according to packet-delivery traces and a
// configurable Active Queue Management (AQM) discipline.
//
// The core of the package is the [AbstractPacketQueue] family: AQM
// disciplines that decide which packets survive queueing and in what
// order they are released. [NewPacketQueue] builds one from a queue spec
// string ("droptail", "codel bytes=150000", "ecmp queues=8 seed=1", and
// so on); [InfinitePacketQueue], [DropTailPacketQueue],
// [DropHeadPacketQueue], [CoDelPacketQueue], [PIEPacketQueue],
// [ECMPPacketQueue], and [FairPacketQueue] are the concrete disciplines.
//
// A [LinkShaper] drives one direction of a link: it reads arriving
// packets from a [PacketSource], enqueues them into an
// [AbstractPacketQueue], and releases packets to a [PacketSink] as a
// [Trace] grants delivery opportunities. [LoadTrace] and
// [SynthesizeCBRTrace] produce the traces a [LinkShaper] replays.
//
// [LossQueue] and its [LossPolicy] implementations ([IIDLossPolicy],
// [DeterministicLossPolicy], [SwitchingLinkPolicy]) model packet loss
// independently of queueing: IID and deterministic Bernoulli loss, and a
// Markov-modulated on/off "switching link".
//
// Network-namespace creation, virtual-Ethernet plumbing, privilege drop,
// sub-process launching, and OS-specific packet I/O are outside this
// package; it only requires a [PacketSource], a [PacketSink], and a
// [Clock]. [HostNIC] is a runnable demonstration of such a host
// collaborator, built on a userspace IP stack, for use from cmd/shaperd.
package netem
