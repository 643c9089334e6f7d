// Command shaperd runs a two-direction link emulator between a pair of
// host network interfaces.
package main

import (
	"context"
	"flag"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
	netem "github.com/bassosimone/linkshaper"
	"github.com/bassosimone/linkshaper/internal"
)

func main() {
	uplinkQueue := flag.String("uplink-queue", "droptail bytes=150000", "uplink queue spec")
	downlinkQueue := flag.String("downlink-queue", "droptail bytes=150000", "downlink queue spec")
	uplinkTrace := flag.String("uplink-trace", "12M", "uplink trace path or CBR bandwidth")
	downlinkTrace := flag.String("downlink-trace", "12M", "downlink trace path or CBR bandwidth")
	uplinkLog := flag.String("uplink-log", "", "uplink event log path (disabled if empty)")
	downlinkLog := flag.String("downlink-log", "", "downlink event log path (disabled if empty)")
	decodeFlow := flag.Bool("decode-flow", false, "enable Meter.DescribeFlow flow decoding (event log lines are not annotated)")
	once := flag.Bool("once", false, "disable trace repeat")
	duration := flag.Duration("duration", 10*time.Second, "duration of the run")
	flag.Parse()

	logger := &internal.ApexLogger{Logger: log.Log}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	clock := netem.NewSystemClock(logger)

	local := netem.Must1(netem.NewHostNIC(logger, netip.MustParseAddr("10.0.0.1"), 1500))
	defer local.Close()
	remote := netem.Must1(netem.NewHostNIC(logger, netip.MustParseAddr("10.0.0.2"), 1500))
	defer remote.Close()

	up := netem.Must1(loadOrSynthesize(*uplinkTrace))
	down := netem.Must1(loadOrSynthesize(*downlinkTrace))

	commandLine := strings.Join(os.Args, " ")
	uplinkMeter := openMeter(*uplinkLog, logger, clock, commandLine, *decodeFlow)
	downlinkMeter := openMeter(*downlinkLog, logger, clock, commandLine, *decodeFlow)

	link := netem.Must1(netem.NewEmulatedLink(
		local, remote, clock, logger,
		*uplinkQueue, *downlinkQueue,
		up, down, !*once,
		uplinkMeter, downlinkMeter,
	))

	netem.Must0(link.Run(ctx))
}

// openMeter returns nil if path is empty, otherwise opens path for
// writing and wraps it in a [netem.Meter]. The file is intentionally
// never closed here: it lives for the process's lifetime.
func openMeter(path string, logger netem.Logger, clock netem.Clock, commandLine string, decodeFlow bool) *netem.Meter {
	if path == "" {
		return nil
	}
	fp := netem.Must1(os.Create(path))
	return netem.NewMeter(fp, logger, clock.NowMillis(), commandLine, decodeFlow)
}

// loadOrSynthesize treats spec as a CBR bandwidth string ("12M", "500K")
// when it ends in K or M, and as a trace file path otherwise.
func loadOrSynthesize(spec string) (*netem.Trace, error) {
	if strings.HasSuffix(spec, "K") || strings.HasSuffix(spec, "M") {
		return netem.SynthesizeCBRTrace(spec)
	}
	fp, err := os.Open(spec)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return netem.LoadTrace(fp)
}
