package report

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Lzww0608/scru64/conformance"
)

// Options controls what Render prints
type Options struct {
	// Windows are shown in the EXPECTED column of the staleness row
	MaxFutureSkew time.Duration
	MaxPastSkew   time.Duration

	// Threshold is the number of violations tolerated before the run fails
	Threshold uint64

	// Records includes the retained violation records
	Records bool
}

const rowFormat = "%-48s %12s %12s\n"

// Render writes a human-readable summary of snap to w. The output depends
// only on snap and opts, so rendering the same snapshot twice produces
// identical bytes.
func Render(w io.Writer, snap conformance.Snapshot, opts Options) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "run %s: started %s, snapshot at %s\n",
		snap.RunID, formatTime(snap.StartedAt), formatTime(snap.TakenAt))
	fmt.Fprintf(bw, rowFormat, "STAT", "EXPECTED", "ACTUAL")
	row := func(name, expected, actual string) {
		fmt.Fprintf(bw, rowFormat, name, expected, actual)
	}

	row("Seconds from first input ID to last (sec)", "NA", fmt.Sprintf("%.1f", snap.Span().Seconds()))
	row("Number of lines processed", "NA", count(snap.Processed))
	row("Number of valid IDs decoded", "NA", count(snap.Decoded))
	row("Number of violations", count(opts.Threshold)+" max", count(snap.Violations))
	row("Mean number of IDs per 256 millisecond", "NA", fmt.Sprintf("%.1f", snap.IDsPerTick()))
	if snap.HasTimestamps {
		row("Current time less timestamp of last ID (sec)",
			fmt.Sprintf("%.1f - %.1f", -opts.MaxFutureSkew.Seconds(), opts.MaxPastSkew.Seconds()),
			fmt.Sprintf("%.3f", snap.Staleness.Seconds()))
	} else {
		row("Current time less timestamp of last ID (sec)", "NA", "NA")
	}
	if snap.CounterUpdates > 0 {
		row("Mean interval of counter updates (msec)", "~256", fmt.Sprintf("%d", snap.MeanCounterInterval.Milliseconds()))
	} else {
		row("Mean interval of counter updates (msec)", "~256", "NA")
	}
	if sk := snap.Skew; sk.Count > 0 {
		row("Skew min (sec)", "NA", fmt.Sprintf("%.3f", sk.Min.Seconds()))
		row("Skew max (sec)", "NA", fmt.Sprintf("%.3f", sk.Max.Seconds()))
		row("Skew mean (sec)", "NA", fmt.Sprintf("%.3f", sk.Mean.Seconds()))
		row("Skew stddev (sec)", "NA", fmt.Sprintf("%.3f", sk.StdDev.Seconds()))
	}

	fmt.Fprintln(bw)
	fmt.Fprintf(bw, rowFormat, "VIOLATION KIND", "EXPECTED", "ACTUAL")
	for _, k := range conformance.Kinds() {
		row(k.String(), "0", count(snap.ByKind[k]))
	}

	if opts.Records && len(snap.Retained) > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintf(bw, "Retained violations (%d of %s):\n", len(snap.Retained), count(snap.Violations))
		for _, v := range snap.Retained {
			if err := WriteViolation(bw, v); err != nil {
				return err
			}
		}
		if snap.Dropped > 0 {
			fmt.Fprintf(bw, "(%s violations between the first and last records were not retained)\n", count(snap.Dropped))
		}
	}

	return bw.Flush()
}

func count(n uint64) string {
	if n > 1<<63-1 {
		return fmt.Sprintf("%d", n)
	}
	return humanize.Comma(int64(n))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339Nano)
}
