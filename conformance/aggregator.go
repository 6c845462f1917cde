package conformance

import (
	"time"

	"github.com/Lzww0608/scru64"
)

// DefaultRetentionLimit is the number of violations kept at each end of the run
const DefaultRetentionLimit = 100

// Aggregator accumulates run statistics and violation records. It is owned by
// a single goroutine and never blocks.
type Aggregator struct {
	runID     string
	startedAt time.Time

	processed uint64
	decoded   uint64
	byKind    [kindCount]uint64
	retention *retention

	firstTs, lastTs uint64
	haveTs          bool
	skew            runningStats
	lastSkew        time.Duration

	// counter re-seeds: an ordered ID whose node_ctr is not previous+1
	prev               scru64.ID
	havePrev           bool
	counterUpdates     uint64
	lastCounterUpdate  uint64
	sumCounterInterval uint64
}

// NewAggregator returns an empty aggregator keeping up to retentionLimit
// violation records at each end of the run.
func NewAggregator(runID string, startedAt time.Time, retentionLimit int) *Aggregator {
	return &Aggregator{
		runID:     runID,
		startedAt: startedAt,
		retention: newRetention(retentionLimit),
	}
}

// Record folds the result of one input line into the running totals
func (a *Aggregator) Record(res *Result) {
	a.processed++
	for _, v := range res.Violations {
		a.byKind[v.Kind]++
		a.retention.add(v)
	}
	if !res.Decoded {
		return
	}

	a.decoded++
	a.skew.add(res.Skew)
	a.lastSkew = res.Skew

	ts := res.ID.Timestamp()
	if !a.haveTs {
		a.firstTs, a.haveTs = ts, true
	}
	a.lastTs = ts

	if res.ordered() {
		a.trackCounter(res.ID)
	}
}

func (a *Aggregator) trackCounter(id scru64.ID) {
	defer func() { a.prev, a.havePrev = id, true }()
	if a.havePrev && id.NodeCtr() == a.prev.NodeCtr()+1 {
		return
	}
	ts := id.Timestamp()
	if a.lastCounterUpdate > 0 && ts >= a.lastCounterUpdate {
		a.counterUpdates++
		a.sumCounterInterval += ts - a.lastCounterUpdate
	}
	a.lastCounterUpdate = ts
}

// Processed returns the number of lines checked so far
func (a *Aggregator) Processed() uint64 {
	return a.processed
}

// Violations returns the exact number of violations so far
func (a *Aggregator) Violations() uint64 {
	return a.retention.total
}

// Snapshot returns an immutable copy of the current state taken at now
func (a *Aggregator) Snapshot(now time.Time) Snapshot {
	s := Snapshot{
		RunID:          a.runID,
		StartedAt:      a.startedAt,
		TakenAt:        now,
		Processed:      a.processed,
		Decoded:        a.decoded,
		Violations:     a.retention.total,
		ByKind:         make(map[Kind]uint64, kindCount-1),
		HasTimestamps:  a.haveTs,
		FirstTimestamp: a.firstTs,
		LastTimestamp:  a.lastTs,
		Skew:           a.skew.snapshot(),
		LastSkew:       a.lastSkew,
		CounterUpdates: a.counterUpdates,
		Retained:       a.retention.retained(),
		Dropped:        a.retention.dropped(),
	}
	for _, k := range Kinds() {
		s.ByKind[k] = a.byKind[k]
	}
	if a.counterUpdates > 0 {
		s.MeanCounterInterval = time.Duration(a.sumCounterInterval/a.counterUpdates) * time.Millisecond
	}
	if a.haveTs {
		s.Staleness = millis(skewMillis(now, a.lastTs))
	}
	return s
}

// Snapshot is a point-in-time copy of the Aggregator. It shares no memory
// with the Aggregator and is safe to hand to other goroutines.
type Snapshot struct {
	RunID     string
	StartedAt time.Time
	TakenAt   time.Time

	Processed  uint64 // non-blank, non-comment lines
	Decoded    uint64 // lines that decoded to an identifier
	Violations uint64
	ByKind     map[Kind]uint64

	HasTimestamps  bool
	FirstTimestamp uint64 // ms since epoch
	LastTimestamp  uint64 // ms since epoch

	Skew     SkewStats
	LastSkew time.Duration
	// Staleness is TakenAt minus the timestamp of the last identifier
	Staleness time.Duration

	CounterUpdates      uint64
	MeanCounterInterval time.Duration

	Retained []Violation
	Dropped  uint64
}

// Span is the time covered by the embedded timestamps of the run
func (s Snapshot) Span() time.Duration {
	if !s.HasTimestamps || s.LastTimestamp < s.FirstTimestamp {
		return 0
	}
	return time.Duration(s.LastTimestamp-s.FirstTimestamp) * time.Millisecond
}

// IDsPerTick is the mean number of identifiers per 256 ms timestamp tick
func (s Snapshot) IDsPerTick() float64 {
	ticks := s.Span().Milliseconds() / scru64.TickMillis
	if ticks == 0 {
		return 0
	}
	return float64(s.Decoded) / float64(ticks)
}

// Failed reports whether the violations exceed threshold
func (s Snapshot) Failed(threshold uint64) bool {
	return s.Violations > threshold
}
