package conformance

import (
	"fmt"
	"math"
	"time"

	"github.com/Lzww0608/scru64"
)

const (
	// DefaultMaxFutureSkew is how far ahead of the local clock an identifier may be
	DefaultMaxFutureSkew = time.Second

	// DefaultMaxPastSkew is how far behind the local clock an identifier may be
	DefaultMaxPastSkew = 10 * time.Second
)

// FreshnessChecker compares embedded timestamps against wall-clock time. Both
// windows are inclusive: an identifier exactly at a boundary is accepted.
type FreshnessChecker struct {
	MaxFutureSkew time.Duration
	MaxPastSkew   time.Duration
}

// NewFreshnessChecker returns a checker with the default windows
func NewFreshnessChecker() FreshnessChecker {
	return FreshnessChecker{
		MaxFutureSkew: DefaultMaxFutureSkew,
		MaxPastSkew:   DefaultMaxPastSkew,
	}
}

// Check returns the freshness outcome and the skew, defined as now minus the
// embedded timestamp at millisecond resolution. A negative skew means the
// identifier is ahead of the local clock. The windows are compared in
// milliseconds; the returned skew saturates at about ±292 years, the range
// of time.Duration, while timestamps reach the year 4261.
func (f FreshnessChecker) Check(curr scru64.ID, now time.Time) (Outcome, time.Duration) {
	ms := skewMillis(now, curr.Timestamp())
	skew := millis(ms)

	switch {
	case -ms > f.MaxFutureSkew.Milliseconds():
		return Outcome{ClockAhead, fmt.Sprintf("timestamp %s is %s ahead of local clock, max %s",
			formatMillis(curr.Timestamp()), -skew, f.MaxFutureSkew)}, skew
	case ms > f.MaxPastSkew.Milliseconds():
		return Outcome{ClockBehind, fmt.Sprintf("timestamp %s is %s behind local clock, max %s",
			formatMillis(curr.Timestamp()), skew, f.MaxPastSkew)}, skew
	}
	return Outcome{}, skew
}

// skewMillis is now minus ts in milliseconds. Timestamps stay below 2^47 ms,
// so the difference cannot overflow.
func skewMillis(now time.Time, ts uint64) int64 {
	return now.UnixMilli() - int64(ts)
}

// maxSkewMillis is the largest millisecond count a time.Duration holds
const maxSkewMillis = math.MaxInt64 / int64(time.Millisecond)

// millis converts ms to a Duration, saturating symmetrically at the
// Duration range
func millis(ms int64) time.Duration {
	ms = min(max(ms, -maxSkewMillis), maxSkewMillis)
	return time.Duration(ms) * time.Millisecond
}

func formatMillis(ms uint64) string {
	return time.UnixMilli(int64(ms)).UTC().Format("2006-01-02T15:04:05.000Z")
}
