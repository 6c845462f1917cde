package conformance

import (
	"math"
	"time"
)

// runningStats tracks min, max, mean and variance of a stream of durations
// in constant space using Welford's update.
type runningStats struct {
	n    uint64
	min  time.Duration
	max  time.Duration
	mean float64
	m2   float64
}

func (s *runningStats) add(d time.Duration) {
	s.n++
	if s.n == 1 || d < s.min {
		s.min = d
	}
	if s.n == 1 || d > s.max {
		s.max = d
	}
	x := float64(d)
	delta := x - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (x - s.mean)
}

// SkewStats summarises the skew of every decoded identifier
type SkewStats struct {
	Count  uint64
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration
}

func (s *runningStats) snapshot() SkewStats {
	if s.n == 0 {
		return SkewStats{}
	}
	var stddev float64
	if s.n > 1 {
		stddev = math.Sqrt(s.m2 / float64(s.n-1))
	}
	return SkewStats{
		Count:  s.n,
		Min:    s.min,
		Max:    s.max,
		Mean:   time.Duration(math.Round(s.mean)),
		StdDev: time.Duration(math.Round(stddev)),
	}
}
