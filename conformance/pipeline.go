package conformance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/Lzww0608/scru64"
)

// ErrHalted is matched by the error Run returns after a halting violation
var ErrHalted = errors.New("conformance: halted on violation")

// HaltError carries the violation that stopped the run
type HaltError struct {
	Violation Violation
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("conformance: halted on %s", e.Violation)
}

func (e *HaltError) Unwrap() error {
	return ErrHalted
}

// ReadError reports an unrecoverable failure of the input stream
type ReadError struct {
	Line int // last line read successfully
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("conformance: read input after line %d: %v", e.Line, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Observer is notified of every processed line, after the Aggregator. The
// Result and its Violations slice are only valid during the call.
type Observer interface {
	Observe(res *Result)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(res *Result)

func (f ObserverFunc) Observe(res *Result) {
	f(res)
}

// Options configures a Pipeline. The zero value is usable: unset fields take
// the defaults documented on each field.
type Options struct {
	// RunID labels snapshots; empty is allowed
	RunID string

	// Freshness windows; zero value means NewFreshnessChecker defaults
	Freshness *FreshnessChecker

	Reset ResetPolicy

	// RetentionLimit is K in first-K/last-K retention, default DefaultRetentionLimit.
	// A negative value keeps no records.
	RetentionLimit int

	// HaltOn lists the kinds that stop the run immediately
	HaltOn KindSet

	// CommentPrefix marks lines to skip; empty disables comments
	CommentPrefix string

	// ClockSampleEvery shares one wall-clock sample between this many
	// consecutive lines, default 1 (sample per line)
	ClockSampleEvery int

	// MaxLineLen bounds buffered line length, default DefaultMaxLineLen
	MaxLineLen int

	// StatsInterval is the minimum wall-clock time between OnStats calls;
	// zero disables periodic snapshots
	StatsInterval time.Duration
	OnStats       func(Snapshot)

	// Clock defaults to time.Now
	Clock func() time.Time

	Logger *slog.Logger
}

// Pipeline runs decode, validation and aggregation for one input stream.
// A Pipeline is single-use and not safe for concurrent use.
type Pipeline struct {
	opts      Options
	fresh     FreshnessChecker
	seq       *SequenceValidator
	agg       *Aggregator
	observers []Observer
	stats     rate.Sometimes
	logger    *slog.Logger

	position    int
	index       uint64
	now         time.Time
	sinceSample int
	vbuf        [2]Violation
}

// NewPipeline builds a pipeline; observers are called in order for every line
func NewPipeline(opts Options, observers ...Observer) *Pipeline {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.ClockSampleEvery < 1 {
		opts.ClockSampleEvery = 1
	}
	if opts.MaxLineLen < scru64.EncodedLen {
		opts.MaxLineLen = DefaultMaxLineLen
	}
	if opts.RetentionLimit == 0 {
		opts.RetentionLimit = DefaultRetentionLimit
	}
	fresh := NewFreshnessChecker()
	if opts.Freshness != nil {
		fresh = *opts.Freshness
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		opts:      opts,
		fresh:     fresh,
		seq:       NewSequenceValidator(opts.Reset),
		agg:       NewAggregator(opts.RunID, opts.Clock(), opts.RetentionLimit),
		observers: observers,
		stats:     rate.Sometimes{Interval: opts.StatsInterval},
		logger:    logger,
	}
}

// Run consumes r until EOF, a halting violation, ctx cancellation or a read
// error, and returns the final snapshot in every case. The error is nil at
// EOF, a *HaltError, ctx.Err() or a *ReadError.
//
// Lines are read on a separate goroutine that shares nothing but a channel
// with the processing loop. After cancellation that goroutine stays blocked
// in r.Read until r returns.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan line, 1)
	go readLines(ctx, r, p.opts.MaxLineLen, lines)

	// first Do always fires; consume it so the first periodic report waits a full interval
	p.stats.Do(func() {})

	p.logger.Debug("conformance run started",
		slog.Duration("max_future_skew", p.fresh.MaxFutureSkew),
		slog.Duration("max_past_skew", p.fresh.MaxPastSkew),
		slog.Int("clock_sample_every", p.opts.ClockSampleEvery))

	for {
		select {
		case <-ctx.Done():
			return p.finish(), ctx.Err()
		case l, ok := <-lines:
			if !ok {
				if err := ctx.Err(); err != nil {
					return p.finish(), err
				}
				return p.finish(), nil
			}
			if l.err != nil {
				return p.finish(), &ReadError{Line: p.position, Err: l.err}
			}
			if err := p.process(l); err != nil {
				return p.finish(), err
			}
		}
	}
}

func (p *Pipeline) finish() Snapshot {
	snap := p.agg.Snapshot(p.opts.Clock())
	p.logger.Debug("conformance run finished",
		slog.Uint64("processed", snap.Processed),
		slog.Uint64("violations", snap.Violations))
	return snap
}

// process runs one line through every stage
func (p *Pipeline) process(l line) error {
	p.position++
	if len(bytes.TrimSpace(l.text)) == 0 {
		return nil
	}
	if p.opts.CommentPrefix != "" && bytes.HasPrefix(l.text, []byte(p.opts.CommentPrefix)) {
		return nil
	}

	p.index++
	if p.sinceSample == 0 {
		p.now = p.opts.Clock()
	}
	p.sinceSample = (p.sinceSample + 1) % p.opts.ClockSampleEvery

	res := Result{
		Position:   p.position,
		Index:      p.index,
		CheckedAt:  p.now,
		Violations: p.vbuf[:0],
	}
	p.check(&res, l)

	p.agg.Record(&res)
	for _, o := range p.observers {
		o.Observe(&res)
	}
	if p.opts.OnStats != nil && p.opts.StatsInterval > 0 {
		p.stats.Do(func() { p.opts.OnStats(p.agg.Snapshot(p.now)) })
	}

	for _, v := range res.Violations {
		if p.opts.HaltOn.Has(v.Kind) {
			p.logger.Warn("halting on violation",
				slog.String("kind", v.Kind.String()),
				slog.Int("line", v.Position))
			return &HaltError{Violation: v}
		}
	}
	return nil
}

func (p *Pipeline) check(res *Result, l line) {
	violation := func(o Outcome) Violation {
		prev, hasPrev := p.seq.Last()
		return Violation{
			Position: res.Position,
			Index:    res.Index,
			Kind:     o.Kind,
			HasPrev:  hasPrev,
			Prev:     prev,
			Curr:     res.ID,
			Detail:   o.Detail,
		}
	}

	if l.overlong {
		v := violation(Outcome{MalformedInput, fmt.Sprintf("line exceeds %d bytes", p.opts.MaxLineLen)})
		v.Text = truncateText(l.text) + "..."
		res.Violations = append(res.Violations, v)
		return
	}

	id, err := scru64.ParseLine(l.text, res.Position)
	if err != nil {
		detail := err.Error()
		var de *scru64.DecodeError
		if errors.As(err, &de) {
			detail = fmt.Sprintf("%s: %s", de.Kind, de.Reason())
		}
		v := violation(Outcome{MalformedInput, detail})
		v.Text = truncateText(l.text)
		res.Violations = append(res.Violations, v)
		return
	}
	res.Decoded, res.ID = true, id

	// capture the predecessor before Check replaces it
	prev, hasPrev := p.seq.Last()
	if o := p.seq.Check(id); !o.OK() {
		v := violation(o)
		v.Prev, v.HasPrev = prev, hasPrev
		res.Violations = append(res.Violations, v)
	}

	o, skew := p.fresh.Check(id, p.now)
	res.Skew = skew
	if !o.OK() {
		v := violation(o)
		v.Prev, v.HasPrev = prev, hasPrev
		res.Violations = append(res.Violations, v)
	}
}
