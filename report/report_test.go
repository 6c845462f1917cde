package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lzww0608/scru64"
	"github.com/Lzww0608/scru64/conformance"
)

var now = time.UnixMilli(1700000000000)

func sampleSnapshot(t *testing.T) conformance.Snapshot {
	t.Helper()
	id := func(ctr uint32) string {
		v, err := scru64.FromParts(1700000000000, ctr)
		require.NoError(t, err)
		return v.String()
	}

	p := conformance.NewPipeline(conformance.Options{
		RunID:          "testrun",
		RetentionLimit: 1,
		Clock:          func() time.Time { return now },
	})
	input := strings.Join([]string{id(1), id(2), id(2), "bogus", id(0), id(3)}, "\n")
	snap, err := p.Run(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	return snap
}

func TestStreamer(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamer(&buf)

	prev := scru64.MustParse("0ugzz2pkrpzq")
	s.Observe(&conformance.Result{Violations: []conformance.Violation{
		{Position: 7, Index: 5, Kind: conformance.Duplicate, HasPrev: true, Prev: prev, Curr: prev, Detail: "repeats"},
		{Position: 8, Index: 6, Kind: conformance.MalformedInput, Text: "x y", Detail: "malformed: length 3, want 12"},
	}})
	s.Observe(&conformance.Result{})

	want := "violation line=7 index=5 kind=Duplicate prev=0ugzz2pkrpzq curr=\"0ugzz2pkrpzq\" detail=\"repeats\"\n" +
		"violation line=8 index=6 kind=MalformedInput prev=- curr=\"x y\" detail=\"malformed: length 3, want 12\"\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, uint64(2), s.Written())
	assert.NoError(t, s.Err())
}

type failingWriter struct{ calls int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	return 0, io.ErrClosedPipe
}

func TestStreamer_WriteError(t *testing.T) {
	w := &failingWriter{}
	s := NewStreamer(w)

	v := conformance.Violation{Kind: conformance.Duplicate}
	s.Observe(&conformance.Result{Violations: []conformance.Violation{v, v, v}})

	assert.ErrorIs(t, s.Err(), io.ErrClosedPipe)
	assert.Equal(t, 1, w.calls)
	assert.Equal(t, uint64(3), s.Written())
}

func TestRender(t *testing.T) {
	snap := sampleSnapshot(t)
	opts := Options{MaxFutureSkew: time.Second, MaxPastSkew: 10 * time.Second, Records: true}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, snap, opts))
	out := buf.String()

	assert.Contains(t, out, "run testrun: started 2023-11-14T22:13:20Z")
	assert.Contains(t, out, fmt.Sprintf(rowFormat, "Number of lines processed", "NA", "6"))
	assert.Contains(t, out, fmt.Sprintf(rowFormat, "Number of valid IDs decoded", "NA", "5"))
	assert.Contains(t, out, fmt.Sprintf(rowFormat, "Number of violations", "0 max", "3"))
	assert.Contains(t, out, fmt.Sprintf(rowFormat, "Duplicate", "0", "1"))
	assert.Contains(t, out, fmt.Sprintf(rowFormat, "MalformedInput", "0", "1"))
	assert.Contains(t, out, fmt.Sprintf(rowFormat, "OrderRegression", "0", "1"))
	assert.Contains(t, out, fmt.Sprintf(rowFormat, "ClockAhead", "0", "0"))
	assert.Contains(t, out, "-1.0 - 10.0")
	assert.Contains(t, out, "Retained violations (2 of 3):")
	assert.Contains(t, out, "(1 violations between the first and last records were not retained)")
}

func TestRender_Idempotent(t *testing.T) {
	snap := sampleSnapshot(t)
	opts := Options{MaxFutureSkew: time.Second, MaxPastSkew: 10 * time.Second, Records: true}

	var first, second bytes.Buffer
	require.NoError(t, Render(&first, snap, opts))
	require.NoError(t, Render(&second, snap, opts))
	assert.Equal(t, first.String(), second.String())
}

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, conformance.Snapshot{}, Options{Records: true}))

	out := buf.String()
	assert.Contains(t, out, fmt.Sprintf(rowFormat, "Current time less timestamp of last ID (sec)", "NA", "NA"))
	assert.NotContains(t, out, "Skew min")
	assert.NotContains(t, out, "Retained violations")
}

func TestRender_WriteError(t *testing.T) {
	err := Render(&failingWriter{}, conformance.Snapshot{}, Options{})
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestVerdict(t *testing.T) {
	clean := conformance.Snapshot{Processed: 3, Decoded: 3}
	dirty := conformance.Snapshot{Processed: 3, Decoded: 3, Violations: 2}
	empty := conformance.Snapshot{}
	halted := &conformance.HaltError{Violation: conformance.Violation{Kind: conformance.Duplicate}}
	readErr := &conformance.ReadError{Line: 3, Err: io.ErrUnexpectedEOF}

	tests := []struct {
		name        string
		snap        conformance.Snapshot
		err         error
		threshold   uint64
		failOnEmpty bool
		want        int
	}{
		{"clean", clean, nil, 0, false, ExitOK},
		{"violations", dirty, nil, 0, false, ExitViolations},
		{"under threshold", dirty, nil, 2, false, ExitOK},
		{"over threshold", dirty, nil, 1, false, ExitViolations},
		{"halted", dirty, halted, 5, false, ExitViolations},
		{"read error", clean, readErr, 0, false, ExitFatal},
		{"unexpected error", clean, errors.New("boom"), 0, false, ExitFatal},
		{"canceled clean", clean, context.Canceled, 0, false, ExitOK},
		{"canceled dirty", dirty, fmt.Errorf("run: %w", context.Canceled), 0, false, ExitViolations},
		{"empty allowed", empty, nil, 0, false, ExitOK},
		{"empty rejected", empty, nil, 0, true, ExitViolations},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Verdict(tt.snap, tt.err, tt.threshold, tt.failOnEmpty))
		})
	}
}
