package report

import (
	"fmt"
	"io"

	"github.com/Lzww0608/scru64/conformance"
)

// Streamer writes every violation to w as soon as the pipeline reports it.
// It implements conformance.Observer.
type Streamer struct {
	w   io.Writer
	n   uint64
	err error
}

// NewStreamer returns a Streamer writing to w, typically os.Stderr
func NewStreamer(w io.Writer) *Streamer {
	return &Streamer{w: w}
}

// Observe implements conformance.Observer
func (s *Streamer) Observe(res *conformance.Result) {
	for _, v := range res.Violations {
		s.n++
		if s.err != nil {
			continue
		}
		s.err = WriteViolation(s.w, v)
	}
}

// Written returns the number of violation lines emitted
func (s *Streamer) Written() uint64 {
	return s.n
}

// Err returns the first write error, after which output is suppressed
func (s *Streamer) Err() error {
	return s.err
}

// WriteViolation writes the one-line form of v
func WriteViolation(w io.Writer, v conformance.Violation) error {
	_, err := fmt.Fprintf(w, "violation line=%d index=%d kind=%s prev=%s curr=%q detail=%q\n",
		v.Position, v.Index, v.Kind, v.Previous(), v.Current(), v.Detail)
	return err
}
