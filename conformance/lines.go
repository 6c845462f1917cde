package conformance

import (
	"bufio"
	"context"
	"errors"
	"io"
)

// DefaultMaxLineLen bounds the bytes buffered for a single input line
const DefaultMaxLineLen = 4096

// line is one input line handed from the reader goroutine to the pipeline.
// text is owned by the receiver.
type line struct {
	text     []byte
	overlong bool
	err      error
}

// readLines reads r line by line and sends each line on out until EOF, a read
// error or ctx cancellation. Lines longer than maxLen are drained without
// buffering them and sent truncated with overlong set. out is closed on
// return.
func readLines(ctx context.Context, r io.Reader, maxLen int, out chan<- line) {
	defer close(out)

	send := func(l line) bool {
		select {
		case out <- l:
			return true
		case <-ctx.Done():
			return false
		}
	}

	br := bufio.NewReaderSize(r, maxLen+2)
	for {
		b, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			l := line{text: append([]byte(nil), b[:min(len(b), maxTextLen)]...), overlong: true}
			if err = discardLine(br); err != nil && !errors.Is(err, io.EOF) {
				send(l)
				send(line{err: err})
				return
			}
			if !send(l) {
				return
			}
			if err != nil {
				return
			}
			continue
		}
		if len(b) > 0 {
			if !send(line{text: append([]byte(nil), trimEOL(b)...)}) {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				send(line{err: err})
			}
			return
		}
	}
}

// discardLine skips the remainder of the current line
func discardLine(br *bufio.Reader) error {
	for {
		_, err := br.ReadSlice('\n')
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}

func trimEOL(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	return b
}
