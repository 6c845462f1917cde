package conformance

import (
	"fmt"

	"github.com/Lzww0608/scru64"
)

// ResetPolicy constrains the counter value a generator may pick when the
// timestamp advances. The low CounterBits of node_ctr are taken as the
// counter and must not exceed MaxInitial. A zero CounterBits disables the
// check, which is the default since the split between node id and counter
// is chosen by each generator.
type ResetPolicy struct {
	CounterBits uint8
	MaxInitial  uint32
}

// Enabled reports whether the policy is in effect
func (p ResetPolicy) Enabled() bool {
	return p.CounterBits > 0
}

func (p ResetPolicy) counter(id scru64.ID) uint32 {
	bits := p.CounterBits
	if bits > scru64.NodeCtrBits {
		bits = scru64.NodeCtrBits
	}
	return id.NodeCtr() & (1<<bits - 1)
}

// fields is an identifier as the sequence checks see it
type fields struct {
	value   uint64
	ts      uint64
	nodeCtr uint32
}

func splitID(id scru64.ID) fields {
	return fields{value: id.Uint64(), ts: id.Timestamp(), nodeCtr: id.NodeCtr()}
}

// SequenceValidator enforces strict monotonicity across the stream. It is not
// safe for concurrent use.
type SequenceValidator struct {
	last    scru64.ID
	hasLast bool
	reset   ResetPolicy
	split   func(scru64.ID) fields
}

// NewSequenceValidator returns a validator that has seen no identifier yet
func NewSequenceValidator(reset ResetPolicy) *SequenceValidator {
	return &SequenceValidator{reset: reset, split: splitID}
}

// Last returns the previously checked identifier, if any
func (v *SequenceValidator) Last() (scru64.ID, bool) {
	return v.last, v.hasLast
}

// Check compares curr against the previous identifier and then makes curr
// the new previous one, whatever the outcome.
func (v *SequenceValidator) Check(curr scru64.ID) Outcome {
	prev, hasPrev := v.last, v.hasLast
	v.last, v.hasLast = curr, true

	if !hasPrev {
		return Outcome{}
	}
	return v.compare(v.split(prev), v.split(curr), curr)
}

func (v *SequenceValidator) compare(prev, curr fields, id scru64.ID) Outcome {
	switch {
	case curr.value < prev.value:
		return Outcome{OrderRegression, fmt.Sprintf("value %d < previous %d, want greater", curr.value, prev.value)}
	case curr.value == prev.value:
		return Outcome{Duplicate, fmt.Sprintf("value %d repeats previous, want greater", curr.value)}
	}

	// With the timestamp in the high bits and node_ctr in the low bits, an
	// increasing value always has a later timestamp or, within a tick, a
	// greater node_ctr. The first two cases only fire if the split drifts
	// from the value ordering.
	switch {
	case curr.ts < prev.ts:
		return Outcome{TimestampRegression, fmt.Sprintf("timestamp %d < previous %d", curr.ts, prev.ts)}
	case curr.ts == prev.ts && curr.nodeCtr <= prev.nodeCtr:
		return Outcome{CounterNotAdvancing, fmt.Sprintf("node_ctr %#06x <= previous %#06x at timestamp %d, want greater",
			curr.nodeCtr, prev.nodeCtr, curr.ts)}
	case curr.ts > prev.ts && v.reset.Enabled():
		if c := v.reset.counter(id); c > v.reset.MaxInitial {
			return Outcome{CounterResetOutOfRange, fmt.Sprintf("counter %#x after timestamp advance exceeds %#x",
				c, v.reset.MaxInitial)}
		}
	}
	return Outcome{}
}
