package conformance

import (
	"fmt"
	"strings"
	"time"

	"github.com/Lzww0608/scru64"
)

// Kind identifies the invariant a violation breaks. KindNone means accept.
type Kind uint8

const (
	KindNone Kind = iota
	MalformedInput
	OrderRegression
	Duplicate
	TimestampRegression
	CounterNotAdvancing
	CounterResetOutOfRange
	ClockAhead
	ClockBehind

	kindCount
)

var kindNames = [kindCount]string{
	KindNone:               "None",
	MalformedInput:         "MalformedInput",
	OrderRegression:        "OrderRegression",
	Duplicate:              "Duplicate",
	TimestampRegression:    "TimestampRegression",
	CounterNotAdvancing:    "CounterNotAdvancing",
	CounterResetOutOfRange: "CounterResetOutOfRange",
	ClockAhead:             "ClockAhead",
	ClockBehind:            "ClockBehind",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Kinds returns every violation kind in reporting order
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount-1)
	for k := MalformedInput; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// ParseKind resolves a kind name. Matching ignores case, '_' and '-', so
// "clock_ahead" and "ClockAhead" are the same kind.
func ParseKind(s string) (Kind, error) {
	norm := func(s string) string {
		return strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(s))
	}
	want := norm(s)
	for k := MalformedInput; k < kindCount; k++ {
		if norm(kindNames[k]) == want {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("conformance: unknown violation kind %q", s)
}

// sequential reports whether the kind is produced by the SequenceValidator
func (k Kind) sequential() bool {
	switch k {
	case OrderRegression, Duplicate, TimestampRegression, CounterNotAdvancing, CounterResetOutOfRange:
		return true
	}
	return false
}

// KindSet is a set of violation kinds
type KindSet uint16

// AllKinds contains every violation kind
const AllKinds KindSet = 1<<kindCount - 2

// NewKindSet returns a set holding kinds
func NewKindSet(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// With returns s plus k
func (s KindSet) With(k Kind) KindSet {
	if k == KindNone || k >= kindCount {
		return s
	}
	return s | 1<<k
}

// Has reports whether k is in s
func (s KindSet) Has(k Kind) bool {
	return k != KindNone && k < kindCount && s&(1<<k) != 0
}

// Outcome is the decision of a single check
type Outcome struct {
	Kind   Kind
	Detail string
}

// OK reports whether the check accepted the identifier
func (o Outcome) OK() bool {
	return o.Kind == KindNone
}

// maxTextLen bounds the raw text kept for malformed lines
const maxTextLen = 64

// Violation is an immutable record of one broken invariant
type Violation struct {
	Position int    // 1-based input line number
	Index    uint64 // 1-based index among processed (non-blank, non-comment) lines
	Kind     Kind
	HasPrev  bool
	Prev     scru64.ID
	Curr     scru64.ID // unset for MalformedInput
	Text     string    // raw input, set only for MalformedInput
	Detail   string
}

// Current returns the textual form of the offending input
func (v Violation) Current() string {
	if v.Kind == MalformedInput {
		return v.Text
	}
	return v.Curr.String()
}

// Previous returns the textual form of the previous identifier, or "-"
func (v Violation) Previous() string {
	if !v.HasPrev {
		return "-"
	}
	return v.Prev.String()
}

func (v Violation) String() string {
	return fmt.Sprintf("line %d (#%d): %s prev=%s curr=%q: %s",
		v.Position, v.Index, v.Kind, v.Previous(), v.Current(), v.Detail)
}

// Result carries everything the pipeline learned about one input line
type Result struct {
	Position  int
	Index     uint64
	CheckedAt time.Time

	// Decoded is false for MalformedInput; ID and Skew are unset then
	Decoded bool
	ID      scru64.ID
	Skew    time.Duration

	// Violations is reused between lines: observers must copy what they keep
	Violations []Violation
}

// OK reports whether the line was accepted without violations
func (r *Result) OK() bool {
	return len(r.Violations) == 0
}

// ordered reports whether the identifier passed the sequence checks
func (r *Result) ordered() bool {
	if !r.Decoded {
		return false
	}
	for _, v := range r.Violations {
		if v.Kind.sequential() {
			return false
		}
	}
	return true
}

func truncateText(b []byte) string {
	if len(b) <= maxTextLen {
		return string(b)
	}
	return string(b[:maxTextLen]) + "..."
}
