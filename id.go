package scru64

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// ID represents a decoded SCRU64 identifier: a 40-bit timestamp in units of
// 256 milliseconds followed by a 24-bit node_ctr field.
type ID uint64

const (
	// EncodedLen is the length of the canonical textual representation
	EncodedLen = 12

	// MaxID is the largest value representable by 12 base-36 digits (36^12 - 1)
	MaxID ID = 4738381338321616895

	// NodeCtrBits is the width of the node_ctr field
	NodeCtrBits = 24

	// NodeCtrMask selects the node_ctr field
	NodeCtrMask = 1<<NodeCtrBits - 1

	// TickMillis is the resolution of the timestamp field in milliseconds
	TickMillis = 256

	// MaxTimestamp is the largest timestamp (in milliseconds) of any valid ID
	MaxTimestamp = uint64(MaxID>>NodeCtrBits) << 8
)

// Nil is the zero ID
var Nil ID

// Parse decodes a SCRU64 identifier from its 12-character textual form.
// Upper- and lower-case digits are both accepted.
func Parse(s string) (ID, error) {
	return parse(s, 0)
}

// ParseBytes is like Parse but takes a byte slice and does not allocate on success
func ParseBytes(b []byte) (ID, error) {
	return parse(b, 0)
}

// ParseLine is like ParseBytes but records the input line number in any
// returned *DecodeError.
func ParseLine(b []byte, line int) (ID, error) {
	return parse(b, line)
}

// MustParse is like Parse but panics if the string cannot be parsed.
// It simplifies safe initialization of global variables and test fixtures.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("scru64: Parse(%q): %v", s, err))
	}
	return id
}

func parse[T text](src T, line int) (ID, error) {
	if len(src) != EncodedLen {
		return Nil, &DecodeError{Kind: Malformed, Text: string(src), Line: line, Offset: -1}
	}
	v, kind, offset := decodeBase36(src)
	if kind != 0 {
		return Nil, &DecodeError{Kind: kind, Text: string(src), Line: line, Offset: offset}
	}
	return ID(v), nil
}

// FromParts builds an ID from a Unix timestamp in milliseconds and a node_ctr
// value. The timestamp is truncated to the 256 ms resolution of the scheme.
func FromParts(timestampMs uint64, nodeCtr uint32) (ID, error) {
	if nodeCtr > NodeCtrMask {
		return Nil, fmt.Errorf("%w: node_ctr %d exceeds %d bits", ErrOutOfRange, nodeCtr, NodeCtrBits)
	}
	if timestampMs > MaxTimestamp+TickMillis-1 {
		return Nil, fmt.Errorf("%w: timestamp %d ms", ErrOutOfRange, timestampMs)
	}
	id := ID((timestampMs>>8)<<NodeCtrBits | uint64(nodeCtr))
	if id > MaxID {
		return Nil, fmt.Errorf("%w: value %d exceeds 36^12-1", ErrOutOfRange, uint64(id))
	}
	return id, nil
}

// Timestamp returns the Unix timestamp in milliseconds embedded in the ID
func (id ID) Timestamp() uint64 {
	return uint64(id>>NodeCtrBits) << 8
}

// NodeCtr returns the 24-bit node_ctr field
func (id ID) NodeCtr() uint32 {
	return uint32(id & NodeCtrMask)
}

// Time returns the embedded timestamp as a time.Time
func (id ID) Time() time.Time {
	return time.UnixMilli(int64(id.Timestamp()))
}

// Uint64 returns the integer value of the ID
func (id ID) Uint64() uint64 {
	return uint64(id)
}

// String returns the canonical 12-character lower-case representation.
// IDs above MaxID wrap in the leading digit and are not round-trippable.
func (id ID) String() string {
	var buf [EncodedLen]byte
	encodeBase36(buf[:], uint64(id))
	return string(buf[:])
}

// IsNil returns true if the ID is zero
func (id ID) IsNil() bool {
	return id == Nil
}

// Compare returns -1, 0 or +1 depending on whether id is less than, equal to
// or greater than other. Numeric and textual order coincide.
func (id ID) Compare(other ID) int {
	switch {
	case id < other:
		return -1
	case id > other:
		return 1
	default:
		return 0
	}
}

// MarshalText implements the encoding.TextMarshaler interface
func (id ID) MarshalText() ([]byte, error) {
	var buf [EncodedLen]byte
	encodeBase36(buf[:], uint64(id))
	return buf[:], nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface
func (id *ID) UnmarshalText(data []byte) error {
	v, err := ParseBytes(data)
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// Scan implements the sql.Scanner interface for database compatibility
func (id *ID) Scan(src interface{}) error {
	switch src := src.(type) {
	case nil:
		return nil
	case string:
		v, err := Parse(src)
		if err != nil {
			return err
		}
		*id = v
		return nil
	case []byte:
		if len(src) == 0 {
			return nil
		}
		v, err := ParseBytes(src)
		if err != nil {
			return err
		}
		*id = v
		return nil
	case int64:
		if src < 0 || ID(src) > MaxID {
			return fmt.Errorf("%w: %d", ErrOutOfRange, src)
		}
		*id = ID(src)
		return nil
	default:
		return fmt.Errorf("scru64: cannot scan type %T into ID", src)
	}
}

// Value implements the driver.Valuer interface for database compatibility
func (id ID) Value() (driver.Value, error) {
	return id.String(), nil
}
