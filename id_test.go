package scru64

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr error
	}{
		{
			name:  "zero",
			input: "000000000000",
			want:  0,
		},
		{
			name:  "lower case",
			input: "0ugzz2pkrpzq",
			want:  111411200001193046,
		},
		{
			name:  "upper case",
			input: "0UGZZ2PKRPZQ",
			want:  111411200001193046,
		},
		{
			name:  "mixed case",
			input: "0uGzZ2pKrPzQ",
			want:  111411200001193046,
		},
		{
			name:  "max value",
			input: "zzzzzzzzzzzz",
			want:  MaxID,
		},
		{
			name:    "invalid format - too long",
			input:   "0000000000000",
			wantErr: ErrMalformed,
		},
		{
			name:    "invalid format - too short",
			input:   "00000000000",
			wantErr: ErrMalformed,
		},
		{
			name:    "invalid format - empty",
			input:   "",
			wantErr: ErrMalformed,
		},
		{
			name:    "invalid format - hyphen",
			input:   "0ugzz2-krpzq",
			wantErr: ErrMalformed,
		},
		{
			name:    "invalid format - non-ascii",
			input:   "0ugzz2pkrpz\xc3",
			wantErr: ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Parse(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if id != tt.want {
				t.Errorf("Parse() = %d, want %d", id, tt.want)
			}
			// Verify round-trip
			id2, err := Parse(id.String())
			if err != nil {
				t.Errorf("Round-trip parse failed: %v", err)
			}
			if id != id2 {
				t.Errorf("Round-trip ID mismatch: got %v, want %v", id2, id)
			}
		})
	}
}

func TestParseLine_DecodeError(t *testing.T) {
	_, err := ParseLine([]byte("0ugzz2pk!pzq"), 42)

	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("ParseLine() error = %T, want *DecodeError", err)
	}
	if de.Kind != Malformed {
		t.Errorf("Kind = %v, want %v", de.Kind, Malformed)
	}
	if de.Line != 42 {
		t.Errorf("Line = %d, want 42", de.Line)
	}
	if de.Offset != 8 {
		t.Errorf("Offset = %d, want 8", de.Offset)
	}
	if de.Text != "0ugzz2pk!pzq" {
		t.Errorf("Text = %q", de.Text)
	}
}

// Parse must be total over arbitrary bytes: a value or a typed error, never a panic.
func TestParse_Total(t *testing.T) {
	var buf [EncodedLen]byte
	for b := 0; b < 256; b++ {
		for i := range buf {
			buf[i] = '0'
		}
		buf[b%EncodedLen] = byte(b)

		id, err := ParseBytes(buf[:])
		if err != nil {
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("byte %#x: error %v is not a *DecodeError", b, err)
			}
			if decodeMap[byte(b)] != invalidDigit {
				t.Errorf("byte %#x rejected but is in the alphabet", b)
			}
			continue
		}
		if id > MaxID {
			t.Errorf("byte %#x decoded beyond MaxID: %d", b, id)
		}
	}
}

func TestDecodeBase36_Overflow(t *testing.T) {
	// 13 digits exceed 64 bits well before the last one
	_, kind, _ := decodeBase36("zzzzzzzzzzzzz")
	if kind != Overflow {
		t.Errorf("decodeBase36() kind = %v, want %v", kind, Overflow)
	}

	// 2^64 - 1 = 3w5e11264sgsf in base 36
	v, kind, _ := decodeBase36("3w5e11264sgsf")
	if kind != 0 || v != ^uint64(0) {
		t.Errorf("decodeBase36() = %d, %v, want max uint64", v, kind)
	}
	_, kind, _ = decodeBase36("3w5e11264sgsg")
	if kind != Overflow {
		t.Errorf("decodeBase36() kind = %v, want %v", kind, Overflow)
	}

	err := &DecodeError{Kind: Overflow, Text: "3w5e11264sgsg", Offset: -1}
	if !errors.Is(err, ErrOverflow) {
		t.Error("DecodeError{Overflow} does not match ErrOverflow")
	}
}

func TestID_Fields(t *testing.T) {
	id := MustParse("0ugzz2pkrpzq")

	if got := id.Timestamp(); got != 1700000000000 {
		t.Errorf("Timestamp() = %d, want 1700000000000", got)
	}
	if got := id.NodeCtr(); got != 0x123456 {
		t.Errorf("NodeCtr() = %#x, want 0x123456", got)
	}
	if got := id.Time(); !got.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("Time() = %v", got)
	}
}

func TestFromParts(t *testing.T) {
	id, err := FromParts(1700000000000, 0x123456)
	if err != nil {
		t.Fatalf("FromParts() error = %v", err)
	}
	if id.String() != "0ugzz2pkrpzq" {
		t.Errorf("FromParts() = %s, want 0ugzz2pkrpzq", id)
	}

	// Sub-tick milliseconds are truncated
	id2, err := FromParts(1700000000000+255, 0x123456)
	if err != nil {
		t.Fatalf("FromParts() error = %v", err)
	}
	if id2 != id {
		t.Errorf("FromParts() did not truncate to tick: %s != %s", id2, id)
	}

	if _, err := FromParts(0, NodeCtrMask+1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("FromParts() node_ctr overflow error = %v", err)
	}
	if _, err := FromParts(MaxTimestamp+TickMillis, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("FromParts() timestamp overflow error = %v", err)
	}
}

func TestID_IsNil(t *testing.T) {
	if !Nil.IsNil() {
		t.Error("Nil.IsNil() = false, want true")
	}
	if MustParse("000000000001").IsNil() {
		t.Error("IsNil() = true for non-zero ID")
	}
}

func TestID_MarshalUnmarshalText(t *testing.T) {
	original := MustParse("0ugzz2pkrpzq")

	text, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}

	var decoded ID
	if err := decoded.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if decoded != original {
		t.Errorf("Round-trip failed: got %v, want %v", decoded, original)
	}
}

func TestID_JSON(t *testing.T) {
	type Event struct {
		ID   ID     `json:"id"`
		Name string `json:"name"`
	}

	in := Event{ID: MustParse("0ugzz2pkrpzq"), Name: "test"}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(data) != `{"id":"0ugzz2pkrpzq","name":"test"}` {
		t.Errorf("json.Marshal() = %s", data)
	}

	var out Event
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if out != in {
		t.Errorf("JSON round-trip failed: got %+v, want %+v", out, in)
	}
}

func TestID_Compare(t *testing.T) {
	a := MustParse("00000000000a")
	b := MustParse("00000000000B")

	if a.Compare(b) != -1 {
		t.Error("Compare() should return -1 for a < b")
	}
	if b.Compare(a) != 1 {
		t.Error("Compare() should return 1 for b > a")
	}
	if a.Compare(a) != 0 {
		t.Error("Compare() should return 0 for equal IDs")
	}
	// Textual order must agree with numeric order
	if (a.String() < b.String()) != (a < b) {
		t.Error("textual and numeric order disagree")
	}
}

func TestID_Scan(t *testing.T) {
	tests := []struct {
		name    string
		src     interface{}
		want    ID
		wantErr bool
	}{
		{"nil", nil, Nil, false},
		{"string", "0ugzz2pkrpzq", 111411200001193046, false},
		{"bytes", []byte("0ugzz2pkrpzq"), 111411200001193046, false},
		{"empty bytes", []byte{}, Nil, false},
		{"int64", int64(42), 42, false},
		{"negative int64", int64(-1), Nil, true},
		{"invalid string", "nope", Nil, true},
		{"unsupported type", 3.14, Nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			err := id.Scan(tt.src)
			if (err != nil) != tt.wantErr {
				t.Errorf("Scan() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && id != tt.want {
				t.Errorf("Scan() = %v, want %v", id, tt.want)
			}
		})
	}
}

func TestID_Value(t *testing.T) {
	v, err := MustParse("0ugzz2pkrpzq").Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if v != "0ugzz2pkrpzq" {
		t.Errorf("Value() = %v, want 0ugzz2pkrpzq", v)
	}
}

func TestMustParse(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustParse() did not panic on invalid input")
		}
	}()
	MustParse("invalid")
}
