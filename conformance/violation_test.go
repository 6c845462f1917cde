package conformance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_String(t *testing.T) {
	assert.Equal(t, "OrderRegression", OrderRegression.String())
	assert.Equal(t, "ClockBehind", ClockBehind.String())
	assert.Equal(t, "Kind(200)", Kind(200).String())
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := ParseKind("clock_ahead")
	require.NoError(t, err)
	assert.Equal(t, ClockAhead, got)

	got, err = ParseKind("counter-not-advancing")
	require.NoError(t, err)
	assert.Equal(t, CounterNotAdvancing, got)

	_, err = ParseKind("none")
	assert.Error(t, err)
	_, err = ParseKind("bogus")
	assert.Error(t, err)
}

func TestKindSet(t *testing.T) {
	s := NewKindSet(Duplicate, ClockAhead)
	assert.True(t, s.Has(Duplicate))
	assert.True(t, s.Has(ClockAhead))
	assert.False(t, s.Has(ClockBehind))
	assert.False(t, s.Has(KindNone))

	for _, k := range Kinds() {
		assert.True(t, AllKinds.Has(k), k.String())
	}
	assert.False(t, AllKinds.Has(KindNone))
	assert.False(t, KindSet(0).Has(Duplicate))
}

func TestViolation_Text(t *testing.T) {
	v := Violation{Position: 3, Index: 2, Kind: MalformedInput, Text: "abc", Detail: "malformed: length 3, want 12"}
	assert.Equal(t, "abc", v.Current())
	assert.Equal(t, "-", v.Previous())
	assert.Equal(t, `line 3 (#2): MalformedInput prev=- curr="abc": malformed: length 3, want 12`, v.String())

	assert.Len(t, truncateText(make([]byte, 100)), maxTextLen+3)
}
