package conformance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Lzww0608/scru64"
)

// baseMillis is a tick-aligned timestamp used as "now" throughout the tests
const baseMillis uint64 = 1700000000000

var baseTime = time.UnixMilli(int64(baseMillis))

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newID(t *testing.T, tsMillis uint64, nodeCtr uint32) scru64.ID {
	t.Helper()
	id, err := scru64.FromParts(tsMillis, nodeCtr)
	require.NoError(t, err)
	return id
}
