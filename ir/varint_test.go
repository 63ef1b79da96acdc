package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarintBoundaryValues(t *testing.T) {
	cases := []struct {
		v         uint64
		wantBytes int
	}{
		{0, 1},
		{127, 1},
		{128, 2},
		{16383, 2},
		{16384, 3},
		{4294967295, 5}, // 2^32 - 1
	}
	for _, c := range cases {
		buf := writeVarint(nil, c.v)
		require.Len(t, buf, c.wantBytes, "encoded byte count for %d", c.v)
		n, got := readVarint(buf)
		require.Equal(t, c.wantBytes, n, "decoded byte count for %d", c.v)
		require.Equal(t, c.v, got, "round-trip value for %d", c.v)
	}
}

func TestVarintRoundTripIsPrefixFree(t *testing.T) {
	// Appending a second varint right after the first must not disturb
	// decoding the first one.
	buf := writeVarint(nil, 300)
	buf = writeVarint(buf, 9000)

	n1, v1 := readVarint(buf)
	require.Equal(t, uint64(300), v1)
	n2, v2 := readVarint(buf[n1:])
	require.Equal(t, uint64(9000), v2)
	require.Equal(t, len(buf), n1+n2)
}
