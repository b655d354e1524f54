package format

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{1, "1.00 Bytes"},
		{10, "10.00 Bytes"},
		{1023, "1023.00 Bytes"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1258291, "1.20 MB"},
		{5 * 1024 * 1024 * 1024, "5.00 GB"},
		{3 * 1024 * 1024 * 1024 * 1024, "3.00 TB"},
		{2048 * 1024 * 1024 * 1024 * 1024, "2048.00 TB"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Bytes(tc.in), "Bytes(%d)", tc.in)
	}
}

func TestBytesPrecision(t *testing.T) {
	assert.Equal(t, "1 MB", BytesPrecision(1258291, 0))
	assert.Equal(t, "1.2 MB", BytesPrecision(1258291, 1))
	assert.Equal(t, "1.200 MB", BytesPrecision(1258291, 3))
	assert.Equal(t, "2 KB", BytesPrecision(1536, -1))
	assert.Equal(t, "0 Bytes", BytesPrecision(0, 5))
}

func TestBytesSelectsUnitInRange(t *testing.T) {
	for _, n := range []int64{1, 7, 999, 1024, 4095, 1 << 20, 3<<30 + 12345, 1 << 40, 1<<40 - 1} {
		out := Bytes(n)
		parts := strings.SplitN(out, " ", 2)
		require.Len(t, parts, 2, out)

		idx := -1
		for i, u := range units {
			if u == parts[1] {
				idx = i
			}
		}
		require.NotEqual(t, -1, idx, "unknown unit in %q", out)

		scaled := float64(n) / math.Pow(1024, float64(idx))
		assert.GreaterOrEqual(t, scaled, 1.0, out)
		assert.Less(t, scaled, 1024.0, out)

		value, err := strconv.ParseFloat(parts[0], 64)
		require.NoError(t, err)
		assert.InDelta(t, scaled, value, 0.005, out)
	}
}
