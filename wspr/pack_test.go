package wspr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackCallsignRoundTrip(t *testing.T) {
	tests := []struct {
		callsign string
		want     string
	}{
		{"K1ABC", "K1ABC"},
		{"W1AW", "W1AW"},
		{"G0ABC", "G0ABC"},
		{"9A1XYZ", "9A1XYZ"},
		{"K1A", "K1A"},
	}
	for _, tt := range tests {
		t.Run(tt.callsign, func(t *testing.T) {
			n, err := packCallsign(tt.callsign)
			require.NoError(t, err)
			assert.LessOrEqual(t, n, uint32(0x0FFFFFFF))
			assert.Equal(t, tt.want, unpackCallsign(n))
		})
	}
}

func TestPackCallsignInjective(t *testing.T) {
	calls := []string{"K1ABC", "W1AW", "G0ABC", "9A1XYZ", "K1A", "N0CALL", "VE3ABC"}
	seen := make(map[uint32]string)
	for _, c := range calls {
		n, err := packCallsign(c)
		require.NoError(t, err)
		if prev, ok := seen[n]; ok {
			t.Fatalf("collision: %q and %q both pack to %d", c, prev, n)
		}
		seen[n] = c
	}
}

func TestPackCallsignInvalid(t *testing.T) {
	tests := []string{"", "TOOLONGCALL", "1234", "K@ABC"}
	for _, tt := range tests {
		t.Run(tt, func(t *testing.T) {
			_, err := packCallsign(tt)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestPackGridRoundTrip(t *testing.T) {
	tests := []struct {
		grid  string
		power int
	}{
		{"FN20", 37},
		{"AA00", 0},
		{"RR99", 60},
		{"JO65", 23},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%d", tt.grid, tt.power), func(t *testing.T) {
			ng, snapped, err := packGrid(tt.grid, tt.power)
			require.NoError(t, err)
			assert.LessOrEqual(t, ng, uint32(0x003FFFFF))

			m := ng >> 7
			assert.Equal(t, tt.grid, unpackGrid(m))
			assert.Equal(t, snapPower(tt.power), snapped)
		})
	}
}

func TestSnapPowerIdempotent(t *testing.T) {
	for p := 0; p <= 60; p++ {
		once := snapPower(p)
		twice := snapPower(once)
		assert.Equal(t, once, twice, "snapping an already-snapped power must be a no-op, power=%d", p)
	}
}

func TestPackGridInvalid(t *testing.T) {
	_, _, err := packGrid("ZZ99", 37)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = packGrid("FN20", 100)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = packGrid("FN2", 37)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAlignCallsignDigitPlacement(t *testing.T) {
	aligned, err := alignCallsign("W1AW")
	require.NoError(t, err)
	assert.Equal(t, byte('1'), aligned[2])

	aligned, err = alignCallsign("G0ABC")
	require.NoError(t, err)
	assert.Equal(t, byte('0'), aligned[2])
}
