package wspr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteParityTable(t *testing.T) {
	for i := 0; i < 256; i++ {
		count := 0
		for b := i; b != 0; b >>= 1 {
			count += b & 1
		}
		assert.Equal(t, byte(count%2), byteParity[i], "byte %d", i)
	}
}

func TestInterleaveTableIsPermutation(t *testing.T) {
	seen := make(map[int]bool, symbolCount)
	for _, p := range interleaveTable {
		assert.GreaterOrEqual(t, p, 0)
		assert.Less(t, p, symbolCount)
		assert.False(t, seen[p], "duplicate destination %d", p)
		seen[p] = true
	}
	assert.Len(t, seen, symbolCount)
}

func TestConvolveDeterministic(t *testing.T) {
	var info [infoBytes]byte
	info[0] = 0xAB
	info[1] = 0xCD

	a := convolve(info)
	b := convolve(info)
	assert.Equal(t, a, b)
}

func TestDeinterleaveParityInvertsOverlaySync(t *testing.T) {
	var info [infoBytes]byte
	info[3] = 0x5A

	symbols := convolve(info)
	parity := deinterleaveParity(symbols)

	// re-derive the flat parity stream the encoder produced before
	// interleaving, and check it against a from-scratch computation.
	var reg uint32
	var want [symbolCount]byte
	p := 0
	for byteIdx := 0; byteIdx < len(info) && p < symbolCount; byteIdx++ {
		for bit := 7; bit >= 0 && p < symbolCount; bit-- {
			reg = (reg << 1) | uint32((info[byteIdx]>>uint(bit))&1)
			want[p] = parityOf(reg & polynomial0)
			p++
			if p < symbolCount {
				want[p] = parityOf(reg & polynomial1)
				p++
			}
		}
	}
	assert.Equal(t, want, parity)
}
