package wspr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallsignHashDeterministic(t *testing.T) {
	a := CallsignHash("K1ABC")
	b := CallsignHash("k1abc")
	assert.Equal(t, a, b, "hash must be case-insensitive")
	assert.LessOrEqual(t, a, uint32(0x7FFF))
}

func TestCallsignHashDistinguishesCallsigns(t *testing.T) {
	a := CallsignHash("K1ABC")
	b := CallsignHash("W1AW")
	assert.NotEqual(t, a, b)
}

func TestMemHashTableLookupInsert(t *testing.T) {
	table := NewMemHashTable()

	_, ok := table.Lookup(12345)
	assert.False(t, ok)

	h := CallsignHash("K1ABC")
	table.Insert(h, "K1ABC")

	call, ok := table.Lookup(h)
	assert.True(t, ok)
	assert.Equal(t, "K1ABC", call)
}

func TestMemHashTableOverwrite(t *testing.T) {
	table := NewMemHashTable()
	h := CallsignHash("K1ABC")
	table.Insert(h, "K1ABC")
	table.Insert(h, "K1XYZ")

	call, ok := table.Lookup(h)
	assert.True(t, ok)
	assert.Equal(t, "K1XYZ", call)
}
