package wspr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpackMessageType1(t *testing.T) {
	table := NewMemHashTable()
	callsignBits, err := packCallsign("K1ABC")
	require.NoError(t, err)
	ng, snapped, err := packGrid("FN20", 37)
	require.NoError(t, err)

	result := unpackMessage(callsignBits, ng, table)

	assert.Equal(t, Type1, result.MessageType)
	assert.Equal(t, "K1ABC", result.Callsign)
	assert.Equal(t, "FN20", result.Grid)
	assert.Equal(t, snapped, result.PowerDBm)
	assert.Equal(t, CallsignHash("K1ABC"), result.CallHash)

	call, ok := table.Lookup(CallsignHash("K1ABC"))
	assert.True(t, ok)
	assert.Equal(t, "K1ABC", call)
}

func TestUnpackMessageType3Resolved(t *testing.T) {
	table := NewMemHashTable()
	hash := CallsignHash("K1ABC")
	table.Insert(hash, "K1ABC")

	ng := hash<<7 | 63 // t = 63 -> raw = -1 -> Type3
	callsignBits := uint32(0)

	result := unpackMessage(callsignBits, ng, table)

	assert.Equal(t, Type3, result.MessageType)
	assert.Equal(t, "K1ABC", result.Callsign)
	assert.Equal(t, hash, result.CallHash)
	assert.Len(t, result.Grid, 6)
}

func TestUnpackMessageType3Unresolved(t *testing.T) {
	table := NewMemHashTable()
	ng := uint32(9999)<<7 | 63
	result := unpackMessage(0, ng, table)

	assert.Equal(t, Type3, result.MessageType)
	assert.Equal(t, unresolvedCallsign, result.Callsign)
}

func TestUnpackMessageType2(t *testing.T) {
	table := NewMemHashTable()
	hash := CallsignHash("K1ABC")
	table.Insert(hash, "K1ABC")

	// raw = -5 -> t = 59 -> power = -raw-2 = 3
	ng := hash<<7 | 59
	callsignBits := uint32(12345)

	result := unpackMessage(callsignBits, ng, table)

	assert.Equal(t, Type2, result.MessageType)
	assert.Equal(t, 3, result.PowerDBm)
	assert.Equal(t, hash, result.CallHash)
	assert.Contains(t, result.Callsign, "K1ABC")
}
