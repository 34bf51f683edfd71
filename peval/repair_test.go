package peval

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRepairStripsLeadingPadding(t *testing.T) {
	valid := BuildMinimalAssembly(300)
	padded := make([]byte, 16+len(valid))
	copy(padded[16:], valid)

	require.False(t, Validate(padded).Bool())

	repaired, ok := Repair(padded)
	require.True(t, ok)
	require.Equal(t, valid, repaired)
	require.True(t, Validate(repaired).Bool())
}

func TestRepairPatchesPEOffset(t *testing.T) {
	valid := BuildMinimalAssembly(300)
	corrupted := make([]byte, len(valid))
	copy(corrupted, valid)
	// Blow away the PE offset so rule 3 fails, while leaving the real
	// "PE" signature bytes in place for the scan to rediscover.
	corrupted[0x3C], corrupted[0x3D], corrupted[0x3E], corrupted[0x3F] = 0, 0, 0, 0
	corrupted[0x3C] = 0x01 // points into the middle of nowhere, not 0x80

	require.False(t, Validate(corrupted).Bool())

	repaired, ok := Repair(corrupted)
	require.True(t, ok)
	require.True(t, Validate(repaired).Bool())
}

func TestRepairFailsOnUnrecoverableGarbage(t *testing.T) {
	garbage := make([]byte, 300)
	for i := range garbage {
		garbage[i] = byte(i % 251)
	}
	// Make sure it doesn't accidentally start with MZ.
	garbage[0], garbage[1] = 'Z', 'Z'

	_, ok := Repair(garbage)
	require.False(t, ok)
}
