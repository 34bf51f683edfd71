package xalz

import (
	"encoding/binary"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"

	"github.com/assemblystore/extractor/errs"
)

// packEnvelope builds a well-formed XALZ envelope around an arbitrary
// byte payload, compressing it as a single raw LZ4 block.
func packEnvelope(t *testing.T, payload []byte) []byte {
	t.Helper()

	dst := make([]byte, lz4.CompressBlockBound(len(payload)))
	var c lz4.Compressor
	n, err := c.CompressBlock(payload, dst)
	require.NoError(t, err)

	block := dst[:n]
	if n == 0 && len(payload) > 0 {
		// Incompressible input: CompressBlock may decline to emit a
		// block; fall back to storing it raw is not supported by this
		// envelope, so exercise with compressible data in that case.
		t.Fatal("test payload was incompressible, choose a different fixture")
	}

	env := make([]byte, HeaderSize+len(block))
	copy(env[0:4], Magic[:])
	binary.LittleEndian.PutUint32(env[4:8], 0) // descriptor index, ignored
	binary.LittleEndian.PutUint32(env[8:12], uint32(len(payload)))
	copy(env[HeaderSize:], block)

	return env
}

func TestDecodeRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, over and over and over again")
	env := packEnvelope(t, payload)

	got, err := Decode(env)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestDecodeEmptyPayload(t *testing.T) {
	env := make([]byte, HeaderSize)
	copy(env[0:4], Magic[:])

	got, err := Decode(env)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDecodeEnvelopeTooShort(t *testing.T) {
	_, err := Decode([]byte{'X', 'A', 'L', 'Z', 0, 0})
	require.ErrorIs(t, err, errs.ErrEnvelopeTooShort)
}

func TestDecodeMissingMagic(t *testing.T) {
	env := make([]byte, HeaderSize)
	copy(env[0:4], []byte("ZZZZ"))
	_, err := Decode(env)
	require.ErrorIs(t, err, errs.ErrEnvelopeTooShort)
}

func TestDecodeDeclaredSizeExceedsCeiling(t *testing.T) {
	env := make([]byte, HeaderSize)
	copy(env[0:4], Magic[:])
	binary.LittleEndian.PutUint32(env[8:12], 1<<30)

	_, err := Decode(env, WithMaxUncompressedSize(1024))
	require.ErrorIs(t, err, errs.ErrDeclaredSizeTooLarge)
}

func TestDecodeSizeMismatch(t *testing.T) {
	payload := []byte("mismatched size payload data for the test case")
	env := packEnvelope(t, payload)
	// Lie about the declared size.
	binary.LittleEndian.PutUint32(env[8:12], uint32(len(payload)+1))

	_, err := Decode(env)
	require.Error(t, err)
}

func TestHasMagic(t *testing.T) {
	require.True(t, HasMagic([]byte("XALZrest")))
	require.False(t, HasMagic([]byte("XABArest")))
	require.False(t, HasMagic([]byte("XA")))
}

func TestDeclaredSize(t *testing.T) {
	env := make([]byte, HeaderSize)
	copy(env[0:4], Magic[:])
	binary.LittleEndian.PutUint32(env[8:12], 4096)

	n, err := DeclaredSize(env)
	require.NoError(t, err)
	require.Equal(t, 4096, n)
}
