package breader

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/assemblystore/extractor/errs"
)

func TestReadFixedWidth(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A}
	r := New(data)

	u8, err := r.ReadUint8()
	require.NoError(t, err)
	require.Equal(t, uint8(0x01), u8)

	u16, err := r.ReadUint16()
	require.NoError(t, err)
	require.Equal(t, uint16(0x0302), u16)

	u32, err := r.ReadUint32()
	require.NoError(t, err)
	require.Equal(t, uint32(0x07060504), u32)

	require.Equal(t, 7, r.Pos())
	require.Equal(t, 3, r.Remaining())
}

func TestReadUint64(t *testing.T) {
	data := make([]byte, 8)
	for i := range data {
		data[i] = byte(i + 1)
	}
	r := New(data)
	v, err := r.ReadUint64()
	require.NoError(t, err)
	require.Equal(t, uint64(0x0807060504030201), v)
}

func TestShortRead(t *testing.T) {
	r := New([]byte{0x01, 0x02})
	_, err := r.ReadUint32()
	require.ErrorIs(t, err, errs.ErrShortRead)
}

func TestReadBytesAdvancesCursor(t *testing.T) {
	data := []byte("hello world")
	r := New(data)
	b, err := r.ReadBytes(5)
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))
	require.Equal(t, 5, r.Pos())
}

func TestBorrowDoesNotAdvanceCursor(t *testing.T) {
	data := []byte("hello world")
	r := New(data)
	b, err := r.Borrow(6, 5)
	require.NoError(t, err)
	require.Equal(t, "world", string(b))
	require.Equal(t, 0, r.Pos())
}

func TestBorrowOutOfBounds(t *testing.T) {
	r := New([]byte{1, 2, 3})
	_, err := r.Borrow(1, 10)
	require.ErrorIs(t, err, errs.ErrOutOfBounds)
}

func TestSeek(t *testing.T) {
	r := New([]byte{1, 2, 3, 4})
	require.NoError(t, r.Seek(2))
	require.Equal(t, 2, r.Pos())

	err := r.Seek(10)
	require.Error(t, err)
}
