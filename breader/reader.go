// Package breader provides a cursor over an in-memory byte slice with
// bounds-checked little-endian fixed-width reads and sub-slice borrowing.
//
// The AssemblyStore parser reads through a Reader rather than indexing
// the underlying slice directly, so that a truncated or corrupted store
// file fails with an error (errs.ErrShortRead or errs.ErrOutOfBounds from
// the Reader, which assemblystore reports as errs.ErrTruncated) instead
// of panicking on an out-of-range index. The manifest parser and the
// recovery scanner do not use a Reader.
package breader

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/assemblystore/extractor/errs"
)

// Reader is a cursor over a byte slice. It never copies the underlying
// data; all reads either advance the cursor over already-owned bytes or
// return a borrowed sub-slice that aliases the same backing array.
//
// Reader is not safe for concurrent use; callers needing concurrent
// access should give each goroutine its own Reader over the same slice.
type Reader struct {
	data []byte
	pos  int
}

// New creates a Reader positioned at offset 0 of data.
func New(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the total length of the underlying byte slice.
func (r *Reader) Len() int {
	return len(r.data)
}

// Pos returns the current cursor position.
func (r *Reader) Pos() int {
	return r.pos
}

// Remaining returns the number of bytes left to read.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Seek repositions the cursor to an absolute offset. It fails if pos is
// negative or past the end of the slice.
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return shortReadErr(r.pos, pos-r.pos)
	}
	r.pos = pos

	return nil
}

func shortReadErr(pos, want int) error {
	return errors.Wrapf(errs.ErrShortRead, "at position %d, wanted %d bytes", pos, want)
}

// Bytes returns the full underlying byte slice, unaffected by the
// cursor position.
func (r *Reader) Bytes() []byte {
	return r.data
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, shortReadErr(r.pos, n)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n

	return b, nil
}

// ReadBytes reads and returns n bytes starting at the cursor, advancing
// the cursor by n. The returned slice aliases the underlying data.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	return r.take(n)
}

// ReadUint8 reads one byte and advances the cursor.
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// ReadUint16 reads a little-endian uint16 and advances the cursor.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(b), nil
}

// ReadUint32 reads a little-endian uint32 and advances the cursor.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

// ReadUint64 reads a little-endian uint64 and advances the cursor.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b), nil
}

// Borrow returns the sub-slice [start, start+length) of the underlying
// data without moving the cursor. It fails if the range falls outside
// the slice.
func (r *Reader) Borrow(start, length int) ([]byte, error) {
	if start < 0 || length < 0 || start+length > len(r.data) {
		return nil, errors.Wrapf(errs.ErrOutOfBounds,
			"range [%d, %d) exceeds length %d", start, start+length, len(r.data))
	}

	return r.data[start : start+length], nil
}

// String renders the reader's position for diagnostics.
func (r *Reader) String() string {
	return fmt.Sprintf("breader.Reader{pos: %d, len: %d}", r.pos, len(r.data))
}
