// Package xalz decodes the toolkit's "XALZ" compression envelope used to
// wrap individual assembly payloads inside an AssemblyStore.
//
// The envelope is a fixed 12-byte header (magic, descriptor index, and
// declared uncompressed size) followed by a single raw LZ4 block — not a
// framed LZ4 stream. Because the declared size is known up front, Decode
// allocates its output buffer exactly once, unlike a general-purpose LZ4
// decompressor that must guess and retry.
package xalz

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"

	"github.com/assemblystore/extractor/errs"
)

// Magic is the 4-byte signature at the start of an XALZ envelope.
var Magic = [4]byte{'X', 'A', 'L', 'Z'}

// HeaderSize is the fixed size, in bytes, of the XALZ envelope header
// (magic + descriptor index + declared uncompressed size) that precedes
// the raw LZ4 block.
const HeaderSize = 12

// DefaultMaxUncompressedSize is the ceiling applied to an envelope's
// declared uncompressed size when no Option overrides it.
const DefaultMaxUncompressedSize = 64 * 1024 * 1024 // 64 MiB

// Option configures a Decode call.
type Option func(*config)

type config struct {
	maxUncompressedSize int
}

// WithMaxUncompressedSize overrides the ceiling placed on an envelope's
// declared uncompressed size. Envelopes declaring a larger size are
// rejected with errs.ErrDeclaredSizeTooLarge before any allocation or
// decompression is attempted.
func WithMaxUncompressedSize(n int) Option {
	return func(c *config) { c.maxUncompressedSize = n }
}

// HasMagic reports whether data begins with the XALZ signature. Callers
// use this to decide whether a descriptor's payload needs Decode at
// all, per spec: "If the slice begins with XALZ, decompress...".
func HasMagic(data []byte) bool {
	return len(data) >= 4 && data[0] == Magic[0] && data[1] == Magic[1] && data[2] == Magic[2] && data[3] == Magic[3]
}

// Decode unwraps an XALZ envelope and returns exactly the declared
// number of uncompressed bytes.
//
// Failures are fatal for the descriptor being decoded; the caller is
// expected to log and skip rather than abort the whole extraction.
func Decode(data []byte, opts ...Option) ([]byte, error) {
	cfg := config{maxUncompressedSize: DefaultMaxUncompressedSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(data) < HeaderSize {
		return nil, errors.Wrapf(errs.ErrEnvelopeTooShort, "got %d bytes, need at least %d", len(data), HeaderSize)
	}
	if !HasMagic(data) {
		return nil, errors.Wrap(errs.ErrEnvelopeTooShort, "missing XALZ magic")
	}

	// bytes 4-7: descriptor index, not meaningful to the decoder.
	declaredSize := int(binary.LittleEndian.Uint32(data[8:12]))
	if declaredSize > cfg.maxUncompressedSize {
		return nil, errors.Wrapf(errs.ErrDeclaredSizeTooLarge,
			"declared %d bytes, ceiling is %d bytes", declaredSize, cfg.maxUncompressedSize)
	}

	block := data[HeaderSize:]
	dst := make([]byte, declaredSize)

	n, err := lz4.UncompressBlock(block, dst)
	if err != nil {
		return nil, errors.Wrap(err, "decoding LZ4 block")
	}
	if n != declaredSize {
		return nil, errors.Wrapf(errs.ErrDecompressedSizeMismatch, "declared %d, got %d", declaredSize, n)
	}

	return dst, nil
}

// DeclaredSize reads the declared uncompressed size out of an XALZ
// envelope header without decompressing, for callers that want to
// pre-flight a size check.
func DeclaredSize(data []byte) (int, error) {
	if len(data) < HeaderSize {
		return 0, errors.Wrapf(errs.ErrEnvelopeTooShort, "got %d bytes, need at least %d", len(data), HeaderSize)
	}

	return int(binary.LittleEndian.Uint32(data[8:12])), nil
}
