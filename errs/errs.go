// Package errs defines the sentinel errors shared by the AssemblyStore
// decoder packages.
//
// breader, assemblystore, xalz, and internal/discover return these
// sentinels (optionally wrapped with github.com/pkg/errors for added
// context) for the failure kinds listed here, so that callers can branch
// on failure kind with errors.Is rather than on message text. Errors from
// other sources (I/O, LZ4 block decoding, gzip/zlib/zstd) are passed
// through as they are.
package errs

import "errors"

var (
	// ErrShortRead is returned by breader when a read would run past the
	// end of the underlying byte slice.
	ErrShortRead = errors.New("short read")

	// ErrOutOfBounds is returned by breader.Borrow when the requested
	// sub-slice falls outside the underlying byte slice.
	ErrOutOfBounds = errors.New("out of bounds")

	// ErrNotAnAssemblyStore is returned by assemblystore.Parse when the
	// magic at offset 0 does not equal "XABA". Callers fall back to the
	// Recovery Scanner.
	ErrNotAnAssemblyStore = errors.New("not an AssemblyStore")

	// ErrUnsupportedVersion is returned when the store header's version
	// field exceeds the highest version this decoder understands.
	ErrUnsupportedVersion = errors.New("unsupported store version")

	// ErrTruncated is returned when a store file ends before a header,
	// descriptor table, or hash table finishes reading.
	ErrTruncated = errors.New("truncated store")

	// ErrOutOfBoundsDescriptor names a descriptor whose data, debug, or
	// config region extends past the end of the store file. No function
	// returns it: extract logs the condition and skips the descriptor.
	ErrOutOfBoundsDescriptor = errors.New("descriptor out of bounds")

	// ErrEnvelopeTooShort is returned by xalz.Decode and xalz.DeclaredSize
	// when the XALZ envelope is shorter than its fixed 12-byte header, and
	// by xalz.Decode when the envelope does not start with the XALZ magic.
	ErrEnvelopeTooShort = errors.New("XALZ envelope too short")

	// ErrDeclaredSizeTooLarge is returned by xalz.Decode when the
	// envelope's declared uncompressed size exceeds the configured
	// ceiling.
	ErrDeclaredSizeTooLarge = errors.New("XALZ declared size exceeds ceiling")

	// ErrDecompressedSizeMismatch is returned by xalz.Decode when the
	// LZ4 block decodes to a length other than the declared size.
	ErrDecompressedSizeMismatch = errors.New("XALZ decompressed size mismatch")

	// ErrInvalidAssembly names a byte slice that fails structural PE/CLI
	// validation, including after the repair pass. No function returns
	// it: peval reports a Verdict and extract routes the bytes to invalid/.
	ErrInvalidAssembly = errors.New("invalid PE/CLI assembly")

	// ErrManifestMissingEntry names a store descriptor with no
	// corresponding manifest row. No function returns it: extract logs
	// the condition and skips the descriptor.
	ErrManifestMissingEntry = errors.New("manifest has no entry for descriptor")

	// ErrEmptyManifest names a manifest with zero usable rows. No
	// function returns it: manifest.Parse returns an empty Manifest, and
	// the CLI then sends every store to the Recovery Scanner.
	ErrEmptyManifest = errors.New("manifest is empty")

	// ErrNoManifest is returned by internal/discover when no
	// assemblies.manifest file is found under the input directory.
	ErrNoManifest = errors.New("no manifest file found")

	// ErrHashCollision names two hash-table rows carrying the same hash
	// value. No function returns it: internal/collision reports such rows
	// as Records, which the CLI logs as warnings.
	ErrHashCollision = errors.New("hash table collision")
)
