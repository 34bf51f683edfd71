// Package compress sniffs and decompresses the general-purpose compressed
// containers the Recovery Scanner finds embedded inside an unrecognized
// store file (spec §4.7 pass (b)): gzip, zlib, and, as a supplemental
// format, a raw zstd frame.
//
// Unlike a general-purpose codec package, everything here is
// decompress-only and signature-driven: the scanner has already found a
// magic at some offset and wants the decompressed bytes of what follows,
// nothing more.
package compress
