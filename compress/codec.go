package compress

import "fmt"

// Format identifies which general-purpose compressed-container signature
// the Recovery Scanner's sweep (spec §4.7 pass (b)) matched.
type Format int

const (
	FormatNone Format = iota
	FormatGzip
	FormatZlib
	FormatZstd
	FormatLZ4Frame
)

func (f Format) String() string {
	switch f {
	case FormatGzip:
		return "gzip"
	case FormatZlib:
		return "zlib"
	case FormatZstd:
		return "zstd"
	case FormatLZ4Frame:
		return "lz4-frame"
	default:
		return "none"
	}
}

// signature is one magic the sweep looks for, paired with the Format it
// identifies.
type signature struct {
	magic  []byte
	format Format
}

// Signatures are checked in this order; spec §4.7 pass (b) enumerates gzip,
// the two zlib magics, and LZ4-frame. Zstd is a supplemental addition (see
// SPEC_FULL.md §6) the source format never produces but some re-packaging
// pipelines do.
var Signatures = []signature{
	{magic: []byte{0x1F, 0x8B}, format: FormatGzip},
	{magic: []byte{0x78, 0x9C}, format: FormatZlib},
	{magic: []byte{0x78, 0xDA}, format: FormatZlib},
	{magic: []byte{0x28, 0xB5, 0x2F, 0xFD}, format: FormatZstd},
	{magic: []byte{0x04, 0x22, 0x4D, 0x18}, format: FormatLZ4Frame},
}

// Sniff scans data for the earliest occurrence of any known signature and
// returns its format and byte offset. It returns (FormatNone, -1) if none
// is found.
func Sniff(data []byte) (Format, int) {
	bestOffset := -1
	bestFormat := FormatNone

	for _, sig := range Signatures {
		idx := indexBytes(data, sig.magic)
		if idx < 0 {
			continue
		}
		if bestOffset == -1 || idx < bestOffset {
			bestOffset = idx
			bestFormat = sig.format
		}
	}

	return bestFormat, bestOffset
}

// indexBytes is a straight index-based substring search, matching spec
// §9's mandate against quadratic LINQ-style scanning.
func indexBytes(haystack, needle []byte) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}

	first := needle[0]
	last := len(haystack) - len(needle)
	for i := 0; i <= last; i++ {
		if haystack[i] != first {
			continue
		}
		match := true
		for j := 1; j < len(needle); j++ {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}

	return -1
}

// Decompress dispatches to the decoder for format. FormatLZ4Frame is
// deliberately unimplemented per spec §4.7/§9's open question: callers
// must treat it as a logged no-op, not call Decompress for it.
func Decompress(format Format, data []byte) ([]byte, error) {
	switch format {
	case FormatGzip:
		return decodeGzip(data)
	case FormatZlib:
		return decodeZlib(data)
	case FormatZstd:
		return decodeZstd(data)
	default:
		return nil, fmt.Errorf("compress: unsupported format %s", format)
	}
}
