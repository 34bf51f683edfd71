// Package peval structurally validates candidate .NET assemblies by byte
// inspection only — it never loads, executes, or disassembles managed
// code. A slice either looks like a PE/CLI image or it doesn't.
package peval

import "encoding/binary"

const (
	// MinLength is the shortest slice peval will consider for validation.
	MinLength = 128

	// PEOffsetField is the byte offset of the little-endian uint32 that
	// points at the PE signature ("the e_lfanew field", in DOS-header
	// terms).
	PEOffsetField = 0x3C

	// cliDirOffsetFromPE is the offset, relative to the PE signature,
	// of the CLI runtime header directory entry's RVA field.
	cliDirOffsetFromPE = 232
	// cliDirSizeFromPE is the offset, relative to the PE signature, of
	// the CLI runtime header directory entry's size field.
	cliDirSizeFromPE = 236
	// cliDirEnd is how far past the PE signature the CLI directory
	// entry extends; below this the optional header is too short to
	// carry a CLI directory at all.
	cliDirEnd = 248
)

// Verdict is the validator's accept/reject decision.
type Verdict int

const (
	Invalid Verdict = iota
	Valid
)

func (v Verdict) Bool() bool { return v == Valid }

// weakMagics are the secondary in-file signatures accepted by the weak
// validation path used only by the Recovery Scanner.
var weakMagics = [][]byte{
	[]byte("BSJB"),
	[]byte("System."),
	[]byte("mscorlib"),
}

// Validate applies the canonical validation rules (spec §4.3, points
// 1-5) and returns Valid iff every rule passes.
func Validate(data []byte) Verdict {
	if !checkDOSAndPE(data) {
		return Invalid
	}

	peOffset := peOffsetOf(data)
	if peOffset+cliDirEnd <= len(data) {
		rva := binary.LittleEndian.Uint32(data[peOffset+cliDirOffsetFromPE : peOffset+cliDirOffsetFromPE+4])
		size := binary.LittleEndian.Uint32(data[peOffset+cliDirSizeFromPE : peOffset+cliDirSizeFromPE+4])
		if rva == 0 || size == 0 {
			return Invalid
		}
	}

	return Valid
}

// ValidateWeak applies rules 1-4 plus a scan for any well-known managed
// in-file marker. It is intentionally looser than Validate and must
// never be used on the canonical extraction path (spec §4.3).
func ValidateWeak(data []byte) Verdict {
	if !checkDOSAndPE(data) {
		return Invalid
	}

	for _, magic := range weakMagics {
		if containsBytes(data, magic) {
			return Valid
		}
	}

	return Invalid
}

// checkDOSAndPE applies spec §4.3 rules 1-4: minimum length, the "MZ"
// DOS signature, a PE-offset field within bounds, and a "PE" signature
// at that offset.
func checkDOSAndPE(data []byte) bool {
	if len(data) < MinLength {
		return false
	}
	if data[0] != 'M' || data[1] != 'Z' {
		return false
	}

	peOffset := peOffsetOf(data)
	if peOffset < 0 || peOffset > len(data)-4 {
		return false
	}

	return data[peOffset] == 'P' && data[peOffset+1] == 'E'
}

// peOffsetOf reads the little-endian uint32 at PEOffsetField. Returned
// as int so callers can compare against negative/out-of-range bounds
// without wrapping; data is assumed at least PEOffsetField+4 bytes long
// by the MinLength check that precedes every call site.
func peOffsetOf(data []byte) int {
	if len(data) < PEOffsetField+4 {
		return -1
	}

	return int(binary.LittleEndian.Uint32(data[PEOffsetField : PEOffsetField+4]))
}

// containsBytes is a straight index-based substring search. Spec §9
// flags the source's LINQ-style take/skip/sequence-equal scanning as
// quadratic; this is the mandated straight-line replacement.
func containsBytes(haystack, needle []byte) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return len(needle) == 0
	}

	first := needle[0]
	last := len(haystack) - len(needle)
	for i := 0; i <= last; i++ {
		if haystack[i] != first {
			continue
		}
		if string(haystack[i:i+len(needle)]) == string(needle) {
			return true
		}
	}

	return false
}

// IndexBytes returns the lowest offset at which needle occurs in
// haystack starting no earlier than from, or -1 if it does not occur.
func IndexBytes(haystack, needle []byte, from int) int {
	if from < 0 {
		from = 0
	}
	if len(needle) == 0 || from+len(needle) > len(haystack) {
		return -1
	}

	first := needle[0]
	last := len(haystack) - len(needle)
	for i := from; i <= last; i++ {
		if haystack[i] != first {
			continue
		}
		if string(haystack[i:i+len(needle)]) == string(needle) {
			return i
		}
	}

	return -1
}
