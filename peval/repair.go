package peval

import "encoding/binary"

const (
	// mzScanWindow bounds the search for a stray "MZ" pair used by the
	// first repair strategy.
	mzScanWindow = 1024
	// peScanLow and peScanHigh bound the search for a "PE" signature
	// used by the second repair strategy.
	peScanLow  = 0x40
	peScanHigh = 0x200
	peStride   = 4
)

// Repair attempts a single structural fix on data that failed canonical
// validation, per spec §4.3's repair pass. It is only meaningful for
// output that the canonical extraction path produced — the Recovery
// Scanner has its own, separate MZ-trimming step.
//
// On success it returns the repaired bytes and true. On failure it
// returns nil and false; the caller is expected to emit the original
// bytes under the invalid/ directory rather than drop them.
func Repair(data []byte) ([]byte, bool) {
	if repaired, ok := repairLeadingPadding(data); ok {
		return repaired, true
	}
	if repaired, ok := repairPEOffset(data); ok {
		return repaired, true
	}

	return nil, false
}

// repairLeadingPadding discards bytes preceding a stray "MZ" pair found
// within the first mzScanWindow bytes.
func repairLeadingPadding(data []byte) ([]byte, bool) {
	limit := mzScanWindow
	if limit > len(data) {
		limit = len(data)
	}

	for k := 1; k < limit-1; k++ {
		if data[k] == 'M' && data[k+1] == 'Z' {
			candidate := data[k:]
			if Validate(candidate).Bool() {
				return candidate, true
			}
		}
	}

	return nil, false
}

// repairPEOffset patches a miscopied PE-offset field when "MZ" sits at
// offset 0 but the recorded PE offset is out of range.
func repairPEOffset(data []byte) ([]byte, bool) {
	if len(data) < MinLength || data[0] != 'M' || data[1] != 'Z' {
		return nil, false
	}

	peOffset := peOffsetOf(data)
	if peOffset >= 0 && peOffset <= len(data)-4 && data[peOffset] == 'P' && data[peOffset+1] == 'E' {
		// The PE offset was already in range; this strategy only
		// applies when it isn't.
		return nil, false
	}

	high := peScanHigh
	if high > len(data)-4 {
		high = len(data) - 4
	}

	for i := peScanLow; i+1 < high; i += peStride {
		if data[i] == 'P' && data[i+1] == 'E' {
			patched := make([]byte, len(data))
			copy(patched, data)
			binary.LittleEndian.PutUint32(patched[PEOffsetField:PEOffsetField+4], uint32(i))

			if Validate(patched).Bool() {
				return patched, true
			}
		}
	}

	return nil, false
}
