package peval

import "encoding/binary"

// BuildMinimalAssembly constructs a byte slice of totalLen bytes (at
// least 0x80+248, so that rule 5 applies) that passes Validate: an "MZ"
// stub, a PE offset pointing at a "PE" signature at 0x80, and a non-zero
// CLI runtime header directory entry. It is exported so other packages'
// tests (extract, recovery) can build fixtures without duplicating the
// layout.
func BuildMinimalAssembly(totalLen int) []byte {
	if totalLen < cliDirAbsoluteEnd() {
		totalLen = cliDirAbsoluteEnd()
	}

	data := make([]byte, totalLen)
	data[0], data[1] = 'M', 'Z'

	const peOffset = 0x80
	binary.LittleEndian.PutUint32(data[PEOffsetField:PEOffsetField+4], uint32(peOffset))
	data[peOffset], data[peOffset+1] = 'P', 'E'

	binary.LittleEndian.PutUint32(data[peOffset+cliDirOffsetFromPE:peOffset+cliDirOffsetFromPE+4], 0x2000)
	binary.LittleEndian.PutUint32(data[peOffset+cliDirSizeFromPE:peOffset+cliDirSizeFromPE+4], 0x48)

	return data
}

func cliDirAbsoluteEnd() int {
	return 0x80 + cliDirEnd
}
