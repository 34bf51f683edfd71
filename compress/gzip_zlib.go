package compress

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// maxDecodeSize bounds how much a single gzip/zlib/zstd stream found
// during recovery scanning is allowed to inflate to, guarding against a
// maliciously or accidentally huge decompression bomb inside an otherwise
// unreadable store file.
const maxDecodeSize = 128 * 1024 * 1024 // 128 MiB

func decodeGzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(io.LimitReader(r, maxDecodeSize))
}

func decodeZlib(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(io.LimitReader(r, maxDecodeSize))
}
