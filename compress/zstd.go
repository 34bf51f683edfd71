package compress

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdDecoderPool pools zstd decoders for reuse to eliminate allocation
// overhead across many small recovery-path decompressions. klauspost's
// zstd decoder is explicitly designed for this: "you should store the
// decoder for best performance."
var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(true),
			zstd.WithDecoderMaxMemory(maxDecodeSize),
		)
		if err != nil {
			panic("compress: failed to construct pooled zstd decoder: " + err.Error())
		}

		return decoder
	},
}

func decodeZstd(data []byte) ([]byte, error) {
	decoder := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(decoder)

	return decoder.DecodeAll(data, make([]byte, 0, len(data)*2))
}
