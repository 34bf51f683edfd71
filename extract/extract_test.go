package extract

import (
	"encoding/binary"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"

	"github.com/assemblystore/extractor/assemblystore"
	"github.com/assemblystore/extractor/manifest"
	"github.com/assemblystore/extractor/peval"
	"github.com/assemblystore/extractor/xalz"
)

// buildStore assembles a minimal XABA store file around the given
// payloads (one descriptor per payload, laid out back to back after the
// descriptor table) and parses it through the real assemblystore.Parse,
// so extract's tests exercise the same wire format the decoder does.
func buildStore(t *testing.T, payloads [][]byte) *assemblystore.Store {
	t.Helper()

	const headerSize = 20
	const descSize = 24

	header := make([]byte, headerSize)
	copy(header[0:4], []byte("XABA"))
	binary.LittleEndian.PutUint32(header[4:8], 1) // version
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payloads)))
	binary.LittleEndian.PutUint32(header[12:16], 0) // global_entry_count
	binary.LittleEndian.PutUint32(header[16:20], 0) // store_id

	dataStart := headerSize + descSize*len(payloads)
	descs := make([]byte, 0, descSize*len(payloads))
	var blob []byte
	for _, p := range payloads {
		d := make([]byte, descSize)
		binary.LittleEndian.PutUint32(d[0:4], uint32(dataStart+len(blob)))
		binary.LittleEndian.PutUint32(d[4:8], uint32(len(p)))
		descs = append(descs, d...)
		blob = append(blob, p...)
	}

	full := append(header, descs...)
	full = append(full, blob...)

	store, err := assemblystore.Parse(full, false, nil, nil)
	require.NoError(t, err)

	return store
}

func TestRunExtractsUncompressedAssembly(t *testing.T) {
	img := peval.BuildMinimalAssembly(256)
	store := buildStore(t, [][]byte{img})

	m := manifest.Parse([]byte("h h 0 0 Hello\n"), nil)

	artifacts, summary := Run(store, 0, m, Options{}, nil)
	require.Len(t, artifacts, 1)
	require.Equal(t, 1, summary.Extracted)
	require.Equal(t, 0, summary.Invalid)
	require.Equal(t, "Hello.dll", artifacts[0].RelPath)
	require.Equal(t, img, artifacts[0].Data)
}

func TestRunDecompressesXALZPayload(t *testing.T) {
	img := peval.BuildMinimalAssembly(512)

	block := make([]byte, lz4.CompressBlockBound(len(img)))
	var c lz4.Compressor
	n, err := c.CompressBlock(img, block)
	require.NoError(t, err)
	block = block[:n]

	envelope := make([]byte, xalz.HeaderSize+len(block))
	copy(envelope[0:4], xalz.Magic[:])
	binary.LittleEndian.PutUint32(envelope[8:12], uint32(len(img)))
	copy(envelope[xalz.HeaderSize:], block)

	store := buildStore(t, [][]byte{envelope})
	m := manifest.Parse([]byte("h h 0 0 B\n"), nil)

	artifacts, summary := Run(store, 0, m, Options{}, nil)
	require.Len(t, artifacts, 1)
	require.Equal(t, 1, summary.Extracted)
	require.Equal(t, img, artifacts[0].Data)
}

func TestRunSkipsMissingManifestEntry(t *testing.T) {
	img := peval.BuildMinimalAssembly(256)
	store := buildStore(t, [][]byte{img})

	m := manifest.Parse(nil, nil)

	artifacts, summary := Run(store, 0, m, Options{}, nil)
	require.Empty(t, artifacts)
	require.Equal(t, 1, summary.Skipped)
}

func TestRunSkipsOutOfBoundsDescriptor(t *testing.T) {
	good := peval.BuildMinimalAssembly(256)
	store := buildStore(t, [][]byte{{1}, good})
	// Force descriptor 0 out of bounds.
	store.Descriptors[0].DataOffset = 100
	store.Descriptors[0].DataSize = 1_000_000_000

	m := manifest.Parse([]byte("h h 0 0 A\nh h 0 1 B\n"), nil)

	artifacts, summary := Run(store, 0, m, Options{}, nil)
	require.Len(t, artifacts, 1)
	require.Equal(t, "B.dll", artifacts[0].RelPath)
	require.Equal(t, 1, summary.Skipped)
	require.Equal(t, 1, summary.Extracted)
}

func TestRunInvalidPayloadGoesToInvalidDir(t *testing.T) {
	garbage := []byte("not a pe image, too short but over zero")
	store := buildStore(t, [][]byte{garbage})

	m := manifest.Parse([]byte("h h 0 0 Bad\n"), nil)

	artifacts, summary := Run(store, 0, m, Options{}, nil)
	require.Len(t, artifacts, 1)
	require.Equal(t, "invalid/Bad.dll", artifacts[0].RelPath)
	require.Equal(t, 1, summary.Invalid)
}

func TestRunDirectorySeparatorInName(t *testing.T) {
	img := peval.BuildMinimalAssembly(256)
	store := buildStore(t, [][]byte{img})

	m := manifest.Parse([]byte("h h 0 0 ar/Foo.resources\n"), nil)

	artifacts, _ := Run(store, 0, m, Options{}, nil)
	require.Len(t, artifacts, 1)
	require.Equal(t, "ar/Foo.resources.dll", artifacts[0].RelPath)
}
