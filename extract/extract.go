// Package extract implements the canonical Extraction Orchestrator (spec
// §4.6): for each descriptor in a parsed AssemblyStore, it resolves the
// matching manifest name, slices the descriptor's payload, unwraps an
// XALZ envelope if present, validates the result, and produces an
// Artifact ready for the file writer.
//
// Orchestrator never touches a filesystem. It is the sole place that
// decides *what* to write and *where*, but the actual write belongs to
// the caller (internal/writer in this repository's CLI layer); that
// split keeps extract a pure function over byte slices, matching every
// other core package.
package extract

import (
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/assemblystore/extractor/assemblystore"
	"github.com/assemblystore/extractor/manifest"
	"github.com/assemblystore/extractor/peval"
	"github.com/assemblystore/extractor/xalz"
)

// Artifact is the output of processing one descriptor: a relative path
// (joined later onto <output_root>/<store_basename>/), the resolved
// assembly name, and the final payload bytes.
type Artifact struct {
	// RelPath is relative to the store's output directory, e.g.
	// "Hello.dll" or "ar/Foo.resources.dll" or "invalid/Hello.dll".
	RelPath string
	Name    string
	Data    []byte
}

// Summary accumulates per-store extraction counts; the CLI layer merges
// these into a spec §3 Run Summary across every store in a run.
type Summary struct {
	Extracted int
	Skipped   int
	Invalid   int
}

// Options configures a Run call.
type Options struct {
	MaxUncompressedSize int // forwarded to xalz.Decode; 0 means use its default.
}

// Run processes every descriptor in store in ascending local index order
// (spec §5's observable ordering contract) and returns the resulting
// Artifacts plus a Summary. storeID is store.Header.StoreID; it is
// threaded explicitly because callers sometimes re-key entries under a
// different ID than the header reports (none do today, but the seam
// matches how the rest of this module keeps identifiers caller-supplied
// rather than re-derived).
func Run(store *assemblystore.Store, storeID uint32, m *manifest.Manifest, opts Options, log *logrus.Entry) ([]Artifact, Summary) {
	var artifacts []Artifact
	var summary Summary

	fileLen := len(store.Data())

	for i, desc := range store.Descriptors {
		entry, ok := m.Lookup(storeID, uint32(i))
		if !ok {
			logWarn(log, "extract: no manifest entry for descriptor", logrus.Fields{"store_id": storeID, "index": i})
			summary.Skipped++

			continue
		}

		if desc.DataSize == 0 {
			summary.Skipped++

			continue
		}

		if !desc.DataInBounds(fileLen) {
			logWarn(log, "extract: descriptor data region out of bounds", logrus.Fields{
				"store_id": storeID, "index": i, "name": entry.Name,
				"data_offset": desc.DataOffset, "data_size": desc.DataSize, "file_len": fileLen,
			})
			summary.Skipped++

			continue
		}

		raw := store.Data()[desc.DataOffset : desc.DataOffset+desc.DataSize]

		payload, err := unwrap(raw, opts)
		if err != nil {
			logWarn(log, "extract: decompression failed", logrus.Fields{
				"store_id": storeID, "index": i, "name": entry.Name, "err": err.Error(),
			})
			summary.Skipped++

			continue
		}

		artifact, invalid := toArtifact(entry.Name, payload)
		if invalid {
			summary.Invalid++
		} else {
			summary.Extracted++
		}

		artifacts = append(artifacts, artifact)
	}

	return artifacts, summary
}

func unwrap(raw []byte, opts Options) ([]byte, error) {
	if !xalz.HasMagic(raw) {
		return raw, nil
	}

	var decodeOpts []xalz.Option
	if opts.MaxUncompressedSize > 0 {
		decodeOpts = append(decodeOpts, xalz.WithMaxUncompressedSize(opts.MaxUncompressedSize))
	}

	return xalz.Decode(raw, decodeOpts...)
}

// toArtifact validates payload, attempting the repair pass on rejection,
// and returns the Artifact with its RelPath set under invalid/ when the
// bytes never pass, per spec §4.3/§4.6 steps 4-5.
func toArtifact(name string, payload []byte) (Artifact, bool) {
	outName := dllName(name)

	if peval.Validate(payload).Bool() {
		return Artifact{RelPath: outName, Name: name, Data: payload}, false
	}

	if repaired, ok := peval.Repair(payload); ok {
		return Artifact{RelPath: outName, Name: name, Data: repaired}, false
	}

	return Artifact{RelPath: path.Join("invalid", outName), Name: name, Data: payload}, true
}

// dllName appends ".dll" to name unless it already carries that suffix,
// case-insensitively, per spec §4.6 step 5. Path separators inside name
// (for satellite/resource assemblies) are left intact; the caller (the
// file writer) is expected to create any implied intermediate
// directories.
func dllName(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".dll") {
		return name
	}

	return name + ".dll"
}

func logWarn(log *logrus.Entry, msg string, fields logrus.Fields) {
	if log == nil {
		return
	}
	log.WithFields(fields).Warn(msg)
}
