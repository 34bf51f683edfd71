// Package recovery implements the heuristic salvage pipeline used when
// the AssemblyStore Parser rejects a file (spec §4.7). Its job is
// best-effort recovery, not faithful reconstruction: it scans raw bytes
// for plausible assembly boundaries through a priority-ordered ladder of
// passes, stopping at the first pass that yields at least one valid
// assembly.
package recovery

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/assemblystore/extractor/compress"
	"github.com/assemblystore/extractor/manifest"
	"github.com/assemblystore/extractor/peval"
)

// Artifact is one file the scanner produced. Unlike extract.Artifact,
// recovery output carries no manifest-derived directory structure (spec
// §4.7: "Recovery-emitted files carry no manifest name and thus no
// directory structure"), so Name is already the final file name.
type Artifact struct {
	Name     string
	Data     []byte
	Detector string // diagnostic only; see SPEC_FULL.md §9.
}

const (
	mzScanWindow         = 1024
	keywordScanWindow    = 2048
	minSliceLen          = 512
	headerProbeMax       = 128
	detectorMZScan       = "mz-scan"
	detectorBSJBBackscan = "bsjb-backscan"
	detectorKeyword      = "keyword-backscan"
)

var headerProbeSkips = []int{0, 4, 8, 16, 32, 64, 128}

var diagnosticKeywords = [][]byte{
	[]byte("System.Runtime"),
	[]byte("System.Collections"),
	[]byte("mscorlib"),
	[]byte(".NETFramework"),
	[]byte(".NETCoreApp"),
}

// Scan runs passes (a)-(d) in order against data, the raw bytes of a
// file the AssemblyStore Parser could not recognize. basename names the
// source file (without extension) and seeds the pass-(d) output name.
func Scan(data []byte, basename string, m *manifest.Manifest, log *logrus.Entry) []Artifact {
	if m != nil && m.Len() > 0 {
		if artifacts := manifestGuidedSlicing(data, m, log); len(artifacts) > 0 {
			return artifacts
		}
	}

	if artifacts := compressedContainerSweep(data, basename, log); len(artifacts) > 0 {
		return artifacts
	}

	if artifacts := embeddedArchive(data, log); len(artifacts) > 0 {
		return artifacts
	}

	return boundarySlicing(data, basename, log)
}

// validateForRecovery accepts a slice under either the canonical
// validator or the weaker recovery-only path (spec §4.3): recovered
// slices frequently lack a fully intact optional header even when they
// are a genuine managed assembly.
func validateForRecovery(data []byte) bool {
	return peval.Validate(data).Bool() || peval.ValidateWeak(data).Bool()
}

// trimToMZ returns the sub-slice of data starting at its first "MZ"
// pair, or data unchanged if "MZ" never occurs (in which case the
// caller's validation attempt is expected to fail).
func trimToMZ(data []byte) []byte {
	idx := peval.IndexBytes(data, []byte{'M', 'Z'}, 0)
	if idx <= 0 {
		return data
	}

	return data[idx:]
}

// (a) manifest-guided slicing with header probing.
func manifestGuidedSlicing(data []byte, m *manifest.Manifest, log *logrus.Entry) []Artifact {
	entries := m.Entries()

	for _, skip := range headerProbeSkips {
		if skip > headerProbeMax {
			break
		}

		var artifacts []Artifact
		pos := skip

		for _, e := range entries {
			if e.Size <= 0 {
				continue
			}
			if pos+int(e.Size) > len(data) {
				break
			}

			slice := data[pos : pos+int(e.Size)]
			pos += int(e.Size)

			candidate := trimToMZ(slice)
			if validateForRecovery(candidate) {
				artifacts = append(artifacts, Artifact{
					Name:     dllName(e.Name),
					Data:     candidate,
					Detector: "manifest-guided",
				})
			}
		}

		if len(artifacts) > 0 {
			if log != nil {
				log.WithField("header_skip", skip).Info("recovery: manifest-guided slicing succeeded")
			}

			return artifacts
		}
	}

	return nil
}

// (b) compressed-container sweep.
func compressedContainerSweep(data []byte, basename string, log *logrus.Entry) []Artifact {
	format, offset := compress.Sniff(data)
	if format == compress.FormatNone {
		return nil
	}

	if format == compress.FormatLZ4Frame {
		if log != nil {
			log.Info("recovery: LZ4-frame container detected, decoding not implemented, skipping")
		}

		return []Artifact{}
	}

	decompressed, err := compress.Decompress(format, data[offset:])
	if err != nil {
		if log != nil {
			log.WithError(err).WithField("format", format.String()).Warn("recovery: failed to decompress embedded container")
		}

		return []Artifact{}
	}

	if log != nil {
		log.WithField("format", format.String()).Info("recovery: decompressed embedded container, recursing into boundary slicing")
	}

	return boundarySlicing(decompressed, basename, log)
}

// (c) embedded standard ZIP archive.
func embeddedArchive(data []byte, log *logrus.Entry) []Artifact {
	sig := []byte{0x50, 0x4B, 0x03, 0x04}
	offset := peval.IndexBytes(data, sig, 0)
	if offset < 0 {
		return nil
	}

	region := data[offset:]
	r, err := zip.NewReader(bytes.NewReader(region), int64(len(region)))
	if err != nil {
		if log != nil {
			log.WithError(err).Warn("recovery: embedded ZIP signature found but archive did not open")
		}

		return nil
	}

	var artifacts []Artifact
	for _, f := range r.File {
		if !hasDLLSuffix(f.Name) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			continue
		}

		buf := make([]byte, f.UncompressedSize64)
		_, err = io.ReadFull(rc, buf)
		rc.Close()
		if err != nil {
			continue
		}

		if validateForRecovery(buf) {
			artifacts = append(artifacts, Artifact{
				Name:     baseName(f.Name),
				Data:     buf,
				Detector: "embedded-zip",
			})
		}
	}

	return artifacts
}

// (d) boundary-based sequential slicing.
func boundarySlicing(data []byte, basename string, log *logrus.Entry) []Artifact {
	boundaries := collectBoundaries(data)
	if len(boundaries) == 0 {
		return nil
	}

	var artifacts []Artifact
	counter := 0

	for i, b := range boundaries {
		end := len(data)
		if i+1 < len(boundaries) {
			end = boundaries[i+1].offset
		}

		if end-b.offset < minSliceLen {
			continue
		}

		slice := trimToMZ(data[b.offset:end])
		if !validateForRecovery(slice) {
			continue
		}

		artifacts = append(artifacts, Artifact{
			Name:     fmt.Sprintf("%s_assembly_%03d.dll", basename, counter),
			Data:     slice,
			Detector: b.detector,
		})
		if log != nil {
			log.WithFields(logrus.Fields{
				"name": artifacts[len(artifacts)-1].Name, "offset": b.offset, "detector": b.detector,
			}).Info("recovery: emitted boundary slice")
		}
		counter++
	}

	if log != nil {
		log.WithField("emitted", len(artifacts)).Info("recovery: boundary-based slicing complete")
	}

	return artifacts
}

type boundary struct {
	offset   int
	detector string
}

// collectBoundaries builds the deduplicated, ascending-offset boundary
// list per spec §4.7 pass (d) / §9's duplicate-boundary warning: the MZ
// scan, the BSJB back-scan, and the keyword back-scan can all propose
// the same offset, and a naive implementation would slice (and number)
// it more than once.
func collectBoundaries(data []byte) []boundary {
	seen := make(map[int]string)

	for i := 0; i+1 < len(data); i++ {
		if data[i] == 'M' && data[i+1] == 'Z' {
			recordBoundary(seen, i, detectorMZScan)
		}
	}

	scanBackToMZ(data, []byte("BSJB"), mzScanWindow, detectorBSJBBackscan, seen)
	for _, kw := range diagnosticKeywords {
		scanBackToMZ(data, kw, keywordScanWindow, detectorKeyword, seen)
	}

	offsets := make([]int, 0, len(seen))
	for off := range seen {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)

	boundaries := make([]boundary, len(offsets))
	for i, off := range offsets {
		boundaries[i] = boundary{offset: off, detector: seen[off]}
	}

	return boundaries
}

// scanBackToMZ finds every occurrence of marker in data and, for each,
// walks backward up to window bytes looking for the nearest preceding
// "MZ" pair; a hit records that MZ offset as a boundary.
func scanBackToMZ(data, marker []byte, window int, detector string, seen map[int]string) {
	from := 0
	for {
		idx := peval.IndexBytes(data, marker, from)
		if idx < 0 {
			return
		}
		from = idx + 1

		limit := idx - window
		if limit < 0 {
			limit = 0
		}

		for k := idx; k >= limit; k-- {
			if k+1 < len(data) && data[k] == 'M' && data[k+1] == 'Z' {
				recordBoundary(seen, k, detector)

				break
			}
		}
	}
}

func recordBoundary(seen map[int]string, offset int, detector string) {
	if _, ok := seen[offset]; ok {
		return
	}
	seen[offset] = detector
}

func hasDLLSuffix(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".dll")
}

func baseName(name string) string {
	return path.Base(strings.ReplaceAll(name, "\\", "/"))
}

func dllName(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".dll") {
		return name
	}

	return name + ".dll"
}
