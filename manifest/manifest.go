// Package manifest parses the AssemblyStore manifest that pairs
// (store_id, local_index) tuples with human-readable assembly names.
//
// Two manifest shapes are understood: the toolkit's native
// whitespace-delimited text format, and a JSON fallback shape seen in
// some packaging pipelines. Parse failure of either shape yields an
// empty, non-error Manifest — per spec §4.4, the extractor is expected
// to fall through to the Recovery Scanner for every store rather than
// abort.
package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Entry is a single manifest row.
//
// Size is only populated by the JSON manifest shape, which carries a
// per-assembly byte count; the native text format does not record size,
// so Size is 0 for entries parsed from it. The Recovery Scanner's
// manifest-guided slicing pass (spec §4.7 pass (a)) skips any entry
// whose Size is 0, since it has nothing to slice by.
type Entry struct {
	Hash32  string
	Hash64  string
	BlobID  uint32
	BlobIdx uint32
	Name    string
	Size    int64
}

// Key identifies an Entry within a Manifest.
type Key struct {
	BlobID  uint32
	BlobIdx uint32
}

// Manifest is an ordered collection of Entry, indexed by (blob_id,
// blob_idx) for O(1) expected lookup.
type Manifest struct {
	entries []Entry
	byKey   map[Key]int
}

// Len returns the number of entries successfully parsed.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}

	return len(m.entries)
}

// Lookup returns the Entry for (blobID, blobIdx), if one exists.
func (m *Manifest) Lookup(blobID, blobIdx uint32) (Entry, bool) {
	if m == nil {
		return Entry{}, false
	}

	idx, ok := m.byKey[Key{BlobID: blobID, BlobIdx: blobIdx}]
	if !ok {
		return Entry{}, false
	}

	return m.entries[idx], true
}

// Entries returns every parsed entry, in file order.
func (m *Manifest) Entries() []Entry {
	if m == nil {
		return nil
	}

	return m.entries
}

func newManifest(entries []Entry) *Manifest {
	m := &Manifest{
		entries: entries,
		byKey:   make(map[Key]int, len(entries)),
	}
	for i, e := range entries {
		m.byKey[Key{BlobID: e.BlobID, BlobIdx: e.BlobIdx}] = i
	}

	return m
}

// Parse reads a manifest file's bytes and dispatches to the text or
// JSON parser based on the first non-whitespace character, per spec
// §4.4. It never returns an error; on total parse failure it returns an
// empty, valid Manifest.
func Parse(data []byte, log *logrus.Entry) *Manifest {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		entries, err := parseJSON(trimmed)
		if err != nil {
			if log != nil {
				log.WithError(err).Warn("manifest: JSON parse failed, falling back to empty manifest")
			}

			return newManifest(nil)
		}

		return newManifest(entries)
	}

	return newManifest(parseText(data, log))
}

// parseText tokenizes the toolkit's native whitespace-delimited manifest
// format. The first non-empty line whose first token begins with "Hash"
// is treated as a header and skipped; every other non-empty line needs
// at least 5 whitespace-separated tokens to become an Entry.
func parseText(data []byte, log *logrus.Entry) []Entry {
	var entries []Entry

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	headerSkipped := false
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if !headerSkipped {
			headerSkipped = true
			if strings.HasPrefix(fields[0], "Hash") {
				continue
			}
		}

		if len(fields) < 5 {
			continue
		}

		blobID, err1 := strconv.ParseUint(fields[2], 10, 32)
		blobIdx, err2 := strconv.ParseUint(fields[3], 10, 32)
		if err1 != nil || err2 != nil {
			if log != nil {
				log.WithField("line", lineNo).Warn("manifest: skipping row with non-numeric blob_id/blob_idx")
			}

			continue
		}

		entries = append(entries, Entry{
			Hash32:  fields[0],
			Hash64:  fields[1],
			BlobID:  uint32(blobID),
			BlobIdx: uint32(blobIdx),
			Name:    fields[4],
		})
	}

	return entries
}

// jsonManifest mirrors the { "Assemblies": [...] } shape described in
// spec §4.4.
type jsonManifest struct {
	Assemblies []jsonAssembly `json:"Assemblies"`
}

type jsonAssembly struct {
	Name string `json:"Name"`
	Size int64  `json:"Size"`
	Hash string `json:"Hash"`
}

func parseJSON(data []byte) ([]Entry, error) {
	var doc jsonManifest
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(doc.Assemblies))
	for i, a := range doc.Assemblies {
		entries = append(entries, Entry{
			Hash32:  a.Hash,
			Hash64:  "",
			BlobID:  0,
			BlobIdx: uint32(i),
			Name:    a.Name,
			Size:    a.Size,
		})
	}

	return entries, nil
}
