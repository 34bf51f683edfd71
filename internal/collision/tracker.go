// Package collision detects duplicate hash values within an
// AssemblyStore's global Hash32/Hash64 tables.
//
// A collision here is forensic, not fatal: spec §3 does not promise
// hash-table uniqueness, and two rows sharing a hash value never change
// which bytes get extracted. Tracker exists so the conversion log can
// surface the condition for later inspection, generalized from the
// teacher's metric-name collision tracker to AssemblyStore hash rows.
package collision

import (
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Kind distinguishes which hash table a Row came from.
type Kind string

const (
	KindHash32 Kind = "hash32"
	KindHash64 Kind = "hash64"
)

// Row is one recorded hash-table entry.
type Row struct {
	Kind            Kind
	Hash            string // hex-rendered hash value
	StoreID         uint32
	MappingIndex    uint32
	LocalStoreIndex uint32
}

// Record groups every Row sharing one (Kind, Hash) pair. Len(Rows) > 1
// is what makes a Record a genuine collision; Tracker.Collisions only
// returns Records that qualify.
type Record struct {
	Kind Kind
	Hash string
	Rows []Row
}

// Tracker accumulates hash-table rows as an AssemblyStore is parsed and
// reports which hash values were reused by more than one row.
//
// Tracker is not safe for concurrent use; the core pipeline is
// single-threaded (spec §5), so each Store gets its own Tracker.
type Tracker struct {
	byKey map[uint64][]Row
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{byKey: make(map[uint64][]Row)}
}

// Track records one hash-table row. hash is the hex-rendered hash
// value, used both as the Record key and, hashed through xxhash, as
// the map key — the same "hash the key to avoid string-keyed map
// overhead" idiom the teacher applies to metric names.
func (t *Tracker) Track(kind Kind, hash string, storeID, mappingIndex, localStoreIndex uint32) {
	key := mapKey(kind, hash)
	t.byKey[key] = append(t.byKey[key], Row{
		Kind:            kind,
		Hash:            hash,
		StoreID:         storeID,
		MappingIndex:    mappingIndex,
		LocalStoreIndex: localStoreIndex,
	})
}

func mapKey(kind Kind, hash string) uint64 {
	h := xxhash.New()
	_, _ = h.Write([]byte(kind))
	_, _ = h.Write([]byte(hash))

	return h.Sum64()
}

// Collisions returns every group of rows that shared a hash value,
// sorted deterministically by kind, then hash, then store/mapping
// index — regardless of the order Track was called in.
func (t *Tracker) Collisions() []Record {
	var records []Record
	for _, rows := range t.byKey {
		if len(rows) < 2 {
			continue
		}

		sorted := make([]Row, len(rows))
		copy(sorted, rows)
		sort.Slice(sorted, func(i, j int) bool {
			if sorted[i].StoreID != sorted[j].StoreID {
				return sorted[i].StoreID < sorted[j].StoreID
			}

			return sorted[i].MappingIndex < sorted[j].MappingIndex
		})

		records = append(records, Record{
			Kind: sorted[0].Kind,
			Hash: sorted[0].Hash,
			Rows: sorted,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Kind != records[j].Kind {
			return records[i].Kind < records[j].Kind
		}

		return records[i].Hash < records[j].Hash
	})

	return records
}

// Count returns the number of distinct (kind, hash) keys tracked,
// collided or not.
func (t *Tracker) Count() int {
	return len(t.byKey)
}
