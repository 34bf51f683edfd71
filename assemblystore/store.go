// Package assemblystore decodes the toolkit's "XABA" binary container
// format: a fixed header, a local assembly descriptor table, and — for
// the primary store only — two global hash tables.
//
// Parse never inspects descriptor bounds against the file length; that
// check belongs to the Extraction Orchestrator (spec §4.6), which must
// keep extracting the remaining descriptors when one is out of bounds.
// Parse only rejects structural problems that make the whole store
// unreadable: bad magic, an unsupported version, or a truncated table.
package assemblystore

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/assemblystore/extractor/breader"
	"github.com/assemblystore/extractor/errs"
	"github.com/assemblystore/extractor/internal/collision"
)

// Magic is the 4-byte signature at the start of a store file.
var Magic = [4]byte{'X', 'A', 'B', 'A'}

const (
	// HeaderSize is the fixed size, in bytes, of the Store Header.
	HeaderSize = 20
	// DescriptorSize is the fixed size, in bytes, of one Assembly
	// Descriptor.
	DescriptorSize = 24
	// Hash32EntrySize is the fixed size, in bytes, of one Hash32 Entry.
	Hash32EntrySize = 20
	// Hash64EntrySize is the fixed size, in bytes, of one Hash64 Entry.
	Hash64EntrySize = 24

	// MaxSupportedVersion is the highest store header version this
	// decoder accepts.
	MaxSupportedVersion = 1
)

// Header is the fixed 20-byte record at the start of a store file.
type Header struct {
	Version          uint32
	LocalEntryCount  uint32
	GlobalEntryCount uint32
	StoreID          uint32
}

// Descriptor locates one assembly's data, debug, and config regions
// within its store. All offsets are absolute within the store file.
type Descriptor struct {
	DataOffset   uint32
	DataSize     uint32
	DebugOffset  uint32
	DebugSize    uint32
	ConfigOffset uint32
	ConfigSize   uint32
}

// InBounds reports whether a region [offset, offset+size) fits within
// a file of the given length. A zero-size region is always in bounds,
// matching spec §3's "when nonzero" qualifier for debug/config regions.
func regionInBounds(offset, size uint32, fileLen int) bool {
	if size == 0 {
		return true
	}
	end := uint64(offset) + uint64(size)

	return end <= uint64(fileLen)
}

// DataInBounds reports whether this descriptor's data region fits
// within a file of the given length.
func (d Descriptor) DataInBounds(fileLen int) bool {
	return regionInBounds(d.DataOffset, d.DataSize, fileLen)
}

// Hash32Entry is one row of the primary store's 32-bit hash table.
type Hash32Entry struct {
	Hash            uint32
	MappingIndex    uint32
	LocalStoreIndex uint32
	StoreID         uint32
}

// Hash64Entry is one row of the primary store's 64-bit hash table.
type Hash64Entry struct {
	Hash            uint64
	MappingIndex    uint32
	LocalStoreIndex uint32
	StoreID         uint32
}

// Store is a parsed AssemblyStore: the header, its descriptor table,
// and — for a parsed primary store — its two hash tables. It borrows
// the raw file bytes for the lifetime of the extraction.
type Store struct {
	Header      Header
	Descriptors []Descriptor
	Hash32      []Hash32Entry
	Hash64      []Hash64Entry
	data        []byte
}

// Data returns the raw store bytes that Descriptors borrow from.
func (s *Store) Data() []byte {
	return s.data
}

// Parse decodes a store file's bytes. isPrimary must be true only for
// the store whose base filename (stem) is "assemblies"; secondary
// stores omit the hash tables even if they happen to carry a nonzero
// GlobalEntryCount.
func Parse(data []byte, isPrimary bool, tracker *collision.Tracker, log *logrus.Entry) (*Store, error) {
	r := breader.New(data)

	magic, err := r.ReadBytes(4)
	if err != nil {
		return nil, errors.Wrap(errs.ErrTruncated, "reading store magic")
	}
	if magic[0] != Magic[0] || magic[1] != Magic[1] || magic[2] != Magic[2] || magic[3] != Magic[3] {
		return nil, errs.ErrNotAnAssemblyStore
	}

	version, err := r.ReadUint32()
	if err != nil {
		return nil, errors.Wrap(errs.ErrTruncated, "reading store version")
	}
	if version > MaxSupportedVersion {
		return nil, errors.Wrapf(errs.ErrUnsupportedVersion, "version %d exceeds supported maximum %d", version, MaxSupportedVersion)
	}

	localCount, err := r.ReadUint32()
	if err != nil {
		return nil, errors.Wrap(errs.ErrTruncated, "reading local_entry_count")
	}
	globalCount, err := r.ReadUint32()
	if err != nil {
		return nil, errors.Wrap(errs.ErrTruncated, "reading global_entry_count")
	}
	storeID, err := r.ReadUint32()
	if err != nil {
		return nil, errors.Wrap(errs.ErrTruncated, "reading store_id")
	}

	header := Header{
		Version:          version,
		LocalEntryCount:  localCount,
		GlobalEntryCount: globalCount,
		StoreID:          storeID,
	}

	descriptors, err := readDescriptors(r, localCount)
	if err != nil {
		return nil, err
	}

	store := &Store{
		Header:      header,
		Descriptors: descriptors,
		data:        data,
	}

	if isPrimary {
		hash32, err := readHash32Table(r, globalCount)
		if err != nil {
			return nil, err
		}
		hash64, err := readHash64Table(r, globalCount)
		if err != nil {
			return nil, err
		}

		store.Hash32 = hash32
		store.Hash64 = hash64

		if tracker != nil {
			trackHashTables(tracker, storeID, hash32, hash64)
		}
	}

	if log != nil {
		log.WithFields(logrus.Fields{
			"store_id":     storeID,
			"version":      version,
			"local_count":  localCount,
			"global_count": globalCount,
			"primary":      isPrimary,
		}).Debug("assemblystore: parsed store header")
	}

	return store, nil
}

func readDescriptors(r *breader.Reader, count uint32) ([]Descriptor, error) {
	descriptors := make([]Descriptor, 0, count)
	for i := uint32(0); i < count; i++ {
		fields := make([]uint32, 6)
		for j := range fields {
			v, err := r.ReadUint32()
			if err != nil {
				return nil, errors.Wrapf(errs.ErrTruncated, "reading descriptor %d", i)
			}
			fields[j] = v
		}

		descriptors = append(descriptors, Descriptor{
			DataOffset:   fields[0],
			DataSize:     fields[1],
			DebugOffset:  fields[2],
			DebugSize:    fields[3],
			ConfigOffset: fields[4],
			ConfigSize:   fields[5],
		})
	}

	return descriptors, nil
}

func readHash32Table(r *breader.Reader, count uint32) ([]Hash32Entry, error) {
	entries := make([]Hash32Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		hash, err := r.ReadUint32()
		if err != nil {
			return nil, errors.Wrapf(errs.ErrTruncated, "reading hash32 entry %d", i)
		}
		if _, err := r.ReadBytes(4); err != nil { // 4 reserved bytes
			return nil, errors.Wrapf(errs.ErrTruncated, "reading hash32 entry %d reserved bytes", i)
		}
		mappingIndex, err := r.ReadUint32()
		if err != nil {
			return nil, errors.Wrapf(errs.ErrTruncated, "reading hash32 entry %d mapping_index", i)
		}
		localStoreIndex, err := r.ReadUint32()
		if err != nil {
			return nil, errors.Wrapf(errs.ErrTruncated, "reading hash32 entry %d local_store_index", i)
		}
		storeID, err := r.ReadUint32()
		if err != nil {
			return nil, errors.Wrapf(errs.ErrTruncated, "reading hash32 entry %d store_id", i)
		}

		entries = append(entries, Hash32Entry{
			Hash:            hash,
			MappingIndex:    mappingIndex,
			LocalStoreIndex: localStoreIndex,
			StoreID:         storeID,
		})
	}

	return entries, nil
}

func readHash64Table(r *breader.Reader, count uint32) ([]Hash64Entry, error) {
	entries := make([]Hash64Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		hash, err := r.ReadUint64()
		if err != nil {
			return nil, errors.Wrapf(errs.ErrTruncated, "reading hash64 entry %d hash", i)
		}
		mappingIndex, err := r.ReadUint32()
		if err != nil {
			return nil, errors.Wrapf(errs.ErrTruncated, "reading hash64 entry %d mapping_index", i)
		}
		localStoreIndex, err := r.ReadUint32()
		if err != nil {
			return nil, errors.Wrapf(errs.ErrTruncated, "reading hash64 entry %d local_store_index", i)
		}
		storeID, err := r.ReadUint32()
		if err != nil {
			return nil, errors.Wrapf(errs.ErrTruncated, "reading hash64 entry %d store_id", i)
		}

		entries = append(entries, Hash64Entry{
			Hash:            hash,
			MappingIndex:    mappingIndex,
			LocalStoreIndex: localStoreIndex,
			StoreID:         storeID,
		})
	}

	return entries, nil
}

func trackHashTables(tracker *collision.Tracker, storeID uint32, hash32 []Hash32Entry, hash64 []Hash64Entry) {
	for _, e := range hash32 {
		tracker.Track(collision.KindHash32, formatHash32(e.Hash), storeID, e.MappingIndex, e.LocalStoreIndex)
	}
	for _, e := range hash64 {
		tracker.Track(collision.KindHash64, formatHash64(e.Hash), storeID, e.MappingIndex, e.LocalStoreIndex)
	}
}

func formatHash32(h uint32) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		buf[i] = hexDigits[h&0xF]
		h >>= 4
	}

	return string(buf)
}

func formatHash64(h uint64) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[h&0xF]
		h >>= 4
	}

	return string(buf)
}
