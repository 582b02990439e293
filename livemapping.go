package usnjrnl

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const livePathCacheSize = 1000

// FileRecordFetcher is the capability LiveFolderMapping needs from a
// volume adapter: fetch a single MFT file record by entry number.
type FileRecordFetcher interface {
	GetFileRecord(entry uint64) (*MftRecord, error)
}

// LiveFolderMapping resolves entry -> full path on demand against a live
// volume, one MFT file record fetch at a time, instead of requiring a full
// offline MFT scan up front. A small overrides map lets the listener graft
// in synthetic name/parent pairs recovered from USN records themselves
// (needed when rebuilding historical state for entries the live volume no
// longer has), checked ahead of the fetcher on every lookup.
type LiveFolderMapping struct {
	fetcher   FileRecordFetcher
	overrides map[uint64]EntryMapping
	cache     *lru.Cache[uint64, string]
}

// NewLiveFolderMapping wraps a FileRecordFetcher with an LRU path cache.
func NewLiveFolderMapping(fetcher FileRecordFetcher) *LiveFolderMapping {
	cache, _ := lru.New[uint64, string](livePathCacheSize)
	return &LiveFolderMapping{
		fetcher:   fetcher,
		overrides: make(map[uint64]EntryMapping),
		cache:     cache,
	}
}

// Add records a synthetic name/parent pair for ref and evicts its cached
// path, the live-mapping analogue of FolderMapping.AddMapping.
func (m *LiveFolderMapping) Add(ref MftReference, name string, parent MftReference) {
	m.overrides[ref.Entry] = EntryMapping{Name: name, Parent: parent}
	m.cache.Remove(ref.Entry)
}

// Invalidate drops any override and cached path for entry, called on
// FILE_DELETE or RENAME_OLD_NAME for that entry so a stale path is never
// served again.
func (m *LiveFolderMapping) Invalidate(ref MftReference) {
	delete(m.overrides, ref.Entry)
	m.cache.Remove(ref.Entry)
}

// EnumeratePath resolves ref to a full path, preferring any override over
// a live MFT file record fetch at each step up to the root, memoizing the
// result in the LRU.
func (m *LiveFolderMapping) EnumeratePath(ref MftReference) string {
	if cached, ok := m.cache.Get(ref.Entry); ok {
		return cached
	}

	var segments []string
	current := ref
	seen := make(map[uint64]bool)

	for {
		if current.IsRoot() {
			segments = append(segments, "[root]")
			break
		}
		if seen[current.Entry] {
			segments = append(segments, "[<unknown>]")
			break
		}
		seen[current.Entry] = true

		if entry, ok := m.overrides[current.Entry]; ok {
			segments = append(segments, entry.Name)
			current = entry.Parent
			continue
		}

		record, err := m.fetcher.GetFileRecord(current.Entry)
		if err != nil {
			segments = append(segments, "[<unknown>]")
			break
		}
		fn, ok := record.FindBestNameAttribute()
		if !ok {
			segments = append(segments, "[<unknown>]")
			break
		}
		segments = append(segments, fn.Name)
		current = fn.Parent
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	full := strings.Join(segments, "/")
	m.cache.Add(ref.Entry, full)
	return full
}

// BulkEnumerate walks every MFT entry from highest to lowest, calling fn
// for each allocated directory record found. The live get-file-record
// operation returns the next lower allocated entry when asked for an
// unallocated one, so a naive descending loop would re-fetch the same
// record repeatedly across an unallocated run; advancing current to
// returned.RecordNumber-1 instead of current-1 avoids that.
func BulkEnumerate(fetcher FileRecordFetcher, highestEntry uint64, fn func(*MftRecord)) error {
	current := highestEntry
	for {
		record, err := fetcher.GetFileRecord(current)
		if err != nil {
			return err
		}
		if record.IsAllocated() && record.IsDirectory() {
			fn(record)
		}
		if uint64(record.RecordNumber) == 0 {
			return nil
		}
		current = uint64(record.RecordNumber) - 1
	}
}
