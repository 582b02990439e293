package usnjrnl

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const offlinePathCacheSize = 100

// EntryMapping is a directory's name and parent reference, as recovered
// from its $FILE_NAME attribute.
type EntryMapping struct {
	Name   string
	Parent MftReference
}

// FolderMapping resolves an MftReference to a full "/"-joined path, built
// from a full offline scan of every directory entry in the MFT.
type FolderMapping struct {
	entries map[MftReference]EntryMapping
	cache   *lru.Cache[MftReference, string]
}

// NewFolderMapping returns an empty mapping ready for BuildFromMft or
// incremental Add/Remove calls.
func NewFolderMapping() *FolderMapping {
	cache, _ := lru.New[MftReference, string](offlinePathCacheSize)
	return &FolderMapping{
		entries: make(map[MftReference]EntryMapping),
		cache:   cache,
	}
}

// Contains reports whether ref has a recorded mapping.
func (m *FolderMapping) Contains(ref MftReference) bool {
	_, ok := m.entries[ref]
	return ok
}

// MftEntrySource yields MFT records for a full-volume scan, in the order
// BuildFromMft should visit them.
type MftEntrySource interface {
	Next() (*MftRecord, error)
}

// BuildFromMft iterates every entry from src; for each directory entry it
// computes the effective reference (redirecting to the base record for
// extended entries, and recovering the pre-deletion sequence for
// unallocated entries) and records its best $FILE_NAME attribute.
func (m *FolderMapping) BuildFromMft(src MftEntrySource, log FieldLogger) error {
	for {
		entry, err := src.Next()
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		if !entry.IsDirectory() {
			continue
		}

		effectiveEntry := uint64(entry.RecordNumber)
		effectiveSequence := entry.Sequence
		if !entry.IsAllocated() {
			effectiveSequence--
		}
		if entry.BaseReference.Entry != 0 {
			effectiveEntry = entry.BaseReference.Entry
			effectiveSequence = entry.BaseReference.Sequence
		}

		fn, ok := entry.FindBestNameAttribute()
		if !ok {
			continue
		}

		ref := MftReference{Entry: effectiveEntry, Sequence: effectiveSequence}
		m.entries[ref] = EntryMapping{Name: fn.Name, Parent: fn.Parent}
		if log != nil {
			log.WithField("ref", ref).Debug("added directory mapping")
		}
	}
}

// AddMapping inserts a mapping and evicts any cached path for ref, so a
// stale path can never be served after a mutation.
func (m *FolderMapping) AddMapping(ref MftReference, name string, parent MftReference) {
	m.cache.Remove(ref)
	m.entries[ref] = EntryMapping{Name: name, Parent: parent}
}

// RemoveMapping deletes ref's entry and evicts its cached path for
// hygiene, even though a later enumeration would produce "[<unknown>]"
// without the eviction.
func (m *FolderMapping) RemoveMapping(ref MftReference) {
	delete(m.entries, ref)
	m.cache.Remove(ref)
}

// EnumeratePath resolves ref to a full "/"-joined path, walking parents up
// to the root and memoizing the result. Gaps and cycles stop the walk at
// the literal segment "[<unknown>]" rather than looping forever.
func (m *FolderMapping) EnumeratePath(ref MftReference) string {
	if cached, ok := m.cache.Get(ref); ok {
		return cached
	}

	var segments []string
	m.enumeratePathQueue(ref, &segments, make(map[MftReference]bool))

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	full := strings.Join(segments, "/")
	m.cache.Add(ref, full)
	return full
}

func (m *FolderMapping) enumeratePathQueue(ref MftReference, segments *[]string, seen map[MftReference]bool) {
	if ref.IsRoot() {
		*segments = append(*segments, "[root]")
		return
	}
	if seen[ref] {
		*segments = append(*segments, "[<unknown>]")
		return
	}
	seen[ref] = true

	entry, ok := m.entries[ref]
	if !ok {
		*segments = append(*segments, "[<unknown>]")
		return
	}
	*segments = append(*segments, entry.Name)
	m.enumeratePathQueue(entry.Parent, segments, seen)
}
