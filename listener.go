package usnjrnl

import (
	"context"
	"time"
)

// VolumeAdapter is the capability a Listener needs from a live volume: the
// three ioctl-backed operations the core consumes, kept behind an
// interface so the state machine is testable without a real Windows
// handle.
type VolumeAdapter interface {
	QueryJournal() (*UsnJournalData, error)
	ReadJournal(req *ReadUsnJournalRequest) (nextUsn uint64, records []byte, err error)
	FileRecordFetcher
}

// idleBackoff is how long the listener sleeps after a drain that yielded
// zero records, so it doesn't spin against an idle journal.
const idleBackoff = 100 * time.Millisecond

// Listener drives the live USN journal read loop for a single volume:
// Init (query journal, pick a starting cursor), then Read/Drain in a loop,
// maintaining a lazy folder mapping from directory records and annotating
// every record with its resolved full path.
type Listener struct {
	adapter    VolumeAdapter
	mapping    *LiveFolderMapping
	historical bool
	source     string
	log        FieldLogger

	cursor     uint64
	catchUpUsn uint64
}

// NewListener constructs a Listener. historical=true starts the cursor at
// USN 0 and rebuilds past state instead of only watching new activity.
func NewListener(source string, adapter VolumeAdapter, historical bool, log FieldLogger) *Listener {
	return &Listener{
		adapter:    adapter,
		mapping:    NewLiveFolderMapping(adapter),
		historical: historical,
		source:     source,
		log:        log,
	}
}

// Run executes Init then loops Read/Drain until ctx is canceled or the
// adapter returns an error. emit is called once per decoded record, in the
// order the journal produced them.
func (l *Listener) Run(ctx context.Context, emit func(UsnEntry) error) error {
	journal, err := l.adapter.QueryJournal()
	if err != nil {
		return err
	}
	l.catchUpUsn = journal.NextUsn
	if l.historical {
		l.cursor = 0
	} else {
		l.cursor = l.catchUpUsn
	}

	req := &ReadUsnJournalRequest{
		ReasonMask:   0xFFFFFFFF,
		UsnJournalID: journal.UsnJournalID,
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		req.StartUsn = l.cursor
		nextUsn, buf, err := l.adapter.ReadJournal(req)
		if err != nil {
			return err
		}
		l.cursor = nextUsn

		var entries []UsnEntry
		if len(buf) > 0 {
			chunk := &DataChunk{Source: l.source, Offset: 0, SearchSize: len(buf), Bytes: buf}
			entries = chunk.Records(l.log)
		}
		if len(entries) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(idleBackoff):
			}
			continue
		}

		for _, entry := range entries {
			l.annotate(&entry)
			if err := emit(entry); err != nil {
				return err
			}
		}
	}
}

// annotate updates the lazy folder mapping per the record's reason bits
// (evaluated in order of strictest semantic impact: an old-name rename or
// delete erases an identity before a new-name rename or create
// establishes one) and resolves the record's full path for emission.
func (l *Listener) annotate(entry *UsnEntry) {
	reason := entry.Record.Reason()
	ref := entry.Record.FileReference()
	parent := entry.Record.ParentReference()
	name := entry.Record.FileName()

	if entry.Record.FileAttributes().Has(FileAttributeDirectory) {
		switch {
		case reason.Has(ReasonRenameOldName):
			l.mapping.Invalidate(ref)
		case reason.Has(ReasonFileDelete) && l.historical && entry.Record.Usn() < l.catchUpUsn:
			l.mapping.Add(ref, name, parent)
		case reason.Has(ReasonFileDelete):
			l.mapping.Invalidate(ref)
		case reason.Has(ReasonRenameNewName), reason.Has(ReasonFileCreate):
			l.mapping.Add(ref, name, parent)
		}
	}

	resolved := l.mapping.EnumeratePath(parent)
	entry.Meta.FullPath = resolved + "/" + name
}
