package usnjrnl

import (
	"bytes"
	"io"
	"sort"
)

const (
	// chunkSize is searchSize plus one maximum-length (1024-byte) record,
	// so a record starting anywhere in the search window fits in the chunk.
	chunkSize = 17408
	// searchSize is the window within a chunk that is actually scanned
	// for signatures; the remaining chunkSize-searchSize bytes exist
	// only so a record starting at the edge of the window has room to
	// be read in full.
	searchSize = 16384
)

// signature bytes that mark the start of a record: a 4-byte major/minor
// version pair following the 4-byte record_length field a scanner has no
// other way to validate up front.
var (
	v2Signature = []byte{0x02, 0x00, 0x00, 0x00}
	v3Signature = []byte{0x03, 0x00, 0x00, 0x00}
)

// ReadSeeker is the minimal capability a chunked source needs: random
// access reads plus the ability to report size via Seek(0, io.SeekEnd).
type ReadSeeker interface {
	io.ReadSeeker
}

// DataChunk is a window of raw bytes read from an absolute offset, along
// with the portion of it (SearchSize bytes) that should actually be
// scanned for record signatures.
type DataChunk struct {
	Source     string
	Offset     uint64
	SearchSize int
	Bytes      []byte
}

// ChunkReader produces a lazy sequence of overlap-safe DataChunks over a
// random-access byte source of known size.
type ChunkReader struct {
	source string
	r      ReadSeeker
	size   int64
	next   int64
	done   bool
}

// NewChunkReader seeks r to determine its size and rewinds it to the
// beginning, ready to iterate chunks via Next.
func NewChunkReader(source string, r ReadSeeker) (*ChunkReader, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, wrapError(IoError, "seeking to end to determine size", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, wrapError(IoError, "rewinding to start", err)
	}
	return &ChunkReader{source: source, r: r, size: size}, nil
}

// Next returns the next chunk, or (nil, nil) once the source is exhausted.
func (c *ChunkReader) Next() (*DataChunk, error) {
	if c.done || c.next >= c.size {
		c.done = true
		return nil, nil
	}

	offset := c.next
	if _, err := c.r.Seek(offset, io.SeekStart); err != nil {
		return nil, wrapError(IoError, "seeking to chunk start", err)
	}

	buf := make([]byte, chunkSize)
	n, err := io.ReadFull(c.r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, wrapError(IoError, "reading chunk", err)
	}
	buf = buf[:n]

	c.next = offset + searchSize

	search := searchSize
	if n < search {
		search = n
	}

	return &DataChunk{
		Source:     c.source,
		Offset:     uint64(offset),
		SearchSize: search,
		Bytes:      buf,
	}, nil
}

// Records scans the chunk's search window for USN_RECORD signatures and
// decodes each hit, in ascending intra-chunk offset order. Records that
// fail structural validation are dropped with a debug-level note rather
// than aborting the whole chunk.
func (c *DataChunk) Records(log FieldLogger) []UsnEntry {
	window := c.Bytes[:c.SearchSize]

	var hits []int
	for _, sig := range [][]byte{v2Signature, v3Signature} {
		pos := 0
		for {
			idx := bytes.Index(window[pos:], sig)
			if idx < 0 {
				break
			}
			versionOffset := pos + idx
			matchStart := versionOffset - 4
			// record_length's high two bytes must be zero, the same
			// constraint the original byte-regex signature encodes.
			if matchStart >= 0 && window[matchStart+2] == 0 && window[matchStart+3] == 0 {
				hits = append(hits, matchStart)
			}
			pos = versionOffset + 1
		}
	}
	sort.Ints(hits)

	entries := make([]UsnEntry, 0, len(hits))
	for _, hit := range hits {
		entryOffset := c.Offset + uint64(hit)
		record, err := decodeRecord(c.Bytes[hit:])
		if err != nil {
			if log != nil {
				fields := log.WithField("source", c.Source).
					WithField("offset", entryOffset)
				if kindErr, ok := err.(*Error); ok {
					fields = fields.WithField("kind", kindErr.Kind.String())
				}
				fields.Debugf("skipping invalid record: %v", err)
			}
			continue
		}
		entries = append(entries, UsnEntry{
			Meta: EntryMeta{
				Source: c.Source,
				Offset: entryOffset,
			},
			Record: record,
		})
	}
	return entries
}
