package usnjrnl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkReaderSingleSmallChunk(t *testing.T) {
	data := make([]byte, 100)
	r := bytes.NewReader(data)

	cr, err := NewChunkReader("mem", r)
	require.NoError(t, err)

	chunk, err := cr.Next()
	require.NoError(t, err)
	require.NotNil(t, chunk)
	require.Equal(t, uint64(0), chunk.Offset)
	require.Equal(t, 100, chunk.SearchSize)

	chunk, err = cr.Next()
	require.NoError(t, err)
	require.Nil(t, chunk)
}

// TestChunkReaderAdvancesBySearchSize exercises the overlap behavior: each
// chunk's window advances by searchSize, not chunkSize, so a record whose
// signature lands in the chunkSize-searchSize trailing margin still gets a
// full read on the next pass.
func TestChunkReaderAdvancesBySearchSize(t *testing.T) {
	data := make([]byte, 40*1024)
	r := bytes.NewReader(data)

	cr, err := NewChunkReader("mem", r)
	require.NoError(t, err)

	first, err := cr.Next()
	require.NoError(t, err)
	require.Equal(t, uint64(0), first.Offset)
	require.Equal(t, searchSize, first.SearchSize)

	second, err := cr.Next()
	require.NoError(t, err)
	require.Equal(t, uint64(searchSize), second.Offset)

	third, err := cr.Next()
	require.NoError(t, err)
	require.Equal(t, uint64(2*searchSize), third.Offset)
	require.True(t, third.SearchSize < searchSize)
}

func TestDataChunkRecordsFindsEmbeddedRecord(t *testing.T) {
	rec := buildV2Record(t, 7, 1, 55, ReasonFileCreate)

	buf := make([]byte, 100)
	copy(buf[20:], rec)

	chunk := &DataChunk{Source: "mem", Offset: 1000, SearchSize: len(buf), Bytes: buf}
	entries := chunk.Records(nil)

	require.Len(t, entries, 1)
	require.Equal(t, uint64(1020), entries[0].Meta.Offset)
	require.Equal(t, "foo.txt", entries[0].Record.FileName())
}

func TestDataChunkRecordsOrdersAscendingByOffset(t *testing.T) {
	recA := buildV2Record(t, 1, 1, 10, ReasonFileCreate)
	recB := buildV2Record(t, 2, 1, 20, ReasonFileCreate)

	buf := make([]byte, 4+len(recA)+4+len(recB))
	copy(buf[4:], recA)
	copy(buf[4+len(recA)+4:], recB)

	chunk := &DataChunk{Source: "mem", Offset: 0, SearchSize: len(buf), Bytes: buf}
	entries := chunk.Records(nil)

	require.Len(t, entries, 2)
	require.Less(t, entries[0].Meta.Offset, entries[1].Meta.Offset)
	require.Equal(t, uint64(1), entries[0].Record.FileReference().Entry)
	require.Equal(t, uint64(2), entries[1].Record.FileReference().Entry)
}

func TestDataChunkRecordsSkipsFalsePositiveSignature(t *testing.T) {
	// A version-looking signature whose preceding "length" high bytes
	// aren't zero must not be treated as a hit.
	buf := make([]byte, 32)
	copy(buf[4:8], v2Signature)
	buf[2] = 0xFF // high byte of record_length nonzero

	chunk := &DataChunk{Source: "mem", Offset: 0, SearchSize: len(buf), Bytes: buf}
	entries := chunk.Records(nil)
	require.Empty(t, entries)
}
