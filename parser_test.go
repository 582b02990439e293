package usnjrnl

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildJournalImage lays out records at the given offsets inside a buffer
// sized to span multiple chunks, so Parser.Each must flatten results from
// more than one wave of chunks back into ascending offset order.
func buildJournalImage(t *testing.T, size int, placements map[int]uint64) []byte {
	t.Helper()
	buf := make([]byte, size)
	for offset, entry := range placements {
		rec := buildV2Record(t, entry, 1, entry*10, ReasonFileCreate)
		copy(buf[offset:], rec)
	}
	return buf
}

func TestParserEachYieldsAscendingOffsetsAcrossChunks(t *testing.T) {
	size := 3 * searchSize
	placements := map[int]uint64{
		100:               1,
		searchSize + 200:  2,
		2*searchSize + 50: 3,
	}
	data := buildJournalImage(t, size, placements)

	chunks, err := NewChunkReader("mem", bytes.NewReader(data))
	require.NoError(t, err)

	parser := NewParser(chunks, 4, nil)
	entries, err := parser.All(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)

	for i := 1; i < len(entries); i++ {
		require.Less(t, entries[i-1].Meta.Offset, entries[i].Meta.Offset)
	}
	require.Equal(t, uint64(1), entries[0].Record.FileReference().Entry)
	require.Equal(t, uint64(2), entries[1].Record.FileReference().Entry)
	require.Equal(t, uint64(3), entries[2].Record.FileReference().Entry)
}

func TestParserEachSingleWorkerMatchesParallel(t *testing.T) {
	size := 2 * searchSize
	placements := map[int]uint64{50: 9, searchSize + 10: 10}
	data := buildJournalImage(t, size, placements)

	chunksSerial, err := NewChunkReader("mem", bytes.NewReader(data))
	require.NoError(t, err)
	serial := NewParser(chunksSerial, 1, nil)
	serialEntries, err := serial.All(context.Background())
	require.NoError(t, err)

	chunksParallel, err := NewChunkReader("mem", bytes.NewReader(data))
	require.NoError(t, err)
	parallel := NewParser(chunksParallel, 8, nil)
	parallelEntries, err := parallel.All(context.Background())
	require.NoError(t, err)

	require.Equal(t, len(serialEntries), len(parallelEntries))
	for i := range serialEntries {
		require.Equal(t, serialEntries[i].Meta.Offset, parallelEntries[i].Meta.Offset)
	}
}

func TestParserEachStopsOnCallbackError(t *testing.T) {
	size := searchSize
	placements := map[int]uint64{10: 1, 500: 2}
	data := buildJournalImage(t, size, placements)

	chunks, err := NewChunkReader("mem", bytes.NewReader(data))
	require.NoError(t, err)

	parser := NewParser(chunks, 1, nil)
	stop := errors.New("stop")
	seen := 0
	err = parser.Each(context.Background(), func(e UsnEntry) error {
		seen++
		return stop
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, seen)
}
