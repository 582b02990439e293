package usnjrnl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMftFileReaderSkipsInvalidAndReturnsValidRecords(t *testing.T) {
	valid := buildMftRecord(t, 1, mftFlagAllocated|mftFlagDirectory, "Documents", namespaceWin32, RootReference)
	valid = append(valid, make([]byte, defaultMftRecordSize-len(valid))...)

	invalid := make([]byte, defaultMftRecordSize) // zeroed, no "FILE" signature

	var buf bytes.Buffer
	buf.Write(invalid)
	buf.Write(valid)

	reader := NewMftFileReader(&buf)

	first, err := reader.Next()
	require.NoError(t, err)
	require.NotNil(t, first)
	require.Equal(t, uint32(1), first.RecordNumber)

	fn, ok := first.FindBestNameAttribute()
	require.True(t, ok)
	require.Equal(t, "Documents", fn.Name)

	end, err := reader.Next()
	require.NoError(t, err)
	require.Nil(t, end)
}
