package usnjrnl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeEntrySymbolicByDefault(t *testing.T) {
	buf := buildV2Record(t, 1, 1, 5, ReasonFileCreate)
	rec, err := decodeRecord(buf)
	require.NoError(t, err)
	entry := UsnEntry{Meta: EntryMeta{Source: "mem", Offset: 0}, Record: rec}

	line, err := EncodeEntry(entry, DefaultSerializeConfig)
	require.NoError(t, err)
	require.Contains(t, string(line), `"reason":"USN_REASON_FILE_CREATE"`)
}

func TestEncodeEntryRawFlags(t *testing.T) {
	buf := buildV2Record(t, 1, 1, 5, ReasonFileCreate)
	rec, err := decodeRecord(buf)
	require.NoError(t, err)
	entry := UsnEntry{Meta: EntryMeta{Source: "mem", Offset: 0}, Record: rec}

	line, err := EncodeEntry(entry, SerializeConfig{RawFlags: true})
	require.NoError(t, err)
	require.Contains(t, string(line), `"reason":256`)
}
