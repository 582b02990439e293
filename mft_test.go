package usnjrnl

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildMftRecord assembles a minimal MFT record with a single resident
// $FILE_NAME attribute, terminated by the 0xFFFFFFFF end marker.
func buildMftRecord(t *testing.T, sequence uint16, flags uint16, name string, namespace byte, parent MftReference) []byte {
	t.Helper()

	nameBytes := make([]byte, 0, len(name)*2)
	for _, r := range name {
		u := uint16(r)
		nameBytes = append(nameBytes, byte(u), byte(u>>8))
	}

	const firstAttrOff = 56
	const valueOff = 24
	valueLen := 66 + len(nameBytes)
	attrLen := valueOff + valueLen

	buf := make([]byte, firstAttrOff+attrLen+4)
	copy(buf[0:4], mftSignature)
	binary.LittleEndian.PutUint16(buf[4:6], 0) // usaOffset (unused, applyFixup=false)
	binary.LittleEndian.PutUint16(buf[6:8], 0) // usaCount
	binary.LittleEndian.PutUint16(buf[16:18], sequence)
	binary.LittleEndian.PutUint16(buf[20:22], firstAttrOff)
	binary.LittleEndian.PutUint16(buf[22:24], flags)
	// base_reference left zero: this record is not an attribute-list extension.

	off := firstAttrOff
	binary.LittleEndian.PutUint32(buf[off:off+4], mftAttrFileName)
	binary.LittleEndian.PutUint32(buf[off+4:off+8], uint32(attrLen))
	buf[off+8] = 0 // resident
	binary.LittleEndian.PutUint32(buf[off+16:off+20], uint32(valueLen))
	binary.LittleEndian.PutUint16(buf[off+20:off+22], valueOff)

	valueStart := off + valueOff
	parentRaw := (uint64(parent.Sequence) << 48) | parent.Entry
	binary.LittleEndian.PutUint64(buf[valueStart:valueStart+8], parentRaw)
	buf[valueStart+64] = byte(len(name))
	buf[valueStart+65] = namespace
	copy(buf[valueStart+66:], nameBytes)

	endOff := off + attrLen
	binary.LittleEndian.PutUint32(buf[endOff:endOff+4], mftAttrEndMarker)

	return buf
}

func TestParseMftRecordAndFindBestName(t *testing.T) {
	parent := MftReference{Entry: 5, Sequence: 1}
	buf := buildMftRecord(t, 3, mftFlagAllocated|mftFlagDirectory, "Documents", namespaceWin32, parent)

	rec, err := ParseMftRecord(11, buf, false)
	require.NoError(t, err)
	require.Equal(t, uint32(11), rec.RecordNumber)
	require.Equal(t, uint16(3), rec.Sequence)
	require.True(t, rec.IsAllocated())
	require.True(t, rec.IsDirectory())
	require.Equal(t, uint64(0), rec.BaseReference.Entry)

	fn, ok := rec.FindBestNameAttribute()
	require.True(t, ok)
	require.Equal(t, "Documents", fn.Name)
	require.Equal(t, parent, fn.Parent)
}

func TestParseMftRecordRejectsBadSignature(t *testing.T) {
	buf := make([]byte, 64)
	copy(buf[0:4], "BAAD")

	_, err := ParseMftRecord(1, buf, false)
	require.Error(t, err)
}

func TestPreferNamespacePrefersWin32OverDos(t *testing.T) {
	require.True(t, preferNamespace(namespaceWin32, namespaceDOS))
	require.False(t, preferNamespace(namespaceDOS, namespaceWin32))
	require.True(t, preferNamespace(namespaceDOS, namespacePOSIX))
	require.False(t, preferNamespace(namespaceWin32Dos, namespaceWin32))
}

func TestApplyMftFixupRestoresSectorTail(t *testing.T) {
	buf := make([]byte, 1024)
	copy(buf[0:4], mftSignature)
	binary.LittleEndian.PutUint16(buf[4:6], 48) // usaOffset
	binary.LittleEndian.PutUint16(buf[6:8], 3)  // usaCount: 1 update sequence number + 2 sector values

	// Simulate NTFS's on-disk substitution: sector tail holds the shared
	// USN value, the real bytes are saved in the update sequence array.
	usn := []byte{0xAB, 0xCD}
	buf[510], buf[511] = usn[0], usn[1]
	buf[1022], buf[1023] = usn[0], usn[1]

	copy(buf[48:50], usn)
	copy(buf[50:52], []byte{0x11, 0x22}) // original bytes for sector 1 (offset 510)
	copy(buf[52:54], []byte{0x33, 0x44}) // original bytes for sector 2 (offset 1022)
	buf[510], buf[511] = usn[0], usn[1]
	buf[1022], buf[1023] = usn[0], usn[1]

	fixed, err := applyMftFixup(buf)
	require.NoError(t, err)
	require.Equal(t, byte(0x11), fixed[510])
	require.Equal(t, byte(0x22), fixed[511])
	require.Equal(t, byte(0x33), fixed[1022])
	require.Equal(t, byte(0x44), fixed[1023])
}
