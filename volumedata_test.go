package usnjrnl

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeNtfsVolumeDataRejectsShortBuffer(t *testing.T) {
	_, err := DecodeNtfsVolumeData(make([]byte, 50))
	require.Error(t, err)
}

func TestDecodeNtfsVolumeDataWithoutExtendedTail(t *testing.T) {
	buf := make([]byte, 96)
	binary.LittleEndian.PutUint64(buf[0:8], 0xDEADBEEF)
	binary.LittleEndian.PutUint32(buf[48:52], 1024) // bytes_per_file_record_segment
	binary.LittleEndian.PutUint64(buf[56:64], 1024*10)

	data, err := DecodeNtfsVolumeData(buf)
	require.NoError(t, err)
	require.Equal(t, int64(0xDEADBEEF), data.VolumeSerialNumber)
	require.Nil(t, data.Extended)
	require.Equal(t, uint64(10), data.MaxEntry())
}

func TestDecodeNtfsVolumeDataWithExtendedTail(t *testing.T) {
	buf := make([]byte, 128)
	binary.LittleEndian.PutUint32(buf[96:100], 64) // extended byte_count
	binary.LittleEndian.PutUint16(buf[100:102], 1) // major_version

	data, err := DecodeNtfsVolumeData(buf)
	require.NoError(t, err)
	require.NotNil(t, data.Extended)
	require.Equal(t, uint32(64), data.Extended.ByteCount)
	require.Equal(t, uint16(1), data.Extended.MajorVersion)
}

func TestNtfsVolumeDataMaxEntryGuardsDivideByZero(t *testing.T) {
	data := &NtfsVolumeData{MftValidDataLength: 1024, BytesPerFileRecordSegment: 0}
	require.Equal(t, uint64(0), data.MaxEntry())
}
