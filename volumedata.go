package usnjrnl

import "fmt"

// NtfsExtendedVolumeData is the NTFS_EXTENDED_VOLUME_DATA tail that follows
// NtfsVolumeData on volumes new enough to report it.
type NtfsExtendedVolumeData struct {
	ByteCount                    uint32 `json:"byte_count"`
	MajorVersion                 uint16 `json:"major_version"`
	MinorVersion                 uint16 `json:"minor_version"`
	BytesPerPhysicalSector       uint32 `json:"bytes_per_physical_sector"`
	LfsMajorVersion              uint16 `json:"lfs_major_version"`
	LfsMinorVersion              uint16 `json:"lfs_minor_version"`
	MaxDeviceTrimExtentCount     uint32 `json:"max_device_trim_extent_count"`
	MaxDeviceTrimByteCount       uint32 `json:"max_device_trim_byte_count"`
	MaxVolumeTrimExtentCount     uint32 `json:"max_volume_trim_extent_count"`
	MaxVolumeTrimByteCount       uint32 `json:"max_volume_trim_byte_count"`
}

func decodeNtfsExtendedVolumeData(buf []byte) NtfsExtendedVolumeData {
	return NtfsExtendedVolumeData{
		ByteCount:                readUint32LE(buf[0:4]),
		MajorVersion:             readUint16LE(buf[4:6]),
		MinorVersion:             readUint16LE(buf[6:8]),
		BytesPerPhysicalSector:   readUint32LE(buf[8:12]),
		LfsMajorVersion:          readUint16LE(buf[12:14]),
		LfsMinorVersion:          readUint16LE(buf[14:16]),
		MaxDeviceTrimExtentCount: readUint32LE(buf[16:20]),
		MaxDeviceTrimByteCount:   readUint32LE(buf[20:24]),
		MaxVolumeTrimExtentCount: readUint32LE(buf[24:28]),
		MaxVolumeTrimByteCount:   readUint32LE(buf[28:32]),
	}
}

// NtfsVolumeData is the NTFS_VOLUME_DATA_BUFFER structure returned by the
// get-volume-data ioctl. The extended tail is present only when the ioctl
// returned at least 128 bytes.
type NtfsVolumeData struct {
	VolumeSerialNumber            int64                   `json:"volume_serial_number"`
	NumberSectors                 int64                   `json:"number_sectors"`
	TotalClusters                 int64                   `json:"total_clusters"`
	FreeClusters                  int64                   `json:"free_clusters"`
	TotalReserved                 int64                   `json:"total_reserved"`
	BytesPerSector                uint32                  `json:"bytes_per_sector"`
	BytesPerCluster                uint32                 `json:"bytes_per_cluster"`
	BytesPerFileRecordSegment     uint32                  `json:"bytes_per_file_record_segment"`
	ClustersPerFileRecordSegment  uint32                  `json:"clusters_per_file_record_segment"`
	MftValidDataLength            int64                   `json:"mft_valid_data_length"`
	MftStartLcn                   int64                   `json:"mft_start_lcn"`
	Mft2StartLcn                  int64                   `json:"mft_2_start_lcn"`
	MftZoneStart                  int64                   `json:"mft_zone_start"`
	MftZoneEnd                    int64                   `json:"mft_zone_end"`
	Extended                      *NtfsExtendedVolumeData `json:"ntfs_extended_volume_data,omitempty"`
}

// DecodeNtfsVolumeData decodes the fixed 96-byte body, plus the 32-byte
// extended tail if present.
func DecodeNtfsVolumeData(buf []byte) (*NtfsVolumeData, error) {
	if len(buf) < 96 {
		return nil, newError(InvalidUsnJournalData,
			fmt.Sprintf("volume data buffer too short: %d bytes", len(buf)))
	}

	data := &NtfsVolumeData{
		VolumeSerialNumber:           int64(readUint64LE(buf[0:8])),
		NumberSectors:                int64(readUint64LE(buf[8:16])),
		TotalClusters:                int64(readUint64LE(buf[16:24])),
		FreeClusters:                 int64(readUint64LE(buf[24:32])),
		TotalReserved:                int64(readUint64LE(buf[32:40])),
		BytesPerSector:               readUint32LE(buf[40:44]),
		BytesPerCluster:              readUint32LE(buf[44:48]),
		BytesPerFileRecordSegment:    readUint32LE(buf[48:52]),
		ClustersPerFileRecordSegment: readUint32LE(buf[52:56]),
		MftValidDataLength:           int64(readUint64LE(buf[56:64])),
		MftStartLcn:                  int64(readUint64LE(buf[64:72])),
		Mft2StartLcn:                 int64(readUint64LE(buf[72:80])),
		MftZoneStart:                 int64(readUint64LE(buf[80:88])),
		MftZoneEnd:                   int64(readUint64LE(buf[88:96])),
	}

	if len(buf) >= 128 {
		ext := decodeNtfsExtendedVolumeData(buf[96:128])
		data.Extended = &ext
	}

	return data, nil
}

// MaxEntry derives the highest valid MFT record number the volume can
// currently address, from the ratio of valid MFT data to the size of each
// file record segment.
func (d *NtfsVolumeData) MaxEntry() uint64 {
	if d.BytesPerFileRecordSegment == 0 {
		return 0
	}
	return uint64(d.MftValidDataLength) / uint64(d.BytesPerFileRecordSegment)
}
