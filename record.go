package usnjrnl

import "fmt"

const (
	maxRecordLength = 1024

	v2FileNameOffset = 60
	v3FileNameOffset = 80
)

// EntryMeta carries the provenance of a decoded record: which input it came
// from and the absolute byte offset at which the record starts.
type EntryMeta struct {
	Source   string `json:"source"`
	Offset   uint64 `json:"offset"`
	FullPath string `json:"full_path,omitempty"`
}

// RecordVersion distinguishes the two on-disk USN record layouts this
// decoder understands.
type RecordVersion int

const (
	V2 RecordVersion = 2
	V3 RecordVersion = 3
)

// UsnRecordV2 is the classic 64-bit-reference USN_RECORD_V2 layout.
type UsnRecordV2 struct {
	RecordLength    uint32         `json:"record_length"`
	MajorVersion    uint16         `json:"major_version"`
	MinorVersion    uint16         `json:"minor_version"`
	FileReference   MftReference   `json:"file_reference"`
	ParentReference MftReference   `json:"parent_reference"`
	Usn             uint64         `json:"usn"`
	Timestamp       Timestamp      `json:"timestamp"`
	Reason          Reason         `json:"reason"`
	SourceInfo      SourceInfo     `json:"source_info"`
	SecurityID      uint32         `json:"security_id"`
	FileAttributes  FileAttributes `json:"file_attributes"`
	FileNameLength  uint16         `json:"file_name_length"`
	FileNameOffset  uint16         `json:"file_name_offset"`
	FileName        string         `json:"file_name"`
}

// UsnRecordV3 is the widened 128-bit-reference USN_RECORD_V3 layout.
type UsnRecordV3 struct {
	RecordLength    uint32           `json:"record_length"`
	MajorVersion    uint16           `json:"major_version"`
	MinorVersion    uint16           `json:"minor_version"`
	FileReference   Ntfs128Reference `json:"file_reference"`
	ParentReference Ntfs128Reference `json:"parent_reference"`
	Usn             uint64           `json:"usn"`
	Timestamp       Timestamp        `json:"timestamp"`
	Reason          Reason           `json:"reason"`
	SourceInfo      SourceInfo       `json:"source_info"`
	SecurityID      uint32           `json:"security_id"`
	FileAttributes  FileAttributes   `json:"file_attributes"`
	FileNameLength  uint16           `json:"file_name_length"`
	FileNameOffset  uint16           `json:"file_name_offset"`
	FileName        string           `json:"file_name"`
}

// UsnRecord is the polymorphic decoded record. Exactly one of V2/V3 is set,
// matching Version. It exposes uniform accessors so callers (the
// mapping enrichment stage, the live listener) don't need to switch on
// version for the common fields.
type UsnRecord struct {
	Version RecordVersion
	V2      *UsnRecordV2
	V3      *UsnRecordV3
}

// RecordLength returns the on-disk length of the record, in bytes.
func (r UsnRecord) RecordLength() uint32 {
	if r.V2 != nil {
		return r.V2.RecordLength
	}
	return r.V3.RecordLength
}

// FileReference returns the record's file reference narrowed to the
// classic 64-bit form.
func (r UsnRecord) FileReference() MftReference {
	if r.V2 != nil {
		return r.V2.FileReference
	}
	return r.V3.FileReference.Narrow()
}

// ParentReference returns the record's parent reference narrowed to the
// classic 64-bit form.
func (r UsnRecord) ParentReference() MftReference {
	if r.V2 != nil {
		return r.V2.ParentReference
	}
	return r.V3.ParentReference.Narrow()
}

func (r UsnRecord) Usn() uint64 {
	if r.V2 != nil {
		return r.V2.Usn
	}
	return r.V3.Usn
}

func (r UsnRecord) Timestamp() Timestamp {
	if r.V2 != nil {
		return r.V2.Timestamp
	}
	return r.V3.Timestamp
}

func (r UsnRecord) Reason() Reason {
	if r.V2 != nil {
		return r.V2.Reason
	}
	return r.V3.Reason
}

func (r UsnRecord) FileAttributes() FileAttributes {
	if r.V2 != nil {
		return r.V2.FileAttributes
	}
	return r.V3.FileAttributes
}

func (r UsnRecord) FileName() string {
	if r.V2 != nil {
		return r.V2.FileName
	}
	return r.V3.FileName
}

// MarshalJSON flattens to whichever concrete version is set, the way the
// original tool's #[serde(untagged)] enum does.
func (r UsnRecord) MarshalJSON() ([]byte, error) {
	if r.V2 != nil {
		return jsonMarshal(r.V2)
	}
	return jsonMarshal(r.V3)
}

// UsnEntry pairs a decoded record with its provenance.
type UsnEntry struct {
	Meta   EntryMeta `json:"meta"`
	Record UsnRecord `json:"record"`
}

// decodeRecord dispatches to the V2 or V3 decoder based on the major
// version found at buf[4:6], after the shared record_length gate. buf must
// contain at least the full record; callers pass a suffix of the chunk
// starting at the signature hit.
func decodeRecord(buf []byte) (UsnRecord, error) {
	if len(buf) < 8 {
		return UsnRecord{}, newError(InvalidRecord, "buffer too short for a record header")
	}
	recordLength := readUint32LE(buf[0:4])
	if recordLength == 0 || recordLength > maxRecordLength || recordLength%8 != 0 {
		return UsnRecord{}, newError(InvalidRecord,
			fmt.Sprintf("invalid record_length %d", recordLength))
	}
	if uint64(recordLength) > uint64(len(buf)) {
		return UsnRecord{}, newError(InvalidRecord,
			fmt.Sprintf("record_length %d extends past buffer end %d", recordLength, len(buf)))
	}
	buf = buf[:recordLength]

	major := readUint16LE(buf[4:6])
	minor := readUint16LE(buf[6:8])

	switch major {
	case 2:
		rec, err := decodeV2(buf, minor)
		if err != nil {
			return UsnRecord{}, err
		}
		return UsnRecord{Version: V2, V2: rec}, nil
	case 3:
		rec, err := decodeV3(buf, minor)
		if err != nil {
			return UsnRecord{}, err
		}
		return UsnRecord{Version: V3, V3: rec}, nil
	default:
		return UsnRecord{}, newError(UnsupportedVersion,
			fmt.Sprintf("unsupported major version %d", major))
	}
}

func decodeV2(buf []byte, minor uint16) (*UsnRecordV2, error) {
	if minor != 0 {
		return nil, newError(InvalidV2Record, fmt.Sprintf("minor version is not 0: %d", minor))
	}
	if len(buf) < v2FileNameOffset {
		return nil, newError(InvalidV2Record, "buffer too short for V2 fixed fields")
	}

	rec := &UsnRecordV2{
		RecordLength:    readUint32LE(buf[0:4]),
		MajorVersion:    2,
		MinorVersion:    minor,
		FileReference:   decodeMftReferenceV2(buf[8:16]),
		ParentReference: decodeMftReferenceV2(buf[16:24]),
		Usn:             readUint64LE(buf[24:32]),
		Timestamp:       Timestamp(readUint64LE(buf[32:40])),
		Reason:          Reason(readUint32LE(buf[40:44])),
		SourceInfo:      SourceInfo(readUint32LE(buf[44:48])),
		SecurityID:      readUint32LE(buf[48:52]),
		FileAttributes:  FileAttributes(readUint32LE(buf[52:56])),
		FileNameLength:  readUint16LE(buf[56:58]),
		FileNameOffset:  readUint16LE(buf[58:60]),
	}
	if rec.FileNameOffset != v2FileNameOffset {
		return nil, newError(InvalidV2Record,
			fmt.Sprintf("file_name_offset is not %d: %d", v2FileNameOffset, rec.FileNameOffset))
	}
	name, err := readFileName(buf, rec.FileNameOffset, rec.FileNameLength)
	if err != nil {
		return nil, err
	}
	rec.FileName = name
	return rec, nil
}

func decodeV3(buf []byte, minor uint16) (*UsnRecordV3, error) {
	if minor != 0 {
		return nil, newError(InvalidV3Record, fmt.Sprintf("minor version is not 0: %d", minor))
	}
	if len(buf) < v3FileNameOffset {
		return nil, newError(InvalidV3Record, "buffer too short for V3 fixed fields")
	}

	rec := &UsnRecordV3{
		RecordLength:    readUint32LE(buf[0:4]),
		MajorVersion:    3,
		MinorVersion:    minor,
		FileReference:   decodeNtfs128Reference(buf[8:24]),
		ParentReference: decodeNtfs128Reference(buf[24:40]),
		Usn:             readUint64LE(buf[40:48]),
		Timestamp:       Timestamp(readUint64LE(buf[48:56])),
		Reason:          Reason(readUint32LE(buf[56:60])),
		SourceInfo:      SourceInfo(readUint32LE(buf[60:64])),
		SecurityID:      readUint32LE(buf[64:68]),
		FileAttributes:  FileAttributes(readUint32LE(buf[68:72])),
		FileNameLength:  readUint16LE(buf[72:74]),
		FileNameOffset:  readUint16LE(buf[74:76]),
	}
	if rec.FileNameOffset != v3FileNameOffset {
		return nil, newError(InvalidV3Record,
			fmt.Sprintf("file_name_offset is not %d: %d", v3FileNameOffset, rec.FileNameOffset))
	}
	name, err := readFileName(buf, rec.FileNameOffset, rec.FileNameLength)
	if err != nil {
		return nil, err
	}
	rec.FileName = name
	return rec, nil
}

func readFileName(buf []byte, offset, length uint16) (string, error) {
	end := int(offset) + int(length)
	if end > len(buf) {
		return "", newError(InvalidRecord, "file_name extends past record end")
	}
	return decodeUTF16LE(buf[offset:end]), nil
}
