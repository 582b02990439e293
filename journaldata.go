package usnjrnl

import "fmt"

// UsnJournalData wraps the three on-disk USN_JOURNAL_DATA variants the
// query-journal ioctl can return. Only NextUsn is consumed by the core;
// the remaining fields exist for completeness and diagnostics.
type UsnJournalData struct {
	Version          int
	UsnJournalID     uint64
	FirstUsn         uint64
	NextUsn          uint64
	LowestValidUsn   uint64
	MaxUsn           uint64
	MaximumSize      uint64
	AllocationDelta  uint64
	MinMajorVersion  uint16
	MaxMajorVersion  uint16
	Flags            uint32
	RangeTrackChunkSize          uint64
	RangeTrackFileSizeThreshold  int64
}

// DecodeUsnJournalData dispatches on buffer length: 56 bytes is V0, 60 is
// V1, 80 is V2.
func DecodeUsnJournalData(buf []byte) (*UsnJournalData, error) {
	switch len(buf) {
	case 56:
		return &UsnJournalData{
			Version:         0,
			UsnJournalID:    readUint64LE(buf[0:8]),
			FirstUsn:        readUint64LE(buf[8:16]),
			NextUsn:         readUint64LE(buf[16:24]),
			LowestValidUsn:  readUint64LE(buf[24:32]),
			MaxUsn:          readUint64LE(buf[32:40]),
			MaximumSize:     readUint64LE(buf[40:48]),
			AllocationDelta: readUint64LE(buf[48:56]),
		}, nil
	case 60:
		d := &UsnJournalData{
			Version:         1,
			UsnJournalID:    readUint64LE(buf[0:8]),
			FirstUsn:        readUint64LE(buf[8:16]),
			NextUsn:         readUint64LE(buf[16:24]),
			LowestValidUsn:  readUint64LE(buf[24:32]),
			MaxUsn:          readUint64LE(buf[32:40]),
			MaximumSize:     readUint64LE(buf[40:48]),
			AllocationDelta: readUint64LE(buf[48:56]),
			MinMajorVersion: readUint16LE(buf[56:58]),
			MaxMajorVersion: readUint16LE(buf[58:60]),
		}
		return d, nil
	case 80:
		d := &UsnJournalData{
			Version:                     2,
			UsnJournalID:                readUint64LE(buf[0:8]),
			FirstUsn:                    readUint64LE(buf[8:16]),
			NextUsn:                     readUint64LE(buf[16:24]),
			LowestValidUsn:              readUint64LE(buf[24:32]),
			MaxUsn:                      readUint64LE(buf[32:40]),
			MaximumSize:                 readUint64LE(buf[40:48]),
			AllocationDelta:             readUint64LE(buf[48:56]),
			MinMajorVersion:             readUint16LE(buf[56:58]),
			MaxMajorVersion:             readUint16LE(buf[58:60]),
			Flags:                       readUint32LE(buf[60:64]),
			RangeTrackChunkSize:         readUint64LE(buf[64:72]),
			RangeTrackFileSizeThreshold: int64(readUint64LE(buf[72:80])),
		}
		return d, nil
	default:
		return nil, newError(InvalidUsnJournalData,
			fmt.Sprintf("unrecognized USN_JOURNAL_DATA length: %d", len(buf)))
	}
}

// ReadUsnJournalRequest is the input to the read-journal ioctl, built from
// a prior UsnJournalData via NewReadUsnJournalRequest and refined with the
// With* builder methods.
type ReadUsnJournalRequest struct {
	StartUsn           uint64
	ReasonMask         uint32
	ReturnOnlyOnClose  uint32
	Timeout            uint64
	BytesToWaitFor     uint64
	UsnJournalID       uint64
	MinMajorVersion    uint16
	MaxMajorVersion    uint16
}

// NewReadUsnJournalRequest seeds a request from a prior query-journal
// result: start at FirstUsn, journal ID carried through, reason mask
// defaulted to "every reason", and the record version bounds copied from
// the journal.
func NewReadUsnJournalRequest(journal *UsnJournalData) *ReadUsnJournalRequest {
	return &ReadUsnJournalRequest{
		StartUsn:        journal.FirstUsn,
		ReasonMask:      0xFFFFFFFF,
		UsnJournalID:    journal.UsnJournalID,
		MinMajorVersion: journal.MinMajorVersion,
		MaxMajorVersion: journal.MaxMajorVersion,
	}
}

// WithReasonMask overrides the default "every reason" mask.
func (r *ReadUsnJournalRequest) WithReasonMask(mask uint32) *ReadUsnJournalRequest {
	r.ReasonMask = mask
	return r
}

// WithStartUsn overrides the USN to begin reading from.
func (r *ReadUsnJournalRequest) WithStartUsn(usn uint64) *ReadUsnJournalRequest {
	r.StartUsn = usn
	return r
}
