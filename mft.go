package usnjrnl

import "fmt"

const (
	mftSignature       = "FILE"
	mftAttrEndMarker   = 0xFFFFFFFF
	mftAttrFileName    = 0x30
	mftFlagAllocated   = 0x0001
	mftFlagDirectory   = 0x0002
)

// FileNameAttribute is the $FILE_NAME attribute value this package cares
// about: a file's preferred name and the reference of the directory that
// contains it.
type FileNameAttribute struct {
	Name      string
	Parent    MftReference
	Namespace byte
}

// namespace values as stored in $FILE_NAME. preferNamespace ranks Win32 and
// Win32+DOS highest, then DOS-only, then POSIX, so POSIX and DOS-only names
// lose to a Win32 (or combined Win32+DOS) name when both exist.
const (
	namespacePOSIX   byte = 0
	namespaceWin32   byte = 1
	namespaceDOS     byte = 2
	namespaceWin32Dos byte = 3
)

// MftRecord is a parsed MFT file-record header, enough to drive folder
// mapping construction without decoding any attribute beyond $FILE_NAME.
type MftRecord struct {
	RecordNumber  uint32
	Sequence      uint16
	BaseReference MftReference
	flags         uint16
	data          []byte
	firstAttrOff  uint16
}

// IsAllocated reports whether the in-use bit is set in the record header.
func (r *MftRecord) IsAllocated() bool { return r.flags&mftFlagAllocated != 0 }

// IsDirectory reports whether the directory bit is set in the record
// header.
func (r *MftRecord) IsDirectory() bool { return r.flags&mftFlagDirectory != 0 }

// ParseMftRecord reads a raw MFT file-record buffer. applyFixup controls
// whether the update-sequence-array fixup is applied: offline reads need
// it, live reads via the file-record ioctl return buffers already
// fixed up and must pass applyFixup=false.
func ParseMftRecord(recordNumber uint32, buf []byte, applyFixup bool) (*MftRecord, error) {
	if len(buf) < 48 {
		return nil, newError(WinstructError, "buffer too short for an MFT record header")
	}
	if string(buf[0:4]) != mftSignature {
		return nil, newError(WinstructError, fmt.Sprintf("bad MFT record signature %q", buf[0:4]))
	}

	data := buf
	if applyFixup {
		fixed, err := applyMftFixup(buf)
		if err != nil {
			return nil, err
		}
		data = fixed
	}

	usaOffset := readUint16LE(data[4:6])
	sequence := readUint16LE(data[16:18])
	firstAttrOff := readUint16LE(data[20:22])
	flags := readUint16LE(data[22:24])
	baseRef := decodeMftReferenceV2(data[32:40])
	_ = usaOffset

	return &MftRecord{
		RecordNumber:  recordNumber,
		Sequence:      sequence,
		BaseReference: baseRef,
		flags:         flags,
		data:          data,
		firstAttrOff:  firstAttrOff,
	}, nil
}

// applyMftFixup restores the two bytes at the end of every 512-byte sector
// from the update sequence array, undoing the substitution NTFS performs
// when writing the record to disk.
func applyMftFixup(buf []byte) ([]byte, error) {
	usaOffset := readUint16LE(buf[4:6])
	usaCount := readUint16LE(buf[6:8])
	if usaCount == 0 {
		return buf, nil
	}
	if int(usaOffset)+int(usaCount)*2 > len(buf) {
		return nil, newError(WinstructError, "update sequence array extends past buffer end")
	}

	out := make([]byte, len(buf))
	copy(out, buf)

	for i := 1; i < int(usaCount); i++ {
		sectorEnd := i*512 - 2
		if sectorEnd+2 > len(out) {
			break
		}
		original := buf[int(usaOffset)+i*2 : int(usaOffset)+i*2+2]
		out[sectorEnd] = original[0]
		out[sectorEnd+1] = original[1]
	}
	return out, nil
}

// FindBestNameAttribute walks the attribute list looking for $FILE_NAME
// attributes, preferring a Win32 (or Win32+DOS) namespace entry over a
// POSIX- or DOS-only one when more than one exists.
func (r *MftRecord) FindBestNameAttribute() (*FileNameAttribute, bool) {
	var best *FileNameAttribute

	off := int(r.firstAttrOff)
	for off+8 <= len(r.data) {
		attrType := readUint32LE(r.data[off : off+4])
		if attrType == mftAttrEndMarker {
			break
		}
		attrLen := readUint32LE(r.data[off+4 : off+8])
		if attrLen == 0 || off+int(attrLen) > len(r.data) {
			break
		}

		if attrType == mftAttrFileName {
			nonResident := r.data[off+8]
			if nonResident == 0 {
				valueLen := readUint32LE(r.data[off+16 : off+20])
				valueOff := readUint16LE(r.data[off+20 : off+22])
				valueStart := off + int(valueOff)
				valueEnd := valueStart + int(valueLen)
				if valueEnd <= len(r.data) {
					if fn, ok := decodeFileNameAttribute(r.data[valueStart:valueEnd]); ok {
						if best == nil || preferNamespace(fn.Namespace, best.Namespace) {
							best = fn
						}
					}
				}
			}
		}

		off += int(attrLen)
	}

	if best == nil {
		return nil, false
	}
	return best, true
}

func preferNamespace(candidate, current byte) bool {
	rank := func(ns byte) int {
		switch ns {
		case namespaceWin32, namespaceWin32Dos:
			return 2
		case namespaceDOS:
			return 1
		default:
			return 0
		}
	}
	return rank(candidate) > rank(current)
}

func decodeFileNameAttribute(value []byte) (*FileNameAttribute, bool) {
	if len(value) < 66 {
		return nil, false
	}
	parent := decodeMftReferenceV2(value[0:8])
	nameLength := int(value[64])
	namespace := value[65]
	nameEnd := 66 + nameLength*2
	if nameEnd > len(value) {
		return nil, false
	}
	name := decodeUTF16LE(value[66:nameEnd])
	return &FileNameAttribute{Name: name, Parent: parent, Namespace: namespace}, true
}
