package usnjrnl

import "fmt"

// MftReference is a 64-bit NTFS file reference: a 48-bit MFT entry index
// packed with a 16-bit sequence number that increments every time the slot
// is reused. Two references sharing Entry but differing in Sequence name
// different logical files.
type MftReference struct {
	Entry    uint64 `json:"entry"`
	Sequence uint16 `json:"sequence"`
}

// RootReference is the MftReference of the NTFS root directory.
var RootReference = MftReference{Entry: 5}

// IsRoot reports whether r refers to the volume root.
func (r MftReference) IsRoot() bool { return r.Entry == 5 }

func (r MftReference) String() string {
	return fmt.Sprintf("%d-%d", r.Entry, r.Sequence)
}

// decodeMftReferenceV2 reads the classic 64-bit file reference: a 48-bit
// entry followed by a 16-bit sequence, both little-endian, packed into a
// single little-endian u64.
func decodeMftReferenceV2(buf []byte) MftReference {
	raw := readUint64LE(buf)
	return MftReference{
		Entry:    raw & 0x0000FFFFFFFFFFFF,
		Sequence: uint16(raw >> 48),
	}
}

// Ntfs128Reference is the widened 128-bit file reference USN_RECORD_V3
// uses: a 64-bit entry word (itself packing the classic 48-bit entry +
// 16-bit sequence, same as MftReference) paired with a second 64-bit
// opaque/sequence word the classic view ignores.
type Ntfs128Reference struct {
	Entry    uint64 `json:"entry"`
	Sequence uint64 `json:"sequence"`
}

// Narrow reproduces the classic 64-bit MftReference view of a 128-bit
// reference by splitting the Entry word the same way a plain 64-bit
// reference is split; the second word plays no part in the narrowed view.
func (r Ntfs128Reference) Narrow() MftReference {
	return MftReference{
		Entry:    r.Entry & 0x0000FFFFFFFFFFFF,
		Sequence: uint16(r.Entry >> 48),
	}
}

// decodeNtfs128Reference reads a 128-bit reference as two little-endian
// u64 words: the entry word first, then the opaque/sequence word.
func decodeNtfs128Reference(buf []byte) Ntfs128Reference {
	return Ntfs128Reference{
		Entry:    readUint64LE(buf[0:8]),
		Sequence: readUint64LE(buf[8:16]),
	}
}
