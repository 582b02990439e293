package usnjrnl

import (
	"encoding/binary"
	"unicode/utf16"
	"unicode/utf8"
)

// readUint16LE and friends decode little-endian integers from the front of
// buf, the same byte order every USN_RECORD/NTFS structure uses on disk.

func readUint16LE(buf []byte) uint16 { return binary.LittleEndian.Uint16(buf) }
func readUint32LE(buf []byte) uint32 { return binary.LittleEndian.Uint32(buf) }
func readUint64LE(buf []byte) uint64 { return binary.LittleEndian.Uint64(buf) }
func readInt64LE(buf []byte) int64   { return int64(binary.LittleEndian.Uint64(buf)) }

// decodeUTF16LE decodes a UTF-16LE byte slice into a string, substituting
// utf8.RuneError for unpaired surrogates and malformed code units instead of
// failing. A malformed file name is never fatal to the surrounding record.
func decodeUTF16LE(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = readUint16LE(b[i*2 : i*2+2])
	}
	runes := utf16.Decode(units)
	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		if r == utf8.RuneError {
			out = append(out, utf8.RuneError)
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
