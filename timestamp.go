package usnjrnl

import "time"

// winEpoch is the NTFS/Windows FILETIME epoch, 1601-01-01 00:00:00 UTC.
var winEpoch = time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC)

// TimestampFormat is the layout used when serializing timestamps to JSON.
// It matches the original tool's "%Y-%m-%d %H:%M:%S%.6f".
const TimestampFormat = "2006-01-02 15:04:05.000000"

// Timestamp wraps a raw FILETIME value (100-ns ticks since winEpoch).
type Timestamp uint64

// Time converts the FILETIME value to a UTC time.Time.
func (t Timestamp) Time() time.Time {
	micros := int64(t / 10)
	return time.Unix(winEpoch.Unix()+micros/1e6, (micros%1e6)*1e3).UTC()
}

func (t Timestamp) String() string {
	return t.Time().Format(TimestampFormat)
}

// MarshalJSON renders the timestamp in TimestampFormat rather than as a raw
// integer.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}
