package usnjrnl

import "encoding/json"

// jsonMarshal is the single choke point every MarshalJSON implementation in
// this package funnels through. No third-party library in the reference
// pack offers a structured-logging-shaped JSON encoder for arbitrary ad hoc
// structs; encoding/json is the idiomatic choice here.
func jsonMarshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// SerializeConfig controls how decoded records are rendered to JSON. The
// original tool carried this as a pair of process-wide globals (FLAGS_AS_INT,
// TIMESTAMP_FORMAT); here it's an explicit value threaded from the CLI down
// to the output encoder instead.
type SerializeConfig struct {
	// RawFlags renders Reason/SourceInfo/FileAttributes as their raw
	// uint32 values instead of symbolic "|"-joined names.
	RawFlags bool
}

// DefaultSerializeConfig renders flags symbolically, matching the package's
// own MarshalJSON methods.
var DefaultSerializeConfig = SerializeConfig{RawFlags: false}

// rawRecordFields mirrors the UsnRecordV2/V3 fields but with the flag fields
// widened to plain uint32, used only when a SerializeConfig asks for raw flags.
type rawRecordFields struct {
	RecordLength    uint32      `json:"record_length"`
	MajorVersion    uint16      `json:"major_version"`
	MinorVersion    uint16      `json:"minor_version"`
	FileReference   interface{} `json:"file_reference"`
	ParentReference interface{} `json:"parent_reference"`
	Usn             uint64      `json:"usn"`
	Timestamp       Timestamp   `json:"timestamp"`
	Reason          uint32      `json:"reason"`
	SourceInfo      uint32      `json:"source_info"`
	SecurityID      uint32      `json:"security_id"`
	FileAttributes  uint32      `json:"file_attributes"`
	FileNameLength  uint16      `json:"file_name_length"`
	FileNameOffset  uint16      `json:"file_name_offset"`
	FileName        string      `json:"file_name"`
}

func rawFieldsFromV2(r *UsnRecordV2) rawRecordFields {
	return rawRecordFields{
		RecordLength:    r.RecordLength,
		MajorVersion:    r.MajorVersion,
		MinorVersion:    r.MinorVersion,
		FileReference:   r.FileReference,
		ParentReference: r.ParentReference,
		Usn:             r.Usn,
		Timestamp:       r.Timestamp,
		Reason:          uint32(r.Reason),
		SourceInfo:      uint32(r.SourceInfo),
		SecurityID:      r.SecurityID,
		FileAttributes:  uint32(r.FileAttributes),
		FileNameLength:  r.FileNameLength,
		FileNameOffset:  r.FileNameOffset,
		FileName:        r.FileName,
	}
}

func rawFieldsFromV3(r *UsnRecordV3) rawRecordFields {
	return rawRecordFields{
		RecordLength:    r.RecordLength,
		MajorVersion:    r.MajorVersion,
		MinorVersion:    r.MinorVersion,
		FileReference:   r.FileReference,
		ParentReference: r.ParentReference,
		Usn:             r.Usn,
		Timestamp:       r.Timestamp,
		Reason:          uint32(r.Reason),
		SourceInfo:      uint32(r.SourceInfo),
		SecurityID:      r.SecurityID,
		FileAttributes:  uint32(r.FileAttributes),
		FileNameLength:  r.FileNameLength,
		FileNameOffset:  r.FileNameOffset,
		FileName:        r.FileName,
	}
}

// EncodeEntry renders an entry to a single JSON line per cfg. This is the
// only place RawFlags is consulted; UsnRecord.MarshalJSON always renders
// symbolically so library consumers get a stable default regardless of CLI
// configuration.
func EncodeEntry(entry UsnEntry, cfg SerializeConfig) ([]byte, error) {
	if !cfg.RawFlags {
		return jsonMarshal(entry)
	}

	var fields rawRecordFields
	switch {
	case entry.Record.V2 != nil:
		fields = rawFieldsFromV2(entry.Record.V2)
	case entry.Record.V3 != nil:
		fields = rawFieldsFromV3(entry.Record.V3)
	default:
		fields = rawRecordFields{}
	}

	return jsonMarshal(struct {
		Meta   EntryMeta       `json:"meta"`
		Record rawRecordFields `json:"record"`
	}{Meta: entry.Meta, Record: fields})
}
