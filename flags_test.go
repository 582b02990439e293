package usnjrnl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReasonHas(t *testing.T) {
	r := ReasonFileCreate | ReasonDataExtend
	require.True(t, r.Has(ReasonFileCreate))
	require.True(t, r.Has(ReasonDataExtend))
	require.False(t, r.Has(ReasonFileDelete))
}

func TestReasonStringJoinsSetBits(t *testing.T) {
	r := ReasonFileCreate | ReasonDataExtend
	require.Equal(t, "USN_REASON_DATA_EXTEND|USN_REASON_FILE_CREATE", r.String())
}

func TestReasonStringEmptyForZero(t *testing.T) {
	require.Equal(t, "", Reason(0).String())
}

func TestReasonStringFallsBackToHexForUnknownBits(t *testing.T) {
	r := Reason(0x40000000)
	require.Equal(t, "0x40000000", r.String())
}

func TestReasonMarshalJSON(t *testing.T) {
	data, err := ReasonFileCreate.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"USN_REASON_FILE_CREATE"`, string(data))
}

func TestFileAttributesHasAndString(t *testing.T) {
	a := FileAttributeDirectory | FileAttributeHidden
	require.True(t, a.Has(FileAttributeDirectory))
	require.Equal(t, "FILE_ATTRIBUTE_HIDDEN|FILE_ATTRIBUTE_DIRECTORY", a.String())
}

func TestSourceInfoHasAndString(t *testing.T) {
	s := SourceDataManagement | SourceAuxiliaryData
	require.True(t, s.Has(SourceDataManagement))
	require.Equal(t, "USN_SOURCE_DATA_MANAGEMENT|USN_SOURCE_AUXILIARY_DATA", s.String())
}
