package usnjrnl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimestampZeroIsEpoch(t *testing.T) {
	ts := Timestamp(0)
	require.True(t, ts.Time().Equal(winEpoch))
}

func TestTimestampConvertsKnownValue(t *testing.T) {
	// 2021-01-01 00:00:00 UTC in 100ns ticks since 1601-01-01.
	want := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	ticks := uint64(want.Unix()-winEpoch.Unix()) * 10000000

	ts := Timestamp(ticks)
	require.True(t, ts.Time().Equal(want), "got %s want %s", ts.Time(), want)
}

func TestTimestampMarshalJSON(t *testing.T) {
	ts := Timestamp(0)
	data, err := ts.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"1601-01-01 00:00:00.000000"`, string(data))
}
