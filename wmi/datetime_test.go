// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateTime(t *testing.T) {
	d, err := ParseDateTime("20190315143000.500000+060")
	require.NoError(t, err)
	want := time.Date(2019, time.March, 15, 13, 30, 0, 500000000, time.UTC)
	assert.True(t, want.Equal(d.Time), "got %v", d.Time)
	assert.Equal(t, "20190315143000.500000+060", d.String())

	d, err = ParseDateTime("20001231235959.000001-300")
	require.NoError(t, err)
	assert.Equal(t, "20001231235959.000001-300", d.String())

	for _, bad := range []string{"", "20190315143000.500000", "20190315143000.500000+0x1", "2019031514300a.500000+000"} {
		_, err := ParseDateTime(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseInterval(t *testing.T) {
	i, err := ParseInterval("00000001020304.000005:000")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour+2*time.Hour+3*time.Minute+4*time.Second+5*time.Microsecond, i.Duration)
	assert.Equal(t, "00000001020304.000005:000", i.String())

	assert.Equal(t, "00000000000000.000000:000", Interval{}.String())

	for _, bad := range []string{"", "00000001020304.000005", "00000001020304-000005:000", "0000000102030x.000005:000"} {
		_, err := ParseInterval(bad)
		assert.Error(t, err, bad)
	}
}

func TestDateTimeVariant(t *testing.T) {
	var d DateTime
	require.NoError(t, d.UnmarshalVariant(StringVariant("20190315143000.000000+000")))
	assert.Equal(t, 2019, d.Year())

	v, err := d.MarshalVariant()
	require.NoError(t, err)
	assert.True(t, StringVariant("20190315143000.000000+000").Equal(v))

	require.NoError(t, d.UnmarshalVariant(NullVariant()))
	assert.True(t, d.IsZero())

	err = d.UnmarshalVariant(I4Variant(1))
	var mismatch *TypeMismatchError
	assert.True(t, errors.As(err, &mismatch))

	var i Interval
	require.NoError(t, i.UnmarshalVariant(StringVariant("00000000000010.000000:000")))
	assert.Equal(t, 10*time.Second, i.Duration)
	v, err = i.MarshalVariant()
	require.NoError(t, err)
	assert.True(t, StringVariant("00000000000010.000000:000").Equal(v))
}
