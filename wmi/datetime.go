// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"fmt"
	"strconv"
	"time"
)

const (
	cimDateTimeLayout = "20060102150405.000000"
	cimDateTimeLen    = len(cimDateTimeLayout)
	cimIntervalLen    = 25
)

// DateTime is a CIM datetime property (yyyymmddHHMMSS.mmmmmmsUUU, UUU being the UTC offset in
// minutes)
type DateTime struct {
	time.Time
}

// ParseDateTime parses a CIM datetime string
func ParseDateTime(s string) (DateTime, error) {
	if len(s) < cimDateTimeLen+1 {
		return DateTime{}, fmt.Errorf("expected %q to be at least %d chars", s, cimDateTimeLen+1)
	}
	offset, err := strconv.Atoi(s[cimDateTimeLen:])
	if err != nil {
		return DateTime{}, fmt.Errorf("invalid UTC offset in CIM datetime %q: %w", s, err)
	}
	zone := time.FixedZone("", offset*60)
	t, err := time.ParseInLocation(cimDateTimeLayout, s[:cimDateTimeLen], zone)
	if err != nil {
		return DateTime{}, fmt.Errorf("invalid CIM datetime %q: %w", s, err)
	}
	return DateTime{t}, nil
}

// String formats the datetime the way WMI expects it
func (d DateTime) String() string {
	_, offset := d.Zone()
	minutes := offset / 60
	sign := '+'
	if minutes < 0 {
		sign = '-'
		minutes = -minutes
	}
	return fmt.Sprintf("%s%c%03d", d.Format(cimDateTimeLayout), sign, minutes)
}

func (d *DateTime) UnmarshalVariant(v Variant) error {
	if v.IsNull() {
		*d = DateTime{}
		return nil
	}
	s, ok := v.AsString()
	if !ok {
		return &TypeMismatchError{Kind: v.Kind(), Type: "wmi.DateTime"}
	}
	parsed, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d DateTime) MarshalVariant() (Variant, error) {
	return StringVariant(d.String()), nil
}

// Interval is a CIM interval property (ddddddddHHMMSS.mmmmmm:000)
type Interval struct {
	time.Duration
}

// ParseInterval parses a CIM interval string
func ParseInterval(s string) (Interval, error) {
	if len(s) != cimIntervalLen || s[14] != '.' || s[21] != ':' {
		return Interval{}, fmt.Errorf("expected %q to be a %d char CIM interval", s, cimIntervalLen)
	}
	fields := []struct {
		text string
		unit time.Duration
	}{
		{s[0:8], 24 * time.Hour},
		{s[8:10], time.Hour},
		{s[10:12], time.Minute},
		{s[12:14], time.Second},
		{s[15:21], time.Microsecond},
	}
	var d time.Duration
	for _, f := range fields {
		n, err := strconv.ParseUint(f.text, 10, 64)
		if err != nil {
			return Interval{}, fmt.Errorf("invalid CIM interval %q: %w", s, err)
		}
		d += time.Duration(n) * f.unit
	}
	return Interval{d}, nil
}

// String formats the interval the way WMI expects it
func (i Interval) String() string {
	d := i.Duration
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	return fmt.Sprintf("%08d%02d%02d%02d.%06d:000", int64(days), int64(hours), int64(minutes), int64(seconds), int64(d/time.Microsecond))
}

func (i *Interval) UnmarshalVariant(v Variant) error {
	if v.IsNull() {
		*i = Interval{}
		return nil
	}
	s, ok := v.AsString()
	if !ok {
		return &TypeMismatchError{Kind: v.Kind(), Type: "wmi.Interval"}
	}
	parsed, err := ParseInterval(s)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func (i Interval) MarshalVariant() (Variant, error) {
	return StringVariant(i.String()), nil
}
