// Package dostime converts between time.Time and the MS-DOS date/time pair
// stored in ZIP headers.
//
// The fields carry no time zone; they are encoded and decoded in UTC so a
// round trip is independent of the host's local zone.
package dostime

import "time"

// Epoch is the earliest representable DOS timestamp.
var Epoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Max is the latest representable DOS timestamp.
var Max = time.Date(2107, time.December, 31, 23, 59, 58, 0, time.UTC)

// Encode returns the DOS date and time fields for t, truncated to 2-second
// resolution. Times outside [Epoch, Max] are clamped.
func Encode(t time.Time) (date, clock uint16) {
	t = t.UTC()
	if t.Before(Epoch) {
		t = Epoch
	}
	if t.After(Max) {
		t = Max
	}
	date = uint16(t.Year()-1980)<<9 | uint16(t.Month())<<5 | uint16(t.Day())       //nolint:gosec // clamped above
	clock = uint16(t.Hour())<<11 | uint16(t.Minute())<<5 | uint16(t.Second()/2) //nolint:gosec // clamped above
	return date, clock
}

// Decode returns the UTC time described by DOS date and time fields.
// Out-of-range fields normalize the way time.Date does.
func Decode(date, clock uint16) time.Time {
	return time.Date(
		int(date>>9)+1980,
		time.Month(date>>5&0x0f),
		int(date&0x1f),
		int(clock>>11),
		int(clock>>5&0x3f),
		int(clock&0x1f)*2,
		0,
		time.UTC,
	)
}
