// datetime.go - Conversions between on-disk date doubles and time.Time
package schema

import (
	"math"
	"time"
)

// Days between 1899-12-30 00:00:00 and the Unix epoch.
const epochOffsetDays = 25569

// DoubleToTime converts a datetime stored as fractional days since
// 1899-12-30 to a UTC time. With highPrecision the sub-second part is
// kept, except when a value sits within 1e-4 of the next whole second,
// which is treated as float noise and rounded up.
func DoubleToTime(days float64, highPrecision bool) time.Time {
	sec := (days - epochOffsetDays) * 86400
	if math.IsNaN(sec) || sec < math.MinInt64+1000 || sec > math.MaxInt64-1000 {
		sec = 0
	}
	if !highPrecision {
		sec = math.Floor(sec + 0.5)
	} else if f := math.Mod(sec, 1); f > 1-1e-4 || (f < 0 && f > -1e-4) {
		sec = math.Floor(sec + 0.5)
	}
	whole, frac := math.Modf(sec)
	if frac < 0 {
		whole--
		frac++
	}
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}

// TimeToDouble is the encode direction of DoubleToTime.
func TimeToDouble(t time.Time) float64 {
	sec := float64(t.Unix()) + float64(t.Nanosecond())/1e9
	return sec/86400 + epochOffsetDays
}

// DoubleToClock converts a time-of-day stored as a day fraction to
// hour, minute and float seconds. Out-of-range values collapse to
// midnight.
func DoubleToClock(days float64) (hour, min int, sec float64) {
	s := days * 86400
	if math.IsNaN(s) || s < 0 || s > 86400 {
		s = 0
	}
	hour = int(s / 3600)
	min = int(s) % 3600 / 60
	sec = math.Mod(s, 60)
	return hour, min, sec
}

// OffsetDateTime interprets a datetime double as local wall time and
// attaches the stored UTC offset in minutes as its zone. Offsets
// outside +-14 hours are rejected and the value is returned as UTC.
func OffsetDateTime(days float64, utcOffsetMin int16) (time.Time, bool) {
	t := DoubleToTime(days, true)
	if utcOffsetMin < -14*60 || utcOffsetMin > 14*60 {
		return t, false
	}
	loc := time.FixedZone("", int(utcOffsetMin)*60)
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, mo, d, h, mi, s, t.Nanosecond(), loc), true
}
