package metadata

import "time"

// TimestampLayout is the EXIF date/time pattern, YYYY:MM:DD HH:MM:SS.
const TimestampLayout = "2006:01:02 15:04:05"

// CorrectTimestamp treats value as a UTC instant and renders it in loc using
// the same pattern. The zone offset in effect on that date applies, so DST is
// honored. Values that do not parse are returned unchanged. A nil loc means
// time.Local.
func CorrectTimestamp(value string, loc *time.Location) string {
	t, err := time.ParseInLocation(TimestampLayout, value, time.UTC)
	if err != nil {
		return value
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(TimestampLayout)
}
