package util

import (
	"strconv"
	"time"
)

const secondsPerDay = 86400

// ParseTimeKey accepts the two accepted wire forms of a day key: a unix day
// count ("20759") or a calendar date ("2026-11-03"). Returns midnight UTC
// and true if either form parsed.
func ParseTimeKey(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), true
	}
	if d, err := strconv.ParseInt(s, 10, 64); err == nil && d >= 0 {
		return DayKeyToTime(d), true
	}
	return time.Time{}, false
}

// ParseYYYYMMDD parses the compact date form used in the raw data files.
func ParseYYYYMMDD(s string) (time.Time, bool) {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// TimeToDayKey converts a timestamp to whole days since the unix epoch.
func TimeToDayKey(t time.Time) int64 {
	return t.UTC().Unix() / secondsPerDay
}

// DayKeyToTime converts a unix day count back to midnight UTC.
func DayKeyToTime(d int64) time.Time {
	return time.Unix(d*secondsPerDay, 0).UTC()
}
