package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeKeyCalendarDate(t *testing.T) {
	got, ok := ParseTimeKey("2026-11-03")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeKeyUnixDays(t *testing.T) {
	want := time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC)
	day := TimeToDayKey(want)
	got, ok := ParseTimeKey(strconv.FormatInt(day, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if !got.Equal(want) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeKeyInvalid(t *testing.T) {
	if _, ok := ParseTimeKey(""); ok {
		t.Fatalf("empty should not parse")
	}
	if _, ok := ParseTimeKey("not-a-date"); ok {
		t.Fatalf("garbage should not parse")
	}
	if _, ok := ParseTimeKey("-5"); ok {
		t.Fatalf("negative day key should not parse")
	}
}

func TestDayKeyRoundTrip(t *testing.T) {
	orig := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	if got := DayKeyToTime(TimeToDayKey(orig)); !got.Equal(orig) {
		t.Fatalf("round trip mismatch: %v", got)
	}
}

func TestParseYYYYMMDD(t *testing.T) {
	got, ok := ParseYYYYMMDD("20241010")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 2024 || got.Month() != time.October || got.Day() != 10 {
		t.Fatalf("unexpected date %v", got)
	}
	if _, ok := ParseYYYYMMDD("2024-10-10"); ok {
		t.Fatalf("dashed form should not parse")
	}
}
