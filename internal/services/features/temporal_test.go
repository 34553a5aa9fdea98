package features

import (
	"testing"
	"time"

	"PriceCast/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddTemporal(t *testing.T) {
	cal := NewPortugalCalendar()
	rows := []*Row{
		TargetRow("p1", models.CompetitorA, day(2024, time.October, 7)),  // a Monday
		TargetRow("p1", models.CompetitorA, day(2024, time.October, 13)), // a Sunday
	}
	AddTemporal(rows, cal)

	if got := rows[0].Get("day_of_week"); got != 0 {
		t.Fatalf("monday day_of_week = %v, want 0", got)
	}
	if got := rows[1].Get("day_of_week"); got != 6 {
		t.Fatalf("sunday day_of_week = %v, want 6", got)
	}
	if got := rows[0].Get("day_of_month"); got != 7 {
		t.Fatalf("day_of_month = %v, want 7", got)
	}
	if got := rows[0].Get("month"); got != 10 {
		t.Fatalf("month = %v, want 10", got)
	}
}

func TestHolidayFlag(t *testing.T) {
	cal := NewPortugalCalendar()
	rows := []*Row{
		TargetRow("p1", models.CompetitorA, day(2024, time.December, 25)),
		TargetRow("p1", models.CompetitorA, day(2024, time.December, 23)),
	}
	AddTemporal(rows, cal)

	if got := rows[0].Get("holiday_flag"); got != 1 {
		t.Fatalf("christmas holiday_flag = %v, want 1", got)
	}
	if got := rows[1].Get("holiday_flag"); got != 0 {
		t.Fatalf("ordinary day holiday_flag = %v, want 0", got)
	}
}

func TestLeafletEncoding(t *testing.T) {
	rows := []*Row{
		{Leaflet: "themed", F: map[string]float64{}},
		{Leaflet: "weekly", F: map[string]float64{}},
		{Leaflet: "short", F: map[string]float64{}},
		{Leaflet: "", F: map[string]float64{}},
		{Leaflet: "mystery", F: map[string]float64{}},
	}
	EncodeLeaflet(rows)

	want := []float64{1, 2, 3, 0, 0}
	for i, w := range want {
		if got := rows[i].Get("leaflet"); got != w {
			t.Fatalf("row %d leaflet = %v, want %v", i, got, w)
		}
	}
}
