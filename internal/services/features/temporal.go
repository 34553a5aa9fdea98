package features

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/pt"
)

// HolidayCalendar is the pinned public-holiday reference table. The same
// calendar must be used at training and inference time; swapping it out
// silently changes the holiday_flag feature.
type HolidayCalendar struct {
	c *cal.BusinessCalendar
}

// NewPortugalCalendar returns the Portuguese national holiday calendar.
func NewPortugalCalendar() *HolidayCalendar {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(pt.Holidays...)
	return &HolidayCalendar{c: c}
}

// IsHoliday reports whether the date is a public holiday.
func (h *HolidayCalendar) IsHoliday(t time.Time) bool {
	actual, _, _ := h.c.IsHoliday(t)
	return actual
}

// AddTemporal derives calendar features for every row: day_of_month (1-31),
// day_of_week (Monday=0 .. Sunday=6), month (1-12) and holiday_flag.
// Deterministic; no failure modes.
func AddTemporal(rows []*Row, h *HolidayCalendar) {
	for _, r := range rows {
		r.Set("day_of_month", float64(r.TimeKey.Day()))
		r.Set("day_of_week", float64((int(r.TimeKey.Weekday())+6)%7))
		r.Set("month", float64(int(r.TimeKey.Month())))
		flag := 0.0
		if h.IsHoliday(r.TimeKey) {
			flag = 1
		}
		r.Set("holiday_flag", flag)
	}
}
