package http

import (
	"time"

	xutil "PriceCast/pkg/util"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int { return xutil.ParseIntDefault(s, def) }

// ParseTimeKey parses a day key from its unix-day or calendar-date form.
func ParseTimeKey(s string) (time.Time, bool) { return xutil.ParseTimeKey(s) }
