// Package day holds the calendar-day helpers shared by the store, the
// views and the hosts. A "day" is a time.Time truncated to local midnight.
package day

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate reports a zero or malformed date handed to a mutator.
var ErrInvalidDate = errors.New("invalid date")

// ISOLayout is the wire format for days in query strings and JSON.
const ISOLayout = "2006-01-02"

// StartOfDay truncates t to midnight in t's own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays moves t by n calendar days and returns the start of that day.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from "from" to "to". Both values are
// compared by their calendar date, so DST shifts never produce off-by-one
// results.
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 12, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 12, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// IsSameDay compares by calendar day, not by instant.
func IsSameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Parse reads a YYYY-MM-DD value in loc.
func Parse(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(ISOLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// Format renders t with date-fns style tokens (d, dd, M, MM, MMM, MMMM,
// EEE, EEEE, yyyy, H, HH, mm). Anything else is copied as-is.
func Format(t time.Time, pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); {
		c := pattern[i]
		n := 1
		for i+n < len(pattern) && pattern[i+n] == c {
			n++
		}
		b.WriteString(token(t, c, n, pattern[i:i+n]))
		i += n
	}
	return b.String()
}

func token(t time.Time, c byte, n int, raw string) string {
	switch c {
	case 'd':
		return pad(t.Day(), n)
	case 'M':
		switch {
		case n >= 4:
			return t.Month().String()
		case n == 3:
			return t.Month().String()[:3]
		default:
			return pad(int(t.Month()), n)
		}
	case 'E':
		if n >= 4 {
			return t.Weekday().String()
		}
		return t.Weekday().String()[:3]
	case 'y':
		if n == 2 {
			return pad(t.Year()%100, 2)
		}
		return strconv.Itoa(t.Year())
	case 'H':
		return pad(t.Hour(), n)
	case 'm':
		return pad(t.Minute(), n)
	}
	return raw
}

func pad(v, width int) string {
	s := strconv.Itoa(v)
	for len(s) < width {
		s = "0" + s
	}
	return s
}
