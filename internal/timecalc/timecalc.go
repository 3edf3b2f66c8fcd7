package timecalc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used on the command line, in
// report-source arguments and in worklog payloads.
const DateLayout = "2006-01-02"

// Duration is a non-negative whole number of seconds.
type Duration int64

const (
	Second Duration = 1
	Minute          = 60 * Second
	Hour            = 60 * Minute
)

// roundStep is the granularity worklogs are posted at.
const roundStep = 5 * Minute

// Seconds returns d as a plain second count.
func (d Duration) Seconds() int64 { return int64(d) }

// Add returns d + o.
func (d Duration) Add(o Duration) Duration { return d + o }

// Round5Min rounds d to the nearest multiple of five minutes. Exact halves
// round up, so 2m30s becomes 5m.
func (d Duration) Round5Min() Duration {
	return (d + roundStep/2) / roundStep * roundStep
}

// String formats d like "1h 40m", "45m" or "30s".
func (d Duration) String() string {
	h := d / Hour
	m := (d % Hour) / Minute
	s := d % Minute
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// Long formats d with every non-zero component, like "1h 20m 39s".
func (d Duration) Long() string {
	h := d / Hour
	m := (d % Hour) / Minute
	s := d % Minute
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// ParseDuration parses whitespace-separated components of the form "1h",
// "20m" and "39s". Each component is optional but they must appear in
// h, m, s order and at most once. An empty string is zero.
func ParseDuration(s string) (Duration, error) {
	var total Duration
	last := -1
	for _, field := range strings.Fields(s) {
		if len(field) < 2 {
			return 0, fmt.Errorf("invalid duration component %q", field)
		}
		n, err := strconv.ParseInt(field[:len(field)-1], 10, 64)
		if err != nil || n < 0 || field[0] == '+' {
			return 0, fmt.Errorf("invalid duration component %q", field)
		}
		rank := strings.IndexByte("hms", field[len(field)-1])
		if rank < 0 {
			return 0, fmt.Errorf("invalid duration unit in %q", field)
		}
		if rank <= last {
			return 0, fmt.Errorf("duration component %q out of order", field)
		}
		last = rank
		total += Duration(n) * [...]Duration{Hour, Minute, Second}[rank]
	}
	return total, nil
}

// IsDurationComponent reports whether s is a single component like "20m".
func IsDurationComponent(s string) bool {
	if len(s) < 2 || strings.IndexByte("hms", s[len(s)-1]) < 0 {
		return false
	}
	for _, c := range s[:len(s)-1] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseDay resolves a day argument relative to now. It accepts a calendar
// date (2026-02-03), "today", "yesterday", or a signed day offset where
// -3 means three days ago.
func ParseDay(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "today":
		return StartOfDay(now), nil
	case "yesterday":
		return StartOfDay(now).AddDate(0, 0, -1), nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n > 0 {
			return time.Time{}, fmt.Errorf("day offset %d is in the future; use a negative number for days ago", n)
		}
		return StartOfDay(now).AddDate(0, 0, n), nil
	}
	d, err := time.ParseInLocation(DateLayout, s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or -N)", s)
	}
	return d, nil
}

// Days returns every calendar day in [from, to] inclusive, in order.
func Days(from, to time.Time) []time.Time {
	from, to = StartOfDay(from), StartOfDay(to)
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
