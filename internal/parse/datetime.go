package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the accepted calendar date format.
const DateLayout = "2006-01-02"

var clockRe = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)(?::([0-5]\d))?$`)

// Attendees parses a head count. Only whole numbers greater than zero are accepted.
func Attendees(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("attendees %q is not a number", raw)
	}
	if n <= 0 {
		return 0, fmt.Errorf("attendees must be positive, got %d", n)
	}
	return n, nil
}

// Clock parses a wall-clock time of day in HH:MM (or HH:MM:SS) form.
func Clock(raw string) (hour, minute, second int, err error) {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0, 0, 0, fmt.Errorf("unable to parse time of day: %q", raw)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		second, _ = strconv.Atoi(m[3])
	}
	return hour, minute, second, nil
}

// DateTime combines a calendar date and a time of day into an instant in loc.
func DateTime(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date: %q", date)
	}
	h, m, s, err := Clock(clock)
	if err != nil {
		return time.Time{}, err
	}
	t := time.Date(day.Year(), day.Month(), day.Day(), h, m, s, 0, loc)
	// time.Date normalizes wall clocks skipped by a DST change.
	if t.Hour() != h || t.Minute() != m {
		return time.Time{}, fmt.Errorf("time of day %q does not exist on %s in %s", clock, date, loc)
	}
	return t, nil
}
