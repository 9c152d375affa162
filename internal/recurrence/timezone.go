package recurrence

import (
	"errors"
	"fmt"
	"time"
)

const DefaultTimezone = "UTC"

var (
	ErrInvalidTimezone  = errors.New("invalid timezone")
	ErrInvalidWeekStart = errors.New("invalid week start day")
)

// LoadTimezone validates an IANA timezone name. An empty name means UTC.
func LoadTimezone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTimezone, name, err)
	}

	return loc, nil
}

// ParseWeekStart converts a 0 (Sunday) to 6 (Saturday) day number.
func ParseWeekStart(day int) (time.Weekday, error) {
	if day < 0 || day > 6 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWeekStart, day)
	}
	return time.Weekday(day), nil
}

// midnight returns the first instant of the local date y-m-d in loc. When a
// transition skips 00:00 the date starts at the end of the skipped range.
func midnight(y int, m time.Month, d int, loc *time.Location) time.Time {
	y, m, d = time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Date()

	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if _, _, ld := t.Date(); ld == d {
		return t
	}

	_, next := t.ZoneBounds()
	return next
}

// StartOfDay returns the first instant of t's calendar date in loc, normally
// local midnight.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return midnight(y, m, d, loc)
}

// EndOfDay returns the last millisecond of t's calendar date in loc,
// 23:59:59.999 local time.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return midnight(y, m, d+1, loc).Add(-time.Millisecond)
}

func StartOfWeek(t time.Time, loc *time.Location, weekStart time.Weekday) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	back := (int(local.Weekday()) - int(weekStart) + 7) % 7
	return midnight(y, m, d-back, loc)
}

func EndOfWeek(t time.Time, loc *time.Location, weekStart time.Weekday) time.Time {
	y, m, d := StartOfWeek(t, loc, weekStart).In(loc).Date()
	return midnight(y, m, d+7, loc).Add(-time.Millisecond)
}
