package recurrence

import "time"

// Clock decides the cycle window a template is currently in.
type Clock interface {
	CycleWindow(pattern string, at time.Time, cal Calendar) (Window, error)
}

// NewClock returns a FixedIntervalClock when testIntervalMinutes is positive
// and a CalendarClock over the default registry otherwise.
func NewClock(testIntervalMinutes int) Clock {
	if testIntervalMinutes > 0 {
		return FixedIntervalClock{Interval: time.Duration(testIntervalMinutes) * time.Minute}
	}
	return NewCalendarClock(DefaultRegistry())
}

type CalendarClock struct {
	rules *Registry
}

func NewCalendarClock(rules *Registry) *CalendarClock {
	return &CalendarClock{rules: rules}
}

func (c *CalendarClock) CycleWindow(pattern string, at time.Time, cal Calendar) (Window, error) {
	rule, err := c.rules.Lookup(pattern)
	if err != nil {
		return Window{}, err
	}
	if cal.Location == nil {
		cal.Location = time.UTC
	}
	return rule.Window(at, cal), nil
}

// FixedIntervalClock replaces calendar cycles with fixed windows of Interval,
// used to accelerate recurrence in end-to-end environments. Intervals under an
// hour start at multiples of Interval past the hour and never cross it.
// Longer intervals are aligned to the Unix epoch.
type FixedIntervalClock struct {
	Interval time.Duration
}

var unixEpoch = time.Unix(0, 0).UTC()

func (c FixedIntervalClock) CycleWindow(_ string, at time.Time, _ Calendar) (Window, error) {
	at = at.UTC()

	if c.Interval >= time.Hour {
		start := unixEpoch.Add(at.Sub(unixEpoch).Truncate(c.Interval))
		return Window{Start: start, End: start.Add(c.Interval - time.Millisecond)}, nil
	}

	hour := at.Truncate(time.Hour)
	start := hour.Add(at.Sub(hour).Truncate(c.Interval))

	end := start.Add(c.Interval)
	if next := hour.Add(time.Hour); end.After(next) {
		end = next
	}

	return Window{Start: start, End: end.Add(-time.Millisecond)}, nil
}
