package recurrence

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrUnknownPattern = errors.New("unknown recurrence pattern")

const (
	PatternDaily  = "DAILY"
	PatternWeekly = "WEEKLY"
	PatternCustom = "CUSTOM"
)

// Window is an inclusive [Start, End] cycle.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) UTC() Window {
	return Window{Start: w.Start.UTC(), End: w.End.UTC()}
}

// Calendar is the family-local frame a cycle is computed in.
type Calendar struct {
	Location  *time.Location
	WeekStart time.Weekday
}

func UTCCalendar() Calendar {
	return Calendar{Location: time.UTC, WeekStart: time.Sunday}
}

// NewCalendar validates raw family settings.
func NewCalendar(timezone string, weekStartDay int) (Calendar, error) {
	loc, err := LoadTimezone(timezone)
	if err != nil {
		return Calendar{}, err
	}
	weekStart, err := ParseWeekStart(weekStartDay)
	if err != nil {
		return Calendar{}, err
	}
	return Calendar{Location: loc, WeekStart: weekStart}, nil
}

// Rule computes the cycle containing an instant.
type Rule interface {
	Window(at time.Time, cal Calendar) Window
}

type DailyRule struct{}

func (DailyRule) Window(at time.Time, cal Calendar) Window {
	return Window{
		Start: StartOfDay(at, cal.Location),
		End:   EndOfDay(at, cal.Location),
	}
}

type WeeklyRule struct{}

func (WeeklyRule) Window(at time.Time, cal Calendar) Window {
	return Window{
		Start: StartOfWeek(at, cal.Location, cal.WeekStart),
		End:   EndOfWeek(at, cal.Location, cal.WeekStart),
	}
}

// Registry maps recurrence pattern names to rules. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// DefaultRegistry knows DAILY and WEEKLY. CUSTOM is provisionally daily until
// custom schedules are stored on templates.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(PatternDaily, DailyRule{})
	r.Register(PatternWeekly, WeeklyRule{})
	r.Register(PatternCustom, DailyRule{})
	return r
}

func (r *Registry) Register(pattern string, rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[pattern] = rule
}

func (r *Registry) Lookup(pattern string) (Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[pattern]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, pattern)
	}
	return rule, nil
}
