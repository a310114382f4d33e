// Package dasha finds the running period in a dasha sequence and keeps the
// expanded/collapsed state of a period list.
package dasha

import (
	"sync"
	"time"

	"github.com/felixgeelhaar/vedic/internal/api"
)

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses a backend date. Dates without a zone are local time.
func ParseDate(s string) (time.Time, bool) {
	return ParseDateIn(s, time.Local)
}

// ParseDateIn parses a backend date, reading dates without a zone in loc.
func ParseDateIn(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a backend date as "Jan 2, 2006", or "N/A".
func FormatDate(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return "N/A"
	}
	return t.Format("Jan 2, 2006")
}

// Contains reports whether now lies in [start, end]. A missing or unparsable
// bound never contains anything.
func Contains(start, end string, now time.Time) bool {
	from, ok := ParseDate(start)
	if !ok {
		return false
	}
	to, ok := ParseDate(end)
	if !ok {
		return false
	}
	return !now.Before(from) && !now.After(to)
}

// Current returns the first major period of seq containing now.
func Current(seq []api.MajorPeriod, now time.Time) (*api.MajorPeriod, bool) {
	for i := range seq {
		if Contains(seq[i].StartDate, seq[i].EndDate, now) {
			return &seq[i], true
		}
	}
	return nil, false
}

// CurrentSub returns the first sub-period of major containing now.
func CurrentSub(major *api.MajorPeriod, now time.Time) (*api.SubPeriod, bool) {
	if major == nil {
		return nil, false
	}
	for i := range major.SubPeriods {
		sp := &major.SubPeriods[i]
		if Contains(sp.StartDate, sp.EndDate, now) {
			return sp, true
		}
	}
	return nil, false
}

// Expanded is the set of expanded periods, keyed by lord. The zero value is
// ready to use.
type Expanded struct {
	mu   sync.Mutex
	open map[string]bool
}

// Toggle flips the state of lord and returns the new state.
func (e *Expanded) Toggle(lord string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.open == nil {
		e.open = make(map[string]bool)
	}
	e.open[lord] = !e.open[lord]
	return e.open[lord]
}

// IsExpanded reports whether lord is expanded.
func (e *Expanded) IsExpanded(lord string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open[lord]
}

// ExpandOnly collapses everything and expands lord.
func (e *Expanded) ExpandOnly(lord string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = map[string]bool{lord: true}
}
