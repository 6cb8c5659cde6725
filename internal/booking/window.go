// Package booking holds the pure availability and allocation rules of the
// reservation book.  Nothing in here touches the database: callers load a
// Snapshot of sections, tables and confirmed bookings and ask it questions.
package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// PointWindow centres a window of width 2*tolerance on at. Like every
// Window it is half-open, so the bounds are not symmetric: a booking at
// exactly at-tolerance is inside, one at exactly at+tolerance is not.
func PointWindow(at time.Time, tolerance time.Duration) Window {
	return Window{Start: at.Add(-tolerance), End: at.Add(tolerance)}
}

// DayWindow covers the calendar day of day in loc.  AddDate keeps the
// bounds on local midnight across DST changes.
func DayWindow(day time.Time, loc *time.Location) Window {
	d := day.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// NextWindow covers the span starting now.
func NextWindow(now time.Time, span time.Duration) Window {
	return Window{Start: now, End: now.Add(span)}
}

// Clock is a time of day on a 24 hour clock.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// ParseClock accepts "19:30", "7:30" and "19".
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Clock{}, fmt.Errorf("empty time")
	}
	hh, mm, found := strings.Cut(s, ":")
	h, err := strconv.Atoi(hh)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time %q", s)
	}
	m := 0
	if found {
		if m, err = strconv.Atoi(mm); err != nil || len(mm) != 2 {
			return Clock{}, fmt.Errorf("invalid time %q", s)
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("time out of range %q", s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

// At combines a calendar date and a clock reading in loc.
func At(date time.Time, c Clock, loc *time.Location) time.Time {
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour, c.Minute, 0, 0, loc)
}

// WindowQuery is what a guest asked about.  All fields are optional.
type WindowQuery struct {
	Date      *time.Time
	Clock     *Clock
	NextHours int
}

// ResolveWindow turns a query into a concrete window:
//   - date and time: the point in time plus or minus tolerance
//   - time only: the same, today
//   - date only: that whole calendar day
//   - NextHours > 0: now until now+NextHours
//   - nothing: the next 24 hours
func ResolveWindow(q WindowQuery, now time.Time, loc *time.Location, tolerance time.Duration) Window {
	switch {
	case q.Clock != nil:
		day := now
		if q.Date != nil {
			day = *q.Date
		}
		return PointWindow(At(day, *q.Clock, loc), tolerance)
	case q.Date != nil:
		return DayWindow(*q.Date, loc)
	case q.NextHours > 0:
		return NextWindow(now, time.Duration(q.NextHours)*time.Hour)
	default:
		return NextWindow(now, 24*time.Hour)
	}
}

// Conflicts reports whether two bookings of the same table starting at a
// and b are closer than the turnaround.  Bookings exactly one turnaround
// apart do not conflict.
func Conflicts(a, b time.Time, turnaround time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d < turnaround
}
