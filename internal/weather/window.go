package weather

import (
	"errors"
	"time"
)

// ErrInvalidLookback is returned when a lookback window spans no hours.
var ErrInvalidLookback = errors.New("lookback hours must be positive")

// Window is an inclusive observation range. Both bounds share a location.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within [Start, End].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Label formats the window as "HH:MM-HH:MM".
func (w Window) Label() string {
	return w.Start.Format("15:04") + "-" + w.End.Format("15:04")
}

// LookbackWindow covers the last `hours` full-hour observations up to now in loc.
// The end is now truncated to the hour; the start is hours-1 hours earlier, so a
// 3 hour lookback at 10:30 yields 08:00-10:00.
func LookbackWindow(now time.Time, hours int, loc *time.Location) (Window, error) {
	if hours <= 0 {
		return Window{}, ErrInvalidLookback
	}
	local := now.In(loc)
	end := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)
	if end.After(local) {
		end = end.Add(-time.Hour)
	}
	start := end.Add(-time.Duration(hours-1) * time.Hour)
	return Window{Start: start, End: end}, nil
}

// Afternoon bounds used for evening commute predictions.
const (
	AfternoonStartHour = 14
	AfternoonEndHour   = 17
)

// AfternoonWindow returns 14:00-17:00 of now's date in loc. ok is false when
// now is earlier than 17:00 and the window is not complete yet.
func AfternoonWindow(now time.Time, loc *time.Location) (w Window, ok bool) {
	local := now.In(loc)
	y, m, d := local.Date()
	w = Window{
		Start: time.Date(y, m, d, AfternoonStartHour, 0, 0, 0, loc),
		End:   time.Date(y, m, d, AfternoonEndHour, 0, 0, 0, loc),
	}
	return w, !local.Before(w.End)
}
