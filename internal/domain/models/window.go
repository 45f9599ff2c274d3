package models

import (
	"fmt"
	"time"
)

// Window is a half-open time range [Start, End). A zero-width window is an
// instant: it overlaps every window that contains Start.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) IsInstant() bool {
	return w.Start.Equal(w.End)
}

func (w Window) Inverted() bool {
	return w.End.Before(w.Start)
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Overlaps reports whether the two windows share an instant. Touching
// endpoints do not overlap.
func (w Window) Overlaps(o Window) bool {
	switch {
	case w.IsInstant() && o.IsInstant():
		return w.Start.Equal(o.Start)
	case w.IsInstant():
		return o.Contains(w.Start)
	case o.IsInstant():
		return w.Contains(o.Start)
	default:
		return w.Start.Before(o.End) && o.Start.Before(w.End)
	}
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.UTC().Format(time.RFC3339), w.End.UTC().Format(time.RFC3339))
}
