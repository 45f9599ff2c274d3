package models

import (
	"fmt"
	"strings"
	"time"
)

// Turn is one aircraft's ground presence between arrival and departure.
type Turn struct {
	FlightID  string
	Category  string
	Arrival   time.Time
	Departure time.Time
}

func (t Turn) Window() Window {
	return Window{Start: t.Arrival, End: t.Departure}
}

func (t Turn) validate() error {
	if strings.TrimSpace(t.FlightID) == "" {
		return fmt.Errorf("turn flight_id is required")
	}
	if !t.Arrival.Before(t.Departure) {
		return fmt.Errorf("turn %q: arrival %s must be before departure %s",
			t.FlightID, t.Arrival.Format(time.RFC3339), t.Departure.Format(time.RFC3339))
	}
	if !validCategory(t.Category) {
		return fmt.Errorf("turn %q: unknown aircraft category %q", t.FlightID, t.Category)
	}
	return nil
}
