package models

import (
	"strings"
	"time"

	derr "github.com/sllynn/airport-stand-allocation/internal/domain/errors"
)

type Assignment struct {
	FlightID string
	StandID  string
}

// Solution holds one assignment per turn, in input turn order.
type Solution struct {
	Assignments []Assignment
}

func (s Solution) StandFor(flightID string) (string, bool) {
	for _, a := range s.Assignments {
		if a.FlightID == flightID {
			return a.StandID, true
		}
	}
	return "", false
}

func (s Solution) ByFlight() map[string]string {
	out := make(map[string]string, len(s.Assignments))
	for _, a := range s.Assignments {
		out[a.FlightID] = a.StandID
	}
	return out
}

type Status uint8

const (
	StatusUnspecified Status = iota
	StatusFeasible
	StatusInfeasible
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusUnknown:
		return "UNKNOWN"
	default:
		return "UNSPECIFIED"
	}
}

func ParseStatus(value string) Status {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "FEASIBLE":
		return StatusFeasible
	case "INFEASIBLE":
		return StatusInfeasible
	case "UNKNOWN":
		return StatusUnknown
	default:
		return StatusUnspecified
	}
}

// Definitive reports whether the status is a proof either way.
func (s Status) Definitive() bool {
	return s == StatusFeasible || s == StatusInfeasible
}

type Stats struct {
	Turns         int
	Stands        int
	Rules         int
	Candidates    int
	Shadows       int
	ExactlyOne    int
	NoOverlap     int
	BuildDuration time.Duration
	SolveDuration time.Duration
	Cached        bool
}

type Result struct {
	RunID       string
	SnapshotID  string
	Fingerprint string
	Status      Status
	// Solution is set only when Status is StatusFeasible.
	Solution *Solution
	Stats    Stats
	SolvedAt time.Time
}

// Err maps non-feasible statuses to ErrInfeasible and ErrUnknown.
func (r Result) Err() error {
	switch r.Status {
	case StatusFeasible:
		return nil
	case StatusInfeasible:
		return derr.ErrInfeasible
	default:
		return derr.ErrUnknown
	}
}
