package models

import (
	"fmt"
	"strings"
	"time"
)

type Anchor uint8

const (
	AnchorUnspecified Anchor = iota
	AnchorArrival
	AnchorDeparture
)

func (a Anchor) String() string {
	switch a {
	case AnchorArrival:
		return "ARRIVAL"
	case AnchorDeparture:
		return "DEPARTURE"
	default:
		return "UNSPECIFIED"
	}
}

func ParseAnchor(value string) (Anchor, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "":
		return AnchorUnspecified, nil
	case "ARRIVAL":
		return AnchorArrival, nil
	case "DEPARTURE":
		return AnchorDeparture, nil
	default:
		return AnchorUnspecified, fmt.Errorf("unknown time anchor %q", value)
	}
}

// ShadowSpec derives a stand's shadow window from the assigned turn's schedule.
// An unspecified start anchor means arrival, an unspecified end anchor means departure.
type ShadowSpec struct {
	StartAnchor Anchor
	StartOffset time.Duration
	EndAnchor   Anchor
	EndOffset   time.Duration
}

func (s ShadowSpec) Resolve(t Turn) Window {
	return Window{
		Start: anchorTime(t, s.StartAnchor, AnchorArrival).Add(s.StartOffset),
		End:   anchorTime(t, s.EndAnchor, AnchorDeparture).Add(s.EndOffset),
	}
}

func anchorTime(t Turn, a, fallback Anchor) time.Time {
	if a == AnchorUnspecified {
		a = fallback
	}
	if a == AnchorDeparture {
		return t.Departure
	}
	return t.Arrival
}

// AdjacencyRule forbids overlapping shadow activity on two neighbouring stands.
type AdjacencyRule struct {
	ID          string
	Name        string
	Description string
	StandA      string
	StandB      string
	ShadowA     ShadowSpec
	ShadowB     ShadowSpec
}

// Label is the name used in variable names and messages.
func (r AdjacencyRule) Label() string {
	if strings.TrimSpace(r.Name) != "" {
		return r.Name
	}
	return r.ID
}

// ShadowFor returns the shadow spec that applies when a turn is assigned to standID.
func (r AdjacencyRule) ShadowFor(standID string) (ShadowSpec, bool) {
	switch standID {
	case r.StandA:
		return r.ShadowA, true
	case r.StandB:
		return r.ShadowB, true
	default:
		return ShadowSpec{}, false
	}
}

func (r AdjacencyRule) validate(stands map[string]struct{}) error {
	var problems []string
	if strings.TrimSpace(r.StandA) == "" || strings.TrimSpace(r.StandB) == "" {
		problems = append(problems, "stand_a and stand_b are required")
	}
	if r.StandA == r.StandB {
		problems = append(problems, fmt.Sprintf("stand_a and stand_b must differ, both are %q", r.StandA))
	}
	for _, id := range []string{r.StandA, r.StandB} {
		if id == "" {
			continue
		}
		if _, ok := stands[id]; !ok {
			problems = append(problems, fmt.Sprintf("unknown stand %q", id))
		}
	}
	for _, spec := range []ShadowSpec{r.ShadowA, r.ShadowB} {
		if spec.StartAnchor > AnchorDeparture || spec.EndAnchor > AnchorDeparture {
			problems = append(problems, "invalid time anchor")
			break
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("adjacency rule %q: %s", r.Label(), strings.Join(problems, "; "))
}

// NormalizeRules returns a copy of rules where every rule has an ID.
func NormalizeRules(rules []AdjacencyRule) []AdjacencyRule {
	out := make([]AdjacencyRule, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(r.ID) == "" {
			r.ID = fmt.Sprintf("rule-%d", i+1)
		}
		out[i] = r
	}
	return out
}
