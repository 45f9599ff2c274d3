package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	derr "github.com/sllynn/airport-stand-allocation/internal/domain/errors"
)

func validSnapshot() Snapshot {
	return Snapshot{
		ID: "s1",
		Turns: []Turn{
			{FlightID: "FR13", Category: "C", Arrival: t0, Departure: t0.Add(35 * time.Minute)},
			{FlightID: "FR42", Arrival: t0, Departure: t0.Add(25 * time.Minute)},
		},
		Stands: []Stand{{ID: "1L", MaxCategory: "E"}, {ID: "1C"}},
		Rules:  []AdjacencyRule{{StandA: "1L", StandB: "1C"}},
	}
}

func TestSnapshotValidate_Accepts(t *testing.T) {
	if err := validSnapshot().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSnapshotValidate_ReportsEveryProblem(t *testing.T) {
	snap := validSnapshot()
	snap.Turns = append(snap.Turns,
		Turn{FlightID: "FR13", Arrival: t0, Departure: t0.Add(time.Minute)},
		Turn{FlightID: "FR77", Arrival: t0, Departure: t0},
		Turn{FlightID: "FR88", Category: "Z", Arrival: t0, Departure: t0.Add(time.Minute)},
	)
	snap.Stands = append(snap.Stands, Stand{ID: "1C"})
	snap.Rules = append(snap.Rules, AdjacencyRule{Name: "loop", StandA: "1L", StandB: "1L"}, AdjacencyRule{StandA: "1L", StandB: "9Z"})

	err := snap.Validate()
	if !errors.Is(err, derr.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	for _, want := range []string{
		`duplicate flight_id "FR13"`,
		`turn "FR77": arrival`,
		`unknown aircraft category "Z"`,
		`duplicate stand id "1C"`,
		`adjacency rule "loop"`,
		`unknown stand "9Z"`,
	} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}
}

func TestSnapshotValidate_Empty(t *testing.T) {
	err := Snapshot{}.Validate()
	if !errors.Is(err, derr.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if !strings.Contains(err.Error(), "no turns") || !strings.Contains(err.Error(), "no stands") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalizeRules(t *testing.T) {
	in := []AdjacencyRule{{ID: "keep"}, {}, {Name: "named"}}
	got := NormalizeRules(in)

	if got[0].ID != "keep" || got[1].ID != "rule-2" || got[2].ID != "rule-3" {
		t.Fatalf("unexpected ids: %q %q %q", got[0].ID, got[1].ID, got[2].ID)
	}
	if in[1].ID != "" {
		t.Fatalf("input must not be modified")
	}
	if got[2].Label() != "named" || got[1].Label() != "rule-2" {
		t.Fatalf("unexpected labels: %q %q", got[2].Label(), got[1].Label())
	}
}

func TestCategoryRank(t *testing.T) {
	a, ok := CategoryRank("a")
	if !ok || a != 0 {
		t.Fatalf("unexpected rank for A: %d %v", a, ok)
	}
	f, ok := CategoryRank("F")
	if !ok || f != 5 {
		t.Fatalf("unexpected rank for F: %d %v", f, ok)
	}
	if _, ok := CategoryRank(""); ok {
		t.Fatalf("empty category has no rank")
	}
}

func TestResultErr(t *testing.T) {
	if err := (Result{Status: StatusFeasible}).Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(Result{Status: StatusInfeasible}.Err(), derr.ErrInfeasible) {
		t.Fatalf("infeasible status must map to ErrInfeasible")
	}
	if !errors.Is(Result{Status: StatusUnknown}.Err(), derr.ErrUnknown) {
		t.Fatalf("unknown status must map to ErrUnknown")
	}
	if ParseStatus(" feasible ") != StatusFeasible || ParseStatus("x") != StatusUnspecified {
		t.Fatalf("unexpected status parsing")
	}
}
