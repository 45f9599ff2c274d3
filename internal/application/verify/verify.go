package verify

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sllynn/airport-stand-allocation/internal/application/feasibility"
	"github.com/sllynn/airport-stand-allocation/internal/application/model"
	derr "github.com/sllynn/airport-stand-allocation/internal/domain/errors"
	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
	"github.com/sllynn/airport-stand-allocation/internal/domain/ports"
)

// Extract reads the chosen candidate of every turn from a feasible outcome.
func Extract(asm *model.Assembly, outcome ports.SolveOutcome) (models.Solution, error) {
	turns := asm.Matrix.Turns()
	sol := models.Solution{Assignments: make([]models.Assignment, 0, len(turns))}

	var errs []error
	for ti, turn := range turns {
		chosen := -1
		for _, ci := range asm.CandidatesForTurn(ti) {
			if !outcome.Value(asm.Candidates[ci].Presence) {
				continue
			}
			if chosen >= 0 {
				errs = append(errs, fmt.Errorf("%w: turn %q selected on stands %q and %q",
					derr.ErrInternalInconsistency, turn.FlightID, asm.Candidates[chosen].Stand.ID, asm.Candidates[ci].Stand.ID))
				continue
			}
			chosen = ci
		}
		if chosen < 0 {
			errs = append(errs, fmt.Errorf("%w: turn %q has no selected stand", derr.ErrInternalInconsistency, turn.FlightID))
			continue
		}
		sol.Assignments = append(sol.Assignments, models.Assignment{
			FlightID: turn.FlightID,
			StandID:  asm.Candidates[chosen].Stand.ID,
		})
	}

	if len(errs) > 0 {
		return models.Solution{}, errors.Join(errs...)
	}
	return sol, nil
}

type placed struct {
	turn  models.Turn
	stand string
}

// Check re-evaluates feasibility, per-stand no-overlap and every adjacency
// rule against sol without consulting any model. Each violation wraps
// ErrInternalInconsistency.
func Check(fm *feasibility.Matrix, rules []models.AdjacencyRule, sol models.Solution) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", derr.ErrInternalInconsistency, fmt.Sprintf(format, args...)))
	}

	turns := fm.Turns()
	seen := make(map[string]bool, len(sol.Assignments))
	byStand := make(map[string][]placed)
	for _, a := range sol.Assignments {
		ti, ok := fm.TurnIndex(a.FlightID)
		if !ok {
			fail("solution assigns unknown flight %q", a.FlightID)
			continue
		}
		if seen[a.FlightID] {
			fail("flight %q is assigned more than once", a.FlightID)
			continue
		}
		seen[a.FlightID] = true
		if !fm.AllowedByID(a.FlightID, a.StandID) {
			fail("flight %q is assigned to infeasible stand %q", a.FlightID, a.StandID)
		}
		byStand[a.StandID] = append(byStand[a.StandID], placed{turn: turns[ti], stand: a.StandID})
	}
	for _, t := range turns {
		if !seen[t.FlightID] {
			fail("flight %q has no stand", t.FlightID)
		}
	}

	standIDs := make([]string, 0, len(byStand))
	for id := range byStand {
		standIDs = append(standIDs, id)
	}
	sort.Strings(standIDs)
	for _, id := range standIDs {
		group := byStand[id]
		sort.SliceStable(group, func(i, j int) bool { return group[i].turn.Arrival.Before(group[j].turn.Arrival) })
		for i := 1; i < len(group); i++ {
			prev, next := group[i-1].turn, group[i].turn
			if next.Arrival.Before(prev.Departure) {
				fail("flights %q and %q overlap on stand %q", prev.FlightID, next.FlightID, id)
			}
		}
	}

	for _, rule := range rules {
		onA, onB := byStand[rule.StandA], byStand[rule.StandB]
		for _, a := range onA {
			wa := rule.ShadowA.Resolve(a.turn)
			for _, b := range onB {
				wb := rule.ShadowB.Resolve(b.turn)
				if wa.Overlaps(wb) {
					fail("adjacency rule %q: flight %q on %q %s overlaps flight %q on %q %s",
						rule.Label(), a.turn.FlightID, rule.StandA, wa, b.turn.FlightID, rule.StandB, wb)
				}
			}
		}
	}

	return errors.Join(errs...)
}
