package model

import (
	"fmt"

	"github.com/sllynn/airport-stand-allocation/internal/application/feasibility"
	derr "github.com/sllynn/airport-stand-allocation/internal/domain/errors"
	"github.com/sllynn/airport-stand-allocation/internal/domain/ports"
)

// BuildAssignments declares one presence variable and primary interval per
// feasible pair, an exactly-one constraint per turn and a no-overlap
// constraint per stand.
func BuildAssignments(m ports.ConstraintModel, fm *feasibility.Matrix) (*Assembly, error) {
	turns := fm.Turns()
	stands := fm.Stands()

	asm := &Assembly{
		Matrix:     fm,
		Candidates: make([]Candidate, 0, fm.Pairs()),
		byTurn:     make([][]int, len(turns)),
		byStand:    make([][]int, len(stands)),
	}

	for ti, turn := range turns {
		for _, si := range fm.StandsFor(ti) {
			stand := stands[si]
			presence := m.NewBoolVar(fmt.Sprintf("%s_on_%s", turn.FlightID, stand.ID))
			interval := m.NewOptionalInterval(fmt.Sprintf("stand_%s_for_%s", stand.ID, turn.FlightID), turn.Window(), presence)

			idx := len(asm.Candidates)
			asm.Candidates = append(asm.Candidates, Candidate{
				TurnIdx:  ti,
				StandIdx: si,
				Turn:     turn,
				Stand:    stand,
				Presence: presence,
				Interval: interval,
			})
			asm.byTurn[ti] = append(asm.byTurn[ti], idx)
			asm.byStand[si] = append(asm.byStand[si], idx)
		}
	}

	for ti, idxs := range asm.byTurn {
		if len(idxs) == 0 {
			return nil, fmt.Errorf("%w: no feasible stand for turn %q", derr.ErrConfiguration, turns[ti].FlightID)
		}
		vars := make([]ports.BoolVar, len(idxs))
		for i, ci := range idxs {
			vars[i] = asm.Candidates[ci].Presence
		}
		m.AddExactlyOne(vars)
		asm.ExactlyOne++
	}

	for _, idxs := range asm.byStand {
		if len(idxs) < 2 {
			continue
		}
		intervals := make([]ports.IntervalVar, len(idxs))
		for i, ci := range idxs {
			intervals[i] = asm.Candidates[ci].Interval
		}
		m.AddNoOverlap(intervals)
		asm.NoOverlap++
	}

	return asm, nil
}
