package model

import (
	"errors"
	"fmt"

	derr "github.com/sllynn/airport-stand-allocation/internal/domain/errors"
	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
	"github.com/sllynn/airport-stand-allocation/internal/domain/ports"
)

type plannedShadow struct {
	parent int
	window models.Window
}

// ApplyAdjacency derives shadow intervals for every candidate on either stand
// of each rule and forbids shadows on one stand from overlapping shadows on
// the other stand of the same rule. Rules are checked before anything is
// declared, so a rejected configuration leaves the model untouched.
func ApplyAdjacency(m ports.ConstraintModel, asm *Assembly, rules []models.AdjacencyRule) error {
	planned, err := planShadows(asm, rules)
	if err != nil {
		return err
	}

	for ri, sides := range planned {
		rule := rules[ri]
		var declared [2][]int
		for side, shadows := range sides {
			for _, ps := range shadows {
				parent := asm.Candidates[ps.parent]
				standID := parent.Stand.ID
				interval := m.NewOptionalInterval(
					fmt.Sprintf("Shadow_%s_%s_%s", rule.Label(), parent.Turn.FlightID, standID),
					ps.window,
					parent.Presence,
				)
				declared[side] = append(declared[side], len(asm.Shadows))
				asm.Shadows = append(asm.Shadows, Shadow{
					RuleID:   rule.ID,
					StandID:  standID,
					Window:   ps.window,
					Interval: interval,
					parent:   ps.parent,
				})
			}
		}

		for _, ia := range declared[0] {
			a := asm.Shadows[ia]
			for _, ib := range declared[1] {
				b := asm.Shadows[ib]
				// The exactly-one constraint already keeps a turn off both stands.
				if asm.Candidates[a.parent].TurnIdx == asm.Candidates[b.parent].TurnIdx {
					continue
				}
				m.AddNoOverlap([]ports.IntervalVar{a.Interval, b.Interval})
				asm.NoOverlap++
			}
		}
	}

	return nil
}

func planShadows(asm *Assembly, rules []models.AdjacencyRule) ([][2][]plannedShadow, error) {
	var errs []error
	planned := make([][2][]plannedShadow, len(rules))

	for ri, rule := range rules {
		if rule.StandA == rule.StandB {
			errs = append(errs, fmt.Errorf("%w: adjacency rule %q joins stand %q to itself", derr.ErrConfiguration, rule.Label(), rule.StandA))
			continue
		}
		for side, standID := range [2]string{rule.StandA, rule.StandB} {
			si, ok := asm.Matrix.StandIndex(standID)
			if !ok {
				errs = append(errs, fmt.Errorf("%w: adjacency rule %q references unknown stand %q", derr.ErrConfiguration, rule.Label(), standID))
				continue
			}
			spec, _ := rule.ShadowFor(standID)
			for _, ci := range asm.CandidatesForStand(si) {
				c := asm.Candidates[ci]
				window := spec.Resolve(c.Turn)
				if window.Inverted() {
					errs = append(errs, fmt.Errorf("%w: adjacency rule %q inverts the shadow window of turn %q on stand %q: %s",
						derr.ErrConfiguration, rule.Label(), c.Turn.FlightID, standID, window))
					continue
				}
				planned[ri][side] = append(planned[ri][side], plannedShadow{parent: ci, window: window})
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return planned, nil
}
