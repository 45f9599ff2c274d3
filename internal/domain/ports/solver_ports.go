package ports

import (
	"context"

	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
)

// BoolVar is a handle to a boolean decision declared on a ConstraintModel.
type BoolVar int

// IntervalVar is a handle to an optional interval declared on a ConstraintModel.
type IntervalVar int

// ConstraintModel is the capability the allocator needs from a constraint engine.
// Handles are only meaningful for the model that issued them.
type ConstraintModel interface {
	NewBoolVar(name string) BoolVar
	// NewOptionalInterval declares a fixed window that is active iff presence is true.
	// Several intervals may share one presence variable.
	NewOptionalInterval(name string, window models.Window, presence BoolVar) IntervalVar
	AddExactlyOne(vars []BoolVar)
	// AddNoOverlap forbids any two active intervals of the set from overlapping.
	AddNoOverlap(intervals []IntervalVar)
	// Solve searches for any satisfying assignment. A cancelled or expired ctx
	// yields StatusUnknown, not an error.
	Solve(ctx context.Context) (SolveOutcome, error)
}

type ModelFactory interface {
	NewModel() ConstraintModel
}

type SolveOutcome struct {
	Status models.Status
	// Values is indexed by BoolVar and populated only for StatusFeasible.
	Values []bool
}

func (o SolveOutcome) Value(v BoolVar) bool {
	if int(v) < 0 || int(v) >= len(o.Values) {
		return false
	}
	return o.Values[v]
}
