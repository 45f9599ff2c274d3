package model

import (
	"github.com/sllynn/airport-stand-allocation/internal/application/feasibility"
	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
	"github.com/sllynn/airport-stand-allocation/internal/domain/ports"
)

// Candidate is one feasible (turn, stand) pair. It owns its presence variable.
type Candidate struct {
	TurnIdx  int
	StandIdx int
	Turn     models.Turn
	Stand    models.Stand
	Presence ports.BoolVar
	Interval ports.IntervalVar
}

// Shadow is an adjacency-derived window on a candidate's stand. It has no
// decision of its own: it is active exactly when its parent candidate is.
type Shadow struct {
	RuleID   string
	StandID  string
	Window   models.Window
	Interval ports.IntervalVar
	parent   int
}

// Parent is the index of the candidate whose presence the shadow borrows.
func (s Shadow) Parent() int {
	return s.parent
}

// Assembly is everything declared on a ConstraintModel for one problem.
type Assembly struct {
	Matrix     *feasibility.Matrix
	Candidates []Candidate
	Shadows    []Shadow
	ExactlyOne int
	NoOverlap  int

	byTurn  [][]int
	byStand [][]int
}

// Presence returns the borrowed presence variable of a shadow.
func (a *Assembly) Presence(s Shadow) ports.BoolVar {
	return a.Candidates[s.parent].Presence
}

// CandidatesForTurn returns candidate indices for the turn, in stand order.
func (a *Assembly) CandidatesForTurn(turnIdx int) []int {
	return a.byTurn[turnIdx]
}

// CandidatesForStand returns candidate indices targeting the stand, in turn order.
func (a *Assembly) CandidatesForStand(standIdx int) []int {
	return a.byStand[standIdx]
}
