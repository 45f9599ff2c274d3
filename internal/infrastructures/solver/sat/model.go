package sat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
	"github.com/sllynn/airport-stand-allocation/internal/domain/ports"
)

const (
	satisfiable   = 1
	unsatisfiable = -1
)

const defaultPollInterval = 5 * time.Millisecond

// Factory issues a fresh Model per solve.
type Factory struct {
	pollInterval time.Duration
}

func NewFactory(pollInterval time.Duration) *Factory {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Factory{pollInterval: pollInterval}
}

func (f *Factory) NewModel() ports.ConstraintModel {
	return NewModel(f.pollInterval)
}

type interval struct {
	name     string
	window   models.Window
	presence ports.BoolVar
}

// Model compiles the allocation primitives to propositional logic. Interval
// bounds are fixed, so no-overlap reduces to forbidding the joint presence of
// every overlapping pair.
type Model struct {
	c            *logic.C
	lits         []z.Lit
	names        []string
	referenced   []bool
	intervals    []interval
	roots        []z.Lit
	clauses      [][]z.Lit
	errs         []error
	pollInterval time.Duration
}

var _ ports.ConstraintModel = (*Model)(nil)

func NewModel(pollInterval time.Duration) *Model {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Model{
		c:            logic.NewC(),
		pollInterval: pollInterval,
	}
}

func (m *Model) NewBoolVar(name string) ports.BoolVar {
	v := ports.BoolVar(len(m.lits))
	m.lits = append(m.lits, m.c.Lit())
	m.names = append(m.names, name)
	m.referenced = append(m.referenced, false)
	return v
}

func (m *Model) NewOptionalInterval(name string, window models.Window, presence ports.BoolVar) ports.IntervalVar {
	if !m.valid(presence) {
		m.errs = append(m.errs, fmt.Errorf("interval %q: presence variable %d was not issued by this model", name, presence))
	}
	if window.Inverted() {
		m.errs = append(m.errs, fmt.Errorf("interval %q: window %s ends before it starts", name, window))
	}
	iv := ports.IntervalVar(len(m.intervals))
	m.intervals = append(m.intervals, interval{name: name, window: window, presence: presence})
	return iv
}

func (m *Model) AddExactlyOne(vars []ports.BoolVar) {
	if len(vars) == 0 {
		m.roots = append(m.roots, m.c.F)
		return
	}
	ms := make([]z.Lit, 0, len(vars))
	for _, v := range vars {
		lit, ok := m.lit(v)
		if !ok {
			return
		}
		ms = append(ms, lit)
	}
	m.roots = append(m.roots, m.c.Ors(ms...))
	if len(ms) > 1 {
		m.roots = append(m.roots, m.c.CardSort(ms).Leq(1))
	}
}

func (m *Model) AddNoOverlap(ivs []ports.IntervalVar) {
	set := make([]interval, 0, len(ivs))
	for _, iv := range ivs {
		if int(iv) < 0 || int(iv) >= len(m.intervals) {
			m.errs = append(m.errs, fmt.Errorf("no-overlap: interval %d was not issued by this model", iv))
			return
		}
		set = append(set, m.intervals[iv])
	}

	sort.SliceStable(set, func(i, j int) bool {
		if !set[i].window.Start.Equal(set[j].window.Start) {
			return set[i].window.Start.Before(set[j].window.Start)
		}
		return set[i].window.End.Before(set[j].window.End)
	})

	for i := range set {
		wi := set[i].window
		for j := i + 1; j < len(set); j++ {
			wj := set[j].window
			if pastReach(wi, wj) {
				break
			}
			if !wi.Overlaps(wj) {
				continue
			}
			pi, ok := m.lit(set[i].presence)
			if !ok {
				return
			}
			pj, ok := m.lit(set[j].presence)
			if !ok {
				return
			}
			if pi == pj {
				// one decision activates both intervals, so it can never be taken
				m.clauses = append(m.clauses, []z.Lit{pi.Not()})
				continue
			}
			m.clauses = append(m.clauses, []z.Lit{pi.Not(), pj.Not()})
		}
	}
}

// pastReach reports whether next, and every window starting after it, cannot
// overlap w. Windows are visited in start order.
func pastReach(w, next models.Window) bool {
	if w.IsInstant() {
		return next.Start.After(w.Start)
	}
	return !next.Start.Before(w.End)
}

func (m *Model) Solve(ctx context.Context) (ports.SolveOutcome, error) {
	if err := m.err(); err != nil {
		return ports.SolveOutcome{}, err
	}
	if ctx.Err() != nil {
		return ports.SolveOutcome{Status: models.StatusUnknown}, nil
	}

	g := gini.New()
	m.c.ToCnf(g)
	g.Add(m.c.T)
	g.Add(z.LitNull)
	for _, root := range m.roots {
		g.Add(root)
		g.Add(z.LitNull)
	}
	for _, clause := range m.clauses {
		for _, lit := range clause {
			g.Add(lit)
		}
		g.Add(z.LitNull)
	}

	switch m.run(ctx, g) {
	case satisfiable:
		values := make([]bool, len(m.lits))
		for i, lit := range m.lits {
			if m.referenced[i] {
				values[i] = g.Value(lit)
			}
		}
		return ports.SolveOutcome{Status: models.StatusFeasible, Values: values}, nil
	case unsatisfiable:
		return ports.SolveOutcome{Status: models.StatusInfeasible}, nil
	default:
		return ports.SolveOutcome{Status: models.StatusUnknown}, nil
	}
}

// run solves in the background and stops the search when ctx is done.
func (m *Model) run(ctx context.Context, g *gini.Gini) int {
	s := g.GoSolve()
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return s.Stop()
		case <-ticker.C:
			if res, done := s.Test(); done {
				return res
			}
		}
	}
}

// Name returns the name a variable was declared with.
func (m *Model) Name(v ports.BoolVar) string {
	if !m.valid(v) {
		return ""
	}
	return m.names[v]
}

// Clauses is the number of pairwise exclusion clauses emitted by no-overlap constraints.
func (m *Model) Clauses() int {
	return len(m.clauses)
}

func (m *Model) valid(v ports.BoolVar) bool {
	return int(v) >= 0 && int(v) < len(m.lits)
}

func (m *Model) lit(v ports.BoolVar) (z.Lit, bool) {
	if !m.valid(v) {
		m.errs = append(m.errs, fmt.Errorf("variable %d was not issued by this model", v))
		return z.LitNull, false
	}
	m.referenced[v] = true
	return m.lits[v], true
}

func (m *Model) err() error {
	if len(m.errs) == 0 {
		return nil
	}
	s := make([]string, len(m.errs))
	for i, err := range m.errs {
		s[i] = err.Error()
	}
	return fmt.Errorf("%d errors encountered building model: %s", len(s), strings.Join(s, ", "))
}
