package feasibility

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/samber/lo"
	derr "github.com/sllynn/airport-stand-allocation/internal/domain/errors"
	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
	"golang.org/x/sync/errgroup"
)

// Predicate reports whether a turn may, by capability, use a stand.
type Predicate func(turn models.Turn, stand models.Stand) bool

// Matrix is a sparse turn -> allowed stands relation. It is never mutated
// after construction.
type Matrix struct {
	turns      []models.Turn
	stands     []models.Stand
	allowed    [][]int
	standIndex map[string]int
	turnIndex  map[string]int
}

// CategoryCompatible allows a turn on a stand when the aircraft category does
// not exceed the stand's maximum. An empty category on either side is compatible.
func CategoryCompatible(turn models.Turn, stand models.Stand) bool {
	tr, ok := models.CategoryRank(turn.Category)
	if !ok {
		return true
	}
	sr, ok := models.CategoryRank(stand.MaxCategory)
	if !ok {
		return true
	}
	return tr <= sr
}

// FromPredicate evaluates pred for every (turn, stand) pair, one turn per worker.
func FromPredicate(ctx context.Context, turns []models.Turn, stands []models.Stand, pred Predicate) (*Matrix, error) {
	if pred == nil {
		return nil, fmt.Errorf("%w: feasibility predicate is required", derr.ErrConfiguration)
	}

	allowed := make([][]int, len(turns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for ti := range turns {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := make([]int, 0, len(stands))
			for si := range stands {
				if pred(turns[ti], stands[si]) {
					row = append(row, si)
				}
			}
			allowed[ti] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate feasibility predicate: %w", err)
	}

	return newMatrix(turns, stands, allowed)
}

// FromTable builds the matrix from a dense table indexed [turn][stand].
func FromTable(turns []models.Turn, stands []models.Stand, table [][]bool) (*Matrix, error) {
	if len(table) != len(turns) {
		return nil, fmt.Errorf("%w: feasibility table has %d rows, expected %d turns", derr.ErrConfiguration, len(table), len(turns))
	}

	allowed := make([][]int, len(turns))
	for ti, row := range table {
		if len(row) != len(stands) {
			return nil, fmt.Errorf("%w: feasibility table row %d has %d columns, expected %d stands", derr.ErrConfiguration, ti, len(row), len(stands))
		}
		for si, ok := range row {
			if ok {
				allowed[ti] = append(allowed[ti], si)
			}
		}
	}

	return newMatrix(turns, stands, allowed)
}

// FromAllowList builds the matrix from flight_id -> stand ids. Flights missing
// from the list have no feasible stand.
func FromAllowList(turns []models.Turn, stands []models.Stand, allow map[string][]string) (*Matrix, error) {
	standIndex := indexStands(stands)
	turnIndex := indexTurns(turns)

	var problems []string
	for flightID := range allow {
		if _, ok := turnIndex[flightID]; !ok {
			problems = append(problems, fmt.Sprintf("unknown flight %q", flightID))
		}
	}

	allowed := make([][]int, len(turns))
	for ti, t := range turns {
		for _, standID := range lo.Uniq(allow[t.FlightID]) {
			si, ok := standIndex[standID]
			if !ok {
				problems = append(problems, fmt.Sprintf("flight %q references unknown stand %q", t.FlightID, standID))
				continue
			}
			allowed[ti] = append(allowed[ti], si)
		}
		sort.Ints(allowed[ti])
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, fmt.Errorf("%w: allow list: %s", derr.ErrConfiguration, strings.Join(problems, "; "))
	}

	return newMatrix(turns, stands, allowed)
}

func newMatrix(turns []models.Turn, stands []models.Stand, allowed [][]int) (*Matrix, error) {
	empty := lo.Filter(turns, func(_ models.Turn, i int) bool { return len(allowed[i]) == 0 })
	if len(empty) > 0 {
		ids := lo.Map(empty, func(t models.Turn, _ int) string { return t.FlightID })
		return nil, fmt.Errorf("%w: no feasible stand for turns %s", derr.ErrConfiguration, strings.Join(ids, ", "))
	}

	return &Matrix{
		turns:      turns,
		stands:     stands,
		allowed:    allowed,
		standIndex: indexStands(stands),
		turnIndex:  indexTurns(turns),
	}, nil
}

func indexStands(stands []models.Stand) map[string]int {
	idx := make(map[string]int, len(stands))
	for i, s := range stands {
		idx[s.ID] = i
	}
	return idx
}

func indexTurns(turns []models.Turn) map[string]int {
	idx := make(map[string]int, len(turns))
	for i, t := range turns {
		idx[t.FlightID] = i
	}
	return idx
}

func (m *Matrix) Turns() []models.Turn {
	return m.turns
}

func (m *Matrix) Stands() []models.Stand {
	return m.stands
}

// StandsFor returns the sorted stand indices allowed for the turn. Callers
// must not modify the slice.
func (m *Matrix) StandsFor(turnIdx int) []int {
	return m.allowed[turnIdx]
}

func (m *Matrix) Allowed(turnIdx, standIdx int) bool {
	row := m.allowed[turnIdx]
	i := sort.SearchInts(row, standIdx)
	return i < len(row) && row[i] == standIdx
}

// AllowedByID is Allowed keyed by flight and stand identifiers.
func (m *Matrix) AllowedByID(flightID, standID string) bool {
	ti, ok := m.turnIndex[flightID]
	if !ok {
		return false
	}
	si, ok := m.standIndex[standID]
	if !ok {
		return false
	}
	return m.Allowed(ti, si)
}

func (m *Matrix) StandIndex(standID string) (int, bool) {
	i, ok := m.standIndex[standID]
	return i, ok
}

func (m *Matrix) TurnIndex(flightID string) (int, bool) {
	i, ok := m.turnIndex[flightID]
	return i, ok
}

// Pairs is the number of feasible (turn, stand) pairs.
func (m *Matrix) Pairs() int {
	n := 0
	for _, row := range m.allowed {
		n += len(row)
	}
	return n
}
