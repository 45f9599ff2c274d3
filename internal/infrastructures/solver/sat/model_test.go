package sat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
	"github.com/sllynn/airport-stand-allocation/internal/domain/ports"
)

var t0 = time.Date(2024, 5, 17, 6, 0, 0, 0, time.UTC)

func win(start, end int) models.Window {
	return models.Window{Start: t0.Add(time.Duration(start) * time.Minute), End: t0.Add(time.Duration(end) * time.Minute)}
}

func solve(t *testing.T, m *Model) ports.SolveOutcome {
	t.Helper()
	out, err := m.Solve(context.Background())
	require.NoError(t, err)
	return out
}

func TestExactlyOne(t *testing.T) {
	m := NewModel(time.Millisecond)
	vars := []ports.BoolVar{m.NewBoolVar("a"), m.NewBoolVar("b"), m.NewBoolVar("c")}
	m.AddExactlyOne(vars)

	out := solve(t, m)
	require.Equal(t, models.StatusFeasible, out.Status)

	selected := 0
	for _, v := range vars {
		if out.Value(v) {
			selected++
		}
	}
	assert.Equal(t, 1, selected)
	assert.Equal(t, "b", m.Name(vars[1]))
}

func TestExactlyOne_Empty(t *testing.T) {
	m := NewModel(time.Millisecond)
	m.AddExactlyOne(nil)

	out := solve(t, m)
	assert.Equal(t, models.StatusInfeasible, out.Status)
}

func TestNoOverlap(t *testing.T) {
	for _, tt := range []struct {
		name   string
		a, b   models.Window
		status models.Status
	}{
		{name: "overlapping", a: win(0, 30), b: win(10, 40), status: models.StatusInfeasible},
		{name: "touching", a: win(0, 30), b: win(30, 60), status: models.StatusFeasible},
		{name: "instant inside", a: win(15, 15), b: win(0, 30), status: models.StatusInfeasible},
		{name: "instant at end", a: win(30, 30), b: win(0, 30), status: models.StatusFeasible},
		{name: "equal instants", a: win(30, 30), b: win(30, 30), status: models.StatusInfeasible},
	} {
		t.Run(tt.name, func(t *testing.T) {
			// both turns forced onto the single stand
			m := NewModel(time.Millisecond)
			pa, pb := m.NewBoolVar("a_on_s"), m.NewBoolVar("b_on_s")
			m.AddExactlyOne([]ports.BoolVar{pa})
			m.AddExactlyOne([]ports.BoolVar{pb})
			ia := m.NewOptionalInterval("s_for_a", tt.a, pa)
			ib := m.NewOptionalInterval("s_for_b", tt.b, pb)
			m.AddNoOverlap([]ports.IntervalVar{ia, ib})

			out := solve(t, m)
			assert.Equal(t, tt.status, out.Status)
		})
	}
}

func TestNoOverlap_OptionalIntervalsChooseAStand(t *testing.T) {
	m := NewModel(time.Millisecond)
	windows := []models.Window{win(0, 30), win(10, 40), win(30, 60)}

	var s1, s2 []ports.IntervalVar
	presence := make([][2]ports.BoolVar, len(windows))
	for i, w := range windows {
		p1, p2 := m.NewBoolVar("on_s1"), m.NewBoolVar("on_s2")
		presence[i] = [2]ports.BoolVar{p1, p2}
		m.AddExactlyOne([]ports.BoolVar{p1, p2})
		s1 = append(s1, m.NewOptionalInterval("s1", w, p1))
		s2 = append(s2, m.NewOptionalInterval("s2", w, p2))
	}
	m.AddNoOverlap(s1)
	m.AddNoOverlap(s2)

	out := solve(t, m)
	require.Equal(t, models.StatusFeasible, out.Status)

	// the middle window overlaps both others, so it must sit alone
	mid := out.Value(presence[1][0])
	assert.NotEqual(t, mid, out.Value(presence[0][0]))
	assert.NotEqual(t, mid, out.Value(presence[2][0]))
	assert.Equal(t, 4, m.Clauses())
}

func TestNoOverlap_SharedPresenceForbidsItsOwnOverlap(t *testing.T) {
	m := NewModel(time.Millisecond)
	p := m.NewBoolVar("p")
	q := m.NewBoolVar("q")
	m.AddExactlyOne([]ports.BoolVar{p, q})
	a := m.NewOptionalInterval("a", win(0, 20), p)
	b := m.NewOptionalInterval("b", win(10, 30), p)
	m.AddNoOverlap([]ports.IntervalVar{a, b})

	out := solve(t, m)
	require.Equal(t, models.StatusFeasible, out.Status)
	assert.False(t, out.Value(p))
	assert.True(t, out.Value(q))
}

func TestSolve_ExpiredContextIsUnknown(t *testing.T) {
	m := NewModel(time.Millisecond)
	m.AddExactlyOne([]ports.BoolVar{m.NewBoolVar("a")})

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	out, err := m.Solve(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnknown, out.Status)
	assert.Empty(t, out.Values)
}

func TestSolve_DeadlineStopsRunningSearch(t *testing.T) {
	// 15 overlapping turns cannot fit on 14 stands, and refuting that takes
	// far longer than the deadline.
	const turns, stands = 15, 14
	m := NewModel(time.Millisecond)
	perStand := make([][]ports.IntervalVar, stands)
	for i := 0; i < turns; i++ {
		row := make([]ports.BoolVar, stands)
		for j := range row {
			row[j] = m.NewBoolVar("on_stand")
			perStand[j] = append(perStand[j], m.NewOptionalInterval("turn", win(0, 60), row[j]))
		}
		m.AddExactlyOne(row)
	}
	for _, ivs := range perStand {
		m.AddNoOverlap(ivs)
	}

	limit := 200 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), limit)
	defer cancel()

	started := time.Now()
	out, err := m.Solve(ctx)
	elapsed := time.Since(started)

	require.NoError(t, err)
	assert.Equal(t, models.StatusUnknown, out.Status)
	assert.Empty(t, out.Values)
	assert.GreaterOrEqual(t, elapsed, limit)
	assert.Less(t, elapsed, limit+2*time.Second, "search must stop soon after the deadline")
}

func TestSolve_ForeignHandlesAreReported(t *testing.T) {
	m := NewModel(time.Millisecond)
	p := m.NewBoolVar("p")
	m.NewOptionalInterval("bad-presence", win(0, 10), ports.BoolVar(42))
	m.NewOptionalInterval("inverted", win(10, 0), p)
	m.AddExactlyOne([]ports.BoolVar{p, 7})
	m.AddNoOverlap([]ports.IntervalVar{0, 99})

	_, err := m.Solve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4 errors encountered building model")
	assert.Contains(t, err.Error(), `"inverted"`)
}

func TestFactoryIssuesFreshModels(t *testing.T) {
	f := NewFactory(0)
	a := f.NewModel()
	b := f.NewModel()

	a.AddExactlyOne(nil)
	outA, err := a.Solve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusInfeasible, outA.Status)

	b.AddExactlyOne([]ports.BoolVar{b.NewBoolVar("x")})
	outB, err := b.Solve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusFeasible, outB.Status)
}
