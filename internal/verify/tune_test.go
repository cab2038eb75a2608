package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/qgpep/internal/opt"
	"github.com/cwbudde/qgpep/internal/sdp"
)

// gridOptimizer evaluates a fixed grid and keeps the best point.
type gridOptimizer struct {
	points int
	calls  int
}

func (g *gridOptimizer) Run(eval func([]float64) float64, lower, upper []float64) ([]float64, float64, error) {
	best, cost := []float64{lower[0]}, eval([]float64{lower[0]})
	for i := 1; i < g.points; i++ {
		x := []float64{lower[0] + float64(i)*(upper[0]-lower[0])/float64(g.points-1)}
		if c := eval(x); c < cost {
			best, cost = x, c
		}
		g.calls++
	}
	return best, cost, nil
}

func TestTuneStepFindsBetterStep(t *testing.T) {
	// One step on μ = 0.2: the worst case is minimised at γ = 2/(L+μ),
	// where it equals ((L-μ)/(L+μ))².
	grid := &gridOptimizer{points: 11}
	g, err := New(sdp.DefaultOptions()).TuneStep(context.Background(), "gd", Params{L: 1, Mu: 0.2, N: 1}, 0.5, 2.5, grid)
	require.NoError(t, err)

	assert.InDelta(t, 2/1.2, g.Params.Step, 0.2)
	assert.InDelta(t, (0.8/1.2)*(0.8/1.2), g.WorstCase, 0.06)
	assert.Less(t, g.WorstCase, 0.8*0.8)
	assert.Equal(t, 10, grid.calls)
}

func TestTuneStepWithMayfly(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping swarm search in short mode")
	}
	g, err := New(sdp.DefaultOptions()).TuneStep(context.Background(), "gd", Params{L: 1, Mu: 0.2, N: 1}, 0.5, 2.5, opt.NewMayfly(5, 20, 1))
	require.NoError(t, err)
	assert.LessOrEqual(t, g.WorstCase, 0.8*0.8+tol)
}

func TestTuneStepRejects(t *testing.T) {
	v := New(sdp.DefaultOptions())
	grid := &gridOptimizer{points: 3}

	_, err := v.TuneStep(context.Background(), "cg", Params{L: 1, N: 2}, 0.1, 1, grid)
	assert.ErrorIs(t, err, ErrNoStepSize)

	_, err = v.TuneStep(context.Background(), "gd", Params{L: 1, N: 2}, 1, 0.5, grid)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = v.TuneStep(context.Background(), "bfgs", Params{L: 1, N: 2}, 0.1, 1, grid)
	assert.ErrorIs(t, err, ErrUnknownMethod)
}
