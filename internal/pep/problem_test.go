package pep

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/qgpep/internal/sdp"
)

const tol = 1e-4

func solveProblem(t *testing.T, p *Problem) *Result {
	t.Helper()
	res, err := p.Solve(context.Background(), sdp.DefaultOptions())
	require.NoError(t, err)
	return res
}

func TestOracleCachesPoints(t *testing.T) {
	p := NewProblem()
	f := p.DeclareFunction(ConvexQG{L: 1})
	x0 := p.SetInitialPoint()

	first := f.Oracle(x0)
	again := f.Oracle(x0.Add(Origin()))
	assert.True(t, first.G.Equal(again.G))
	assert.Equal(t, 2, f.Evaluations())

	f.Gradient(x0.Scale(0.5))
	assert.Equal(t, 3, f.Evaluations())

	star := f.Oracle(f.StationaryPoint())
	assert.True(t, star.G.IsZero())
	assert.True(t, star.F.IsConstant())
}

func TestGradientDescentSmoothConvex(t *testing.T) {
	// f(x_1) - f⋆ ≤ L/(4N+2) ‖x_0 - x⋆‖² for gradient descent with step 1/L.
	const L = 1.0
	p := NewProblem()
	f := p.DeclareFunction(SmoothStronglyConvex{L: L})
	x0 := p.SetInitialPoint()
	p.AddInitialCondition(x0.Sub(f.StationaryPoint()).SquaredNorm().LessEq(Constant(1)))

	x1 := x0.Sub(f.Gradient(x0).Scale(1 / L))
	p.AddPerformanceMetric(f.Value(x1).Sub(f.OptimalValue()))

	res := solveProblem(t, p)
	assert.InDelta(t, L/6, res.Value, tol)
	assert.InDelta(t, 1, res.Eval(x0.SquaredNorm()), 1e-3)
	assert.GreaterOrEqual(t, res.Dimension, 1)
}

func TestConjugateGradientQG(t *testing.T) {
	const L, n = 1.0, 3
	p := NewProblem()
	f := p.DeclareFunction(ConvexQG{L: L})
	x := p.SetInitialPoint()
	p.AddInitialCondition(x.SquaredNorm().LessEq(Constant(1)))

	last := f.Oracle(x)
	span := []Point{last.G}
	for i := 0; i < n; i++ {
		prev := x
		last = ExactLineSearchStep(x, f, span...)
		x = last.X
		span = append(span, last.G, prev.Sub(x))
	}
	p.AddPerformanceMetric(last.F)

	res := solveProblem(t, p)
	assert.InDelta(t, L/(2*(n+1)), res.Value, tol)
}

func TestQuadraticIsExplicit(t *testing.T) {
	p := NewProblem()
	f := p.DeclareFunction(Quadratic{L: 2})
	x0 := p.SetInitialPoint()
	p.AddInitialCondition(x0.SquaredNorm().LessEq(Constant(1)))

	x1 := x0.Sub(f.Gradient(x0).Scale(0.25))
	assert.True(t, x1.Equal(x0.Scale(0.5)))
	p.AddPerformanceMetric(x1.SquaredNorm())

	res := solveProblem(t, p)
	assert.InDelta(t, 0.25, res.Value, tol)
	assert.Equal(t, 1, res.Gram.SymmetricDim())
}

func TestSeveralMetricsTakeTheMinimum(t *testing.T) {
	p := NewProblem()
	x0 := p.SetInitialPoint()
	p.AddInitialCondition(x0.SquaredNorm().LessEq(Constant(4)))
	p.AddPerformanceMetric(x0.SquaredNorm())
	p.AddPerformanceMetric(Constant(3))

	res := solveProblem(t, p)
	assert.InDelta(t, 3, res.Value, tol)
}

func TestViolatedConstantConstraintIsInfeasible(t *testing.T) {
	p := NewProblem()
	x0 := p.SetInitialPoint()
	p.AddConstraint(Constant(1).LessEq(Constant(0)).Named("one is non-positive"))
	p.AddPerformanceMetric(x0.SquaredNorm())

	_, err := p.Solve(context.Background(), sdp.DefaultOptions())
	require.ErrorIs(t, err, sdp.ErrInfeasible)
	assert.Contains(t, err.Error(), "one is non-positive")
}

func TestNegativeInitialDistanceIsInfeasible(t *testing.T) {
	p := NewProblem()
	x0 := p.SetInitialPoint()
	p.AddInitialCondition(x0.SquaredNorm().LessEq(Constant(-1)))
	p.AddPerformanceMetric(x0.SquaredNorm())

	_, err := p.Solve(context.Background(), sdp.DefaultOptions())
	require.ErrorIs(t, err, sdp.ErrInfeasible)
	assert.NotErrorIs(t, err, sdp.ErrNotConverged)
}

func TestSolveErrors(t *testing.T) {
	t.Run("no metric", func(t *testing.T) {
		p := NewProblem()
		p.SetInitialPoint()
		_, err := p.Solve(context.Background(), sdp.DefaultOptions())
		assert.ErrorIs(t, err, ErrNoMetric)
	})

	t.Run("two functions", func(t *testing.T) {
		p := NewProblem()
		p.DeclareFunction(ConvexQG{L: 1})
		p.DeclareFunction(ConvexQG{L: 1})
		p.AddPerformanceMetric(Constant(0))
		_, err := p.Solve(context.Background(), sdp.DefaultOptions())
		assert.ErrorIs(t, err, ErrMultipleFunctions)
	})

	t.Run("invalid class", func(t *testing.T) {
		for _, c := range []Class{
			ConvexQG{L: 0},
			SmoothStronglyConvex{L: 1, Mu: 1},
			SmoothStronglyConvex{L: 1, Mu: -0.5},
			Quadratic{L: -1},
			ConvexLipschitz{M: 0},
		} {
			p := NewProblem()
			p.DeclareFunction(c)
			p.AddPerformanceMetric(Constant(0))
			_, err := p.Solve(context.Background(), sdp.DefaultOptions())
			assert.ErrorIs(t, err, ErrInvalidClass, c.Name())
		}
	})
}
