package verify

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/qgpep/internal/sdp"
)

const tol = 1e-4

func verify(t *testing.T, method string, p Params) *Guarantee {
	t.Helper()
	g, err := New(sdp.DefaultOptions()).Verify(context.Background(), method, p)
	require.NoError(t, err)
	return g
}

func TestGradientDescentBaseCase(t *testing.T) {
	g := verify(t, "gd", Params{L: 1, Mu: 0.1, N: 0})
	assert.InDelta(t, 1, g.WorstCase, tol)
	assert.True(t, g.HasTheory)
	assert.InDelta(t, 1, g.Theoretical, 1e-12)
}

func TestGradientDescentStronglyConvex(t *testing.T) {
	g := verify(t, "gd", Params{L: 1, Mu: 0.1, N: 5})
	assert.InDelta(t, math.Pow(0.9, 10), g.WorstCase, tol)
	assert.InDelta(t, g.Theoretical, g.WorstCase, tol)
	assert.Equal(t, 1.0, g.Params.Step)
	assert.Equal(t, Distance, g.Params.Metric)
}

func TestGradientDescentSmallGrowth(t *testing.T) {
	g := verify(t, "gd", Params{L: 1, Mu: 0.01, N: 10})
	assert.InDelta(t, math.Pow(0.99, 20), g.WorstCase, tol)
}

func TestGradientDescentQuadraticLimit(t *testing.T) {
	g := verify(t, "gd", Params{L: 1, Mu: 1, N: 50})
	assert.InDelta(t, 0, g.WorstCase, tol)
	assert.GreaterOrEqual(t, g.WorstCase, 0.0)
	assert.InDelta(t, g.Theoretical, g.WorstCase, tol)
}

func TestGradientDescentIsDeterministic(t *testing.T) {
	p := Params{L: 1, Mu: 0.1, N: 5, Step: 1}
	first := verify(t, "gd", p)
	second := verify(t, "gd", p)
	assert.Equal(t, first.WorstCase, second.WorstCase)
}

func TestGradientDescentScaleInvariance(t *testing.T) {
	base := verify(t, "gd", Params{L: 1, Mu: 0.1, N: 4})
	scaled := verify(t, "gd", Params{L: 8, Mu: 0.8, N: 4})
	assert.InDelta(t, base.WorstCase, scaled.WorstCase, tol)
}

func TestGradientDescentConvex(t *testing.T) {
	// μ = 0: distance is non-expansive and the function value follows L/(4N+2).
	g := verify(t, "gd", Params{L: 1, N: 4})
	assert.InDelta(t, 1, g.WorstCase, tol)

	g = verify(t, "gd", Params{L: 1, N: 4, Metric: FunctionValue})
	assert.InDelta(t, 1.0/18, g.WorstCase, tol)
	assert.InDelta(t, g.Theoretical, g.WorstCase, tol)
}

func TestGradientDescentNonIncreasing(t *testing.T) {
	prev := math.Inf(1)
	for n := 0; n <= 4; n++ {
		g := verify(t, "gd", Params{L: 1, Mu: 0.1, N: n})
		assert.LessOrEqual(t, g.WorstCase, prev+tol, "n=%d", n)
		prev = g.WorstCase
	}
}

func TestQGMethods(t *testing.T) {
	tests := []struct {
		method string
		n      int
		want   float64
	}{
		{"cg", 0, 0.5},
		{"cg", 3, 0.125},
		{"heavy-ball", 5, 1.0 / 12},
		{"gd-decreasing", 0, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			g := verify(t, tt.method, Params{L: 1, N: tt.n})
			assert.InDelta(t, tt.want, g.WorstCase, tol)
			assert.InDelta(t, tt.want, g.Theoretical, 1e-12)
		})
	}
}

func TestWorstCaseScalesWithL(t *testing.T) {
	tests := []struct {
		method string
		n      int
		rate   func(L float64) float64
	}{
		{"cg", 3, func(L float64) float64 { return L / 8 }},
		{"heavy-ball", 5, func(L float64) float64 { return L / 12 }},
		{"subgradient", 6, func(L float64) float64 { return L / math.Sqrt(7) }},
	}
	for _, tt := range tests {
		for _, L := range []float64{1e-5, 1e4, 1e9} {
			g := verify(t, tt.method, Params{L: L, N: tt.n})
			assert.InEpsilon(t, tt.rate(L), g.WorstCase, 1e-4, "%s with L=%g", tt.method, L)
			assert.InEpsilon(t, tt.rate(L), g.Theoretical, 1e-12, "%s with L=%g", tt.method, L)
			assert.Equal(t, L, g.Params.L)
		}
	}
}

func TestNormalizedParams(t *testing.T) {
	p := Params{L: 4, Mu: 2, N: 3, Step: 0.25, Metric: Distance}.normalized()
	assert.Equal(t, Params{L: 1, Mu: 0.5, N: 3, Step: 1, Metric: Distance}, p)
}

func TestDecreasingStepReference(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping reference experiment in short mode")
	}
	g := verify(t, "gd-decreasing", Params{L: 1, N: 6})
	assert.InDelta(t, 0.105543, g.WorstCase, 1e-4)
	assert.InDelta(t, 0.105547, g.Theoretical, 1e-6)
}

func TestConjugateGradientReference(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping reference experiment in short mode")
	}
	g := verify(t, "cg", Params{L: 1, N: 12})
	assert.InDelta(t, 1.0/26, g.WorstCase, tol)
}

func TestSubgradient(t *testing.T) {
	g := verify(t, "subgradient", Params{L: 2, N: 6})
	assert.InDelta(t, 2/math.Sqrt(7), g.WorstCase, tol)
	assert.InDelta(t, 1/(2*math.Sqrt(7)), g.Params.Step, 1e-15)
}

func TestVerifyRejectsBadInput(t *testing.T) {
	v := New(sdp.DefaultOptions())

	_, err := v.Verify(context.Background(), "gd", Params{L: 1, Mu: 2, N: 3})
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = v.Verify(context.Background(), "gd", Params{L: 1, N: -1})
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = v.Verify(context.Background(), "nesterov", Params{L: 1, N: 3})
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestVerifyRejectsUnusedParams(t *testing.T) {
	v := New(sdp.DefaultOptions())
	tests := []struct {
		name   string
		method string
		params Params
		field  string
	}{
		{"mu for cg", "cg", Params{L: 1, Mu: 0.1, N: 3}, "mu"},
		{"mu for subgradient", "subgradient", Params{L: 1, Mu: 0.1, N: 3}, "mu"},
		{"step for heavy-ball", "heavy-ball", Params{L: 1, N: 3, Step: 0.5}, "step"},
		{"step for gd-decreasing", "gd-decreasing", Params{L: 1, N: 3, Step: 0.5}, "step"},
		{"cg beyond its limit", "cg", Params{L: 1, N: 26}, "N"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.method, tt.params)
			require.ErrorIs(t, err, ErrInvalidParams)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestVerifyPropagatesSolverFailure(t *testing.T) {
	opts := sdp.DefaultOptions()
	opts.MaxIter = 2
	opts.GapTol = 1e-12
	opts.FeasTol = 1e-12
	opts.InaccurateTol = 1e-12

	_, err := New(opts).Verify(context.Background(), "cg", Params{L: 1, N: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sdp.ErrNotConverged))
	assert.Contains(t, err.Error(), "cg")
}

func TestVerifyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(sdp.DefaultOptions()).Verify(ctx, "gd", Params{L: 1, N: 2})
	assert.ErrorIs(t, err, context.Canceled)
}
