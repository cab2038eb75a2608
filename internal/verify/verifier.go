package verify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/qgpep/internal/sdp"
)

// Guarantee is the outcome of one verification.
type Guarantee struct {
	Method string
	Params Params

	// WorstCase is the tight worst-case value of the metric when
	// ‖x₀ - x⋆‖² ≤ 1.
	WorstCase float64

	// Theoretical is the closed-form bound, valid when HasTheory is set.
	Theoretical float64
	HasTheory   bool

	// Dimension is the dimension of a worst-case function.
	Dimension int

	Iterations int
	Status     sdp.Status
	Elapsed    time.Duration
}

// Gap returns WorstCase - Theoretical, or zero without a closed form.
func (g *Guarantee) Gap() float64 {
	if !g.HasTheory {
		return 0
	}
	return g.WorstCase - g.Theoretical
}

// zeroTol is the magnitude below which a negative worst case of the
// normalised problem is solver noise around zero.
const zeroTol = 1e-6

// Verifier computes worst-case guarantees.
type Verifier struct {
	opts sdp.Options
}

// New returns a verifier solving with opts.
func New(opts sdp.Options) *Verifier {
	return &Verifier{opts: opts}
}

// Verify computes the worst case of the named method for params.
func (v *Verifier) Verify(ctx context.Context, name string, params Params) (*Guarantee, error) {
	m, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	params, err = m.resolve(params)
	if err != nil {
		return nil, err
	}

	slog.Info("Verifying worst-case guarantee",
		"method", m.Name,
		"n", params.N,
		"L", params.L,
		"mu", params.Mu,
		"step", params.Step,
		"metric", params.Metric,
	)

	start := time.Now()
	res, err := m.build(params.normalized()).Solve(ctx, v.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to verify %s with n=%d: %w", m.Name, params.N, err)
	}

	worst := res.Value
	if worst < 0 && worst > -zeroTol {
		worst = 0
	}
	if params.Metric == FunctionValue {
		worst *= params.L
	}

	g := &Guarantee{
		Method:     m.Name,
		Params:     params,
		WorstCase:  worst,
		Dimension:  res.Dimension,
		Iterations: res.Iterations,
		Status:     res.Status,
		Elapsed:    time.Since(start),
	}
	g.Theoretical, g.HasTheory = m.theory(params)

	slog.Info("Verification complete",
		"method", m.Name,
		"n", params.N,
		"worst_case", g.WorstCase,
		"theoretical", g.Theoretical,
		"has_theory", g.HasTheory,
		"status", g.Status.String(),
		"iterations", g.Iterations,
		"elapsed", g.Elapsed,
	)
	return g, nil
}
