package verify

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/cwbudde/qgpep/internal/opt"
)

// failedSolvePenalty is the cost reported to the optimiser for a step size
// whose program could not be solved.
const failedSolvePenalty = 1e6

// TuneStep searches [lower, upper] for the constant step size with the
// smallest worst case, and returns the guarantee at the best step found.
func (v *Verifier) TuneStep(ctx context.Context, name string, params Params, lower, upper float64, optimizer opt.Optimizer) (*Guarantee, error) {
	m, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if !m.TunableStep {
		return nil, fmt.Errorf("%w: %s", ErrNoStepSize, m.Name)
	}
	if !(lower > 0) || !(upper > lower) || math.IsInf(upper, 0) {
		return nil, &ValidationError{Field: "step range", Reason: fmt.Sprintf("must satisfy 0 < lower < upper, got [%g, %g]", lower, upper)}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	evals := 0
	var ctxErr error
	eval := func(x []float64) float64 {
		if ctxErr != nil {
			return failedSolvePenalty
		}
		evals++
		p := params
		p.Step = clamp(x[0], lower, upper)
		g, err := v.Verify(ctx, name, p)
		if err != nil {
			if ctx.Err() != nil {
				ctxErr = ctx.Err()
			}
			slog.Debug("Step size rejected", "step", p.Step, "error", err)
			return failedSolvePenalty
		}
		return g.WorstCase
	}

	best, cost, err := optimizer.Run(eval, []float64{lower}, []float64{upper})
	if ctxErr != nil {
		return nil, fmt.Errorf("step size search cancelled: %w", ctxErr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to tune step size: %w", err)
	}

	step := clamp(best[0], lower, upper)
	slog.Info("Step size search finished", "method", m.Name, "step", step, "worst_case", cost, "evaluations", evals)

	params.Step = step
	return v.Verify(ctx, name, params)
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}
