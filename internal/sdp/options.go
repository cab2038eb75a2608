package sdp

import (
	"gonum.org/v1/gonum/mat"
)

// Status reports how a successful solve terminated.
type Status int

const (
	// Optimal means all residuals and the duality gap are below tolerance.
	Optimal Status = iota
	// Inaccurate means the solver stalled, but within the loose tolerance.
	Inaccurate
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Inaccurate:
		return "inaccurate"
	default:
		return "unknown"
	}
}

// Options control the interior-point iteration.
type Options struct {
	// MaxIter bounds the number of Newton steps.
	MaxIter int

	// GapTol is the relative duality gap required for an optimal solution.
	GapTol float64

	// FeasTol is the relative primal and dual infeasibility required for an
	// optimal solution.
	FeasTol float64

	// InaccurateTol is the looser tolerance accepted when the iteration
	// stalls before reaching GapTol/FeasTol.
	InaccurateTol float64

	// StepFraction is the fraction of the step to the cone boundary taken
	// at each iteration.
	StepFraction float64
}

// DefaultOptions returns the settings used by the verifier.
func DefaultOptions() Options {
	return Options{
		MaxIter:       100,
		GapTol:        1e-7,
		FeasTol:       1e-7,
		InaccurateTol: 1e-5,
		StepFraction:  0.95,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxIter <= 0 {
		o.MaxIter = def.MaxIter
	}
	if o.GapTol <= 0 {
		o.GapTol = def.GapTol
	}
	if o.FeasTol <= 0 {
		o.FeasTol = def.FeasTol
	}
	if o.InaccurateTol < o.GapTol || o.InaccurateTol < o.FeasTol {
		o.InaccurateTol = max(def.InaccurateTol, o.GapTol, o.FeasTol)
	}
	if o.StepFraction <= 0 || o.StepFraction >= 1 {
		o.StepFraction = def.StepFraction
	}
	return o
}

// Result is the outcome of a successful solve.
type Result struct {
	Status Status

	// Value is the objective bᵀy at the returned point.
	Value float64

	// PrimalValue is the objective of the conic dual, an upper bound on
	// Value up to the residuals.
	PrimalValue float64

	// Y holds the optimal variables; Gram is G(Y).
	Y    []float64
	Gram *mat.SymDense

	Iterations          int
	RelativeGap         float64
	PrimalInfeasibility float64
	DualInfeasibility   float64
}
