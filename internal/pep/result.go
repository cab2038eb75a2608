package pep

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/qgpep/internal/sdp"
)

// rankTol is the eigenvalue threshold, relative to the largest one, used
// for the dimension of the worst-case instance.
const rankTol = 1e-5

// Result describes the worst case found by Solve.
type Result struct {
	// Value is the worst-case value of the performance metric.
	Value float64

	Status              sdp.Status
	Iterations          int
	RelativeGap         float64
	PrimalInfeasibility float64
	DualInfeasibility   float64

	// Gram is the Gram matrix of the leaf points at the worst case.
	Gram *mat.SymDense

	// Dimension is the numerical rank of Gram, the dimension of a
	// worst-case function.
	Dimension int

	y      []float64
	layout layout
}

func newResult(sol *sdp.Result, l layout) *Result {
	return &Result{
		Value:               sol.Value,
		Status:              sol.Status,
		Iterations:          sol.Iterations,
		RelativeGap:         sol.RelativeGap,
		PrimalInfeasibility: sol.PrimalInfeasibility,
		DualInfeasibility:   sol.DualInfeasibility,
		Gram:                sol.Gram,
		Dimension:           numericalRank(sol.Gram),
		y:                   sol.Y,
		layout:              l,
	}
}

// Eval returns the value of e at the worst case.
func (r *Result) Eval(e Expression) float64 {
	row := r.layout.row(e, "")
	return row.Dot(r.y) - row.Bound
}

func numericalRank(g *mat.SymDense) int {
	if g == nil {
		return 0
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(g, false); !ok {
		return 0
	}
	vals := eig.Values(nil)
	top := vals[len(vals)-1]
	if top <= 1e-12 {
		return 0
	}
	rank := 0
	for _, v := range vals {
		if v > rankTol*top {
			rank++
		}
	}
	return rank
}
