package sdp

import (
	"fmt"
	"math"
)

// Row is a sparse linear form aᵀy together with its right-hand side.
type Row struct {
	Index []int
	Coef  []float64
	Bound float64
	Name  string
}

// Dot returns aᵀy.
func (r Row) Dot(y []float64) float64 {
	var sum float64
	for k, idx := range r.Index {
		sum += r.Coef[k] * y[idx]
	}
	return sum
}

// Program is a semidefinite program of the form
//
//	maximize    bᵀy
//	subject to  G(y) ⪰ 0
//	            aᵢᵀy ≤ cᵢ    for every inequality row
//	            aⱼᵀy = cⱼ    for every equality row
//
// G(y) is the Dim×Dim symmetric matrix whose upper triangle, row by row, is
// stored in the first GramVars(Dim) entries of y. The remaining variables
// are free scalars.
type Program struct {
	Dim          int
	NumVars      int
	Objective    []float64
	Inequalities []Row
	Equalities   []Row
}

// GramVars returns the number of variables spanned by the upper triangle of
// a dim×dim symmetric matrix.
func GramVars(dim int) int {
	return dim * (dim + 1) / 2
}

// GramIndex returns the variable index of entry (i, j) of G.
func GramIndex(dim, i, j int) int {
	if i > j {
		i, j = j, i
	}
	return i*dim - i*(i-1)/2 + (j - i)
}

// gramPairs lists the (i, j), i ≤ j, entry of G held by each Gram variable.
func gramPairs(dim int) [][2]int {
	pairs := make([][2]int, 0, GramVars(dim))
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return pairs
}

// Validate checks the program for structural errors.
func (p *Program) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil program", ErrInvalidProgram)
	}
	if p.Dim <= 0 {
		return fmt.Errorf("%w: matrix dimension must be positive, got %d", ErrInvalidProgram, p.Dim)
	}
	nG := GramVars(p.Dim)
	if p.NumVars < nG {
		return fmt.Errorf("%w: %d variables cannot hold a %dx%d matrix", ErrInvalidProgram, p.NumVars, p.Dim, p.Dim)
	}
	if len(p.Objective) != p.NumVars {
		return fmt.Errorf("%w: objective has %d coefficients for %d variables", ErrInvalidProgram, len(p.Objective), p.NumVars)
	}
	for k, v := range p.Objective {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: objective coefficient %d is not finite", ErrInvalidProgram, k)
		}
	}

	used := make([]bool, p.NumVars)
	check := func(kind string, rows []Row) error {
		for r, row := range rows {
			if len(row.Index) != len(row.Coef) {
				return fmt.Errorf("%w: %s row %d has %d indices and %d coefficients", ErrInvalidProgram, kind, r, len(row.Index), len(row.Coef))
			}
			if math.IsNaN(row.Bound) || math.IsInf(row.Bound, 0) {
				return fmt.Errorf("%w: %s row %d has a non-finite bound", ErrInvalidProgram, kind, r)
			}
			for k, idx := range row.Index {
				if idx < 0 || idx >= p.NumVars {
					return fmt.Errorf("%w: %s row %d references variable %d of %d", ErrInvalidProgram, kind, r, idx, p.NumVars)
				}
				c := row.Coef[k]
				if math.IsNaN(c) || math.IsInf(c, 0) {
					return fmt.Errorf("%w: %s row %d has a non-finite coefficient", ErrInvalidProgram, kind, r)
				}
				if c != 0 {
					used[idx] = true
				}
			}
		}
		return nil
	}
	if err := check("inequality", p.Inequalities); err != nil {
		return err
	}
	if err := check("equality", p.Equalities); err != nil {
		return err
	}

	// Free scalars are only held in place by the linear rows.
	for k := nG; k < p.NumVars; k++ {
		if used[k] {
			continue
		}
		if p.Objective[k] != 0 {
			return fmt.Errorf("%w: variable %d appears in the objective but in no constraint", ErrUnbounded, k)
		}
		return fmt.Errorf("%w: variable %d appears in no constraint", ErrInvalidProgram, k)
	}
	return nil
}
