package pep

import "fmt"

// ExactLineSearchStep models x' = argmin f over x + span(directions).
// The new point is free; optimality of the search is imposed through
// ⟨∇f(x'), x' - x⟩ = 0 and ⟨∇f(x'), d⟩ = 0 for every direction d.
func ExactLineSearchStep(x Point, f *Function, directions ...Point) Triple {
	next := f.problem.newLeafPoint()
	t := f.Oracle(next)
	f.AddConstraint(t.G.Dot(next.Sub(x)).EqualTo(Constant(0)).Named("line search step"))
	for k, d := range directions {
		f.AddConstraint(t.G.Dot(d).EqualTo(Constant(0)).Named(fmt.Sprintf("line search direction %d", k)))
	}
	return t
}
