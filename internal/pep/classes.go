package pep

import (
	"fmt"
	"math"
)

// ConvexQG is the class of convex functions with an L-quadratic upper
// bound around their minimisers: f(x) - f⋆ ≤ (L/2)·dist(x, X⋆)².
type ConvexQG struct {
	L float64
}

func (c ConvexQG) validate() error {
	return positive("L", c.L)
}

func (c ConvexQG) Name() string {
	return fmt.Sprintf("convex QG+ (L=%g)", c.L)
}

// Interpolation imposes, for the stationary point s and every other j,
//
//	f_s - f_j ≥ ⟨g_j, x_s - x_j⟩ + ‖g_j‖²/(2L)
//
// and convexity between every ordered pair.
func (c ConvexQG) Interpolation(triples []Triple) []Constraint {
	var out []Constraint
	s := triples[0]
	for j := 1; j < len(triples); j++ {
		t := triples[j]
		rhs := t.G.Dot(s.X.Sub(t.X)).Add(t.G.SquaredNorm().Scale(1 / (2 * c.L)))
		out = append(out, s.F.Sub(t.F).GreaterEq(rhs).Named(fmt.Sprintf("qg(s,%d)", j)))
	}
	return append(out, convexity(triples)...)
}

func convexity(triples []Triple) []Constraint {
	var out []Constraint
	for i, ti := range triples {
		for j, tj := range triples {
			if i == j {
				continue
			}
			rhs := tj.G.Dot(ti.X.Sub(tj.X))
			out = append(out, ti.F.Sub(tj.F).GreaterEq(rhs).Named(fmt.Sprintf("convex(%d,%d)", i, j)))
		}
	}
	return out
}

// SmoothStronglyConvex is the class of L-smooth μ-strongly convex
// functions. Mu = 0 gives the L-smooth convex functions.
type SmoothStronglyConvex struct {
	L  float64
	Mu float64
}

func (c SmoothStronglyConvex) validate() error {
	if err := positive("L", c.L); err != nil {
		return err
	}
	if !(c.Mu >= 0 && c.Mu < c.L) {
		return fmt.Errorf("%w: mu must lie in [0, L), got mu=%g L=%g", ErrInvalidClass, c.Mu, c.L)
	}
	return nil
}

func (c SmoothStronglyConvex) Name() string {
	return fmt.Sprintf("smooth strongly convex (L=%g, mu=%g)", c.L, c.Mu)
}

// Interpolation imposes, for every ordered pair,
//
//	f_i - f_j ≥ ⟨g_j, x_i - x_j⟩ + ‖g_i - g_j‖²/(2L)
//	            + μ/(2(1-μ/L))·‖x_i - x_j - (g_i - g_j)/L‖².
func (c SmoothStronglyConvex) Interpolation(triples []Triple) []Constraint {
	var out []Constraint
	for i, ti := range triples {
		for j, tj := range triples {
			if i == j {
				continue
			}
			dg := ti.G.Sub(tj.G)
			rhs := tj.G.Dot(ti.X.Sub(tj.X)).Add(dg.SquaredNorm().Scale(1 / (2 * c.L)))
			if c.Mu > 0 {
				w := ti.X.Sub(tj.X).Sub(dg.Scale(1 / c.L))
				rhs = rhs.Add(w.SquaredNorm().Scale(c.Mu / (2 * (1 - c.Mu/c.L))))
			}
			out = append(out, ti.F.Sub(tj.F).GreaterEq(rhs).Named(fmt.Sprintf("smooth(%d,%d)", i, j)))
		}
	}
	return out
}

// Quadratic is the single function (L/2)‖x - x⋆‖², the limit μ = L of
// SmoothStronglyConvex.
type Quadratic struct {
	L float64
}

func (c Quadratic) validate() error {
	return positive("L", c.L)
}

func (c Quadratic) Name() string {
	return fmt.Sprintf("quadratic (L=%g)", c.L)
}

func (c Quadratic) Interpolation([]Triple) []Constraint {
	return nil
}

func (c Quadratic) Evaluate(x Point) (Point, Expression) {
	return x.Scale(c.L), x.SquaredNorm().Scale(c.L / 2)
}

// ConvexLipschitz is the class of convex M-Lipschitz functions.
type ConvexLipschitz struct {
	M float64
}

func (c ConvexLipschitz) validate() error {
	return positive("M", c.M)
}

func (c ConvexLipschitz) Name() string {
	return fmt.Sprintf("convex Lipschitz (M=%g)", c.M)
}

// Interpolation bounds every gradient by M and adds convexity between
// every ordered pair.
func (c ConvexLipschitz) Interpolation(triples []Triple) []Constraint {
	var out []Constraint
	for i, t := range triples {
		if t.G.IsZero() {
			continue
		}
		out = append(out, t.G.SquaredNorm().LessEq(Constant(c.M*c.M)).Named(fmt.Sprintf("lipschitz(%d)", i)))
	}
	return append(out, convexity(triples)...)
}

func positive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 1) {
		return fmt.Errorf("%w: %s must be positive and finite, got %g", ErrInvalidClass, name, v)
	}
	return nil
}
