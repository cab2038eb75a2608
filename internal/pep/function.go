package pep

// Triple is one oracle call: a point, the gradient there and the value.
type Triple struct {
	X Point
	G Point
	F Expression
}

// Function is the modelled objective. It records every point the algorithm
// queries so that the interpolation conditions of its class can be imposed
// on all of them at compile time.
type Function struct {
	problem     *Problem
	class       Class
	triples     []Triple
	constraints []Constraint
}

// Class is a family of functions described by interpolation conditions.
type Class interface {
	// Name identifies the class in logs.
	Name() string

	// Interpolation returns the constraints that make triples consistent
	// with some member of the class. triples[0] is the stationary point.
	Interpolation(triples []Triple) []Constraint
}

// ExplicitClass is implemented by classes that contain a single function,
// whose gradient and value are known in closed form.
type ExplicitClass interface {
	Class
	Evaluate(x Point) (Point, Expression)
}

func newFunction(p *Problem, class Class) *Function {
	f := &Function{problem: p, class: class}
	// The minimiser sits at the origin with f⋆ = 0 and a zero gradient.
	f.triples = append(f.triples, Triple{X: Origin(), G: Origin(), F: Constant(0)})
	return f
}

// Class returns the class f was declared with.
func (f *Function) Class() Class {
	return f.class
}

// Oracle returns the gradient and value of f at x. Querying a point that
// was already evaluated returns the recorded triple.
func (f *Function) Oracle(x Point) Triple {
	for _, t := range f.triples {
		if t.X.Equal(x) {
			return t
		}
	}
	var t Triple
	if ex, ok := f.class.(ExplicitClass); ok {
		g, v := ex.Evaluate(x)
		t = Triple{X: x, G: g, F: v}
	} else {
		t = Triple{X: x, G: f.problem.newLeafPoint(), F: f.problem.newLeafValue()}
	}
	f.triples = append(f.triples, t)
	return t
}

// Gradient returns ∇f(x).
func (f *Function) Gradient(x Point) Point {
	return f.Oracle(x).G
}

// Value returns f(x).
func (f *Function) Value(x Point) Expression {
	return f.Oracle(x).F
}

// StationaryPoint returns the minimiser x⋆.
func (f *Function) StationaryPoint() Point {
	return f.triples[0].X
}

// OptimalValue returns f⋆.
func (f *Function) OptimalValue() Expression {
	return f.triples[0].F
}

// AddConstraint attaches an extra constraint to f.
func (f *Function) AddConstraint(c Constraint) {
	f.constraints = append(f.constraints, c)
}

// Evaluations returns the number of distinct points queried, x⋆ included.
func (f *Function) Evaluations() int {
	return len(f.triples)
}

func (f *Function) allConstraints() []Constraint {
	out := f.class.Interpolation(f.triples)
	return append(out, f.constraints...)
}
