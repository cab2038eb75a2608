package verify

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/qgpep/internal/pep"
)

// Method is a first-order method together with the function class it is
// analysed on and its closed-form worst-case bound, when one is known.
type Method struct {
	Name        string
	Description string

	// DefaultN is the iteration count of the reference experiment.
	DefaultN int

	// Metrics lists the supported criteria; the first is the default.
	Metrics []Metric

	// MaxN bounds N below MaxIterations for methods whose problems grow
	// faster than one point per iteration. Zero means MaxIterations.
	MaxN int

	// StronglyConvex reports whether Params.Mu is used.
	StronglyConvex bool

	// TunableStep reports whether Params.Step is used.
	TunableStep bool

	build  func(p Params) *pep.Problem
	theory func(p Params) (float64, bool)
	step   func(p Params) float64
}

// Defaults returns the parameters of the reference experiment.
func (m *Method) Defaults() Params {
	return Params{L: 1, N: m.DefaultN, Metric: m.Metrics[0]}
}

// resolve fills method defaults into p and checks the metric.
func (m *Method) resolve(p Params) (Params, error) {
	if p.Metric == "" {
		p.Metric = m.Metrics[0]
	}
	supported := false
	for _, mt := range m.Metrics {
		if mt == p.Metric {
			supported = true
		}
	}
	if !supported {
		return p, &ValidationError{Field: "metric", Reason: fmt.Sprintf("%q is not supported by %s", p.Metric, m.Name)}
	}
	if p.N > m.Limit() {
		return p, &ValidationError{Field: "N", Reason: fmt.Sprintf("must be at most %d for %s, got %d", m.Limit(), m.Name, p.N)}
	}
	if !m.StronglyConvex && p.Mu != 0 {
		return p, &ValidationError{Field: "mu", Reason: fmt.Sprintf("is not a parameter of %s, got %g", m.Name, p.Mu)}
	}
	if !m.TunableStep && p.Step != 0 {
		return p, &ValidationError{Field: "step", Reason: fmt.Sprintf("is fixed by the definition of %s, got %g", m.Name, p.Step)}
	}
	if m.TunableStep && p.Step == 0 {
		p.Step = m.step(p)
	}
	return p, nil
}

// Limit returns the largest N accepted by m.
func (m *Method) Limit() int {
	if m.MaxN > 0 {
		return m.MaxN
	}
	return MaxIterations
}

var registry = map[string]*Method{}

func register(m *Method) {
	registry[m.Name] = m
}

// Lookup returns the method registered under name.
func Lookup(name string) (*Method, error) {
	m, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
	return m, nil
}

// Methods returns all registered methods sorted by name.
func Methods() []*Method {
	out := make([]*Method, 0, len(registry))
	for _, m := range registry {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func init() {
	register(&Method{
		Name:        "gd-decreasing",
		Description: "gradient descent with decreasing steps 1/(L u_t) on convex QG+ functions",
		DefaultN:    6,
		Metrics:     []Metric{FunctionValue},
		build:       buildDecreasingGradient,
		theory: func(p Params) (float64, bool) {
			return p.L / (2 * decreasingSchedule(p.N)), true
		},
	})
	register(&Method{
		Name:        "cg",
		Description: "conjugate gradient with exact span searches on convex QG+ functions",
		DefaultN:    12,
		MaxN:        25,
		Metrics:     []Metric{FunctionValue},
		build:       buildConjugateGradient,
		theory:      qgRate,
	})
	register(&Method{
		Name:        "heavy-ball",
		Description: "heavy-ball momentum with steps 1/(L(t+2)) and momentum t/(t+2) on convex QG+ functions",
		DefaultN:    5,
		Metrics:     []Metric{FunctionValue},
		build:       buildHeavyBall,
		theory:      qgRate,
	})
	register(&Method{
		Name:           "gd",
		Description:    "gradient descent with a constant step on L-smooth mu-strongly convex functions",
		DefaultN:       5,
		Metrics:        []Metric{Distance, FunctionValue},
		StronglyConvex: true,
		TunableStep:    true,
		build:          buildGradientDescent,
		theory:         gradientDescentRate,
		step:           func(p Params) float64 { return 1 / p.L },
	})
	register(&Method{
		Name:        "subgradient",
		Description: "subgradient method with a constant step on convex M-Lipschitz functions (M = L)",
		DefaultN:    6,
		Metrics:     []Metric{FunctionValue},
		TunableStep: true,
		build:       buildSubgradient,
		theory:      subgradientRate,
		step:        func(p Params) float64 { return 1 / (p.L * math.Sqrt(float64(p.N+1))) },
	})
}

func qgRate(p Params) (float64, bool) {
	return p.L / (2 * float64(p.N+1)), true
}

// decreasingSchedule returns u_n with u_0 = 1 and
// u_t = u_{t-1}/2 + sqrt((u_{t-1}/2)² + 2).
func decreasingSchedule(n int) float64 {
	u := 1.0
	for t := 0; t < n; t++ {
		u = u/2 + math.Sqrt((u/2)*(u/2)+2)
	}
	return u
}

func gradientDescentRate(p Params) (float64, bool) {
	switch p.Metric {
	case Distance:
		if p.Step > 2/p.L {
			return 0, false
		}
		rho := math.Max(math.Abs(1-p.Step*p.Mu), math.Abs(1-p.Step*p.L))
		return math.Pow(rho, float64(2*p.N)), true
	case FunctionValue:
		if p.Mu != 0 || p.Step > 1/p.L {
			return 0, false
		}
		return p.L / (2 * (2*float64(p.N)*p.L*p.Step + 1)), true
	}
	return 0, false
}

func subgradientRate(p Params) (float64, bool) {
	if p.Step <= 0 {
		return 0, false
	}
	n := float64(p.N + 1)
	return (1 + n*p.Step*p.Step*p.L*p.L) / (2 * n * p.Step), true
}

// newProblem declares the function and a starting point with
// ‖x₀ - x⋆‖² ≤ 1.
func newProblem(class pep.Class) (*pep.Problem, *pep.Function, pep.Point) {
	problem := pep.NewProblem()
	f := problem.DeclareFunction(class)
	x0 := problem.SetInitialPoint()
	problem.AddInitialCondition(x0.Sub(f.StationaryPoint()).SquaredNorm().LessEq(pep.Constant(1)).Named("initial distance"))
	return problem, f, x0
}

func buildDecreasingGradient(p Params) *pep.Problem {
	problem, f, x := newProblem(pep.ConvexQG{L: p.L})
	u := 1.0
	for t := 0; t < p.N; t++ {
		u = u/2 + math.Sqrt((u/2)*(u/2)+2)
		x = x.Sub(f.Gradient(x).Scale(1 / (p.L * u)))
	}
	problem.AddPerformanceMetric(f.Value(x).Sub(f.OptimalValue()))
	return problem
}

func buildConjugateGradient(p Params) *pep.Problem {
	problem, f, x := newProblem(pep.ConvexQG{L: p.L})
	last := f.Oracle(x)
	span := []pep.Point{last.G}
	for t := 0; t < p.N; t++ {
		prev := x
		last = pep.ExactLineSearchStep(x, f, span...)
		x = last.X
		span = append(span, last.G, prev.Sub(x))
	}
	problem.AddPerformanceMetric(last.F.Sub(f.OptimalValue()))
	return problem
}

func buildHeavyBall(p Params) *pep.Problem {
	problem, f, x := newProblem(pep.ConvexQG{L: p.L})
	prev := x
	for t := 0; t < p.N; t++ {
		ft := float64(t)
		next := x.Sub(f.Gradient(x).Scale(1 / (p.L * (ft + 2)))).Add(x.Sub(prev).Scale(ft / (ft + 2)))
		prev, x = x, next
	}
	problem.AddPerformanceMetric(f.Value(x).Sub(f.OptimalValue()))
	return problem
}

func buildGradientDescent(p Params) *pep.Problem {
	var class pep.Class = pep.SmoothStronglyConvex{L: p.L, Mu: p.Mu}
	if p.Mu == p.L {
		class = pep.Quadratic{L: p.L}
	}
	problem, f, x := newProblem(class)
	for t := 0; t < p.N; t++ {
		x = x.Sub(f.Gradient(x).Scale(p.Step))
	}
	if p.Metric == Distance {
		problem.AddPerformanceMetric(x.Sub(f.StationaryPoint()).SquaredNorm())
	} else {
		problem.AddPerformanceMetric(f.Value(x).Sub(f.OptimalValue()))
	}
	return problem
}

func buildSubgradient(p Params) *pep.Problem {
	problem, f, x := newProblem(pep.ConvexLipschitz{M: p.L})
	for t := 0; t <= p.N; t++ {
		g, v := f.Gradient(x), f.Value(x)
		problem.AddPerformanceMetric(v.Sub(f.OptimalValue()))
		if t < p.N {
			x = x.Sub(g.Scale(p.Step))
		}
	}
	return problem
}
