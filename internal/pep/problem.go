package pep

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/cwbudde/qgpep/internal/sdp"
)

// constantTol is the slack allowed on constraints that involve no variable.
const constantTol = 1e-12

// Problem collects a performance estimation problem: one function, the
// points an algorithm visits, initial conditions and performance metrics.
type Problem struct {
	points      int
	values      int
	function    *Function
	err         error
	initial     []Constraint
	constraints []Constraint
	metrics     []Expression
}

// NewProblem returns an empty problem.
func NewProblem() *Problem {
	return &Problem{}
}

func (p *Problem) newLeafPoint() Point {
	id := p.points
	p.points++
	return leafPoint(id)
}

func (p *Problem) newLeafValue() Expression {
	id := p.values
	p.values++
	return leafValue(id)
}

// DeclareFunction declares the objective function of the problem. Its
// minimiser is placed at the origin with optimal value zero.
func (p *Problem) DeclareFunction(class Class) *Function {
	f := newFunction(p, class)
	if v, ok := class.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil && p.err == nil {
			p.err = err
		}
	}
	if p.function != nil {
		p.err = ErrMultipleFunctions
		return f
	}
	p.function = f
	return f
}

// SetInitialPoint returns a new free point.
func (p *Problem) SetInitialPoint() Point {
	return p.newLeafPoint()
}

// AddInitialCondition constrains the starting configuration. It fixes the
// scale of the problem, typically ‖x₀ - x⋆‖² ≤ 1.
func (p *Problem) AddInitialCondition(c Constraint) {
	p.initial = append(p.initial, c)
}

// AddConstraint adds a constraint that does not belong to any function.
func (p *Problem) AddConstraint(c Constraint) {
	p.constraints = append(p.constraints, c)
}

// AddPerformanceMetric adds a quantity to bound. With several metrics the
// worst case of their minimum is computed.
func (p *Problem) AddPerformanceMetric(e Expression) {
	p.metrics = append(p.metrics, e)
}

// layout maps model quantities to SDP variables: the Gram matrix of the
// leaf points, then the leaf values, then the objective bound τ.
type layout struct {
	dim    int
	nGram  int
	values int
}

func (l layout) tau() int {
	return l.nGram + l.values
}

func (l layout) numVars() int {
	return l.nGram + l.values + 1
}

// row converts e into coefficients over the variables; the bound is
// -constant so that e ≤ 0 reads row·y ≤ bound.
func (l layout) row(e Expression, name string) sdp.Row {
	r := sdp.Row{Bound: -e.constant, Name: name}
	for _, k := range e.sortedGram() {
		r.Index = append(r.Index, sdp.GramIndex(l.dim, k.i, k.j))
		r.Coef = append(r.Coef, e.gram[k])
	}
	for _, k := range e.sortedValues() {
		r.Index = append(r.Index, l.nGram+k)
		r.Coef = append(r.Coef, e.values[k])
	}
	return r
}

func (p *Problem) compile() (*sdp.Program, layout, error) {
	dim := max(p.points, 1)
	l := layout{dim: dim, nGram: sdp.GramVars(dim), values: p.values}

	if p.err != nil {
		return nil, l, p.err
	}
	if len(p.metrics) == 0 {
		return nil, l, ErrNoMetric
	}

	var all []Constraint
	all = append(all, p.initial...)
	all = append(all, p.constraints...)
	if p.function != nil {
		all = append(all, p.function.allConstraints()...)
	}

	prog := &sdp.Program{
		Dim:       dim,
		NumVars:   l.numVars(),
		Objective: make([]float64, l.numVars()),
	}
	prog.Objective[l.tau()] = 1

	for _, c := range all {
		if c.Expr.IsConstant() {
			if err := checkConstant(c); err != nil {
				return nil, l, err
			}
			continue
		}
		r := l.row(c.Expr, c.Name)
		if c.Relation == Zero {
			prog.Equalities = append(prog.Equalities, r)
		} else {
			prog.Inequalities = append(prog.Inequalities, r)
		}
	}

	// τ ≤ metric, i.e. τ - metric ≤ 0
	for k, m := range p.metrics {
		r := l.row(m.Scale(-1), fmt.Sprintf("metric %d", k))
		r.Index = append(r.Index, l.tau())
		r.Coef = append(r.Coef, 1)
		prog.Inequalities = append(prog.Inequalities, r)
	}
	return prog, l, nil
}

func checkConstant(c Constraint) error {
	v := c.Expr.constant
	ok := v <= constantTol
	if c.Relation == Zero {
		ok = math.Abs(v) <= constantTol
	}
	if !ok {
		return fmt.Errorf("%w: constraint %s holds no variable and is violated (value %g)", sdp.ErrInfeasible, c, v)
	}
	return nil
}

// Solve compiles the problem into a semidefinite program and computes the
// worst-case value of the performance metric.
func (p *Problem) Solve(ctx context.Context, opts sdp.Options) (*Result, error) {
	prog, l, err := p.compile()
	if err != nil {
		return nil, err
	}

	className := "none"
	evaluations := 0
	if p.function != nil {
		className = p.function.class.Name()
		evaluations = p.function.Evaluations()
	}
	slog.Debug("Compiled performance estimation problem",
		"class", className,
		"gram_dim", prog.Dim,
		"variables", prog.NumVars,
		"inequalities", len(prog.Inequalities),
		"equalities", len(prog.Equalities),
		"evaluations", evaluations,
		"metrics", len(p.metrics),
	)

	sol, err := sdp.Solve(ctx, prog, opts)
	if err != nil {
		return nil, err
	}
	return newResult(sol, l), nil
}
