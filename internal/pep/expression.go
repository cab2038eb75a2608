package pep

import (
	"fmt"
	"sort"
)

type gramEntry struct {
	i, j int
}

// Expression is a scalar of the model: a constant plus a linear combination
// of leaf function values and of Gram matrix entries ⟨eᵢ, eⱼ⟩.
type Expression struct {
	gram     map[gramEntry]float64
	values   map[int]float64
	constant float64
}

func newExpression() Expression {
	return Expression{
		gram:   make(map[gramEntry]float64),
		values: make(map[int]float64),
	}
}

// Constant returns the expression equal to c.
func Constant(c float64) Expression {
	e := newExpression()
	e.constant = c
	return e
}

func leafValue(id int) Expression {
	e := newExpression()
	e.values[id] = 1
	return e
}

func (e *Expression) addGram(i, j int, c float64) {
	if e.gram == nil {
		e.gram = make(map[gramEntry]float64)
	}
	if i > j {
		i, j = j, i
	}
	e.gram[gramEntry{i, j}] += c
}

func (e Expression) combine(alpha float64, o Expression, beta float64) Expression {
	r := newExpression()
	for k, v := range e.gram {
		r.gram[k] += alpha * v
	}
	for k, v := range o.gram {
		r.gram[k] += beta * v
	}
	for k, v := range e.values {
		r.values[k] += alpha * v
	}
	for k, v := range o.values {
		r.values[k] += beta * v
	}
	r.constant = alpha*e.constant + beta*o.constant
	return r
}

// Add returns e + o.
func (e Expression) Add(o Expression) Expression {
	return e.combine(1, o, 1)
}

// Sub returns e - o.
func (e Expression) Sub(o Expression) Expression {
	return e.combine(1, o, -1)
}

// Scale returns alpha*e.
func (e Expression) Scale(alpha float64) Expression {
	return e.combine(alpha, Expression{}, 0)
}

// AddConstant returns e + c.
func (e Expression) AddConstant(c float64) Expression {
	r := e.combine(1, Expression{}, 0)
	r.constant += c
	return r
}

// IsConstant reports whether e has no nonzero variable term.
func (e Expression) IsConstant() bool {
	for _, v := range e.gram {
		if v != 0 {
			return false
		}
	}
	for _, v := range e.values {
		if v != 0 {
			return false
		}
	}
	return true
}

// ConstantTerm returns the constant part of e.
func (e Expression) ConstantTerm() float64 {
	return e.constant
}

func (e Expression) sortedGram() []gramEntry {
	keys := make([]gramEntry, 0, len(e.gram))
	for k, v := range e.gram {
		if v != 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].i != keys[b].i {
			return keys[a].i < keys[b].i
		}
		return keys[a].j < keys[b].j
	})
	return keys
}

func (e Expression) sortedValues() []int {
	keys := make([]int, 0, len(e.values))
	for k, v := range e.values {
		if v != 0 {
			keys = append(keys, k)
		}
	}
	sort.Ints(keys)
	return keys
}

// Relation is the comparison a Constraint imposes on its expression.
type Relation int

const (
	// NonPositive requires the expression to be ≤ 0.
	NonPositive Relation = iota
	// Zero requires the expression to be = 0.
	Zero
)

func (r Relation) String() string {
	if r == Zero {
		return "= 0"
	}
	return "<= 0"
}

// Constraint is a relation on a single expression.
type Constraint struct {
	Expr     Expression
	Relation Relation
	Name     string
}

// Named returns a copy of c carrying name.
func (c Constraint) Named(name string) Constraint {
	c.Name = name
	return c
}

func (c Constraint) String() string {
	if c.Name != "" {
		return fmt.Sprintf("%s (%s)", c.Name, c.Relation)
	}
	return c.Relation.String()
}

// LessEq builds e ≤ o.
func (e Expression) LessEq(o Expression) Constraint {
	return Constraint{Expr: e.Sub(o), Relation: NonPositive}
}

// GreaterEq builds e ≥ o.
func (e Expression) GreaterEq(o Expression) Constraint {
	return Constraint{Expr: o.Sub(e), Relation: NonPositive}
}

// EqualTo builds e = o.
func (e Expression) EqualTo(o Expression) Constraint {
	return Constraint{Expr: e.Sub(o), Relation: Zero}
}
