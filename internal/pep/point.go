package pep

// Point is a vector of the modelled space, written as a linear combination
// of leaf vectors. The minimiser of the modelled function is the origin.
type Point struct {
	coef []float64
}

// Origin returns the zero vector.
func Origin() Point {
	return Point{}
}

func leafPoint(id int) Point {
	c := make([]float64, id+1)
	c[id] = 1
	return Point{coef: c}
}

func (p Point) at(i int) float64 {
	if i < len(p.coef) {
		return p.coef[i]
	}
	return 0
}

func combine(a Point, alpha float64, b Point, beta float64) Point {
	n := max(len(a.coef), len(b.coef))
	c := make([]float64, n)
	for i := range c {
		c[i] = alpha*a.at(i) + beta*b.at(i)
	}
	return Point{coef: trim(c)}
}

func trim(c []float64) []float64 {
	n := len(c)
	for n > 0 && c[n-1] == 0 {
		n--
	}
	return c[:n]
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return combine(p, 1, q, 1)
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return combine(p, 1, q, -1)
}

// Scale returns alpha*p.
func (p Point) Scale(alpha float64) Point {
	return combine(p, alpha, Point{}, 0)
}

// IsZero reports whether p is symbolically the origin.
func (p Point) IsZero() bool {
	return len(trim(p.coef)) == 0
}

// Equal reports whether p and q are the same combination of leaves.
func (p Point) Equal(q Point) bool {
	a, b := trim(p.coef), trim(q.coef)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Dot returns the inner product ⟨p, q⟩ as an expression over the Gram matrix.
func (p Point) Dot(q Point) Expression {
	e := newExpression()
	for i, a := range p.coef {
		if a == 0 {
			continue
		}
		for j, b := range q.coef {
			if b == 0 {
				continue
			}
			e.addGram(i, j, a*b)
		}
	}
	return e
}

// SquaredNorm returns ‖p‖².
func (p Point) SquaredNorm() Expression {
	return p.Dot(p)
}
