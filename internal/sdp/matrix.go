package sdp

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// gramMatrix builds G(y) from the leading Gram variables of y.
func gramMatrix(dim int, pairs [][2]int, y []float64) *mat.SymDense {
	g := mat.NewSymDense(dim, nil)
	for k, pr := range pairs {
		g.SetSym(pr[0], pr[1], y[k])
	}
	return g
}

// symmetrize returns (A + Aᵀ)/2.
func symmetrize(a mat.Matrix) *mat.SymDense {
	n, _ := a.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	return s
}

// inner returns the Frobenius inner product of two symmetric matrices.
func inner(a, b mat.Symmetric) float64 {
	n := a.SymmetricDim()
	var sum float64
	for i := 0; i < n; i++ {
		sum += a.At(i, i) * b.At(i, i)
		for j := i + 1; j < n; j++ {
			sum += 2 * a.At(i, j) * b.At(i, j)
		}
	}
	return sum
}

// addScaled returns a + alpha*b.
func addScaled(a *mat.SymDense, alpha float64, b mat.Symmetric) *mat.SymDense {
	n := a.SymmetricDim()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, a.At(i, j)+alpha*b.At(i, j))
		}
	}
	return s
}

// isCondition reports whether err only flags an ill-conditioned (but
// computed) factorization result.
func isCondition(err error) bool {
	var c mat.Condition
	return errors.As(err, &c) && !math.IsInf(float64(c), 1)
}

// maxStepPSD returns the largest alpha with X + alpha*dX ⪰ 0, or +Inf when
// the direction never leaves the cone. X must be positive definite.
func maxStepPSD(x *mat.SymDense, dx mat.Symmetric) float64 {
	var chol mat.Cholesky
	if ok := chol.Factorize(x); !ok {
		return 0
	}
	var l mat.TriDense
	chol.LTo(&l)
	var li mat.TriDense
	if err := li.InverseTri(&l); err != nil && !isCondition(err) {
		return 0
	}
	var w mat.Dense
	w.Product(&li, dx, li.T())

	var eig mat.EigenSym
	if ok := eig.Factorize(symmetrize(&w), false); !ok {
		return 0
	}
	vals := eig.Values(nil)
	if vals[0] >= 0 {
		return math.Inf(1)
	}
	return -1 / vals[0]
}

// maxStepLP is the ratio test for the nonnegative orthant.
func maxStepLP(x, dx []float64) float64 {
	alpha := math.Inf(1)
	for i := range x {
		if dx[i] < 0 {
			alpha = math.Min(alpha, -x[i]/dx[i])
		}
	}
	return alpha
}
