package verify

import (
	"errors"
	"fmt"
	"math"
)

// MaxIterations bounds N. The Gram matrix grows linearly with N and each
// interior-point step factors a dense matrix of order N², so larger
// instances take minutes per solve.
const MaxIterations = 50

// Metric selects the performance criterion bounded by a method.
type Metric string

const (
	// FunctionValue bounds f(x_N) - f⋆ (or the minimum over iterates).
	FunctionValue Metric = "function-value"
	// Distance bounds ‖x_N - x⋆‖².
	Distance Metric = "distance"
)

var (
	// ErrInvalidParams is matched by every *ValidationError.
	ErrInvalidParams = errors.New("verify: invalid parameters")

	// ErrUnknownMethod is returned for a method name not in the registry.
	ErrUnknownMethod = errors.New("verify: unknown method")

	// ErrNoStepSize is returned when tuning a method whose step sizes are
	// fixed by its definition.
	ErrNoStepSize = errors.New("verify: method has no tunable step size")
)

// ValidationError reports a parameter outside its domain.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidParams, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidParams
}

// Params are the inputs of one verification.
type Params struct {
	// L is the smoothness, quadratic-growth or Lipschitz constant,
	// depending on the method's function class.
	L float64

	// Mu is the strong convexity constant. Only gradient descent accepts a
	// non-zero value.
	Mu float64

	// N is the number of iterations.
	N int

	// Step is the constant step size. Zero selects the method default;
	// methods with a fixed schedule reject a non-zero value.
	Step float64

	// Metric is the performance criterion. Empty selects the method default.
	Metric Metric
}

// Validate checks params independently of any method.
func (p Params) Validate() error {
	switch {
	case p.N < 0:
		return &ValidationError{Field: "N", Reason: fmt.Sprintf("must be non-negative, got %d", p.N)}
	case p.N > MaxIterations:
		return &ValidationError{Field: "N", Reason: fmt.Sprintf("must be at most %d, got %d", MaxIterations, p.N)}
	case !(p.L > 0) || math.IsInf(p.L, 0):
		return &ValidationError{Field: "L", Reason: fmt.Sprintf("must be positive and finite, got %g", p.L)}
	case !(p.Mu >= 0):
		return &ValidationError{Field: "mu", Reason: fmt.Sprintf("must be non-negative, got %g", p.Mu)}
	case p.Mu > p.L:
		return &ValidationError{Field: "mu", Reason: fmt.Sprintf("must not exceed L (mu=%g, L=%g)", p.Mu, p.L)}
	case !(p.Step >= 0) || math.IsInf(p.Step, 0):
		return &ValidationError{Field: "step", Reason: fmt.Sprintf("must be non-negative and finite, got %g", p.Step)}
	}
	return nil
}

// normalized returns the equivalent instance with L = 1. Function values
// of the normalised instance scale by L; distances are unchanged.
func (p Params) normalized() Params {
	p.Mu /= p.L
	p.Step *= p.L
	p.L = 1
	return p
}
