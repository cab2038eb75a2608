package opt

import (
	"errors"
	"fmt"
)

// ErrBounds is returned when the search box is malformed.
var ErrBounds = errors.New("opt: invalid bounds")

// Optimizer minimises a black-box objective over a box.
type Optimizer interface {
	// Run minimises eval over [lower, upper] and returns the best
	// parameters found and their cost.
	Run(eval func([]float64) float64, lower, upper []float64) ([]float64, float64, error)
}

func checkBounds(lower, upper []float64) error {
	if len(lower) == 0 || len(lower) != len(upper) {
		return fmt.Errorf("%w: %d lower and %d upper bounds", ErrBounds, len(lower), len(upper))
	}
	for i := range lower {
		if !(lower[i] < upper[i]) {
			return fmt.Errorf("%w: dimension %d has lower %g >= upper %g", ErrBounds, i, lower[i], upper[i])
		}
	}
	return nil
}
