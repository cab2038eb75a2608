package sdp

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidProgram is returned when a Program is structurally malformed.
	ErrInvalidProgram = errors.New("sdp: invalid program")

	// ErrInfeasible is returned when the constraints admit no solution.
	ErrInfeasible = errors.New("sdp: program is infeasible")

	// ErrUnbounded is returned when the objective grows without bound over
	// the feasible set.
	ErrUnbounded = errors.New("sdp: program is unbounded")

	// ErrNotConverged is returned when the solver cannot certify optimality
	// within tolerance. Use errors.As with *ConvergenceError for diagnostics.
	ErrNotConverged = errors.New("sdp: solver did not converge")
)

// ConvergenceError carries the solver state at the point it gave up.
type ConvergenceError struct {
	Reason              string
	Iterations          int
	RelativeGap         float64
	PrimalInfeasibility float64
	DualInfeasibility   float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%v: %s after %d iterations (gap %.2e, primal infeasibility %.2e, dual infeasibility %.2e)",
		ErrNotConverged, e.Reason, e.Iterations, e.RelativeGap, e.PrimalInfeasibility, e.DualInfeasibility)
}

func (e *ConvergenceError) Is(target error) bool {
	return target == ErrNotConverged
}
