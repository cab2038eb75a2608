package pep

import "errors"

var (
	// ErrNoMetric is returned when a problem is solved without a
	// performance metric.
	ErrNoMetric = errors.New("pep: no performance metric")

	// ErrMultipleFunctions is returned when more than one function is
	// declared on a problem.
	ErrMultipleFunctions = errors.New("pep: only one function can be declared per problem")

	// ErrInvalidClass is returned when a function class has parameters
	// outside its domain.
	ErrInvalidClass = errors.New("pep: invalid function class parameters")
)
