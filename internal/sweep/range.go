package sweep

import (
	"errors"
	"fmt"

	"github.com/cwbudde/qgpep/internal/verify"
)

// ErrInvalidRange is returned for an empty or malformed range.
var ErrInvalidRange = errors.New("sweep: invalid range")

// Range is the set of iteration counts From, From+Step, ..., up to To.
type Range struct {
	From int
	To   int
	Step int
}

// DefaultRange matches the figure of the decreasing step experiment.
func DefaultRange() Range {
	return Range{From: 1, To: 19, Step: 1}
}

// Validate checks the range bounds.
func (r Range) Validate() error {
	switch {
	case r.From < 0:
		return fmt.Errorf("%w: from must be non-negative, got %d", ErrInvalidRange, r.From)
	case r.To < r.From:
		return fmt.Errorf("%w: to (%d) is below from (%d)", ErrInvalidRange, r.To, r.From)
	case r.Step < 1:
		return fmt.Errorf("%w: step must be at least 1, got %d", ErrInvalidRange, r.Step)
	case r.To > verify.MaxIterations:
		return fmt.Errorf("%w: to must be at most %d, got %d", ErrInvalidRange, verify.MaxIterations, r.To)
	}
	return nil
}

// Values lists the iteration counts of the range.
func (r Range) Values() []int {
	var out []int
	for n := r.From; n <= r.To; n += r.Step {
		out = append(out, n)
	}
	return out
}
