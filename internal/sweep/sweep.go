package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cwbudde/qgpep/internal/store"
	"github.com/cwbudde/qgpep/internal/verify"
)

// Verifier computes one guarantee; *verify.Verifier implements it.
type Verifier interface {
	Verify(ctx context.Context, method string, params verify.Params) (*verify.Guarantee, error)
}

// Point is one iteration count of a sweep.
type Point struct {
	N           int
	WorstCase   float64
	Theoretical float64
	HasTheory   bool
}

// FromGuarantee converts a verification result.
func FromGuarantee(g *verify.Guarantee) Point {
	return Point{N: g.Params.N, WorstCase: g.WorstCase, Theoretical: g.Theoretical, HasTheory: g.HasTheory}
}

// FromTrace converts recorded trace entries.
func FromTrace(entries []store.TraceEntry) []Point {
	out := make([]Point, len(entries))
	for i, e := range entries {
		out[i] = Point{N: e.N, WorstCase: e.WorstCase, Theoretical: e.Theoretical, HasTheory: e.HasTheory}
	}
	return out
}

// Run verifies method at every N of rng, sharing the other parameters.
// onPoint, when set, is called after every solve; an error from it stops
// the sweep.
func Run(ctx context.Context, v Verifier, method string, params verify.Params, rng Range, onPoint func(*verify.Guarantee) error) ([]Point, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	values := rng.Values()
	tracker := NewMonotoneTracker(DefaultMonotoneConfig())
	points := make([]Point, 0, len(values))

	slog.Info("Starting sweep", "method", method, "from", rng.From, "to", rng.To, "step", rng.Step)

	for _, n := range values {
		p := params
		p.N = n
		g, err := v.Verify(ctx, method, p)
		if err != nil {
			return points, fmt.Errorf("sweep stopped at n=%d: %w", n, err)
		}
		points = append(points, FromGuarantee(g))
		tracker.Update(n, g.WorstCase)

		if onPoint != nil {
			if err := onPoint(g); err != nil {
				return points, fmt.Errorf("sweep stopped at n=%d: %w", n, err)
			}
		}
	}

	slog.Info("Sweep complete",
		"method", method,
		"points", len(points),
		"best", tracker.Best(),
		"monotone", tracker.Monotone(),
	)
	return points, nil
}
