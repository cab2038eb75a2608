package opt

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MinPopulation is the smallest population mayfly accepts.
const MinPopulation = 20

// MayflyAdapter runs the Mayfly swarm optimiser.
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a Mayfly optimiser. The population is raised to
// MinPopulation when smaller.
func NewMayfly(maxIters, popSize int, seed int64) *MayflyAdapter {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  max(popSize, MinPopulation),
		seed:     seed,
	}
}

// Run executes the optimisation. The library takes scalar bounds, so each
// coordinate is mapped onto [0, 1] before the search.
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64) ([]float64, float64, error) {
	if err := checkBounds(lower, upper); err != nil {
		return nil, 0, err
	}
	dim := len(lower)
	toBox := func(u []float64) []float64 {
		x := make([]float64, dim)
		for i := range x {
			x[i] = lower[i] + u[i]*(upper[i]-lower[i])
		}
		return x
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(u []float64) float64 { return eval(toBox(u)) }
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = 0
	config.UpperBound = 1
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, 0, fmt.Errorf("mayfly optimisation failed: %w", err)
	}
	return toBox(result.GlobalBest.Position), result.GlobalBest.Cost, nil
}
