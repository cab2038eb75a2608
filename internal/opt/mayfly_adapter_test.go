package opt

import (
	"errors"
	"math"
	"testing"
)

// Sphere function: f(x) = sum((x_i - 1)^2), minimum at (1, ..., 1)
func shiftedSphere(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += (v - 1) * (v - 1)
	}
	return sum
}

func TestMayflyAdapterOnSphere(t *testing.T) {
	optimizer := NewMayfly(100, 20, 42) // maxIters, popSize, seed

	dim := 3
	lower := make([]float64, dim)
	upper := make([]float64, dim)
	for i := 0; i < dim; i++ {
		lower[i] = -10
		upper[i] = 10
	}

	best, cost, err := optimizer.Run(shiftedSphere, lower, upper)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(best) != dim {
		t.Fatalf("Expected %d parameters, got %d", dim, len(best))
	}

	if cost > 0.1 {
		t.Errorf("Expected cost near 0, got %f", cost)
	}

	for i, v := range best {
		if math.Abs(v-1) > 1.0 {
			t.Errorf("Parameter %d = %f, expected near 1", i, v)
		}
	}
}

func TestMayflyAdapterMixedBounds(t *testing.T) {
	optimizer := NewMayfly(60, 20, 7)

	lower := []float64{0.5, -3}
	upper := []float64{2, 0}

	best, _, err := optimizer.Run(shiftedSphere, lower, upper)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i, v := range best {
		if v < lower[i] || v > upper[i] {
			t.Errorf("Parameter %d = %f outside [%f, %f]", i, v, lower[i], upper[i])
		}
	}
}

func TestMayflyAdapterDeterministic(t *testing.T) {
	lower := []float64{-5, -5}
	upper := []float64{5, 5}

	// popSize below 20 is raised to the mayfly minimum
	optimizer1 := NewMayfly(50, 10, 123)
	_, cost1, err := optimizer1.Run(shiftedSphere, lower, upper)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	optimizer2 := NewMayfly(50, 10, 123)
	_, cost2, err := optimizer2.Run(shiftedSphere, lower, upper)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if cost1 != cost2 {
		t.Errorf("Non-deterministic: cost1=%f, cost2=%f", cost1, cost2)
	}
}

func TestMayflyAdapterRejectsBadBounds(t *testing.T) {
	optimizer := NewMayfly(10, 20, 1)

	cases := map[string][2][]float64{
		"empty":    {nil, nil},
		"mismatch": {{0}, {1, 2}},
		"inverted": {{1}, {0}},
	}
	for name, b := range cases {
		if _, _, err := optimizer.Run(shiftedSphere, b[0], b[1]); !errors.Is(err, ErrBounds) {
			t.Errorf("%s: expected ErrBounds, got %v", name, err)
		}
	}
}
