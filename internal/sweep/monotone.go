package sweep

import (
	"log/slog"
	"math"
)

// MonotoneConfig defines how much increase between consecutive points is
// attributed to solver tolerance.
type MonotoneConfig struct {
	// Tolerance is the absolute increase allowed.
	Tolerance float64

	// RelativeTolerance is the increase allowed relative to the previous
	// value.
	RelativeTolerance float64
}

// DefaultMonotoneConfig matches the solver accuracy of the verifier.
func DefaultMonotoneConfig() MonotoneConfig {
	return MonotoneConfig{
		Tolerance:         1e-5,
		RelativeTolerance: 1e-4,
	}
}

// Violation is an increase of the worst case between two iteration counts.
type Violation struct {
	PrevN    int
	N        int
	Prev     float64
	Value    float64
	Increase float64
}

// MonotoneTracker checks that worst cases do not increase with N.
type MonotoneTracker struct {
	config     MonotoneConfig
	history    []float64
	lastN      int
	best       float64
	violations []Violation
}

// NewMonotoneTracker creates a tracker with the given config.
func NewMonotoneTracker(config MonotoneConfig) *MonotoneTracker {
	return &MonotoneTracker{
		config: config,
		best:   math.Inf(1),
	}
}

// Update records the worst case at n and reports whether it exceeds the
// previous one by more than the tolerance.
func (m *MonotoneTracker) Update(n int, value float64) bool {
	defer func() {
		m.history = append(m.history, value)
		m.lastN = n
		m.best = math.Min(m.best, value)
	}()

	if len(m.history) == 0 {
		return false
	}
	prev := m.history[len(m.history)-1]
	allowed := m.config.Tolerance + m.config.RelativeTolerance*math.Abs(prev)
	increase := value - prev
	if increase <= allowed {
		return false
	}

	v := Violation{PrevN: m.lastN, N: n, Prev: prev, Value: value, Increase: increase}
	m.violations = append(m.violations, v)
	slog.Warn("Worst case increased with the iteration count",
		"prev_n", v.PrevN,
		"n", v.N,
		"prev", v.Prev,
		"value", v.Value,
		"increase", v.Increase,
	)
	return true
}

// Best returns the smallest worst case seen so far.
func (m *MonotoneTracker) Best() float64 {
	return m.best
}

// History returns the recorded values.
func (m *MonotoneTracker) History() []float64 {
	return append([]float64{}, m.history...)
}

// Violations returns every recorded increase.
func (m *MonotoneTracker) Violations() []Violation {
	return append([]Violation{}, m.violations...)
}

// Monotone reports whether no violation was recorded.
func (m *MonotoneTracker) Monotone() bool {
	return len(m.violations) == 0
}
