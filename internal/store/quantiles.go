package store

import (
	"fmt"
	"math"

	"github.com/DataDog/sketches-go/ddsketch"
)

// quantileAccuracy is the relative accuracy of quantile estimates (1%).
const quantileAccuracy = 0.01

// DefaultQuantiles are reported when a caller does not ask for specific ones.
var DefaultQuantiles = []float64{0.5, 0.9, 0.99}

// ComputeQuantiles returns approximate values of numbers at each quantile.
//
// Estimates come from a DDSketch and are within 1% of the true value. All
// values are zero for an empty input. Each quantile must lie in [0, 1].
func ComputeQuantiles(numbers []int32, qs []float64) ([]QuantileValue, error) {
	for _, q := range qs {
		if math.IsNaN(q) || q < 0 || q > 1 {
			return nil, fmt.Errorf("%w, got %v", ErrInvalidQuantile, q)
		}
	}

	result := make([]QuantileValue, len(qs))
	for i, q := range qs {
		result[i].Quantile = q
	}
	if len(numbers) == 0 {
		return result, nil
	}

	sketch, err := ddsketch.NewDefaultDDSketch(quantileAccuracy)
	if err != nil {
		return nil, fmt.Errorf("failed to create sketch: %w", err)
	}
	for _, n := range numbers {
		if err := sketch.Add(float64(n)); err != nil {
			return nil, fmt.Errorf("failed to add %d to sketch: %w", n, err)
		}
	}

	for i, q := range qs {
		v, err := sketch.GetValueAtQuantile(q)
		if err != nil {
			return nil, fmt.Errorf("quantile %v: %w", q, err)
		}
		result[i].Value = v
	}
	return result, nil
}
