package apportion

import (
	"fmt"

	"gonum.org/v1/gonum/floats/scalar"
)

// Convention records how a weight vector was expressed before normalization.
type Convention string

const (
	Fractions   Convention = "fractions"
	Percentages Convention = "percentages"
	Shares      Convention = "shares"
)

// Relative tolerances used to recognise the two conventional sums.
const (
	fractionsRelTol   = 1e-3
	percentagesRelTol = 1e-2
)

// Normalize rescales weights so they sum to 1 and reports which convention
// the input used. Vectors summing to about 1 are treated as fractions and
// vectors summing to about 100 as percentages; anything else is divided by
// its own sum. A final divide-by-sum correction is applied only when the
// result is still further than SumTolerance from 1.
func Normalize(weights []Weight) ([]Weight, Convention, error) {
	sum, err := checkedSum(weights)
	if err != nil {
		return nil, "", err
	}

	var conv Convention
	out := clone(weights)
	switch {
	case scalar.EqualWithinRel(sum, 1, fractionsRelTol):
		conv = Fractions
	case scalar.EqualWithinRel(sum, 100, percentagesRelTol):
		conv = Percentages
		for i := range out {
			out[i].Value /= 100
		}
		sum /= 100
	default:
		conv = Shares
	}

	if !scalar.EqualWithinAbs(sum, 1, SumTolerance) {
		for i := range out {
			out[i].Value /= sum
		}
	}
	return out, conv, nil
}

// NormalizeBySum divides every weight by the vector's sum.
func NormalizeBySum(weights []Weight) ([]Weight, error) {
	sum, err := checkedSum(weights)
	if err != nil {
		return nil, err
	}
	out := clone(weights)
	for i := range out {
		out[i].Value /= sum
	}
	return out, nil
}

func checkedSum(weights []Weight) (float64, error) {
	if len(weights) == 0 {
		return 0, ErrNoCategories
	}
	if err := checkWeights(weights); err != nil {
		return 0, err
	}
	sum := weightSum(weights)
	if sum == 0 {
		return 0, fmt.Errorf("%w: %d categories", ErrZeroSum, len(weights))
	}
	return sum, nil
}

func clone(weights []Weight) []Weight {
	out := make([]Weight, len(weights))
	copy(out, weights)
	return out
}
