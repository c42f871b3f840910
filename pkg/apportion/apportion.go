// Package apportion converts fractional shares of a whole into integer counts
// using the largest-remainder (Hamilton) method.
package apportion

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// SumTolerance is how far a weight vector's sum may stray from 1.0 before
// Allocate rejects it.
const SumTolerance = 1e-6

// Raw shares this close to a whole number are taken as that number.
const (
	snapAbsTol = 1e-9
	snapRelTol = 1e-13
)

var (
	ErrNegativeTotal  = errors.New("total must be non-negative")
	ErrNegativeWeight = errors.New("weights must be finite and non-negative")
	ErrWeightSum      = errors.New("weights must sum to 1")
	ErrZeroSum        = errors.New("weights sum to zero")
	ErrNoCategories   = errors.New("no categories to allocate to")
	ErrDuplicateLabel = errors.New("duplicate category label")
	ErrRemainderRange = errors.New("remainder outside allocatable range")
)

// Weight is one category of an allocation group and its share of the total.
type Weight struct {
	Label string  `json:"label"`
	Value float64 `json:"weight"`
}

// Share is the allocation outcome for one category.
type Share struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
	Raw    float64 `json:"raw"`
	Floor  int     `json:"floor"`
	Count  int     `json:"count"`
	Bumped bool    `json:"bumped"`
}

// Result holds the shares of one allocation group, in input order.
type Result struct {
	Total  int     `json:"total"`
	Shares []Share `json:"shares"`
}

// Counts returns the label -> count mapping.
func (r *Result) Counts() map[string]int {
	out := make(map[string]int, len(r.Shares))
	for _, s := range r.Shares {
		out[s.Label] = s.Count
	}
	return out
}

// Sum returns the sum of all counts. It always equals Total.
func (r *Result) Sum() int {
	n := 0
	for _, s := range r.Shares {
		n += s.Count
	}
	return n
}

// Bumps returns how many categories received a unit beyond their floor.
func (r *Result) Bumps() int {
	n := 0
	for _, s := range r.Shares {
		if s.Bumped {
			n++
		}
	}
	return n
}

// Allocate splits total across weights so that the counts sum exactly to
// total. Each category first gets floor(weight*total); the leftover units go
// one each to the categories with the largest fractional parts. Equal
// fractional parts keep their input order.
//
// Weights must already be normalized (see Normalize). A zero total yields a
// result in which every count is zero.
func Allocate(total int, weights []Weight) (*Result, error) {
	if total < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNegativeTotal, total)
	}
	if err := checkWeights(weights); err != nil {
		return nil, err
	}
	if len(weights) == 0 {
		if total > 0 {
			return nil, fmt.Errorf("%w: total %d", ErrNoCategories, total)
		}
		return &Result{Total: 0, Shares: []Share{}}, nil
	}
	sum := weightSum(weights)
	if !scalar.EqualWithinAbs(sum, 1, SumTolerance) {
		return nil, fmt.Errorf("%w: got %.9f", ErrWeightSum, sum)
	}

	// Dividing by the sum absorbs the tolerated drift so that large totals
	// cannot push the remainder negative.
	shares := make([]Share, len(weights))
	assigned := 0
	for i, w := range weights {
		raw := snap(w.Value / sum * float64(total))
		base := int(math.Floor(raw))
		shares[i] = Share{Label: w.Label, Weight: w.Value, Raw: raw, Floor: base, Count: base}
		assigned += base
	}

	remainder := total - assigned
	if remainder < 0 || remainder > len(shares)-1 {
		return nil, fmt.Errorf("%w: %d leftover units for %d categories", ErrRemainderRange, remainder, len(shares))
	}

	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return shares[order[a]].frac() > shares[order[b]].frac()
	})
	for _, idx := range order[:remainder] {
		shares[idx].Count++
		shares[idx].Bumped = true
	}

	return &Result{Total: total, Shares: shares}, nil
}

// snap removes floating-point noise around whole numbers, so an exact share
// such as 312/1126 of 1126 floors to 312 rather than 311.
func snap(raw float64) float64 {
	if r := math.Round(raw); scalar.EqualWithinAbsOrRel(raw, r, snapAbsTol, snapRelTol) {
		return r
	}
	return raw
}

func (s Share) frac() float64 {
	return s.Raw - float64(s.Floor)
}

func checkWeights(weights []Weight) error {
	seen := make(map[string]struct{}, len(weights))
	for _, w := range weights {
		if w.Value < 0 || math.IsNaN(w.Value) || math.IsInf(w.Value, 0) {
			return fmt.Errorf("%w: %s = %v", ErrNegativeWeight, w.Label, w.Value)
		}
		if _, dup := seen[w.Label]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateLabel, w.Label)
		}
		seen[w.Label] = struct{}{}
	}
	return nil
}

func weightSum(weights []Weight) float64 {
	vals := make([]float64, len(weights))
	for i, w := range weights {
		vals[i] = w.Value
	}
	return floats.Sum(vals)
}
