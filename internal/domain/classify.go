package domain

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Category is one ordered class of a map, lowest values first.
type Category struct {
	Label string `json:"label" toml:"label"`
	Color string `json:"color" toml:"color"`
}

// Breaks are natural-breaks thresholds: class i holds values in
// (Upper[i-1], Upper[i]], the first class starting at Min.
type Breaks struct {
	Min   float64   `json:"min"`
	Upper []float64 `json:"upper"`
}

// Classification assigns every region of a metric to a category index.
type Classification struct {
	Breaks      Breaks             `json:"breaks"`
	Assignments map[RegionCode]int `json:"assignments"`
}

// ErrNoCoreValues is returned when no non-outlier region has a value.
var ErrNoCoreValues = errors.New("no core region value to classify")

// NaturalBreaks computes Jenks natural breaks of values into k classes,
// minimizing the within-class sum of squared deviations. It returns the
// minimum and k upper bounds, the last being the maximum. Among equally good
// partitions the one with the latest split point is kept.
func NaturalBreaks(values []float64, k int) (Breaks, error) {
	n := len(values)
	if k < 1 {
		return Breaks{}, fmt.Errorf("natural breaks: class count %d must be positive", k)
	}
	if k > n {
		return Breaks{}, fmt.Errorf("natural breaks: %d classes requested for %d values", k, n)
	}

	data := slices.Clone(values)
	slices.Sort(data)

	// lower[l][j] is the 1-based index of the first value of class j in the
	// best partition of data[:l] into j classes; cost[l][j] is its variance.
	lower := make([][]int, n+1)
	cost := make([][]float64, n+1)
	for i := range lower {
		lower[i] = make([]int, k+1)
		cost[i] = make([]float64, k+1)
	}
	for j := 1; j <= k; j++ {
		lower[1][j] = 1
		for i := 2; i <= n; i++ {
			cost[i][j] = math.Inf(1)
		}
	}

	for l := 2; l <= n; l++ {
		var sum, sumSq, w, variance float64
		for m := 1; m <= l; m++ {
			first := l - m + 1
			v := data[first-1]
			sum += v
			sumSq += v * v
			w++
			variance = sumSq - sum*sum/w
			prev := first - 1
			if prev == 0 {
				continue
			}
			for j := 2; j <= k; j++ {
				if c := variance + cost[prev][j-1]; cost[l][j] > c {
					lower[l][j] = first
					cost[l][j] = c
				}
			}
		}
		lower[l][1] = 1
		cost[l][1] = variance
	}

	upper := make([]float64, k)
	upper[k-1] = data[n-1]
	idx := n
	for j := k; j >= 2; j-- {
		start := lower[idx][j]
		upper[j-2] = data[start-2]
		idx = start - 1
	}
	return Breaks{Min: data[0], Upper: upper}, nil
}

// Class returns the first class whose upper bound is at least v. Values above
// every bound fall into the last class.
func (b Breaks) Class(v float64) int {
	for i, u := range b.Upper {
		if v <= u {
			return i
		}
	}
	return len(b.Upper) - 1
}

// Classify computes breaks from non-outlier regions only, then assigns every
// region, outliers included, with the same thresholds.
func Classify(values *RegionTable[float64], categories []Category) (Classification, error) {
	var core []float64
	values.Range(func(code RegionCode, v float64) bool {
		if !code.Outlier() {
			core = append(core, v)
		}
		return true
	})
	if len(core) == 0 {
		return Classification{}, ErrNoCoreValues
	}

	breaks, err := NaturalBreaks(core, len(categories))
	if err != nil {
		return Classification{}, err
	}

	out := Classification{Breaks: breaks, Assignments: make(map[RegionCode]int, values.Len())}
	values.Range(func(code RegionCode, v float64) bool {
		out.Assignments[code] = breaks.Class(v)
		return true
	})
	return out, nil
}
