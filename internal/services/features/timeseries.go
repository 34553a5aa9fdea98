package features

import (
	"fmt"
	"math"
)

// Windows are the trailing window lengths, in observations, used by the
// rolling statistics and lag features.
var Windows = []int{7, 14, 30}

// FallbackLevel identifies which tier of the dispersion fallback chain
// produced a rolling_std value.
type FallbackLevel int

const (
	FallbackNone      FallbackLevel = iota // plain rolling std
	FallbackExpanding                      // expanding std from series start
	FallbackSeries                         // whole-series std
	FallbackZero                           // nothing computable
)

func (f FallbackLevel) String() string {
	switch f {
	case FallbackNone:
		return "rolling"
	case FallbackExpanding:
		return "expanding"
	case FallbackSeries:
		return "series"
	default:
		return "zero"
	}
}

// meanOf returns the mean of the non-missing values, NaN if there are none.
func meanOf(vals []float64) float64 {
	var sum float64
	var n int
	for _, v := range vals {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// stdOf returns the sample standard deviation of the non-missing values.
// Fewer than two observations yield NaN.
func stdOf(vals []float64) float64 {
	m := meanOf(vals)
	if math.IsNaN(m) {
		return math.NaN()
	}
	var sum float64
	var n int
	for _, v := range vals {
		if !math.IsNaN(v) {
			d := v - m
			sum += d * d
			n++
		}
	}
	if n < 2 {
		return math.NaN()
	}
	return math.Sqrt(sum / float64(n-1))
}

// window slices the trailing window of length w ending at position i.
func window(vals []float64, i, w int) []float64 {
	lo := i - w + 1
	if lo < 0 {
		lo = 0
	}
	return vals[lo : i+1]
}

// RollingMean is the trailing-window mean at position i, requiring at least
// one observed value; NaN otherwise.
func RollingMean(vals []float64, i, w int) float64 {
	return meanOf(window(vals, i, w))
}

// StdWithFallback computes the dispersion feature at position i with a fixed
// fallback chain: rolling window std, then expanding std from the series
// start, then whole-series std, then 0. The returned level says which tier
// fired; the chain never yields NaN.
func StdWithFallback(vals []float64, i, w int) (float64, FallbackLevel) {
	if v := stdOf(window(vals, i, w)); !math.IsNaN(v) {
		return v, FallbackNone
	}
	if v := stdOf(vals[:i+1]); !math.IsNaN(v) {
		return v, FallbackExpanding
	}
	if v := stdOf(vals); !math.IsNaN(v) {
		return v, FallbackSeries
	}
	return 0, FallbackZero
}

// Lag is the value n observations back within the series, NaN when the
// series is too short.
func Lag(vals []float64, i, n int) float64 {
	if i-n < 0 {
		return math.NaN()
	}
	return vals[i-n]
}

// AddTimeSeries derives the rolling and lag features of the row's own price
// series. The frame must be sorted by sku then time; each SKU run is an
// independent series, so short histories fall back rather than borrowing
// observations from a neighbouring SKU.
func AddTimeSeries(rows []*Row) {
	for _, run := range skuRuns(rows) {
		series := rows[run[0]:run[1]]
		vals := make([]float64, len(series))
		for i, r := range series {
			vals[i] = r.PvpWas
		}
		for i, r := range series {
			for _, w := range Windows {
				mean := RollingMean(vals, i, w)
				std, _ := StdWithFallback(vals, i, w)
				r.Set(fmt.Sprintf("rolling_mean_%d", w), mean)
				r.Set(fmt.Sprintf("rolling_std_%d", w), std)
				r.Set(fmt.Sprintf("lag_%d", w), Lag(vals, i, w))
			}
		}
	}
}
