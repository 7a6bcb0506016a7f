package linalg

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/scicov/pkg/errors"
)

// Default tolerances of StableCumsum.
const (
	DefaultCumsumRtol = 1e-5
	DefaultCumsumAtol = 1e-8
)

// StableCumsum returns the cumulative sum of x and checks its last element
// against a compensated (Neumaier) sum of x. A StabilityWarning is emitted
// through errors.Warn when |last - sum| > atol + rtol·|sum|.
func StableCumsum(x []float64, rtol, atol float64) []float64 {
	out := make([]float64, len(x))
	acc := 0.0
	for i, v := range x {
		acc += v
		out[i] = acc
	}
	if len(x) == 0 {
		return out
	}

	expected := compensatedSum(x)
	last := out[len(out)-1]
	if !isClose(last, expected, rtol, atol) {
		errors.Warn(errors.NewStabilityWarning("cumsum", last, expected))
	}
	return out
}

func compensatedSum(x []float64) float64 {
	sum, c := 0.0, 0.0
	for _, v := range x {
		t := sum + v
		if math.Abs(sum) >= math.Abs(v) {
			c += (sum - t) + v
		} else {
			c += (v - t) + sum
		}
		sum = t
	}
	return sum + c
}

// isClose mirrors numpy.isclose with equal_nan=true.
func isClose(a, b, rtol, atol float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return math.Abs(a-b) <= atol+rtol*math.Abs(b)
}

// Bincount accumulates weights[i] into bin x[i]. With nil weights every
// occurrence counts 1. The result has max(minLength, max(x)+1) bins.
func Bincount(x []int, weights []float64, minLength int) ([]float64, error) {
	if weights != nil && len(weights) != len(x) {
		return nil, errors.NewDimensionError("linalg.Bincount", len(x), len(weights), 0)
	}
	if minLength < 0 {
		return nil, errors.NewValueError("linalg.Bincount", "minLength must be non-negative")
	}
	size := minLength
	for _, idx := range x {
		if idx < 0 {
			return nil, errors.NewValueError("linalg.Bincount", "input must contain only non-negative integers")
		}
		if idx+1 > size {
			size = idx + 1
		}
	}

	out := make([]float64, size)
	for i, idx := range x {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		out[idx] += w
	}
	return out, nil
}

// Median returns the median of x, averaging the two middle values for even
// lengths. It returns NaN for empty input and does not modify x.
func Median(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	s := make([]float64, len(x))
	copy(s, x)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// MedianComplex returns the marginal median of data: the median of the real
// parts plus i times the median of the imaginary parts.
func MedianComplex(data []complex128) complex128 {
	re := make([]float64, len(data))
	im := make([]float64, len(data))
	for i, z := range data {
		re[i] = real(z)
		im[i] = imag(z)
	}
	return complex(Median(re), Median(im))
}
