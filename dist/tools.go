// Package dist provides small numeric primitives shared by the mixture
// likelihood and the posterior summaries.
package dist

import (
	"math"
	"sort"

	"github.com/gonum/floats"
	"github.com/gonum/mathext"
)

// LogAddExp returns log(exp(a)+exp(b)) computed without overflow or
// underflow. If both arguments are -Inf the result is -Inf.
func LogAddExp(a, b float64) float64 {
	max := a
	if b > max {
		max = b
	}
	if math.IsInf(max, -1) {
		return math.Inf(-1)
	}
	return max + math.Log(math.Exp(a-max)+math.Exp(b-max))
}

// LogSumExp returns log(sum(exp(xs))) in a numerically stable way.
func LogSumExp(xs []float64) float64 {
	return floats.LogSumExp(xs)
}

// Mean returns the arithmetic mean.
func Mean(xs []float64) float64 {
	return floats.Sum(xs) / float64(len(xs))
}

// Variance returns the unbiased sample variance.
func Variance(xs []float64) (res float64) {
	mean := Mean(xs)
	for _, x := range xs {
		res += (x - mean) * (x - mean)
	}
	return res / float64(len(xs)-1)
}

// Quantile returns the empirical quantile for probability p using
// linear interpolation between order statistics.
func Quantile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		panic("quantile of an empty slice")
	}
	if p < 0 || p > 1 {
		panic("probability outside [0, 1]")
	}
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	h := p * float64(len(s)-1)
	i := int(h)
	if i >= len(s)-1 {
		return s[len(s)-1]
	}
	return s[i] + (h-float64(i))*(s[i+1]-s[i])
}

// NormalQuantile returns the quantile of the standard normal
// distribution.
func NormalQuantile(p float64) float64 {
	return mathext.NormalQuantile(p)
}
