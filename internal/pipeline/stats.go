package pipeline

import "math"

// mean returns the arithmetic mean, 0 for empty input.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// popVariance returns the population variance, 0 for empty input.
func popVariance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs))
}

// popStddev returns the population standard deviation, 0 if fewer than 2 values.
func popStddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return math.Sqrt(popVariance(xs))
}

// meanAbsDeviation returns the mean absolute deviation from the mean.
func meanAbsDeviation(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		sum += math.Abs(x - m)
	}
	return sum / float64(len(xs))
}

// clamp01 clamps v into [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func ptr(v float64) *float64 { return &v }
