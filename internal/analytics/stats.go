package analytics

import "math"

// Pearson computes the correlation of two equal-length series. Pairs where
// either value is NaN are skipped. Fewer than two usable pairs, or zero
// variance on either side, yields NaN.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) {
		return math.NaN()
	}

	var n int
	var sumX, sumY float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		n++
		sumX += x[i]
		sumY += y[i]
	}
	if n < 2 {
		return math.NaN()
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varX*varY)
}

// RollingPearson computes the window-sized trailing correlation at each
// position. The first window-1 positions are NaN.
func RollingPearson(x, y []float64, window int) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = Pearson(x[i-window+1:i+1], y[i-window+1:i+1])
	}
	return out
}
