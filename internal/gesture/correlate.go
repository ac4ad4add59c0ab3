package gesture

import "math"

// CorrelationResult holds the per-axis Pearson correlation between two
// gesture sequences. The axes are independent; any of them may be NaN
// when its inputs are degenerate.
type CorrelationResult struct {
	X float64
	Y float64
	Z float64
}

// AllAbove reports whether every axis correlation strictly exceeds
// threshold. NaN never exceeds, so a degenerate axis fails the match.
func (r CorrelationResult) AllAbove(threshold float64) bool {
	return r.X > threshold && r.Y > threshold && r.Z > threshold
}

// Correlation computes the Pearson correlation coefficient between two
// equal-length series. It returns NaN when the lengths differ, when
// every paired value is exactly zero (no variation to correlate), or
// when either series has zero variance. The running sums of a and b
// use Kahan compensated accumulation so long recordings do not drift.
func Correlation(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.NaN()
	}

	hasVariation := false
	for i := range a {
		if a[i] != 0 || b[i] != 0 {
			hasVariation = true
			break
		}
	}
	if !hasVariation {
		return math.NaN()
	}

	var sumA, sumB, compA, compB float64
	var sumAB, sqSumA, sqSumB float64

	for i := range a {
		// Delta-then-accumulate: fold the compensation residual into
		// the increment before adding it to the running sum.
		deltaA := a[i] + compA
		t := sumA + deltaA
		compA = deltaA - (t - sumA)
		sumA = t

		deltaB := b[i] + compB
		t = sumB + deltaB
		compB = deltaB - (t - sumB)
		sumB = t

		sumAB += a[i] * b[i]
		sqSumA += a[i] * a[i]
		sqSumB += b[i] * b[i]
	}

	n := float64(len(a))
	numerator := sumAB - sumA*sumB/n
	denominator := math.Sqrt((sqSumA - sumA*sumA/n) * (sqSumB - sumB*sumB/n))
	if denominator == 0 {
		return math.NaN()
	}
	return numerator / denominator
}

// CorrelationVectors truncates both sequences to the shorter length
// and computes the correlation independently per axis. One axis
// returning NaN does not affect the others.
func CorrelationVectors(seq1, seq2 Sequence) CorrelationResult {
	n := len(seq1)
	if len(seq2) < n {
		n = len(seq2)
	}
	seq1 = seq1[:n]
	seq2 = seq2[:n]

	return CorrelationResult{
		X: Correlation(seq1.axis(0), seq2.axis(0)),
		Y: Correlation(seq1.axis(1), seq2.axis(1)),
		Z: Correlation(seq1.axis(2), seq2.axis(2)),
	}
}
