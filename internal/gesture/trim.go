package gesture

import "math"

// Trim strips leading and trailing samples where no axis magnitude
// exceeds epsilon. The active region is compacted to the front of the
// returned sequence; a wholly inactive sequence trims to length 0
// rather than reading past its bounds. Trim is idempotent.
func Trim(seq Sequence, epsilon float64) Sequence {
	left := 0
	for left < len(seq) && !isActive(seq[left], epsilon) {
		left++
	}
	if left == len(seq) {
		return seq[:0]
	}

	right := len(seq) - 1
	for right > left && !isActive(seq[right], epsilon) {
		right--
	}

	n := copy(seq, seq[left:right+1])
	return seq[:n]
}

// isActive reports whether any axis magnitude exceeds epsilon.
func isActive(v Vec3, epsilon float64) bool {
	return math.Abs(v.X) > epsilon || math.Abs(v.Y) > epsilon || math.Abs(v.Z) > epsilon
}
