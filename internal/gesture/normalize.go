package gesture

import "math"

// Normalize rescales each sample to unit magnitude in place. A zero
// vector has no direction and is left unchanged.
func Normalize(seq Sequence) {
	for i, v := range seq {
		mag := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
		if mag > 0 {
			seq[i] = Vec3{X: v.X / mag, Y: v.Y / mag, Z: v.Z / mag}
		}
	}
}
