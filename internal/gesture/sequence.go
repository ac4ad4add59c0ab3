// Package gesture implements the motion-signature pipeline: sensor
// calibration, sample conditioning, smoothing, trimming, normalization
// and correlation between a stored gesture key and an unlock attempt.
package gesture

// Vec3 is one smoothed 3-axis sample in degrees per second.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sequence is an ordered gesture recording; insertion order is
// temporal order.
type Sequence []Vec3

// Clone returns an independent copy of the sequence.
func (s Sequence) Clone() Sequence {
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

// axis extracts one axis (0=X, 1=Y, 2=Z) into a flat list.
func (s Sequence) axis(i int) []float64 {
	vals := make([]float64, len(s))
	for j, v := range s {
		switch i {
		case 0:
			vals[j] = v.X
		case 1:
			vals[j] = v.Y
		default:
			vals[j] = v.Z
		}
	}
	return vals
}
