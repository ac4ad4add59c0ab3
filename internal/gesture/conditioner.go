package gesture

import "github.com/relabs-tech/gesture_sentry/internal/gyro"

// Conditioner converts raw device counts into bias-corrected,
// noise-gated degrees per second using a calibration profile.
type Conditioner struct {
	profile Profile
}

// NewConditioner wraps a calibration profile. The profile's
// Sensitivity must be set for the configured full-scale range.
func NewConditioner(p Profile) *Conditioner {
	return &Conditioner{profile: p}
}

// Condition applies, in order: bias subtraction, the per-axis hard
// noise gate, and sensitivity scaling. The gate zeroes a value whose
// magnitude is strictly below the magnitude of the axis threshold;
// values at or above pass through unmodified.
func (c *Conditioner) Condition(raw gyro.RawSample) Vec3 {
	x := gate(int32(raw.X)-int32(c.profile.BiasX), c.profile.NoiseX)
	y := gate(int32(raw.Y)-int32(c.profile.BiasY), c.profile.NoiseY)
	z := gate(int32(raw.Z)-int32(c.profile.BiasZ), c.profile.NoiseZ)

	return Vec3{
		X: float64(x) * c.profile.Sensitivity,
		Y: float64(y) * c.profile.Sensitivity,
		Z: float64(z) * c.profile.Sensitivity,
	}
}

func gate(v int32, threshold int16) int32 {
	t := int32(threshold)
	if t < 0 {
		t = -t
	}
	a := v
	if a < 0 {
		a = -a
	}
	if a < t {
		return 0
	}
	return v
}
