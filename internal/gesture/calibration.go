package gesture

import (
	"fmt"
	"math"
	"time"

	"github.com/relabs-tech/gesture_sentry/internal/gyro"
)

// ThresholdMode selects how the per-axis noise threshold is tracked
// during the calibration burst.
type ThresholdMode int

const (
	// ThresholdSigned tracks the maximum raw signed value. Under a
	// negative zero-rate level this can understate the noise band; it
	// is the device's historical behavior and the default.
	ThresholdSigned ThresholdMode = iota
	// ThresholdAbsolute tracks the maximum magnitude instead.
	ThresholdAbsolute
)

// ParseThresholdMode maps the config strings "signed" and "absolute".
func ParseThresholdMode(s string) (ThresholdMode, error) {
	switch s {
	case "signed":
		return ThresholdSigned, nil
	case "absolute":
		return ThresholdAbsolute, nil
	default:
		return 0, fmt.Errorf("unknown threshold mode %q (must be signed or absolute)", s)
	}
}

// Profile holds the per-axis zero-rate bias and noise thresholds
// derived from a stationary burst, plus the dps-per-digit sensitivity
// for the configured full-scale range. A profile is derived once per
// recording session and never persisted.
type Profile struct {
	BiasX, BiasY, BiasZ    int16
	NoiseX, NoiseY, NoiseZ int16
	Sensitivity            float64
}

// CalibrationOptions tunes the stationary burst.
type CalibrationOptions struct {
	Samples  int           // burst length
	Interval time.Duration // delay between acquisitions
	Mode     ThresholdMode
}

// Calibrate acquires opts.Samples stationary readings and derives, per
// axis, the zero-rate bias (integer floor of the mean) and the noise
// threshold (a running maximum seeded at the minimum representable
// value and never reset mid-burst). It always completes after exactly
// opts.Samples acquisitions; there is no failure path beyond the
// source itself.
func Calibrate(src gyro.Source, opts CalibrationOptions) (Profile, error) {
	if opts.Samples <= 0 {
		return Profile{}, fmt.Errorf("calibration: sample count must be positive, got %d", opts.Samples)
	}

	var sumX, sumY, sumZ int32
	maxX := int16(math.MinInt16)
	maxY := int16(math.MinInt16)
	maxZ := int16(math.MinInt16)

	for i := 0; i < opts.Samples; i++ {
		raw, err := src.Next()
		if err != nil {
			return Profile{}, fmt.Errorf("calibration: acquisition %d: %w", i, err)
		}

		sumX += int32(raw.X)
		sumY += int32(raw.Y)
		sumZ += int32(raw.Z)

		maxX = trackMax(maxX, raw.X, opts.Mode)
		maxY = trackMax(maxY, raw.Y, opts.Mode)
		maxZ = trackMax(maxZ, raw.Z, opts.Mode)

		if opts.Interval > 0 {
			time.Sleep(opts.Interval)
		}
	}

	n := int32(opts.Samples)
	return Profile{
		BiasX:  int16(floorDiv(sumX, n)),
		BiasY:  int16(floorDiv(sumY, n)),
		BiasZ:  int16(floorDiv(sumZ, n)),
		NoiseX: maxX,
		NoiseY: maxY,
		NoiseZ: maxZ,
	}, nil
}

func trackMax(cur, v int16, mode ThresholdMode) int16 {
	if mode == ThresholdAbsolute && v < 0 {
		if v == math.MinInt16 {
			v = math.MaxInt16
		} else {
			v = -v
		}
	}
	if v > cur {
		return v
	}
	return cur
}

// floorDiv divides rounding toward negative infinity, matching the
// arithmetic-shift bias computation of the original firmware.
func floorDiv(a, n int32) int32 {
	q := a / n
	if a%n != 0 && (a < 0) != (n < 0) {
		q--
	}
	return q
}
