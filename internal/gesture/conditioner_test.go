package gesture

import (
	"math"
	"testing"

	"github.com/relabs-tech/gesture_sentry/internal/gyro"
)

func TestConditionSubtractsBiasAndScales(t *testing.T) {
	c := NewConditioner(Profile{
		BiasX: 10, BiasY: -20, BiasZ: 0,
		Sensitivity: 0.0175,
	})

	got := c.Condition(gyro.RawSample{X: 110, Y: -120, Z: 200})
	want := Vec3{X: 100 * 0.0175, Y: -100 * 0.0175, Z: 200 * 0.0175}

	if math.Abs(got.X-want.X) > 1e-12 || math.Abs(got.Y-want.Y) > 1e-12 || math.Abs(got.Z-want.Z) > 1e-12 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestConditionHardGate(t *testing.T) {
	c := NewConditioner(Profile{
		NoiseX: 50, NoiseY: -50, NoiseZ: 50,
		Sensitivity: 1,
	})

	cases := []struct {
		name string
		in   gyro.RawSample
		want Vec3
	}{
		{"below threshold vanishes", gyro.RawSample{X: 49, Y: -49, Z: 1}, Vec3{}},
		{"at threshold passes", gyro.RawSample{X: 50, Y: -50, Z: 50}, Vec3{X: 50, Y: -50, Z: 50}},
		{"above threshold passes", gyro.RawSample{X: 200, Y: -200, Z: 60}, Vec3{X: 200, Y: -200, Z: 60}},
		{"axes gated independently", gyro.RawSample{X: 10, Y: 80, Z: -10}, Vec3{Y: 80}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Condition(tc.in); got != tc.want {
				t.Errorf("Condition(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestConditionNegativeThresholdUsesMagnitude(t *testing.T) {
	// NoiseY is negative (signed running max under a negative bias);
	// the gate compares magnitudes.
	c := NewConditioner(Profile{NoiseY: -30, Sensitivity: 1})

	if got := c.Condition(gyro.RawSample{Y: 29}); got.Y != 0 {
		t.Errorf("29 should be gated by |-30|, got %v", got.Y)
	}
	if got := c.Condition(gyro.RawSample{Y: -31}); got.Y != -31 {
		t.Errorf("-31 should pass, got %v", got.Y)
	}
}

func TestConditionNoInt16Overflow(t *testing.T) {
	// Raw at the negative rail minus a positive bias would wrap in
	// 16-bit arithmetic; the conditioner must not.
	c := NewConditioner(Profile{BiasX: 100, Sensitivity: 1})

	got := c.Condition(gyro.RawSample{X: math.MinInt16})
	if got.X != float64(math.MinInt16)-100 {
		t.Errorf("got %v, want %v", got.X, float64(math.MinInt16)-100)
	}
}
