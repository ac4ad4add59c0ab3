package gesture

import (
	"math"
	"testing"
)

func TestNormalizeUnitMagnitude(t *testing.T) {
	seq := Sequence{
		{X: 3, Y: 4, Z: 0},
		{X: -1, Y: 2, Z: 2},
		{X: 0.001, Y: 0, Z: 0},
	}
	Normalize(seq)

	for i, v := range seq {
		mag := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
		if math.Abs(mag-1) > 1e-12 {
			t.Errorf("sample %d: magnitude %v, want 1", i, mag)
		}
	}
}

func TestNormalizePreservesDirection(t *testing.T) {
	seq := Sequence{{X: 3, Y: 4, Z: 0}}
	Normalize(seq)

	want := Vec3{X: 0.6, Y: 0.8, Z: 0}
	got := seq[0]
	if math.Abs(got.X-want.X) > 1e-12 || math.Abs(got.Y-want.Y) > 1e-12 || got.Z != 0 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalizeZeroVectorUnchanged(t *testing.T) {
	seq := Sequence{{}, {X: 1, Y: 1, Z: 1}, {}}
	Normalize(seq)

	if seq[0] != (Vec3{}) || seq[2] != (Vec3{}) {
		t.Errorf("zero vectors mutated: %v", seq)
	}
}
