package gesture

import (
	"math"
	"testing"
)

const tolerance = 1e-12

func TestMovingAverageConvergesToConstant(t *testing.T) {
	f := NewMovingAverage(5)

	var out float64
	for i := 0; i < 5; i++ {
		out = f.Push(42.5)
	}
	if math.Abs(out-42.5) > tolerance {
		t.Errorf("after W identical pushes got %v, want 42.5", out)
	}
}

func TestMovingAverageMatchesNaiveWindow(t *testing.T) {
	const w = 5
	f := NewMovingAverage(w)
	in := []float64{1, -2, 3.5, 0, 7, -1.25, 9, 4, -8, 2.5, 0.125, 6}

	// The naive reference averages over a zero-padded window, matching
	// the filter's zero-initialized state.
	padded := make([]float64, w)
	for i, v := range in {
		padded = append(padded, v)
		var sum float64
		for _, p := range padded[len(padded)-w:] {
			sum += p
		}
		want := sum / w

		got := f.Push(v)
		if math.Abs(got-want) > tolerance {
			t.Errorf("push %d (%v): got %v, want %v", i, v, got, want)
		}
	}
}

func TestMovingAverageReset(t *testing.T) {
	f := NewMovingAverage(3)
	f.Push(10)
	f.Push(20)
	f.Reset()

	got := f.Push(3)
	if math.Abs(got-1) > tolerance {
		t.Errorf("after reset, push(3) over window 3 = %v, want 1", got)
	}
}

func TestMovingAverageWraps(t *testing.T) {
	f := NewMovingAverage(2)
	f.Push(1)
	f.Push(2)
	// Third push must displace the first value, not grow the window.
	got := f.Push(3)
	if math.Abs(got-2.5) > tolerance {
		t.Errorf("got %v, want 2.5", got)
	}
}
