package gesture

// MovingAverage is an exact O(1)-per-sample moving average over a
// fixed window, backed by an owned ring buffer. The running sum is
// adjusted incrementally as elements are replaced, never recomputed,
// so it always equals the sum of the window's contents.
type MovingAverage struct {
	window []float64
	next   int
	sum    float64
}

// NewMovingAverage creates a filter over a zero-initialized window.
func NewMovingAverage(size int) *MovingAverage {
	if size < 1 {
		size = 1
	}
	return &MovingAverage{window: make([]float64, size)}
}

// Push replaces the oldest element with v and returns the window mean.
func (f *MovingAverage) Push(v float64) float64 {
	f.sum -= f.window[f.next]
	f.window[f.next] = v
	f.sum += v
	f.next = (f.next + 1) % len(f.window)
	return f.sum / float64(len(f.window))
}

// Reset zeroes the window, position and running sum.
func (f *MovingAverage) Reset() {
	for i := range f.window {
		f.window[i] = 0
	}
	f.next = 0
	f.sum = 0
}
