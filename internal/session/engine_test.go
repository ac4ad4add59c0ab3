package session

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/relabs-tech/gesture_sentry/internal/gyro"
)

// fakeSource serves zeros for the calibration phase of each session
// and then deterministic per-index samples, so two sessions replay the
// same movement when reset between them.
type fakeSource struct {
	mu     sync.Mutex
	calls  int
	calLen int
	sample func(k int) gyro.RawSample
}

func (f *fakeSource) Next() (gyro.RawSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.calls
	f.calls++
	if k < f.calLen || f.sample == nil {
		return gyro.RawSample{}, nil
	}
	return f.sample(k - f.calLen), nil
}

func (f *fakeSource) reset() {
	f.mu.Lock()
	f.calls = 0
	f.mu.Unlock()
}

func (f *fakeSource) setSample(fn func(k int) gyro.RawSample) {
	f.mu.Lock()
	f.sample = fn
	f.mu.Unlock()
}

func rampGesture(k int) gyro.RawSample {
	return gyro.RawSample{
		X: int16(1000 + 40*k),
		Y: int16(-800 - 30*k),
		Z: int16(500 + 25*k),
	}
}

func testOptions() Options {
	return Options{
		CalibrationSamples:   8,
		CountdownSeconds:     0,
		RecordDuration:       60 * time.Millisecond,
		SampleInterval:       time.Millisecond,
		Sensitivity:          0.0175,
		FilterWindow:         5,
		TrimEpsilon:          1e-5,
		CorrelationThreshold: 0.8,
	}
}

func startEngine(t *testing.T, src gyro.Source, opts Options) (*Engine, chan Outcome) {
	t.Helper()
	e := New(src, opts)
	outcomes := make(chan Outcome, 8)
	e.OnOutcome = func(o Outcome) { outcomes <- o }

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go e.Run(ctx)
	return e, outcomes
}

func nextOutcome(t *testing.T, outcomes chan Outcome) Outcome {
	t.Helper()
	select {
	case o := <-outcomes:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for outcome")
		return Outcome{}
	}
}

func TestEngineRecordThenUnlock(t *testing.T) {
	src := &fakeSource{calLen: 8, sample: rampGesture}
	e, outcomes := startEngine(t, src, testOptions())

	e.Post(TriggerRecord)
	o := nextOutcome(t, outcomes)
	if o.Kind != OutcomeKeySaved {
		t.Fatalf("record outcome = %s (err %v), want key_saved", o.Kind, o.Err)
	}
	if !o.KeyPresent || !e.HasKey() {
		t.Fatal("key not present after save")
	}

	src.reset()
	e.Post(TriggerUnlock)
	o = nextOutcome(t, outcomes)
	if o.Kind != OutcomeUnlocked {
		t.Fatalf("unlock outcome = %s (err %v), want unlocked", o.Kind, o.Err)
	}
	if o.Correlation == nil {
		t.Fatal("unlocked outcome carries no correlation")
	}
	for axis, v := range map[string]float64{"x": o.Correlation.X, "y": o.Correlation.Y, "z": o.Correlation.Z} {
		if math.Abs(v-1) > 1e-9 {
			t.Errorf("axis %s correlation %v, want 1 for an identical replay", axis, v)
		}
	}
}

func TestEngineUnlockWithoutKey(t *testing.T) {
	src := &fakeSource{calLen: 8, sample: rampGesture}
	e := New(src, testOptions())

	var mu sync.Mutex
	seen := map[State]bool{}
	e.OnState = func(s State, _ string) {
		mu.Lock()
		seen[s] = true
		mu.Unlock()
	}
	outcomes := make(chan Outcome, 1)
	e.OnOutcome = func(o Outcome) { outcomes <- o }

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go e.Run(ctx)

	e.Post(TriggerUnlock)
	o := nextOutcome(t, outcomes)
	if o.Kind != OutcomeNoKey {
		t.Fatalf("outcome = %s, want no_key", o.Kind)
	}
	if o.KeyPresent {
		t.Error("KeyPresent true with no stored key")
	}

	// The attempt is recorded in full before the key check; the user
	// goes through calibration and recording even without a key.
	mu.Lock()
	defer mu.Unlock()
	for _, s := range []State{StateCalibrating, StateRecording, StateTrimming, StateComparing} {
		if !seen[s] {
			t.Errorf("state %s never entered on a keyless unlock", s)
		}
	}
}

func TestEngineErase(t *testing.T) {
	src := &fakeSource{calLen: 8, sample: rampGesture}
	e, outcomes := startEngine(t, src, testOptions())

	e.Post(TriggerRecord)
	if o := nextOutcome(t, outcomes); o.Kind != OutcomeKeySaved {
		t.Fatalf("record outcome = %s, want key_saved", o.Kind)
	}

	e.Post(TriggerErase)
	o := nextOutcome(t, outcomes)
	if o.Kind != OutcomeKeyErased || o.KeyPresent {
		t.Fatalf("erase outcome = %s key_present=%v", o.Kind, o.KeyPresent)
	}

	e.Post(TriggerUnlock)
	if o := nextOutcome(t, outcomes); o.Kind != OutcomeNoKey {
		t.Fatalf("unlock after erase = %s, want no_key", o.Kind)
	}
}

func TestEngineRejectsEmptyGesture(t *testing.T) {
	// Source that never moves: everything trims away.
	src := &fakeSource{calLen: 8}
	e, outcomes := startEngine(t, src, testOptions())

	e.Post(TriggerRecord)
	o := nextOutcome(t, outcomes)
	if o.Kind != OutcomeSaveRejected {
		t.Fatalf("outcome = %s, want save_rejected", o.Kind)
	}
	if e.HasKey() {
		t.Error("key stored despite rejected save")
	}
}

func TestEngineUnlockFailsOnMirroredGesture(t *testing.T) {
	src := &fakeSource{calLen: 8, sample: rampGesture}
	e, outcomes := startEngine(t, src, testOptions())

	e.Post(TriggerRecord)
	if o := nextOutcome(t, outcomes); o.Kind != OutcomeKeySaved {
		t.Fatalf("record outcome = %s, want key_saved", o.Kind)
	}

	src.setSample(func(k int) gyro.RawSample {
		v := rampGesture(k)
		return gyro.RawSample{X: -v.X, Y: -v.Y, Z: -v.Z}
	})
	src.reset()

	e.Post(TriggerUnlock)
	o := nextOutcome(t, outcomes)
	if o.Kind != OutcomeUnlockFailed {
		t.Fatalf("outcome = %s, want unlock_failed", o.Kind)
	}
	if o.Correlation == nil {
		t.Fatal("failed unlock carries no correlation")
	}
	if o.Correlation.X > 0 || o.Correlation.Y > 0 || o.Correlation.Z > 0 {
		t.Errorf("mirrored gesture should anticorrelate, got %+v", *o.Correlation)
	}
	if !e.HasKey() {
		t.Error("failed unlock must not erase the key")
	}
}

func TestEngineCountdownBeforeRecording(t *testing.T) {
	src := &fakeSource{calLen: 8, sample: rampGesture}
	opts := testOptions()
	opts.CountdownSeconds = 1
	e := New(src, opts)

	var mu sync.Mutex
	var states []State
	e.OnState = func(s State, _ string) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}
	outcomes := make(chan Outcome, 1)
	e.OnOutcome = func(o Outcome) { outcomes <- o }

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go e.Run(ctx)

	e.Post(TriggerRecord)
	if o := nextOutcome(t, outcomes); o.Kind != OutcomeKeySaved {
		t.Fatalf("record outcome = %s (err %v), want key_saved", o.Kind, o.Err)
	}

	// Countdown sits strictly between calibration and recording.
	mu.Lock()
	defer mu.Unlock()
	countdownAt, recordingAt := -1, -1
	for i, s := range states {
		if s == StateCountdown && countdownAt == -1 {
			countdownAt = i
		}
		if s == StateRecording && recordingAt == -1 {
			recordingAt = i
		}
	}
	if countdownAt == -1 {
		t.Fatalf("countdown state never entered, states %v", states)
	}
	if recordingAt == -1 || recordingAt < countdownAt {
		t.Errorf("recording must follow the countdown, states %v", states)
	}
}

func TestEngineCountdownCancel(t *testing.T) {
	src := &fakeSource{calLen: 8, sample: rampGesture}
	opts := testOptions()
	opts.CountdownSeconds = 60
	e := New(src, opts)

	outcomes := make(chan Outcome, 1)
	e.OnOutcome = func(o Outcome) { outcomes <- o }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	e.Post(TriggerRecord)
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return while waiting out the countdown")
	}
	if e.HasKey() {
		t.Error("cancelled recording must not store a key")
	}
}

func TestEngineStateProgression(t *testing.T) {
	src := &fakeSource{calLen: 8, sample: rampGesture}
	e := New(src, testOptions())

	var mu sync.Mutex
	var states []State
	e.OnState = func(s State, _ string) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}
	outcomes := make(chan Outcome, 1)
	e.OnOutcome = func(o Outcome) { outcomes <- o }

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go e.Run(ctx)

	e.Post(TriggerRecord)
	nextOutcome(t, outcomes)

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateCalibrating, StateRecording, StateTrimming, StateSavingKey}
	i := 0
	for _, s := range states {
		if i < len(want) && s == want[i] {
			i++
		}
	}
	if i != len(want) {
		t.Errorf("states %v missing expected progression %v", states, want)
	}
}
