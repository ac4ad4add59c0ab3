// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package session runs the gesture unlock state machine. An Engine
// owns the gyro source and a single stored key slot; external triggers
// (record, unlock, erase) arrive through Post and are handled one at a
// time. Triggers posted while a session is running are remembered and
// served afterwards, erase first.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/gesture_sentry/internal/gesture"
	"github.com/relabs-tech/gesture_sentry/internal/gyro"
)

// State names the phase the engine is currently in.
type State string

const (
	StateIdle        State = "idle"
	StateCalibrating State = "calibrating"
	StateCountdown   State = "countdown"
	StateRecording   State = "recording"
	StateTrimming    State = "trimming"
	StateSavingKey   State = "saving_key"
	StateComparing   State = "comparing_key"
)

// OutcomeKind classifies how a session ended.
type OutcomeKind string

const (
	OutcomeKeySaved     OutcomeKind = "key_saved"
	OutcomeSaveRejected OutcomeKind = "save_rejected"
	OutcomeUnlocked     OutcomeKind = "unlocked"
	OutcomeUnlockFailed OutcomeKind = "unlock_failed"
	OutcomeNoKey        OutcomeKind = "no_key"
	OutcomeKeyErased    OutcomeKind = "key_erased"
	OutcomeError        OutcomeKind = "error"
)

// Outcome is the terminal report of one trigger handling.
type Outcome struct {
	Kind        OutcomeKind
	Correlation *gesture.CorrelationResult
	KeyPresent  bool
	Err         error
}

// Options hold the tunables of a session. Zero values are not
// defaulted here; callers fill them from configuration.
type Options struct {
	CalibrationSamples   int
	CalibrationInterval  time.Duration
	ThresholdMode        gesture.ThresholdMode
	Sensitivity          float64
	CountdownSeconds     int
	RecordDuration       time.Duration
	SampleInterval       time.Duration
	FilterWindow         int
	TrimEpsilon          float64
	CorrelationThreshold float64
}

// Engine is the gesture unlock state machine. Run drives it; Post
// feeds it. OnState and OnOutcome, when set, are called from the Run
// goroutine and must not block for long.
type Engine struct {
	src      gyro.Source
	opts     Options
	filters  [3]*gesture.MovingAverage
	triggers *mailbox

	keyMu sync.RWMutex
	key   gesture.Sequence

	OnState   func(s State, detail string)
	OnOutcome func(o Outcome)
}

func New(src gyro.Source, opts Options) *Engine {
	e := &Engine{
		src:      src,
		opts:     opts,
		triggers: newMailbox(),
	}
	for i := range e.filters {
		e.filters[i] = gesture.NewMovingAverage(opts.FilterWindow)
	}
	return e
}

// Post requests a session. Safe to call from any goroutine.
func (e *Engine) Post(t Trigger) {
	e.triggers.post(t)
}

// HasKey reports whether a key is currently stored.
func (e *Engine) HasKey() bool {
	e.keyMu.RLock()
	defer e.keyMu.RUnlock()
	return e.key != nil
}

// Run blocks handling triggers until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	for {
		e.setState(StateIdle, "")
		t, ok := e.triggers.wait(ctx)
		if !ok {
			return
		}
		log.Printf("session: handling %s trigger", t)
		switch t {
		case TriggerErase:
			e.handleErase()
		case TriggerRecord:
			e.handleRecord(ctx)
		case TriggerUnlock:
			e.handleUnlock(ctx)
		}
	}
}

func (e *Engine) handleErase() {
	e.keyMu.Lock()
	e.key = nil
	e.keyMu.Unlock()
	e.report(Outcome{Kind: OutcomeKeyErased})
}

func (e *Engine) handleRecord(ctx context.Context) {
	seq, err := e.recordSequence(ctx)
	if err != nil {
		e.report(Outcome{Kind: OutcomeError, Err: err})
		return
	}

	e.setState(StateSavingKey, "")
	if len(seq) == 0 {
		// Nothing survived trimming, keep whatever key was there.
		e.report(Outcome{Kind: OutcomeSaveRejected})
		return
	}

	e.keyMu.Lock()
	e.key = seq
	e.keyMu.Unlock()
	e.report(Outcome{Kind: OutcomeKeySaved})
}

func (e *Engine) handleUnlock(ctx context.Context) {
	// The attempt is always recorded first; whether a key exists is
	// only checked against the finished attempt. A keyless unlock
	// still walks the user through the full recording.
	attempt, err := e.recordSequence(ctx)
	if err != nil {
		e.report(Outcome{Kind: OutcomeError, Err: err})
		return
	}

	e.setState(StateComparing, "")

	e.keyMu.RLock()
	key := e.key
	e.keyMu.RUnlock()
	if key == nil {
		e.report(Outcome{Kind: OutcomeNoKey})
		return
	}
	if len(attempt) == 0 {
		e.report(Outcome{Kind: OutcomeUnlockFailed})
		return
	}

	// Compare on truncated copies so the stored key is never mutated
	// by normalization.
	n := len(key)
	if len(attempt) < n {
		n = len(attempt)
	}
	a := key[:n].Clone()
	b := attempt[:n].Clone()
	gesture.Normalize(a)
	gesture.Normalize(b)

	corr := gesture.CorrelationVectors(a, b)
	if corr.AllAbove(e.opts.CorrelationThreshold) {
		e.report(Outcome{Kind: OutcomeUnlocked, Correlation: &corr})
	} else {
		e.report(Outcome{Kind: OutcomeUnlockFailed, Correlation: &corr})
	}
}

// recordSequence runs calibration, countdown and the timed capture,
// and returns the trimmed movement sequence.
func (e *Engine) recordSequence(ctx context.Context) (gesture.Sequence, error) {
	e.setState(StateCalibrating, "hold still")
	profile, err := gesture.Calibrate(e.src, gesture.CalibrationOptions{
		Samples:  e.opts.CalibrationSamples,
		Interval: e.opts.CalibrationInterval,
		Mode:     e.opts.ThresholdMode,
	})
	if err != nil {
		return nil, fmt.Errorf("calibration: %w", err)
	}
	profile.Sensitivity = e.opts.Sensitivity
	cond := gesture.NewConditioner(profile)

	// Stale filter history from a previous session must not bleed into
	// this recording.
	for _, f := range e.filters {
		f.Reset()
	}

	for i := e.opts.CountdownSeconds; i > 0; i-- {
		e.setState(StateCountdown, fmt.Sprintf("%d", i))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}

	e.setState(StateRecording, "perform gesture")
	var seq gesture.Sequence
	deadline := time.Now().Add(e.opts.RecordDuration)
	for time.Now().Before(deadline) {
		raw, err := e.src.Next()
		if err != nil {
			return nil, fmt.Errorf("gyro read: %w", err)
		}
		v := cond.Condition(raw)
		seq = append(seq, gesture.Vec3{
			X: e.filters[0].Push(v.X),
			Y: e.filters[1].Push(v.Y),
			Z: e.filters[2].Push(v.Z),
		})
		if e.opts.SampleInterval > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.opts.SampleInterval):
			}
		}
	}

	e.setState(StateTrimming, "")
	return gesture.Trim(seq, e.opts.TrimEpsilon), nil
}

func (e *Engine) setState(s State, detail string) {
	if e.OnState != nil {
		e.OnState(s, detail)
	}
}

func (e *Engine) report(o Outcome) {
	o.KeyPresent = e.HasKey()
	if o.Err != nil {
		log.Printf("session: %s: %v", o.Kind, o.Err)
	} else {
		log.Printf("session: outcome %s", o.Kind)
	}
	if e.OnOutcome != nil {
		e.OnOutcome(o)
	}
}
