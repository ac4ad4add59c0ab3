// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/gesture_sentry/internal/gyro"
)

type mockSource struct {
	start    time.Time
	interval time.Duration
}

// NewMockSource creates a mock gyro source that synthesizes a smooth
// wrist-twist motion, paced at the given interval to stand in for the
// sensor's data-ready signal.
func NewMockSource(interval time.Duration) gyro.Source {
	return &mockSource{start: time.Now(), interval: interval}
}

func (m *mockSource) Next() (gyro.RawSample, error) {
	time.Sleep(m.interval)
	elapsed := time.Since(m.start).Seconds()

	return gyro.RawSample{
		X: int16(4000 * math.Sin(2*math.Pi*elapsed)),
		Y: int16(2500 * math.Cos(2*math.Pi*0.7*elapsed)),
		Z: int16(1500 * math.Sin(2*math.Pi*0.4*elapsed)),
	}, nil
}
