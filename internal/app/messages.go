package app

import "math"

// StatusMessage is published (retained) on the state topic whenever
// the session engine changes phase.
type StatusMessage struct {
	State      string `json:"state"`
	Message    string `json:"message,omitempty"`
	KeyPresent bool   `json:"key_present"`
}

// ResultMessage is published on the result topic when a session ends.
// Correlation values are omitted when a comparison never happened or
// an axis was degenerate.
type ResultMessage struct {
	Result     string   `json:"result"`
	KeyPresent bool     `json:"key_present"`
	CorrX      *float64 `json:"corr_x,omitempty"`
	CorrY      *float64 `json:"corr_y,omitempty"`
	CorrZ      *float64 `json:"corr_z,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// jsonFloat returns a pointer suitable for omitempty JSON fields. NaN
// and infinities have no JSON encoding and become nil.
func jsonFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
