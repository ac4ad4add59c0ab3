// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"context"
	"sync"
)

// Trigger identifies one of the three external request kinds. Triggers
// carry no payload beyond their identity.
type Trigger int

const (
	TriggerRecord Trigger = iota
	TriggerUnlock
	TriggerErase
)

func (t Trigger) String() string {
	switch t {
	case TriggerRecord:
		return "record"
	case TriggerUnlock:
		return "unlock"
	case TriggerErase:
		return "erase"
	default:
		return "unknown"
	}
}

// mailbox accumulates triggers while the state machine is busy. Each
// trigger kind is a flag, not a queue entry: posting an already
// pending kind is a no-op and nothing is dropped. Erase drains ahead
// of record, record ahead of unlock.
type mailbox struct {
	mu     sync.Mutex
	erase  bool
	record bool
	unlock bool
	wake   chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{wake: make(chan struct{}, 1)}
}

func (m *mailbox) post(t Trigger) {
	m.mu.Lock()
	switch t {
	case TriggerErase:
		m.erase = true
	case TriggerRecord:
		m.record = true
	case TriggerUnlock:
		m.unlock = true
	}
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// wait blocks until a trigger is pending or ctx is done. The returned
// bool is false only on context cancellation.
func (m *mailbox) wait(ctx context.Context) (Trigger, bool) {
	for {
		m.mu.Lock()
		switch {
		case m.erase:
			m.erase = false
			m.mu.Unlock()
			return TriggerErase, true
		case m.record:
			m.record = false
			m.mu.Unlock()
			return TriggerRecord, true
		case m.unlock:
			m.unlock = false
			m.mu.Unlock()
			return TriggerUnlock, true
		}
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return 0, false
		case <-m.wake:
		}
	}
}
