package session

import (
	"context"
	"testing"
	"time"
)

func TestMailboxDrainPriority(t *testing.T) {
	m := newMailbox()
	m.post(TriggerUnlock)
	m.post(TriggerRecord)
	m.post(TriggerErase)

	ctx := context.Background()
	want := []Trigger{TriggerErase, TriggerRecord, TriggerUnlock}
	for _, w := range want {
		got, ok := m.wait(ctx)
		if !ok || got != w {
			t.Fatalf("wait = %v, %v; want %v", got, ok, w)
		}
	}
}

func TestMailboxDuplicatePostsCoalesce(t *testing.T) {
	m := newMailbox()
	m.post(TriggerRecord)
	m.post(TriggerRecord)

	if got, ok := m.wait(context.Background()); !ok || got != TriggerRecord {
		t.Fatalf("first wait = %v, %v", got, ok)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if got, ok := m.wait(ctx); ok {
		t.Fatalf("second wait returned %v, want cancellation", got)
	}
}

func TestMailboxWaitCancel(t *testing.T) {
	m := newMailbox()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := m.wait(ctx)
		done <- ok
	}()

	cancel()
	select {
	case ok := <-done:
		if ok {
			t.Error("wait reported a trigger after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("wait did not return after cancel")
	}
}

func TestMailboxWakesBlockedWaiter(t *testing.T) {
	m := newMailbox()

	got := make(chan Trigger, 1)
	go func() {
		tr, ok := m.wait(context.Background())
		if ok {
			got <- tr
		}
	}()

	time.Sleep(10 * time.Millisecond)
	m.post(TriggerUnlock)

	select {
	case tr := <-got:
		if tr != TriggerUnlock {
			t.Errorf("got %v, want unlock", tr)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter never woke up")
	}
}
