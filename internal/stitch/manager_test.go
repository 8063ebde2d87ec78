package stitch

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestManagerSingleSession(t *testing.T) {
	m := NewManager(testConfig())
	ctx := context.Background()

	sess, err := m.StartSession(ctx, AxisVertical)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if m.Active() != sess {
		t.Error("Active should return the started session")
	}
	if _, err := m.StartSession(ctx, AxisVertical); !errors.Is(err, ErrSessionActive) {
		t.Errorf("second start should fail with ErrSessionActive, got %v", err)
	}

	if err := m.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := sess.Wait(ctx); !errors.Is(err, ErrAborted) {
		t.Fatalf("wait after cancel: %v", err)
	}

	// relay clears the active slot once the terminal event lands.
	deadline := time.After(2 * time.Second)
	for m.Active() != nil {
		select {
		case <-deadline:
			t.Fatal("active session never cleared")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if _, err := m.StartSession(ctx, AxisHorizontal); err != nil {
		t.Errorf("start after terminal session: %v", err)
	}
	_ = m.Cancel()
}

func TestManagerStopWithoutSession(t *testing.T) {
	m := NewManager(testConfig())
	if err := m.Stop(); !errors.Is(err, ErrNoSession) {
		t.Errorf("stop without session should fail with ErrNoSession, got %v", err)
	}
	if err := m.Cancel(); !errors.Is(err, ErrNoSession) {
		t.Errorf("cancel without session should fail with ErrNoSession, got %v", err)
	}
}

func TestManagerFinalizedSurvivesBackloggedStream(t *testing.T) {
	m := NewManager(testConfig())
	ctx := context.Background()

	sess, err := m.StartSession(ctx, AxisVertical)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	// Enough accepted frames to overflow the shared stream, with nobody
	// reading it. Feedback events may drop; the terminal one must not.
	for i := 0; i < 80; i++ {
		if err := sess.Submit(scrollFrame(t, 16, 100, i*30, uint64(i+1))); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, err := sess.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-m.Events():
			if ev.Type != EventFinalized {
				continue
			}
			if ev.Composite == nil {
				t.Error("finalized event should carry the composite")
			}
			if ev.Length != 2470 {
				t.Errorf("finalized length should be 2470, got %d", ev.Length)
			}
			if m.Composite() == nil {
				t.Error("Composite() should be latched by finalization")
			}
			return
		case <-deadline:
			t.Fatal("finalized event never reached the stream")
		}
	}
}

func TestManagerRelaysEvents(t *testing.T) {
	m := NewManager(testConfig())
	ctx := context.Background()

	sess, err := m.StartSession(ctx, AxisVertical)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := sess.Submit(scrollFrame(t, 16, 100, 0, 1)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, err := sess.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	deadline := time.After(2 * time.Second)
	sawFinalized := false
	for !sawFinalized {
		select {
		case ev := <-m.Events():
			if ev.Type == EventFinalized {
				sawFinalized = true
			}
		case <-deadline:
			t.Fatal("finalized event never relayed")
		}
	}

	// Snapshot converges on the terminal state.
	deadline = time.After(2 * time.Second)
	for m.Snapshot().State != StateDone {
		select {
		case <-deadline:
			t.Fatalf("snapshot state stuck at %s", m.Snapshot().State)
		case <-time.After(10 * time.Millisecond):
		}
	}
	if got := m.Snapshot().Length; got != 100 {
		t.Errorf("snapshot length should be 100, got %d", got)
	}
}
