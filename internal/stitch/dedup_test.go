package stitch

import (
	"testing"

	"github.com/jietuba/longstitch/internal/overlap"
)

func TestEvaluateAccept(t *testing.T) {
	fl := NewFilter(4, DefaultMaxHashDistance)
	prev := scrollFrame(t, 16, 100, 0, 1)
	next := scrollFrame(t, 16, 100, 30, 2)

	dec := fl.Evaluate(overlap.Result{Offset: 30}, true, prev, next, 0)
	if !dec.Accept {
		t.Fatalf("advance of 30 should be accepted, got reason %q", dec.Reason)
	}
	if dec.Dir != 1 {
		t.Errorf("direction should lock forward, got %d", dec.Dir)
	}
	if dec.Slice.Start != 70 || dec.Slice.Rows != 30 {
		t.Errorf("slice should be [70,100), got [%d,%d)", dec.Slice.Start, dec.Slice.Start+dec.Slice.Rows)
	}
}

func TestEvaluateBelowMinMovement(t *testing.T) {
	fl := NewFilter(4, DefaultMaxHashDistance)
	prev := scrollFrame(t, 16, 100, 0, 1)
	next := scrollFrame(t, 16, 100, 2, 2)

	dec := fl.Evaluate(overlap.Result{Offset: 2}, true, prev, next, 0)
	if dec.Accept {
		t.Fatal("advance below the movement floor should be rejected")
	}
	if dec.Reason != ReasonNoMovement {
		t.Errorf("reason should be %q, got %q", ReasonNoMovement, dec.Reason)
	}
	if dec.Dir != 0 {
		t.Errorf("direction should stay unlocked, got %d", dec.Dir)
	}
}

func TestEvaluateDirectionReversal(t *testing.T) {
	fl := NewFilter(4, DefaultMaxHashDistance)
	prev := scrollFrame(t, 16, 100, 50, 1)
	next := scrollFrame(t, 16, 100, 30, 2)

	dec := fl.Evaluate(overlap.Result{Offset: -20}, true, prev, next, 1)
	if dec.Accept {
		t.Fatal("reversal against a forward lock should be rejected")
	}
	if dec.Reason != ReasonDirectionReversal {
		t.Errorf("reason should be %q, got %q", ReasonDirectionReversal, dec.Reason)
	}
	if dec.Dir != 1 {
		t.Errorf("lock should survive the rejection, got %d", dec.Dir)
	}
}

func TestEvaluateReverseLocksDirection(t *testing.T) {
	fl := NewFilter(4, DefaultMaxHashDistance)
	prev := scrollFrame(t, 16, 100, 50, 1)
	next := scrollFrame(t, 16, 100, 30, 2)

	dec := fl.Evaluate(overlap.Result{Offset: -20}, true, prev, next, 0)
	if !dec.Accept {
		t.Fatalf("first movement may be reversed, got reason %q", dec.Reason)
	}
	if dec.Dir != -1 {
		t.Errorf("direction should lock reversed, got %d", dec.Dir)
	}
	if dec.Slice.Start != 0 || dec.Slice.Rows != 20 {
		t.Errorf("reversed slice should be [0,20), got [%d,%d)", dec.Slice.Start, dec.Slice.Start+dec.Slice.Rows)
	}
}

func TestEvaluateShorterFrameNoNewRows(t *testing.T) {
	fl := NewFilter(4, DefaultMaxHashDistance)
	prev := scrollFrame(t, 16, 100, 0, 1)
	next := scrollFrame(t, 16, 60, 30, 2)

	// Advance 30 but the new frame ends at content row 90, inside prev.
	dec := fl.Evaluate(overlap.Result{Offset: 30}, true, prev, next, 1)
	if dec.Accept {
		t.Fatal("a frame fully inside the previous one adds nothing")
	}
	if dec.Reason != ReasonNoMovement {
		t.Errorf("reason should be %q, got %q", ReasonNoMovement, dec.Reason)
	}
}

func TestEvaluateUnmatchedRepeatFallsBack(t *testing.T) {
	fl := NewFilter(4, DefaultMaxHashDistance)
	f := scrollFrame(t, 64, 64, 0, 1)

	// Matcher failure on a byte-identical frame: the perceptual fallback
	// must classify it as a repeat, not an unrelated frame.
	dec := fl.Evaluate(overlap.Result{}, false, f, f, 1)
	if dec.Accept {
		t.Fatal("repeat should not be accepted")
	}
	if dec.Reason != ReasonNoMovement {
		t.Errorf("reason should be %q, got %q", ReasonNoMovement, dec.Reason)
	}
}

func TestEvaluateUnrelatedFrame(t *testing.T) {
	fl := NewFilter(4, DefaultMaxHashDistance)
	prev := stripeFrame(t, 64, 64, false)
	next := stripeFrame(t, 64, 64, true)

	dec := fl.Evaluate(overlap.Result{}, false, prev, next, 1)
	if dec.Accept {
		t.Fatal("unrelated frame should not be accepted")
	}
	if dec.Reason != ReasonUnrelatedFrame {
		t.Errorf("reason should be %q, got %q", ReasonUnrelatedFrame, dec.Reason)
	}
}
