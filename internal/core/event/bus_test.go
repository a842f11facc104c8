package event

import (
	"testing"
	"time"
)

func TestEventsDeliveredAfterSwap(t *testing.T) {
	b := NewBus()
	var paused []SimPaused
	var jumps []TimeJumped
	Subscribe(b, func(e SimPaused) { paused = append(paused, e) })
	Subscribe(b, func(e TimeJumped) { jumps = append(jumps, e) })

	Emit(b, SimPaused{Iteration: 3})
	Emit(b, TimeJumped{From: time.Second, To: 0})
	if b.Pending() != 2 {
		t.Errorf("Expected 2 pending events, got %d", b.Pending())
	}

	// Nothing is visible until the buffers rotate.
	if n := b.DispatchAll(); n != 0 || len(paused) != 0 {
		t.Fatalf("Expected no dispatch before swap, got %d", n)
	}

	b.SwapBuffers()
	if n := b.DispatchAll(); n != 2 {
		t.Errorf("Expected 2 events dispatched, got %d", n)
	}
	if len(paused) != 1 || paused[0].Iteration != 3 {
		t.Errorf("unexpected paused events %+v", paused)
	}
	if len(jumps) != 1 || jumps[0].To != 0 {
		t.Errorf("unexpected jump events %+v", jumps)
	}

	// A second dispatch of the same tick delivers nothing new.
	if n := b.DispatchAll(); n != 0 {
		t.Errorf("Expected front buffer drained, got %d", n)
	}
}

func TestEventsWithoutHandlersAreDropped(t *testing.T) {
	b := NewBus()
	Emit(b, EntitiesDestroyed{Count: 2})
	b.SwapBuffers()
	if n := b.DispatchAll(); n != 1 {
		t.Errorf("Expected 1 event counted, got %d", n)
	}
	b.SwapBuffers()
	if b.Pending() != 0 {
		t.Errorf("Expected empty buffers, got %d", b.Pending())
	}
}
