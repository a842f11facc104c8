package system

import (
	"errors"
	"testing"
	"time"

	"github.com/marisim/simhost/internal/core/event"
	coresys "github.com/marisim/simhost/internal/core/system"
	"github.com/marisim/simhost/internal/mathx"
	"github.com/marisim/simhost/internal/transport"
	"go.uber.org/zap"
)

func controlFixture(t *testing.T) (*coresys.Runner, *Controller, *event.Bus) {
	t.Helper()
	r := coresys.NewRunner(time.Millisecond)
	bus := event.NewBus()
	ctl := NewController(4)
	r.Register(NewEventDispatchSystem(bus))
	r.Register(NewControlSystem(ctl, r, bus, 8, zap.NewNop()))
	return r, ctl, bus
}

func TestControlPauseAndResume(t *testing.T) {
	r, ctl, bus := controlFixture(t)
	var paused, resumed int
	event.Subscribe(bus, func(event.SimPaused) { paused++ })
	event.Subscribe(bus, func(event.SimResumed) { resumed++ })

	if err := ctl.Submit(ControlRequest{Op: ControlPause}); err != nil {
		t.Fatal(err)
	}
	if info := r.Step(); info.Paused {
		t.Error("pause should apply from the next step")
	}
	info := r.Step()
	if !info.Paused || info.Iterations != 1 {
		t.Errorf("Expected paused step at iteration 1, got %+v", info)
	}
	if paused != 1 {
		t.Errorf("Expected 1 SimPaused event, got %d", paused)
	}

	// Redundant requests emit nothing.
	_ = ctl.Submit(ControlRequest{Op: ControlPause})
	_ = ctl.Submit(ControlRequest{Op: ControlToggle})
	r.Step()
	r.Step()
	if r.Paused() || resumed != 1 || paused != 1 {
		t.Errorf("unexpected state paused=%v events=%d/%d", r.Paused(), paused, resumed)
	}
}

func TestControlSeekBackWarnsVelocityRouter(t *testing.T) {
	r, ctl, bus := controlFixture(t)
	var jumps []event.TimeJumped
	event.Subscribe(bus, func(e event.TimeJumped) { jumps = append(jumps, e) })

	log, logs := observedLogger(zap.WarnLevel)
	f := newFixture(earth())
	model := f.model("rover", mathx.Identity())
	node := transport.NewNode(4, zap.NewNop())
	defer node.Close()
	router := NewVelocityControlSystem(node, "", nil, log)
	Attach(r, f.ecm, model, router)

	for i := 0; i < 5; i++ {
		r.Step()
	}
	_ = ctl.Submit(ControlRequest{Op: ControlSeek, SeekTo: time.Millisecond})
	r.Step()
	info := r.Step()

	if info.Dt >= 0 || r.SimTime() != time.Millisecond {
		t.Errorf("Expected negative dt landing at 1ms, got dt=%v t=%v", info.Dt, r.SimTime())
	}
	if logs.FilterMessage("detected jump back in time, system may not work properly").Len() != 1 {
		t.Error("expected the router to warn about the time jump")
	}
	r.Step()
	if len(jumps) != 1 || jumps[0].To != time.Millisecond {
		t.Errorf("unexpected jump events %+v", jumps)
	}
}

func TestControllerSubmitNeverBlocks(t *testing.T) {
	ctl := NewController(1)
	if err := ctl.Submit(ControlRequest{Op: ControlPause}); err != nil {
		t.Fatal(err)
	}
	if err := ctl.Submit(ControlRequest{Op: ControlPause}); !errors.Is(err, ErrControlBusy) {
		t.Errorf("Expected ErrControlBusy, got %v", err)
	}
}

func TestParseControlOp(t *testing.T) {
	tests := map[string]ControlOp{
		"pause": ControlPause, "resume": ControlResume,
		"toggle": ControlToggle, "seek": ControlSeek,
	}
	for s, want := range tests {
		got, err := ParseControlOp(s)
		if err != nil || got != want {
			t.Errorf("%s: expected %v, got %v (%v)", s, want, got, err)
		}
	}
	if _, err := ParseControlOp("rewind"); err == nil {
		t.Error("expected error for unknown op")
	}
}
