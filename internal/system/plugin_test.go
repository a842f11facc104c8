package system

import (
	"testing"
	"time"

	"github.com/marisim/simhost/internal/core/ecs"
	coresys "github.com/marisim/simhost/internal/core/system"
	"github.com/marisim/simhost/internal/mathx"
	"github.com/marisim/simhost/internal/world"
	"go.uber.org/zap"
)

type recordingPlugin struct {
	calls      *[]string
	configured ecs.EntityID
}

func (p *recordingPlugin) Configure(entity ecs.EntityID, _ *world.ECM) {
	p.configured = entity
	*p.calls = append(*p.calls, "configure")
}

func (p *recordingPlugin) PreUpdate(coresys.UpdateInfo, *world.ECM) {
	*p.calls = append(*p.calls, "pre")
}

func (p *recordingPlugin) PostUpdate(coresys.UpdateInfo, *world.ECM) {
	*p.calls = append(*p.calls, "post")
}

type physicsStub struct{ calls *[]string }

func (s physicsStub) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s physicsStub) Update(coresys.UpdateInfo) { *s.calls = append(*s.calls, "physics") }

func TestAttachRunsHooksAroundPhysics(t *testing.T) {
	f := newFixture(earth())
	model := f.model("m", mathx.Identity())
	var calls []string

	r := coresys.NewRunner(time.Millisecond)
	r.Register(physicsStub{calls: &calls})
	p := &recordingPlugin{calls: &calls}
	Attach(r, f.ecm, model, p)
	r.Step()

	want := []string{"configure", "pre", "physics", "post"}
	if len(calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], calls[i])
		}
	}
	if p.configured != model {
		t.Errorf("expected plugin configured on %v, got %v", model, p.configured)
	}
}

func TestCleanupSystemFlushesDestroyQueue(t *testing.T) {
	f := newFixture(earth())
	model := f.model("m", mathx.Identity())
	link := f.link(model, "l", mathx.Identity(), identity())

	f.ecm.Entities().MarkForDestruction(model)
	NewCleanupSystem(f.ecm, nil, zap.NewNop()).Update(coresys.UpdateInfo{})

	if f.ecm.Alive(model) || f.ecm.Alive(link) {
		t.Error("expected model and its link to be destroyed")
	}
	if f.ecm.Poses.Has(link) {
		t.Error("expected link components to be removed")
	}
}
