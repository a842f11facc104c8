package system

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	coresys "github.com/marisim/simhost/internal/core/system"
	"github.com/marisim/simhost/internal/mathx"
	"github.com/marisim/simhost/internal/scripting"
	"github.com/marisim/simhost/internal/transport"
	"go.uber.org/zap"
)

const driveScript = `
function on_tick(t, i)
  publish("/model/rover/cmd_vel", {linear = {x = i}})
end
`

func TestScriptDrivesVelocityRouter(t *testing.T) {
	f := newFixture(earth())
	model := f.model("rover", mathx.Identity())
	node := transport.NewNode(8, zap.NewNop())
	defer node.Close()

	lua, err := scripting.NewEngineFromString(driveScript, node, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer lua.Close()

	r := coresys.NewRunner(time.Millisecond)
	router := NewVelocityControlSystem(node, "", nil, zap.NewNop())
	Attach(r, f.ecm, model, router)
	r.Register(NewScriptSystem(lua, zap.NewNop()))

	// Delivery is asynchronous, so the command published by this tick is
	// only guaranteed to be staged by the next PreUpdate.
	r.Step()
	node.Sync()
	router.PreUpdate(tick(), f.ecm)

	if lin, _ := linearCmd(f, model); lin != (mgl64.Vec3{1, 0, 0}) {
		t.Errorf("expected scripted command (1,0,0), got %v", lin)
	}
}

func TestScriptSystemSkipsPausedAndLogsErrors(t *testing.T) {
	log, logs := observedLogger(zap.ErrorLevel)
	lua, err := scripting.NewEngineFromString(`function on_tick() error("boom") end`, nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer lua.Close()

	s := NewScriptSystem(lua, log)
	s.Update(coresys.UpdateInfo{Paused: true})
	if logs.Len() != 0 {
		t.Fatal("expected paused tick to skip the script")
	}
	s.Update(coresys.UpdateInfo{Iterations: 1})
	if logs.FilterMessage("lua on_tick error").Len() != 1 {
		t.Error("expected script error to be logged")
	}
}
