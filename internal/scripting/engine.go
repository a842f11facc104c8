package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/marisim/simhost/internal/transport"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Publisher is the bus surface scripts can reach.
type Publisher interface {
	Publish(topic string, msg any) (int, error)
}

// Engine wraps a single gopher-lua VM that drives command topics from
// scripts. Single-goroutine access only (tick loop).
//
// Scripts see two globals:
//
//	publish(topic, {linear={x=..,y=..,z=..}, angular={...}})
//	log(message)
//
// and may define on_tick(sim_time_seconds, iteration), called every
// unpaused tick.
type Engine struct {
	vm  *lua.LState
	pub Publisher
	log *zap.Logger
}

func newEngine(pub Publisher, log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	e := &Engine{vm: vm, pub: pub, log: log}
	vm.SetGlobal("publish", vm.NewFunction(e.luaPublish))
	vm.SetGlobal("log", vm.NewFunction(e.luaLog))
	return e
}

// NewEngine creates a Lua engine and loads every .lua file in scriptsDir in
// name order. A missing directory yields an engine with no scripts.
func NewEngine(scriptsDir string, pub Publisher, log *zap.Logger) (*Engine, error) {
	e := newEngine(pub, log)
	if err := e.loadDir(scriptsDir); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// NewEngineFromString loads a single in-memory chunk.
func NewEngineFromString(src string, pub Publisher, log *zap.Logger) (*Engine, error) {
	e := newEngine(pub, log)
	if err := e.vm.DoString(src); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load script: %w", err)
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// HasTick reports whether any script defined on_tick.
func (e *Engine) HasTick() bool {
	return e.vm.GetGlobal("on_tick") != lua.LNil
}

// Tick calls on_tick. Script errors are returned, not raised.
func (e *Engine) Tick(simSeconds float64, iteration uint64) error {
	fn := e.vm.GetGlobal("on_tick")
	if fn == lua.LNil {
		return nil
	}
	return e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(simSeconds), lua.LNumber(iteration))
}

func (e *Engine) Close() {
	e.vm.Close()
}

func (e *Engine) luaPublish(L *lua.LState) int {
	topic := L.CheckString(1)
	tbl := L.CheckTable(2)
	twist := transport.Twist{
		Linear:  vectorField(tbl, "linear"),
		Angular: vectorField(tbl, "angular"),
	}
	n, err := e.pub.Publish(topic, twist)
	if err != nil {
		L.RaiseError("publish %s: %s", topic, err.Error())
		return 0
	}
	L.Push(lua.LNumber(n))
	return 1
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

// vectorField reads {x=..,y=..,z=..} from tbl[key]; absent entries are 0.
func vectorField(tbl *lua.LTable, key string) transport.Vector3 {
	sub, ok := tbl.RawGetString(key).(*lua.LTable)
	if !ok {
		return transport.Vector3{}
	}
	num := func(k string) float64 {
		if n, ok := sub.RawGetString(k).(lua.LNumber); ok {
			return float64(n)
		}
		return 0
	}
	return transport.Vector3{X: num("x"), Y: num("y"), Z: num("z")}
}
