package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marisim/simhost/internal/config"
	"github.com/marisim/simhost/internal/core/event"
	coresys "github.com/marisim/simhost/internal/core/system"
	"github.com/marisim/simhost/internal/mesh"
	"github.com/marisim/simhost/internal/persist"
	"github.com/marisim/simhost/internal/scene"
	"github.com/marisim/simhost/internal/scripting"
	"github.com/marisim/simhost/internal/system"
	"github.com/marisim/simhost/internal/transport"
	"github.com/marisim/simhost/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/simhost.toml"
	if p := os.Getenv("SIMHOST_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Simulation.Scene)

	// 3. Load and spawn the scene
	printSection("scene")
	sc, err := scene.Load(cfg.Simulation.Scene)
	if err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	ecm := world.NewECM()
	spawned := scene.Spawn(ecm, sc)
	printStat("models", len(spawned.Models))
	for _, st := range ecm.Entities().Registry().Stats() {
		if st.Count > 0 {
			log.Debug("components spawned", zap.String("store", st.Name), zap.Int("count", st.Count))
		}
	}
	printStat("links", ecm.Links.Len())
	printStat("collisions", ecm.Collisions.Len())
	printStat("entities", ecm.Entities().Pool().Count())
	fmt.Println()

	// 4. Clock control and transport
	printSection("transport")
	runner := coresys.NewRunner(cfg.Simulation.StepSize)
	runner.SetPaused(cfg.Simulation.StartPaused)
	bus := event.NewBus()
	ctl := system.NewController(64)
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewControlSystem(ctl, runner, bus, 16, log.Named("control")))
	subscribeLifecycle(bus, log.Named("sim"))

	node := transport.NewNode(cfg.Transport.QueueSize, log.Named("transport"))
	defer node.Close()
	var gateway *transport.Gateway
	if cfg.Transport.Gateway {
		gateway = transport.NewGateway(node, log.Named("gateway"))
		gateway.OnControl(func(op string, seek time.Duration) error {
			cop, err := system.ParseControlOp(op)
			if err != nil {
				return err
			}
			return ctl.Submit(system.ControlRequest{Op: cop, SeekTo: seek})
		})
		if err := gateway.Listen(cfg.Transport.BindAddress); err != nil {
			return err
		}
		printOK(fmt.Sprintf("websocket gateway on ws://%s/ws", gateway.Addr()))
	} else {
		printSkip("websocket gateway disabled")
	}
	fmt.Println()

	// 5. Systems
	printSection("systems")
	meshes := mesh.NewManager(log.Named("mesh"))

	for _, b := range cfg.Buoyancy {
		model, ok := spawned.Models[b.Model]
		if !ok {
			log.Error("buoyancy model not in scene", zap.String("model", b.Model))
			continue
		}
		sys := system.NewBuoyancySystem(b.FluidDensity, meshes, log.Named("buoyancy"))
		system.Attach(runner, ecm, model, sys)
		printOK(fmt.Sprintf("buoyancy → %s (ρ=%g)", b.Model, b.FluidDensity))
	}
	if n := meshes.Cached(); n > 0 {
		printStat("meshes", n)
	}
	for _, v := range cfg.VelocityControl {
		model, ok := spawned.Models[v.Model]
		if !ok {
			log.Error("velocity control model not in scene", zap.String("model", v.Model))
			continue
		}
		sys := system.NewVelocityControlSystem(node, v.Topic, v.LinkNames, log.Named("velocity"))
		system.Attach(runner, ecm, model, sys)
		defer sys.Close()
		printOK(fmt.Sprintf("velocity control → %s (%s)", v.Model, sys.Topic()))
	}

	if cfg.Scripting.Enabled {
		luaEngine, err := scripting.NewEngine(cfg.Scripting.Dir, node, log.Named("lua"))
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer luaEngine.Close()
		runner.Register(system.NewScriptSystem(luaEngine, log.Named("lua")))
		printOK("lua scripts loaded")
	}

	if cfg.Telemetry.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		db, err := persist.NewDB(ctx, cfg.Telemetry, log.Named("db"))
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		version, err := db.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		repo := persist.NewTelemetryRepo(db)
		runID, err := repo.StartRun(ctx, cfg.Simulation.Scene, cfg.Simulation.StepSize)
		if err != nil {
			return err
		}
		tel := system.NewTelemetrySystem(ecm, repo, cfg.Telemetry.FlushEvery, log.Named("telemetry"))
		runner.Register(tel)
		defer func() {
			fctx, fcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer fcancel()
			if err := tel.Flush(fctx); err != nil {
				log.Error("final telemetry flush failed", zap.Error(err))
			}
		}()
		printOK(fmt.Sprintf("telemetry run %d (schema v%d)", runID, version))
	} else {
		printSkip("telemetry disabled")
	}

	runner.Register(system.NewCleanupSystem(ecm, bus, log))
	fmt.Println()

	// 6. Fixed-step loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	pauseCh := make(chan os.Signal, 1)
	signal.Notify(pauseCh, syscall.SIGUSR1)

	var tick <-chan time.Time
	if rtf := cfg.Simulation.RealTimeFactor; rtf > 0 {
		ticker := time.NewTicker(time.Duration(float64(cfg.Simulation.StepSize) / rtf))
		defer ticker.Stop()
		tick = ticker.C
	}

	printSection("running")
	printReady(fmt.Sprintf("step %s, real time factor %g", cfg.Simulation.StepSize, cfg.Simulation.RealTimeFactor))
	if runner.Paused() {
		printReady("paused (SIGUSR1 to resume)")
	}
	fmt.Println()

	for {
		if limit := cfg.Simulation.Iterations; limit > 0 && runner.Iterations() >= limit {
			log.Info("iteration limit reached", zap.Uint64("iterations", limit))
			return shutdown(gateway, log)
		}
		select {
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return shutdown(gateway, log)
		case <-pauseCh:
			if err := ctl.Submit(system.ControlRequest{Op: system.ControlToggle}); err != nil {
				log.Warn("pause toggle dropped", zap.Error(err))
			}
		default:
		}
		if tick != nil {
			select {
			case <-tick:
			case sig := <-shutdownCh:
				log.Info("shutdown signal received", zap.String("signal", sig.String()))
				return shutdown(gateway, log)
			}
		}
		runner.Step()
	}
}

func subscribeLifecycle(bus *event.Bus, log *zap.Logger) {
	event.Subscribe(bus, func(e event.SimPaused) {
		log.Info("simulation paused", zap.Uint64("iteration", e.Iteration), zap.Duration("sim_time", e.SimTime))
	})
	event.Subscribe(bus, func(e event.SimResumed) {
		log.Info("simulation resumed", zap.Uint64("iteration", e.Iteration), zap.Duration("sim_time", e.SimTime))
	})
	event.Subscribe(bus, func(e event.TimeJumped) {
		if e.To < e.From {
			log.Warn("sim time moved backwards", zap.Duration("from", e.From), zap.Duration("to", e.To))
		}
	})
	event.Subscribe(bus, func(e event.EntitiesDestroyed) {
		log.Debug("entities destroyed", zap.Int("count", e.Count))
	})
}

func shutdown(gateway *transport.Gateway, log *zap.Logger) error {
	if gateway != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := gateway.Shutdown(ctx); err != nil {
			log.Warn("gateway shutdown", zap.Error(err))
		}
	}
	log.Info("simhost stopped")
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
