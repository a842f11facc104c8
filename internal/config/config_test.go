package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/marisim/simhost/internal/component"
)

const sample = `
[simulation]
scene = "data/harbor.yaml"
step_size = "2ms"
real_time_factor = 0
iterations = 500

[logging]
level = "debug"
format = "json"

[telemetry]
enabled = true
flush_every = 10

[[buoyancy]]
model = "boat"

[[buoyancy]]
model = "probe"
fluid_density = 1025.0

[[velocity_control]]
model = "boat"
link_names = ["rudder", "prop"]
`

func TestParseSample(t *testing.T) {
	cfg, err := Parse([]byte(sample), "sample.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Simulation.StepSize != 2*time.Millisecond {
		t.Errorf("Expected step 2ms, got %v", cfg.Simulation.StepSize)
	}
	if cfg.Simulation.RealTimeFactor != 0 || cfg.Simulation.Iterations != 500 {
		t.Errorf("unexpected simulation section %+v", cfg.Simulation)
	}
	if len(cfg.Buoyancy) != 2 {
		t.Fatalf("Expected 2 buoyancy entries, got %d", len(cfg.Buoyancy))
	}
	if cfg.Buoyancy[0].FluidDensity != component.DefaultFluidDensity {
		t.Errorf("Expected default density, got %v", cfg.Buoyancy[0].FluidDensity)
	}
	if cfg.Buoyancy[1].FluidDensity != 1025 {
		t.Errorf("Expected density 1025, got %v", cfg.Buoyancy[1].FluidDensity)
	}
	vc := cfg.VelocityControl[0]
	if vc.Topic != "" || len(vc.LinkNames) != 2 || vc.LinkNames[1] != "prop" {
		t.Errorf("unexpected velocity control %+v", vc)
	}
	// Untouched sections keep their defaults.
	if cfg.Transport.QueueSize != 64 || cfg.Scripting.Dir != "scripts" {
		t.Errorf("defaults lost: %+v %+v", cfg.Transport, cfg.Scripting)
	}
}

func TestParseEmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil, "empty")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Simulation.StepSize != time.Millisecond || cfg.Simulation.RealTimeFactor != 1 {
		t.Errorf("unexpected defaults %+v", cfg.Simulation)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Expected console logging, got %q", cfg.Logging.Format)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown key", "[simulation]\nstep = \"1ms\"\n", "unknown key"},
		{"bad step", "[simulation]\nstep_size = \"-1ms\"\n", "step_size must be positive"},
		{"negative rtf", "[simulation]\nreal_time_factor = -2.0\n", "real_time_factor"},
		{"buoyancy without model", "[[buoyancy]]\nfluid_density = 1.0\n", "buoyancy[0]: model is required"},
		{"velocity without model", "[[velocity_control]]\ntopic = \"/x\"\n", "velocity_control[0]"},
		{"telemetry flush", "[telemetry]\nenabled = true\nflush_every = 0\n", "flush_every"},
		{"syntax", "[simulation\n", "parse config"},
	}
	for _, tt := range tests {
		_, err := Parse([]byte(tt.src), tt.name)
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: expected error containing %q, got %v", tt.name, tt.want, err)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simhost.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Simulation.Scene != "data/harbor.yaml" {
		t.Errorf("unexpected scene %q", cfg.Simulation.Scene)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
