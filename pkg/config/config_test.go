package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Width != 800 || config.Height != 600 {
		t.Errorf("Expected 800x600 arena, got %vx%v", config.Width, config.Height)
	}
	if config.Durability != 3 {
		t.Errorf("Expected Durability 3, got %d", config.Durability)
	}
	if config.QuadTree.Capacity != 1 {
		t.Errorf("Expected quad-tree capacity 1, got %d", config.QuadTree.Capacity)
	}
	if !config.Physics.ResolveDegenerate {
		t.Error("Expected degenerate contacts to be resolved by default")
	}
	if len(config.Bodies) != 7 {
		t.Errorf("Expected 7 scenario bodies, got %d", len(config.Bodies))
	}
	if config.Stream.Address != "" {
		t.Errorf("Expected stream disabled by default, got %q", config.Stream.Address)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("DefaultConfig() does not validate: %v", err)
	}
}

func TestLoadConfig_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "json",
			file: "arena.json",
			content: `{
  "width": 400,
  "height": 300,
  "durability": 5,
  "bodies": [
    {"kind": "circle", "x": 50, "y": 60, "radius": 10, "vx": 1, "vy": -1},
    {"kind": "polygon", "x": 100, "y": 100, "vertices": [[0, -5], [5, 5], [-5, 5]]}
  ]
}`,
		},
		{
			name: "yaml",
			file: "arena.yaml",
			content: `width: 400
height: 300
durability: 5
bodies:
  - kind: circle
    x: 50
    y: 60
    radius: 10
    vx: 1
    vy: -1
  - kind: polygon
    x: 100
    y: 100
    vertices: [[0, -5], [5, 5], [-5, 5]]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			config, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}

			if config.Width != 400 || config.Height != 300 || config.Durability != 5 {
				t.Errorf("LoadConfig() arena = %vx%v durability %d", config.Width, config.Height, config.Durability)
			}
			// Unset sections keep their defaults.
			if config.Simulation.TickRate != 60 {
				t.Errorf("Expected default tick rate 60, got %d", config.Simulation.TickRate)
			}
			if len(config.Bodies) != 2 {
				t.Fatalf("Expected 2 bodies from the file, got %d", len(config.Bodies))
			}
			c := config.Bodies[0]
			if c.Kind != BodyCircle || c.X != 50 || c.Y != 60 || c.Radius != 10 || c.VX != 1 || c.VY != -1 {
				t.Errorf("circle body = %+v", c)
			}
			p := config.Bodies[1]
			if len(p.Vertices) != 3 || p.Vertices[1] != [2]float64{5, 5} {
				t.Errorf("polygon vertices = %v", p.Vertices)
			}
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("file_not_found", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "missing.json"))
		if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
			t.Errorf("LoadConfig() error = %v", err)
		}
	})

	t.Run("invalid_json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		os.WriteFile(path, []byte(`{"width": `), 0o644)
		_, err := LoadConfig(path)
		if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
			t.Errorf("LoadConfig() error = %v", err)
		}
	})

	t.Run("invalid_yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yml")
		os.WriteFile(path, []byte("width: [1, 2\n"), 0o644)
		_, err := LoadConfig(path)
		if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
			t.Errorf("LoadConfig() error = %v", err)
		}
	})

	t.Run("fails_validation", func(t *testing.T) {
		path := filepath.Join(dir, "negative.json")
		os.WriteFile(path, []byte(`{"width": -1}`), 0o644)
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("LoadConfig() error = %v, expected ErrInvalidConfig", err)
		}
	})
}

func TestSaveConfig_RoundTripsThroughLoad(t *testing.T) {
	for _, name := range []string{"out.json", "out.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			original := DefaultConfig()
			original.Stream.Address = "127.0.0.1:7000"

			if err := SaveConfig(original, path); err != nil {
				t.Fatalf("SaveConfig() error = %v", err)
			}
			loaded, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}

			if loaded.Stream.Address != original.Stream.Address {
				t.Errorf("stream address = %q, expected %q", loaded.Stream.Address, original.Stream.Address)
			}
			if len(loaded.Bodies) != len(original.Bodies) {
				t.Fatalf("bodies = %d, expected %d", len(loaded.Bodies), len(original.Bodies))
			}
			got, want := loaded.Bodies[4], original.Bodies[4]
			if got.Kind != want.Kind || got.X != want.X || got.Width != want.Width || got.VX != want.VX {
				t.Errorf("body 4 = %+v, expected %+v", got, want)
			}
		})
	}
}

func TestSaveConfig_Errors(t *testing.T) {
	if err := SaveConfig(nil, filepath.Join(t.TempDir(), "x.json")); err == nil {
		t.Error("SaveConfig(nil) should fail")
	}
	if err := SaveConfig(DefaultConfig(), filepath.Join(t.TempDir(), "missing", "x.json")); err == nil {
		t.Error("SaveConfig() into a missing directory should fail")
	}
}

func TestClone_IsDeep(t *testing.T) {
	original := DefaultConfig()
	original.Bodies = append(original.Bodies, BodyConfig{
		Kind:     BodyPolygon,
		Vertices: [][2]float64{{0, -1}, {1, 1}, {-1, 1}},
	})

	clone := original.Clone()
	clone.Width = 1
	clone.Bodies[0].Radius = 99
	clone.Bodies[len(clone.Bodies)-1].Vertices[0] = [2]float64{7, 7}

	if original.Width != 800 {
		t.Errorf("original width changed to %v", original.Width)
	}
	if original.Bodies[0].Radius != 50 {
		t.Errorf("original body radius changed to %v", original.Bodies[0].Radius)
	}
	if got := original.Bodies[len(original.Bodies)-1].Vertices[0]; got != [2]float64{0, -1} {
		t.Errorf("original vertex changed to %v", got)
	}
	if clone.Durability != original.Durability || clone.Stream.CircuitBreaker != original.Stream.CircuitBreaker {
		t.Error("Clone() lost scalar settings")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *ArenaConfig)
		field  string
	}{
		{"valid", func(c *ArenaConfig) {}, ""},
		{"zero_width", func(c *ArenaConfig) { c.Width = 0 }, "width"},
		{"negative_height", func(c *ArenaConfig) { c.Height = -5 }, "height"},
		{"zero_durability", func(c *ArenaConfig) { c.Durability = 0 }, "durability"},
		{"zero_capacity", func(c *ArenaConfig) { c.QuadTree.Capacity = 0 }, "quadTree.capacity"},
		{"zero_depth", func(c *ArenaConfig) { c.QuadTree.MaxDepth = 0 }, "quadTree.maxDepth"},
		{"negative_epsilon", func(c *ArenaConfig) { c.Physics.Epsilon = -1 }, "physics.epsilon"},
		{"zero_tick_rate", func(c *ArenaConfig) { c.Simulation.TickRate = 0 }, "simulation.tickRate"},
		{"stream_without_viewers", func(c *ArenaConfig) {
			c.Stream.Address = ":7000"
			c.Stream.MaxViewers = 0
		}, "stream.maxViewers"},
		{"stream_disabled_ignores_viewers", func(c *ArenaConfig) { c.Stream.MaxViewers = 0 }, ""},
		{"stream_negative_connect_rate", func(c *ArenaConfig) {
			c.Stream.Address = ":7000"
			c.Stream.ConnectsPerMinute = -1
		}, "stream.connectsPerMinute"},
		{"negative_memory_limit", func(c *ArenaConfig) { c.Resources.MaxMemoryMB = -1 }, "resources.maxMemoryMB"},
		{"unlimited_goroutines", func(c *ArenaConfig) { c.Resources.MaxGoroutines = 0 }, ""},
		{"zero_check_interval", func(c *ArenaConfig) { c.Resources.CheckIntervalSeconds = 0 }, "resources.checkIntervalSeconds"},
		{"zero_shutdown_timeout", func(c *ArenaConfig) { c.Resources.ShutdownTimeoutSeconds = 0 }, "resources.shutdownTimeoutSeconds"},
		{"population_bad_size", func(c *ArenaConfig) {
			c.Population.Circles = 10
			c.Population.MaxSize = c.Population.MinSize
		}, "population.size"},
		{"population_bad_sides", func(c *ArenaConfig) {
			c.Population.Polygons = 10
			c.Population.MinSides = 2
		}, "population.sides"},
		{"unknown_kind", func(c *ArenaConfig) { c.Bodies[2].Kind = "triangle" }, "bodies[2].kind"},
		{"circle_without_radius", func(c *ArenaConfig) { c.Bodies[0].Radius = 0 }, "bodies[0].radius"},
		{"wall_without_size", func(c *ArenaConfig) {
			c.Bodies = append(c.Bodies, BodyConfig{Kind: BodyWall, Width: 10})
		}, "bodies[7].size"},
		{"polygon_two_sides", func(c *ArenaConfig) { c.Bodies[1].Sides = 2 }, "bodies[1].sides"},
		{"polygon_two_vertices", func(c *ArenaConfig) {
			c.Bodies[1].Vertices = [][2]float64{{0, 0}, {1, 1}}
		}, "bodies[1].vertices"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()

			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, expected nil", err)
				}
				return
			}

			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() error = %v, expected ErrInvalidConfig", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("Validate() field = %v, expected %q", err, tt.field)
			}
		})
	}
}

func TestApplyEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvWidth, "1024")
	t.Setenv(EnvHeight, "768.5")
	t.Setenv(EnvDurability, "7")
	t.Setenv(EnvTickRate, "30")
	t.Setenv(EnvMaxTicks, "500")
	t.Setenv(EnvStreamAddr, "127.0.0.1:9000")
	t.Setenv(EnvQuadTreeDepth, "12")
	t.Setenv(EnvPopulationSeed, "42")
	t.Setenv(EnvResolveDegenerate, "false")

	config := DefaultConfig()
	if err := ApplyEnvironmentOverrides(config); err != nil {
		t.Fatalf("ApplyEnvironmentOverrides() error = %v", err)
	}

	if config.Width != 1024 || config.Height != 768.5 {
		t.Errorf("arena = %vx%v, expected 1024x768.5", config.Width, config.Height)
	}
	if config.Durability != 7 {
		t.Errorf("Durability = %d, expected 7", config.Durability)
	}
	if config.Simulation.TickRate != 30 || config.Simulation.MaxTicks != 500 {
		t.Errorf("Simulation = %+v", config.Simulation)
	}
	if config.Stream.Address != "127.0.0.1:9000" {
		t.Errorf("Stream.Address = %q", config.Stream.Address)
	}
	if config.QuadTree.MaxDepth != 12 {
		t.Errorf("QuadTree.MaxDepth = %d, expected 12", config.QuadTree.MaxDepth)
	}
	if config.Population.Seed != 42 {
		t.Errorf("Population.Seed = %d, expected 42", config.Population.Seed)
	}
	if config.Physics.ResolveDegenerate {
		t.Error("Physics.ResolveDegenerate should be overridden to false")
	}
}

func TestApplyEnvironmentOverrides_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
		field string
	}{
		{EnvWidth, "wide", "width"},
		{EnvDurability, "3.5", "durability"},
		{EnvMaxTicks, "-1", "simulation.maxTicks"},
		{EnvResolveDegenerate, "maybe", "physics.resolveDegenerate"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			err := ApplyEnvironmentOverrides(DefaultConfig())

			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("ApplyEnvironmentOverrides() error = %v, expected field %q", err, tt.field)
			}
		})
	}
}

func TestWithOverrides(t *testing.T) {
	original := DefaultConfig()

	t.Run("leaves_original_untouched", func(t *testing.T) {
		t.Setenv(EnvWidth, "321")
		overridden, err := WithOverrides(original)
		if err != nil {
			t.Fatalf("WithOverrides() error = %v", err)
		}
		if overridden.Width != 321 {
			t.Errorf("overridden width = %v, expected 321", overridden.Width)
		}
		if original.Width != 800 {
			t.Errorf("original width changed to %v", original.Width)
		}
	})

	t.Run("validates_result", func(t *testing.T) {
		t.Setenv(EnvDurability, "0")
		if _, err := WithOverrides(original); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("WithOverrides() error = %v, expected ErrInvalidConfig", err)
		}
	})
}
