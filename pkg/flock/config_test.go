package flock

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/richard-sim/proto-boids/pkg/geometry"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v; want nil", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{"zero population is valid", func(c *Config) { c.SpawnCount = 0 }, nil},
		{"negative factors are valid", func(c *Config) { c.CohesionFactor = -0.5 }, nil},
		{"negative spawn count", func(c *Config) { c.SpawnCount = -1 }, []string{"spawnCount"}},
		{"zero bounds radius", func(c *Config) { c.BoundsRadius = 0 }, []string{"boundsRadius"}},
		{"zero neighbourhood", func(c *Config) { c.NeighbourhoodRadius = 0 }, []string{"neighbourhoodRadius"}},
		{"NaN factor", func(c *Config) { c.AlignmentFactor = math.NaN() }, []string{"alignmentFactor"}},
		{"infinite center", func(c *Config) { c.Center.Y = math.Inf(1) }, []string{"center.y"}},
		{"unknown leader policy", func(c *Config) { c.LeaderSelection = "random" }, []string{"leaderSelection"}},
		{"unknown query", func(c *Config) { c.NeighborQuery = "octree" }, []string{"neighborQuery"}},
		{"no workers", func(c *Config) { c.Workers = 0 }, []string{"workers"}},
		{
			"every violation is reported",
			func(c *Config) {
				c.Speed = -1
				c.LeadershipChangeChance = -0.1
				c.BoundsPow = -2
			},
			[]string{"speed", "leadershipChangeChance", "boundsPow"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Errorf("Validate() = %v; want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() = %v; want ErrInvalidConfig", err)
			}
			for _, field := range tt.wantErr {
				if !strings.Contains(err.Error(), field) {
					t.Errorf("Validate() = %q; want it to mention %s", err, field)
				}
			}
		})
	}
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeFile(t, "boids.json", `{
		"spawnCount": 64,
		"boundsRadius": 20,
		"center": {"x": 1, "y": 2, "z": 3},
		"leaderSelection": "uniform",
		"neighborQuery": "grid",
		"seed": 7
	}`)

	cfg, err := LoadConfig(path, "")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.SpawnCount != 64 || cfg.BoundsRadius != 20 || cfg.Seed != 7 {
		t.Errorf("LoadConfig() = %+v; want spawnCount 64, boundsRadius 20, seed 7", cfg)
	}
	if want := (geometry.Vector3D{X: 1, Y: 2, Z: 3}); cfg.Center != want {
		t.Errorf("center = %v; want %v", cfg.Center, want)
	}
	if cfg.LeaderSelection != LeaderSelectionUniform || cfg.NeighborQuery != NeighborQueryGrid {
		t.Errorf("leaderSelection %q neighborQuery %q; want uniform and grid", cfg.LeaderSelection, cfg.NeighborQuery)
	}
	// Untouched fields keep their defaults.
	if def := DefaultConfig(); cfg.NeighbourhoodRadius != def.NeighbourhoodRadius || cfg.BoundsPow != def.BoundsPow {
		t.Errorf("defaults not preserved: %+v", cfg)
	}
}

func TestLoadConfig_TOML(t *testing.T) {
	path := writeFile(t, "boids.toml", `
spawnCount = 25
boundsRadius = 12.5
separationFactor = 0.3
leaderSelection = "legacy"

[center]
x = -1.0
y = 0.0
z = 4.0
`)

	cfg, err := LoadConfig(path, "")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.SpawnCount != 25 || cfg.BoundsRadius != 12.5 || cfg.SeparationFactor != 0.3 {
		t.Errorf("LoadConfig() = %+v; want spawnCount 25, boundsRadius 12.5, separationFactor 0.3", cfg)
	}
	if want := (geometry.Vector3D{X: -1, Z: 4}); cfg.Center != want {
		t.Errorf("center = %v; want %v", cfg.Center, want)
	}
}

func TestLoadConfig_SchemaRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", `{"spawnCount": 5, "gravity": 9.81}`},
		{"negative count", `{"spawnCount": -5}`},
		{"fractional count", `{"spawnCount": 2.5}`},
		{"zero radius", `{"neighbourhoodRadius": 0}`},
		{"bad enum", `{"leaderSelection": "elected"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "boids.json", tt.content)
			_, err := LoadConfig(path, "")
			if err == nil || !strings.Contains(err.Error(), "config validation failed") {
				t.Errorf("LoadConfig() error = %v; want schema validation failure", err)
			}
		})
	}
}

func TestLoadConfig_ExplicitSchemaFile(t *testing.T) {
	schema := writeFile(t, "config.schema.json", configSchema)
	path := writeFile(t, "boids.json", `{"speed": 3}`)

	cfg, err := LoadConfig(path, schema)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Speed != 3 {
		t.Errorf("speed = %v; want 3", cfg.Speed)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"), "")
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("LoadConfig() error = %v; want os.ErrNotExist", err)
		}
	})

	t.Run("broken json", func(t *testing.T) {
		path := writeFile(t, "boids.json", `{"spawnCount": `)
		if _, err := LoadConfig(path, ""); err == nil {
			t.Error("LoadConfig() error = nil; want a decode error")
		}
	})

	t.Run("broken toml", func(t *testing.T) {
		path := writeFile(t, "boids.toml", `spawnCount = = 3`)
		_, err := LoadConfig(path, "")
		if err == nil || !strings.Contains(err.Error(), "toml") {
			t.Errorf("LoadConfig() error = %v; want a toml decode error", err)
		}
	})

	t.Run("missing schema", func(t *testing.T) {
		path := writeFile(t, "boids.json", `{}`)
		_, err := LoadConfig(path, filepath.Join(t.TempDir(), "missing.schema.json"))
		if err == nil || !strings.Contains(err.Error(), "schema") {
			t.Errorf("LoadConfig() error = %v; want a schema compile error", err)
		}
	})
}
