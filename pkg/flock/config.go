package flock

import (
	"errors"
	"fmt"
	"math"

	"github.com/richard-sim/proto-boids/pkg/geometry"
	"go.uber.org/multierr"
)

// ErrInvalidConfig wraps every violation reported by Config.Validate.
var ErrInvalidConfig = errors.New("invalid flock config")

// LeaderSelection decides which population indices may be drawn as the new leader.
type LeaderSelection string

const (
	// LeaderSelectionLegacy draws from [0, n-2]: the last agent never leads.
	LeaderSelectionLegacy LeaderSelection = "legacy"
	// LeaderSelectionUniform draws from [0, n-1].
	LeaderSelectionUniform LeaderSelection = "uniform"
)

// NeighborQueryKind selects the built-in NeighborQuery used when none is injected.
type NeighborQueryKind string

const (
	NeighborQueryLinear NeighborQueryKind = "linear"
	NeighborQueryGrid   NeighborQueryKind = "grid"
)

type Config struct {
	// Population
	SpawnCount  int     `json:"spawnCount"`
	SpawnRadius float64 `json:"spawnRadius"`

	// Soft boundary around Center
	Center       geometry.Vector3D `json:"center"`
	BoundsRadius float64           `json:"boundsRadius"`
	BoundsPow    float64           `json:"boundsPow"` // Falloff exponent of the return force

	// Flocking rules
	NeighbourhoodRadius float64 `json:"neighbourhoodRadius"`
	SeparationFactor    float64 `json:"separationFactor"`
	AlignmentFactor     float64 `json:"alignmentFactor"`
	CohesionFactor      float64 `json:"cohesionFactor"`

	Speed float64 `json:"speed"`

	// Leadership
	LeadershipChangeChance float64         `json:"leadershipChangeChance"`
	LeaderSelection        LeaderSelection `json:"leaderSelection"`

	// Runtime
	Seed          uint64            `json:"seed"`    // 0 seeds from the clock
	Workers       int               `json:"workers"` // >1 computes the steering pass in parallel
	NeighborQuery NeighborQueryKind `json:"neighborQuery"`
}

// DefaultConfig returns the stock flock tuning: ten boids in a ten unit sphere.
func DefaultConfig() *Config {
	return &Config{
		SpawnCount:             10,
		SpawnRadius:            1.0,
		BoundsRadius:           10.0,
		BoundsPow:              10.0,
		NeighbourhoodRadius:    0.2,
		SeparationFactor:       0.2,
		AlignmentFactor:        0.1,
		CohesionFactor:         0.2,
		Speed:                  1.0,
		LeadershipChangeChance: 0.25,
		LeaderSelection:        LeaderSelectionLegacy,
		Workers:                1,
		NeighborQuery:          NeighborQueryLinear,
	}
}

// Validate reports every invalid field at once. The returned error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	var err error
	nonNegative := func(name string, v float64) {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			err = multierr.Append(err, fmt.Errorf("%s must be a finite value >= 0, got %v", name, v))
		}
	}
	positive := func(name string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			err = multierr.Append(err, fmt.Errorf("%s must be a finite value > 0, got %v", name, v))
		}
	}
	finite := func(name string, v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			err = multierr.Append(err, fmt.Errorf("%s must be finite, got %v", name, v))
		}
	}

	if c.SpawnCount < 0 {
		err = multierr.Append(err, fmt.Errorf("spawnCount must be >= 0, got %d", c.SpawnCount))
	}
	nonNegative("spawnRadius", c.SpawnRadius)
	positive("boundsRadius", c.BoundsRadius)
	nonNegative("boundsPow", c.BoundsPow)
	positive("neighbourhoodRadius", c.NeighbourhoodRadius)
	finite("separationFactor", c.SeparationFactor)
	finite("alignmentFactor", c.AlignmentFactor)
	finite("cohesionFactor", c.CohesionFactor)
	nonNegative("speed", c.Speed)
	nonNegative("leadershipChangeChance", c.LeadershipChangeChance)
	finite("center.x", c.Center.X)
	finite("center.y", c.Center.Y)
	finite("center.z", c.Center.Z)

	switch c.LeaderSelection {
	case LeaderSelectionLegacy, LeaderSelectionUniform:
	default:
		err = multierr.Append(err, fmt.Errorf("leaderSelection must be %q or %q, got %q",
			LeaderSelectionLegacy, LeaderSelectionUniform, c.LeaderSelection))
	}
	switch c.NeighborQuery {
	case NeighborQueryLinear, NeighborQueryGrid:
	default:
		err = multierr.Append(err, fmt.Errorf("neighborQuery must be %q or %q, got %q",
			NeighborQueryLinear, NeighborQueryGrid, c.NeighborQuery))
	}
	if c.Workers < 1 {
		err = multierr.Append(err, fmt.Errorf("workers must be >= 1, got %d", c.Workers))
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
