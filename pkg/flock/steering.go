package flock

import (
	"math"

	"github.com/richard-sim/proto-boids/pkg/geometry"
)

// steer computes the orientation agent self turns to this tick.
// snapshot is the start-of-tick population and neighbors the query result
// for self, which normally contains self.
//
// Blending order matters: alignment toward each neighbor in query order,
// then separation, then cohesion, then the boundary return force. Every
// step interpolates from the already blended rotation.
func steer(self int, snapshot []Agent, neighbors []int, cfg *Config, dt float64) geometry.Quaternion {
	me := snapshot[self]
	rot := me.Orientation

	if len(neighbors) > 1 {
		rot = flockingRotation(self, snapshot, neighbors, cfg, dt)
	}

	centerDir := cfg.Center.Sub(me.Position)
	if centerDir.LenSqr() > geometry.Epsilon {
		strength := BoundaryStrength(centerDir.Len(), cfg.BoundsRadius, cfg.BoundsPow)
		rot = rot.Slerp(geometry.LookRotation(centerDir), strength*dt)
	}
	return rot
}

func flockingRotation(self int, snapshot []Agent, neighbors []int, cfg *Config, dt float64) geometry.Quaternion {
	me := snapshot[self]
	rot := me.Orientation
	radius := cfg.NeighbourhoodRadius
	alignment := cfg.AlignmentFactor * dt

	var separation, cohesion geometry.Vector3D
	others := 0
	for _, j := range neighbors {
		if j == self {
			continue
		}
		other := snapshot[j]

		away := me.Position.Sub(other.Position)
		weight := geometry.Clamp01(1-away.Len()/radius) * radius
		separation = separation.Add(away.Normalize().Mul(weight))
		cohesion = cohesion.Add(other.Position)
		rot = rot.Slerp(other.Orientation, alignment)
		others++
	}
	if others == 0 {
		return me.Orientation
	}
	cohesion = cohesion.Mul(1 / float64(others))

	if separation.LenSqr() > geometry.Epsilon {
		fraction := cfg.SeparationFactor * dt * separation.Len()
		rot = rot.Slerp(geometry.LookRotation(separation), fraction)
	}

	cohesionDir := cohesion.Sub(me.Position)
	if cohesionDir.LenSqr() > geometry.Epsilon {
		fraction := cfg.CohesionFactor * dt * cohesionDir.Len()
		rot = rot.Slerp(geometry.LookRotation(cohesionDir), fraction)
	}
	return rot
}

// BoundaryStrength is the per-second blend rate toward the center for an
// agent at distance from it: (distance/boundsRadius)^boundsPow, clamped so
// it reaches 1 at the bounds radius and stays there beyond it.
func BoundaryStrength(distance, boundsRadius, boundsPow float64) float64 {
	return math.Pow(geometry.Clamp01(distance/boundsRadius), boundsPow)
}
