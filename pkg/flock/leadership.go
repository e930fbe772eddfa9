package flock

import (
	"math/rand/v2"

	"github.com/richard-sim/proto-boids/pkg/geometry"
)

// Transition is the outcome of the once-per-tick leadership check.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionAssigned
	TransitionCleared
)

func (t Transition) String() string {
	switch t {
	case TransitionAssigned:
		return "assigned"
	case TransitionCleared:
		return "cleared"
	default:
		return "none"
	}
}

// ParseTransition is the inverse of Transition.String. Unknown names map to TransitionNone.
func ParseTransition(name string) Transition {
	switch name {
	case "assigned":
		return TransitionAssigned
	case "cleared":
		return TransitionCleared
	default:
		return TransitionNone
	}
}

// transitionLeadership triggers with probability chance*dt. Once triggered
// it assigns a new leader with probability chance and clears the leader
// otherwise, so for chance < 0.5 clearing is the more common outcome.
// A new leader faces a uniformly random direction.
func (s *Simulator) transitionLeadership(dt float64) Transition {
	chance := s.cfg.LeadershipChangeChance
	if s.rng.Float64() >= chance*dt {
		return TransitionNone
	}
	if s.rng.Float64() >= chance {
		s.leader = NoLeader
		return TransitionCleared
	}

	i := pickLeader(s.rng, len(s.agents), s.cfg.LeaderSelection)
	s.leader = LeaderAt(i)
	s.agents[i].Orientation = geometry.RandomRotation(s.rng)
	return TransitionAssigned
}

// pickLeader draws a leader index for a population of n > 0 agents.
// The legacy policy reproduces an exclusive upper bound of n-1, which
// leaves the last agent out; a single agent is still eligible.
func pickLeader(rng *rand.Rand, n int, policy LeaderSelection) int {
	if policy == LeaderSelectionUniform {
		return rng.IntN(n)
	}
	if n <= 1 {
		return 0
	}
	return rng.IntN(n - 1)
}
