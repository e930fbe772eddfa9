package flock

import (
	"strconv"

	"github.com/richard-sim/proto-boids/pkg/geometry"
)

// Agent is one boid. Its identity is its index in the population.
type Agent struct {
	Position    geometry.Vector3D
	Orientation geometry.Quaternion
}

// Forward is the unit direction the agent travels along.
func (a Agent) Forward() geometry.Vector3D {
	return a.Orientation.Forward()
}

// LeaderRef optionally names one agent of the population as the leader.
// The zero value is NoLeader.
type LeaderRef struct {
	index int
	set   bool
}

// NoLeader is the empty LeaderRef.
var NoLeader = LeaderRef{}

// LeaderAt references the agent at index i.
func LeaderAt(i int) LeaderRef {
	return LeaderRef{index: i, set: true}
}

// Index returns the leader index and whether a leader is set.
func (l LeaderRef) Index() (int, bool) {
	return l.index, l.set
}

func (l LeaderRef) IsSet() bool { return l.set }

// Is reports whether agent i is the leader.
func (l LeaderRef) Is(i int) bool {
	return l.set && l.index == i
}

func (l LeaderRef) String() string {
	if !l.set {
		return "none"
	}
	return strconv.Itoa(l.index)
}

// AgentView is the read-only picture of one agent handed to observers.
type AgentView struct {
	Index    int
	Position geometry.Vector3D
	Forward  geometry.Vector3D
	Leader   bool
}

// Observation is a copy of the simulation state after a tick. Mutating it
// has no effect on the simulator.
type Observation struct {
	Tick    uint64
	Elapsed float64
	Leader  LeaderRef
	// Transition is the leadership outcome of the tick that produced this state.
	Transition Transition
	Agents     []AgentView
}
