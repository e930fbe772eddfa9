package flock

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/richard-sim/proto-boids/pkg/geometry"
	"golang.org/x/sync/errgroup"
)

// ErrNegativeDelta is returned by Tick for a negative or NaN elapsed time.
var ErrNegativeDelta = errors.New("tick delta must be >= 0")

// Simulator owns a fixed population of boids and the optional leader.
// It is not safe for concurrent use; FlockActor serializes access to it.
type Simulator struct {
	cfg    Config
	rng    *rand.Rand
	query  NeighborQuery
	agents []Agent
	leader LeaderRef

	// Per-tick buffers, sized once at construction.
	snapshot  []Agent
	next      []Agent
	positions []geometry.Vector3D
	scratch   [][]int

	ticks          uint64
	elapsed        float64
	lastTransition Transition
}

// Option customizes a Simulator at construction.
type Option func(*Simulator)

// WithNeighborQuery injects the neighbor lookup, overriding Config.NeighborQuery.
func WithNeighborQuery(q NeighborQuery) Option {
	return func(s *Simulator) { s.query = q }
}

// WithRand injects the random source, overriding Config.Seed.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulator) { s.rng = rng }
}

// WithAgents places the population explicitly instead of spawning it.
// The population size becomes len(agents); orientations are normalized.
func WithAgents(agents []Agent) Option {
	return func(s *Simulator) {
		s.agents = make([]Agent, len(agents))
		for i, a := range agents {
			a.Orientation = a.Orientation.Normalize()
			s.agents[i] = a
		}
	}
}

// New validates cfg and spawns cfg.SpawnCount agents uniformly inside the
// spawn sphere around cfg.Center, each facing a uniformly random direction.
func New(cfg *Config, opts ...Option) (*Simulator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{cfg: *cfg}
	for _, opt := range opts {
		opt(s)
	}

	if s.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	if s.query == nil {
		switch cfg.NeighborQuery {
		case NeighborQueryGrid:
			s.query = NewSpatialGrid(cfg.NeighbourhoodRadius)
		default:
			s.query = NewLinearScan()
		}
	}
	if s.agents == nil {
		s.agents = spawn(s.rng, cfg)
	}

	n := len(s.agents)
	s.snapshot = make([]Agent, n)
	s.next = make([]Agent, n)
	s.positions = make([]geometry.Vector3D, n)
	s.scratch = make([][]int, max(cfg.Workers, 1))
	return s, nil
}

func spawn(rng *rand.Rand, cfg *Config) []Agent {
	agents := make([]Agent, cfg.SpawnCount)
	for i := range agents {
		agents[i] = Agent{
			Position:    cfg.Center.Add(geometry.RandomInsideUnitSphere(rng).Mul(cfg.SpawnRadius)),
			Orientation: geometry.RandomRotation(rng),
		}
	}
	return agents
}

// Tick advances the simulation by dt seconds.
//
// The leader, if any, moves straight ahead first. Every other agent then
// steers from a snapshot of the population taken after that move, so the
// outcome does not depend on the order agents are processed in. All new
// states are committed together before the leadership check runs.
func (s *Simulator) Tick(dt float64) error {
	if dt < 0 || math.IsNaN(dt) {
		return fmt.Errorf("%w: got %v", ErrNegativeDelta, dt)
	}
	s.lastTransition = TransitionNone
	if len(s.agents) == 0 {
		return nil
	}

	if i, ok := s.leader.Index(); ok {
		leader := &s.agents[i]
		leader.Position = leader.Position.Add(leader.Forward().Mul(s.cfg.Speed * dt))
	}

	copy(s.snapshot, s.agents)
	for i, a := range s.snapshot {
		s.positions[i] = a.Position
	}
	s.query.Index(s.positions)

	if err := s.steerAll(dt); err != nil {
		return err
	}
	copy(s.agents, s.next)

	s.lastTransition = s.transitionLeadership(dt)
	s.ticks++
	s.elapsed += dt
	return nil
}

func (s *Simulator) steerAll(dt float64) error {
	n := len(s.snapshot)
	workers := min(len(s.scratch), n)
	if workers <= 1 {
		s.steerRange(0, n, dt, 0)
		return nil
	}

	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, min((w+1)*chunk, n)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			s.steerRange(lo, hi, dt, w)
			return nil
		})
	}
	return g.Wait()
}

// steerRange fills s.next[lo:hi]. It only reads the snapshot, so disjoint
// ranges can run concurrently; worker selects the private query buffer.
func (s *Simulator) steerRange(lo, hi int, dt float64, worker int) {
	speed := s.cfg.Speed * dt
	buf := s.scratch[worker]
	for i := lo; i < hi; i++ {
		me := s.snapshot[i]
		if s.leader.Is(i) {
			s.next[i] = me
			continue
		}

		buf = s.query.Within(me.Position, s.cfg.NeighbourhoodRadius, buf[:0])
		rot := steer(i, s.snapshot, buf, &s.cfg, dt)
		s.next[i] = Agent{
			Position:    me.Position.Add(rot.Forward().Mul(speed)),
			Orientation: rot,
		}
	}
	s.scratch[worker] = buf
}

// Observe returns a copy of each agent's position and forward direction and
// the current leader. It never alters the simulation.
func (s *Simulator) Observe() Observation {
	obs := Observation{
		Tick:       s.ticks,
		Elapsed:    s.elapsed,
		Leader:     s.leader,
		Transition: s.lastTransition,
		Agents:     make([]AgentView, len(s.agents)),
	}
	for i, a := range s.agents {
		obs.Agents[i] = AgentView{
			Index:    i,
			Position: a.Position,
			Forward:  a.Forward(),
			Leader:   s.leader.Is(i),
		}
	}
	return obs
}

// Agents returns a copy of the population.
func (s *Simulator) Agents() []Agent {
	out := make([]Agent, len(s.agents))
	copy(out, s.agents)
	return out
}

func (s *Simulator) Leader() LeaderRef { return s.leader }

// LastTransition is the leadership outcome of the most recent Tick.
func (s *Simulator) LastTransition() Transition { return s.lastTransition }

func (s *Simulator) Config() Config { return s.cfg }

// NeighborQuery is the lookup the simulator indexes every tick.
func (s *Simulator) NeighborQuery() NeighborQuery { return s.query }

// Len is the fixed population size.
func (s *Simulator) Len() int { return len(s.agents) }

// TickCount is the number of completed ticks.
func (s *Simulator) TickCount() uint64 { return s.ticks }
