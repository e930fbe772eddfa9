package simulation

import (
	"fmt"
	"time"

	"github.com/richard-sim/proto-boids/pkg/flock"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
)

// FlockActor owns the simulator. The mailbox serializes ticks and snapshot
// requests, so the simulator never sees concurrent access.
type FlockActor struct {
	sim *flock.Simulator
	// Communication with UI
	snapshotCh chan<- *flock.Observation

	// --- Benchmark Stats ---
	ticksSinceLog int
	simTime       time.Duration
	lastLogTime   time.Time
}

var _ actor.Actor = (*FlockActor)(nil)

// NewFlockActor wraps sim. snapshotCh may be nil when nobody renders.
func NewFlockActor(sim *flock.Simulator, snapshotCh chan<- *flock.Observation) *FlockActor {
	return &FlockActor{
		sim:         sim,
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}
}

func (f *FlockActor) PreStart(ctx *actor.Context) error {
	cfg := f.sim.Config()
	ctx.ActorSystem().Logger().Infof("Flock of %d boids ready (neighbourhood %.2f, bounds %.2f, query %s)",
		f.sim.Len(), cfg.NeighbourhoodRadius, cfg.BoundsRadius, cfg.NeighborQuery)
	return nil
}

func (f *FlockActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Info("Flock started")

	case *durationpb.Duration:
		f.tick(ctx, msg.AsDuration())

	case *emptypb.Empty:
		snapshot, err := ObservationToStruct(f.sim.Observe())
		if err != nil {
			ctx.Logger().Errorf("failed to encode observation: %v", err)
			return
		}
		ctx.Response(snapshot)

	default:
		ctx.Unhandled()
	}
}

func (f *FlockActor) tick(ctx *actor.ReceiveContext, dt time.Duration) {
	if err := f.sim.Tick(dt.Seconds()); err != nil {
		ctx.Logger().Warnf("tick of %s rejected: %v", dt, err)
		return
	}
	f.ticksSinceLog++
	f.simTime += dt

	switch f.sim.LastTransition() {
	case flock.TransitionAssigned:
		ctx.Logger().Debugf("tick %d: boid %s takes the lead", f.sim.TickCount(), f.sim.Leader())
	case flock.TransitionCleared:
		ctx.Logger().Debugf("tick %d: flock is leaderless", f.sim.TickCount())
	}

	f.logBenchmarks(ctx)
	f.pushSnapshot()
}

func (f *FlockActor) logBenchmarks(ctx *actor.ReceiveContext) {
	if time.Since(f.lastLogTime) >= time.Second {
		cells := ""
		if grid, ok := f.sim.NeighborQuery().(*flock.SpatialGrid); ok {
			cells = fmt.Sprintf(" | Cells: %d", grid.CellCount())
		}
		ctx.Logger().Infof("📊 TICK RATE: %d/sec (sim time %s) | Boids: %d | Leader: %s%s",
			f.ticksSinceLog, f.simTime.Round(time.Millisecond), f.sim.Len(), f.sim.Leader(), cells)
		f.ticksSinceLog = 0
		f.simTime = 0
		f.lastLogTime = time.Now()
	}
}

func (f *FlockActor) pushSnapshot() {
	if f.snapshotCh == nil {
		return
	}
	obs := f.sim.Observe()
	select {
	case f.snapshotCh <- &obs:
	default:
		// UI busy, skip frame
	}
}

func (f *FlockActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("Flock stopped after %d ticks", f.sim.TickCount())
	return nil
}
