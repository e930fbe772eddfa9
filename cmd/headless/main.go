package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/richard-sim/proto-boids/pkg/flock"
	"github.com/richard-sim/proto-boids/pkg/geometry"
	"github.com/richard-sim/proto-boids/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/structpb"
)

const askTimeout = 5 * time.Second

type options struct {
	configFile string
	ticks      int
	dt         float64
	seedBase   uint64
	runs       int
	workers    int
}

type runStats struct {
	runIndex int
	runID    uuid.UUID
	seed     uint64

	ticks          int
	leaderAssigned int
	leaderCleared  int
	leaderTicks    int
	firstLeader    int

	meanDistance      float64
	maxDistance       float64
	meanPolarization  float64
	finalPolarization float64
}

func main() {
	var opts options
	var verbose bool

	flag.StringVar(&opts.configFile, "config", "", "flock config file (.json or .toml); defaults when empty")
	flag.IntVar(&opts.ticks, "ticks", 3600, "ticks per run")
	flag.Float64Var(&opts.dt, "dt", 1.0/60.0, "simulated seconds per tick, rounded to the nanosecond")
	flag.Uint64Var(&opts.seedBase, "seed", 42, "RNG seed for run 1, incremented per run")
	flag.IntVar(&opts.runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&opts.workers, "workers", 0, "parallel steering workers; config value when 0")
	flag.BoolVar(&verbose, "v", false, "log actor activity")
	flag.Parse()

	level := log.ErrorLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.New(level, os.Stderr)

	if err := run(context.Background(), opts, os.Stdout, logger); err != nil {
		logger.Errorf("headless run failed: %v", err)
		os.Exit(1)
	}
}

// run executes opts.runs simulations and writes the report to out.
func run(ctx context.Context, opts options, out io.Writer, logger log.Logger) error {
	if opts.runs <= 0 {
		return errors.New("-runs must be > 0")
	}
	if opts.ticks <= 0 {
		return errors.New("-ticks must be > 0")
	}
	if opts.dt < 0 || math.IsNaN(opts.dt) {
		return errors.New("-dt must be >= 0")
	}

	cfg := flock.DefaultConfig()
	if opts.configFile != "" {
		var err error
		cfg, err = flock.LoadConfig(opts.configFile, "")
		if err != nil {
			return err
		}
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}

	system, err := actor.NewActorSystem("HeadlessBoids", actor.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return fmt.Errorf("failed to start actor system: %w", err)
	}
	defer func() { _ = system.Stop(ctx) }()

	tick := tickDuration(opts.dt)
	fmt.Fprintf(out, "=== Headless Flock Report ===\n")
	fmt.Fprintf(out, "boids=%d ticks=%d dt=%s runs=%d seed_base=%d workers=%d query=%s leader_selection=%s\n\n",
		cfg.SpawnCount, opts.ticks, tick, opts.runs, opts.seedBase, cfg.Workers, cfg.NeighborQuery, cfg.LeaderSelection)

	all := make([]runStats, 0, opts.runs)
	for i := 0; i < opts.runs; i++ {
		runCfg := *cfg
		runCfg.Seed = opts.seedBase + uint64(i)
		stats, err := runFlock(ctx, system, i+1, &runCfg, opts.ticks, tick)
		if err != nil {
			return fmt.Errorf("run %d: %w", i+1, err)
		}
		all = append(all, stats)
		printRun(out, stats)
	}

	printAggregate(out, all)
	return nil
}

// tickDuration converts seconds to the tick message unit, rounding to the nearest nanosecond.
func tickDuration(dt float64) time.Duration {
	return time.Duration(math.Round(dt * float64(time.Second)))
}

// runFlock drives one simulator through its own actor, sampling an observation after every tick.
func runFlock(ctx context.Context, system actor.ActorSystem, runIndex int, cfg *flock.Config, ticks int, dt time.Duration) (runStats, error) {
	rs := runStats{
		runIndex:    runIndex,
		runID:       uuid.New(),
		seed:        cfg.Seed,
		firstLeader: -1,
	}

	sim, err := flock.New(cfg)
	if err != nil {
		return rs, err
	}
	pid, err := system.Spawn(ctx, "flock-"+rs.runID.String(), simulation.NewFlockActor(sim, nil))
	if err != nil {
		return rs, fmt.Errorf("failed to spawn flock: %w", err)
	}
	defer func() { _ = pid.Shutdown(ctx) }()

	tick := simulation.NewTick(dt)
	var sumDistance, sumPolarization float64
	for t := 1; t <= ticks; t++ {
		if err := actor.Tell(ctx, pid, tick); err != nil {
			return rs, fmt.Errorf("tick %d: %w", t, err)
		}
		reply, err := actor.Ask(ctx, pid, simulation.NewSnapshotRequest(), askTimeout)
		if err != nil {
			return rs, fmt.Errorf("snapshot after tick %d: %w", t, err)
		}
		snapshot, ok := reply.(*structpb.Struct)
		if !ok {
			return rs, fmt.Errorf("snapshot after tick %d: unexpected reply %T", t, reply)
		}
		obs, err := simulation.ObservationFromStruct(snapshot)
		if err != nil {
			return rs, fmt.Errorf("snapshot after tick %d: %w", t, err)
		}

		rs.record(t, obs)
		dist, maxDist := distances(obs, cfg.Center)
		pol := polarization(obs)
		sumDistance += dist
		sumPolarization += pol
		rs.maxDistance = max(rs.maxDistance, maxDist)
		rs.finalPolarization = pol
	}

	rs.meanDistance = avg(sumDistance, rs.ticks)
	rs.meanPolarization = avg(sumPolarization, rs.ticks)
	return rs, nil
}

// record counts the leadership outcome the simulator reported for tick t.
func (rs *runStats) record(t int, obs flock.Observation) {
	rs.ticks++
	switch obs.Transition {
	case flock.TransitionAssigned:
		rs.leaderAssigned++
		if rs.firstLeader < 0 {
			rs.firstLeader = t
		}
	case flock.TransitionCleared:
		rs.leaderCleared++
	}
	if obs.Leader.IsSet() {
		rs.leaderTicks++
	}
}

// distances returns the mean and max distance of the flock from center.
func distances(obs flock.Observation, center geometry.Vector3D) (float64, float64) {
	if len(obs.Agents) == 0 {
		return 0, 0
	}
	var sum, maxDist float64
	for _, a := range obs.Agents {
		d := a.Position.DistanceTo(center)
		sum += d
		maxDist = max(maxDist, d)
	}
	return sum / float64(len(obs.Agents)), maxDist
}

// polarization is the length of the mean heading: 1 when every boid flies the same way, near 0 when headings cancel out.
func polarization(obs flock.Observation) float64 {
	if len(obs.Agents) == 0 {
		return 0
	}
	sum := geometry.Zero
	for _, a := range obs.Agents {
		sum = sum.Add(a.Forward)
	}
	return sum.Len() / float64(len(obs.Agents))
}

func printRun(out io.Writer, rs runStats) {
	fmt.Fprintf(out, "--- Run %d (id=%s seed=%d) ---\n", rs.runIndex, rs.runID, rs.seed)
	fmt.Fprintf(out, "leadership: assigned=%d cleared=%d led_ticks=%d (%.1f%%) first_leader_tick=%s\n",
		rs.leaderAssigned, rs.leaderCleared, rs.leaderTicks, pct(rs.leaderTicks, rs.ticks), tickString(rs.firstLeader))
	fmt.Fprintf(out, "spread: mean_distance=%.3f max_distance=%.3f\n", rs.meanDistance, rs.maxDistance)
	fmt.Fprintf(out, "heading: mean_polarization=%.3f final_polarization=%.3f\n\n", rs.meanPolarization, rs.finalPolarization)
}

func printAggregate(out io.Writer, all []runStats) {
	var assigned, cleared, ledTicks, totalTicks int
	var dist, maxDist, pol float64
	firsts := make([]int, 0, len(all))
	for _, rs := range all {
		assigned += rs.leaderAssigned
		cleared += rs.leaderCleared
		ledTicks += rs.leaderTicks
		totalTicks += rs.ticks
		dist += rs.meanDistance
		pol += rs.meanPolarization
		maxDist = max(maxDist, rs.maxDistance)
		if rs.firstLeader >= 0 {
			firsts = append(firsts, rs.firstLeader)
		}
	}

	n := float64(len(all))
	fmt.Fprintf(out, "=== Aggregate ===\n")
	fmt.Fprintf(out, "runs=%d\n", len(all))
	fmt.Fprintf(out, "avg_leadership_per_run: assigned=%.1f cleared=%.1f led_ticks=%.1f%%\n",
		float64(assigned)/n, float64(cleared)/n, pct(ledTicks, totalTicks))
	fmt.Fprintf(out, "avg_spread: mean_distance=%.3f max_distance=%.3f\n", dist/n, maxDist)
	fmt.Fprintf(out, "avg_heading: mean_polarization=%.3f\n", pol/n)
	fmt.Fprintf(out, "first_leader_avg_tick=%s (%d/%d runs)\n", avgTickString(firsts), len(firsts), len(all))
}

func avg(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}

func tickString(t int) string {
	if t < 0 {
		return "-"
	}
	return fmt.Sprintf("%d", t)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "-"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}
