package simulation

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/richard-sim/proto-boids/pkg/flock"
	"github.com/tochemey/goakt/v3/actor"
)

var (
	boidColor   = color.RGBA{R: 80, G: 140, B: 255, A: 255}
	leaderColor = color.RGBA{R: 255, G: 60, B: 60, A: 255}
	boundsColor = color.RGBA{R: 90, G: 90, B: 110, A: 255}
)

// Game renders the flock as seen from above (X right, Z up the screen).
// Every boid is a ray along its forward direction, the leader in red.
type Game struct {
	ctx        context.Context
	System     actor.ActorSystem
	flockPID   *actor.PID
	snapshotCh chan *flock.Observation
	lastState  *flock.Observation

	cfg           flock.Config
	width, height int
	// Pixels per world unit; the bounds sphere fills most of the window.
	scale float64
	// World-space length of a drawn ray.
	rayLength float64

	// Timing instrumentation
	lastUpdateDuration time.Duration
	updateAvg          float64 // Rolling average in ms
}

// NewGame spawns the flock actor for sim on system and returns the viewer driving it.
func NewGame(ctx context.Context, system actor.ActorSystem, sim *flock.Simulator, width, height int) (*Game, error) {
	snapshotCh := make(chan *flock.Observation, 10) // Buffer to avoid blocking

	pid, err := system.Spawn(ctx, "flock", NewFlockActor(sim, snapshotCh))
	if err != nil {
		return nil, fmt.Errorf("failed to spawn flock: %w", err)
	}

	cfg := sim.Config()
	initial := sim.Observe()
	return &Game{
		ctx:        ctx,
		System:     system,
		flockPID:   pid,
		snapshotCh: snapshotCh,
		lastState:  &initial,
		cfg:        cfg,
		width:      width,
		height:     height,
		scale:      0.45 * float64(min(width, height)) / cfg.BoundsRadius,
		rayLength:  1,
	}, nil
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.lastUpdateDuration = time.Since(start)
		g.updateAvg = g.updateAvg*0.95 + float64(g.lastUpdateDuration.Microseconds())/1000.0*0.05
	}()

	// Keep only the freshest snapshot.
Drain:
	for {
		select {
		case snap := <-g.snapshotCh:
			g.lastState = snap
		default:
			break Drain
		}
	}

	dt := tickInterval(ebiten.TPS(), ebiten.ActualTPS())
	return actor.Tell(g.ctx, g.flockPID, NewTick(dt))
}

// tickInterval is the simulated time covered by one Update. With
// ebiten.SyncWithFPS the fixed rate is unknown, so the measured rate is used,
// then 60 Hz before any measurement exists.
func tickInterval(tps int, actualTPS float64) time.Duration {
	if tps > 0 {
		return time.Second / time.Duration(tps)
	}
	if actualTPS > 0 {
		return time.Duration(float64(time.Second) / actualTPS)
	}
	return time.Second / 60
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 10, G: 10, B: 30, A: 255})

	cx, cy := g.toScreen(g.cfg.Center.X, g.cfg.Center.Z)
	vector.StrokeCircle(screen, cx, cy, float32(g.cfg.BoundsRadius*g.scale), 1, boundsColor, true)

	// Leader last so it stays visible on top of the flock.
	var leader *flock.AgentView
	for i := range g.lastState.Agents {
		a := &g.lastState.Agents[i]
		if a.Leader {
			leader = a
			continue
		}
		g.drawRay(screen, a, boidColor)
	}
	if leader != nil {
		g.drawRay(screen, leader, leaderColor)
	}

	msg := fmt.Sprintf("Boids: %d\nLeader: %s\nTick: %d\nSim time: %.1fs\n\nFPS: %.2f\nTPS: %.2f\nUpdate: %.2fms",
		len(g.lastState.Agents),
		g.lastState.Leader,
		g.lastState.Tick,
		g.lastState.Elapsed,
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		g.updateAvg)
	ebitenutil.DebugPrintAt(screen, msg, 10, 10)
}

func (g *Game) drawRay(screen *ebiten.Image, a *flock.AgentView, clr color.Color) {
	x0, y0 := g.toScreen(a.Position.ProjectXZ())
	tip := a.Position.Add(a.Forward.Mul(g.rayLength))
	x1, y1 := g.toScreen(tip.ProjectXZ())
	vector.StrokeLine(screen, x0, y0, x1, y1, 1.5, clr, true)
	vector.FillCircle(screen, x0, y0, 2, clr, true)
}

// toScreen maps the XZ plane onto the window, centred on the flock center.
func (g *Game) toScreen(x, z float64) (float32, float32) {
	sx := float64(g.width)/2 + (x-g.cfg.Center.X)*g.scale
	sy := float64(g.height)/2 - (z-g.cfg.Center.Z)*g.scale
	if math.IsNaN(sx) || math.IsNaN(sy) {
		return 0, 0
	}
	return float32(sx), float32(sy)
}

func (g *Game) Layout(w, h int) (int, int) { return g.width, g.height }
