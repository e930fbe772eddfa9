package flock

import (
	"math"
	"slices"

	"github.com/richard-sim/proto-boids/pkg/geometry"
)

// NeighborQuery finds the agents within a radius of a point.
//
// Index is called once per tick with the start-of-tick positions, indexed by
// population order. Within appends to dst the index of every position whose
// distance to center is <= radius, each index once and in ascending order,
// and returns the extended slice. A query centred on an agent therefore
// always reports that agent. Within must be safe for concurrent use between
// two Index calls.
type NeighborQuery interface {
	Index(positions []geometry.Vector3D)
	Within(center geometry.Vector3D, radius float64, dst []int) []int
}

// LinearScan tests every agent. O(n) per query, no setup cost.
type LinearScan struct {
	positions []geometry.Vector3D
}

var _ NeighborQuery = (*LinearScan)(nil)

func NewLinearScan() *LinearScan { return &LinearScan{} }

func (l *LinearScan) Index(positions []geometry.Vector3D) {
	l.positions = positions
}

func (l *LinearScan) Within(center geometry.Vector3D, radius float64, dst []int) []int {
	radiusSq := radius * radius
	for i, p := range l.positions {
		if p.DistanceSquaredTo(center) <= radiusSq {
			dst = append(dst, i)
		}
	}
	return dst
}

// MinCellSize keeps the grid from degenerating into millions of tiny cells.
const MinCellSize = 1e-3

type gridKey struct {
	x, y, z int
}

// SpatialGrid hashes positions into cubic cells so a query only visits the
// cells overlapping its bounding box.
type SpatialGrid struct {
	cellSize  float64
	positions []geometry.Vector3D
	grid      map[gridKey][]int
}

var _ NeighborQuery = (*SpatialGrid)(nil)

// NewSpatialGrid creates a grid whose cells have the given edge length.
// Using the neighbourhood radius keeps every query within 3x3x3 cells.
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	return &SpatialGrid{
		cellSize: math.Max(cellSize, MinCellSize),
		grid:     make(map[gridKey][]int),
	}
}

// Index rebuilds the grid from scratch, so only occupied cells stay in the map
// however far the flock drifts.
func (g *SpatialGrid) Index(positions []geometry.Vector3D) {
	clear(g.grid)
	g.positions = positions
	for i, p := range positions {
		key := g.cellOf(p)
		g.grid[key] = append(g.grid[key], i)
	}
}

func (g *SpatialGrid) Within(center geometry.Vector3D, radius float64, dst []int) []int {
	radiusSq := radius * radius
	extent := geometry.NewVector(radius, radius, radius)
	lo := g.cellOf(center.Sub(extent))
	hi := g.cellOf(center.Add(extent))

	start := len(dst)
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for z := lo.z; z <= hi.z; z++ {
				for _, i := range g.grid[gridKey{x: x, y: y, z: z}] {
					if g.positions[i].DistanceSquaredTo(center) <= radiusSq {
						dst = append(dst, i)
					}
				}
			}
		}
	}
	slices.Sort(dst[start:])
	return dst
}

func (g *SpatialGrid) cellOf(p geometry.Vector3D) gridKey {
	return gridKey{
		x: int(math.Floor(p.X / g.cellSize)),
		y: int(math.Floor(p.Y / g.cellSize)),
		z: int(math.Floor(p.Z / g.cellSize)),
	}
}

// CellCount reports how many cells currently hold at least one agent.
func (g *SpatialGrid) CellCount() int {
	n := 0
	for _, cell := range g.grid {
		if len(cell) > 0 {
			n++
		}
	}
	return n
}
