// Package planner implements C3, the Path Planner (spec §4.3): it turns a
// Canvas into an ordered Path under one of four strategies, and estimates
// operation counts and wall-clock duration for display before a paint
// session starts.
//
// RasterScan/ZigZag are grounded on
// original_source/src/domain/painting/services.rs's create_drawing_path
// (sort on-cells by (y,x), reverse odd rows for the boustrophedon variant).
// NearestNeighbour is grounded on the same file's nearest_neighbor_path.
// Greedy+2opt has no original_source counterpart (that file's Spiral
// strategy was never implemented there); it is net-new per spec's redesign.
package planner

import (
	"sort"

	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/canvas"
)

// Path is an ordered sequence of on-cell coordinates (spec §3 Path).
type Path []canvas.Coordinate

// Strategy produces a Path from a Canvas. Each variant is a pure function,
// exposed through a tagged discriminator per spec §9 Design Notes rather
// than a class hierarchy.
type Strategy interface {
	Plan(c canvas.Canvas) Path
	Name() string
}

const (
	NameRasterScan       = "raster_scan"
	NameZigZag           = "zig_zag"
	NameNearestNeighbour = "nearest_neighbour"
	NameGreedy2Opt       = "greedy_2opt"
)

// All returns the four strategies in leaves-first complexity order, the
// order GET /api/artworks/{id}/strategies reports them in.
func All() []Strategy {
	return []Strategy{RasterScan{}, ZigZag{}, NearestNeighbour{}, Greedy2Opt{}}
}

// ByName resolves the named strategy, mirroring the "unknown strategy" error
// case of spec §7's Invalid Input taxonomy member at the caller's
// discretion (this package itself does no error wrapping; internal/api
// does, per spec's error-boundary placement).
func ByName(name string) (Strategy, bool) {
	for _, s := range All() {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

func sortedOnCells(c canvas.Canvas) []canvas.Coordinate {
	cells := c.OnCells()
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Y != cells[j].Y {
			return cells[i].Y < cells[j].Y
		}
		return cells[i].X < cells[j].X
	})
	return cells
}

// RasterScan is the row-major, left-to-right, top-to-bottom strategy.
type RasterScan struct{}

func (RasterScan) Name() string { return NameRasterScan }

func (RasterScan) Plan(c canvas.Canvas) Path {
	return Path(sortedOnCells(c))
}

// ZigZag alternates each row's visiting direction (boustrophedon), so the
// transition between consecutive rows costs one vertical Move instead of a
// long horizontal return.
type ZigZag struct{}

func (ZigZag) Name() string { return NameZigZag }

func (ZigZag) Plan(c canvas.Canvas) Path {
	cells := sortedOnCells(c)
	if len(cells) == 0 {
		return Path{}
	}

	out := make(Path, 0, len(cells))
	rowStart := 0
	rowY := cells[0].Y
	reverse := false
	flush := func(end int) {
		if !reverse {
			out = append(out, cells[rowStart:end]...)
			return
		}
		for i := end - 1; i >= rowStart; i-- {
			out = append(out, cells[i])
		}
	}
	for i, cell := range cells {
		if cell.Y != rowY {
			flush(i)
			rowStart = i
			rowY = cell.Y
			reverse = !reverse
		}
	}
	flush(len(cells))
	return out
}

// NearestNeighbour starts at the top-left on-cell and repeatedly jumps to
// the closest remaining on-cell under Manhattan distance, ties broken by
// lower-y then lower-x (spec §4.3's explicit refinement over
// original_source's unspecified tie behaviour).
type NearestNeighbour struct{}

func (NearestNeighbour) Name() string { return NameNearestNeighbour }

func (NearestNeighbour) Plan(c canvas.Canvas) Path {
	remaining := sortedOnCells(c)
	if len(remaining) == 0 {
		return Path{}
	}

	out := make(Path, 0, len(remaining))
	current := remaining[0]
	remaining = remaining[1:]
	out = append(out, current)

	for len(remaining) > 0 {
		bestIdx := 0
		bestDist := canvas.ManhattanDistance(current, remaining[0])
		for i := 1; i < len(remaining); i++ {
			d := canvas.ManhattanDistance(current, remaining[i])
			if d < bestDist || (d == bestDist && lessTieBreak(remaining[i], remaining[bestIdx])) {
				bestDist = d
				bestIdx = i
			}
		}
		current = remaining[bestIdx]
		out = append(out, current)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return out
}

func lessTieBreak(a, b canvas.Coordinate) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

// twoOptMaxPasses bounds the Greedy+2opt improvement loop to a fixed number
// of full passes over the seed path, per spec §4.3's "document which"
// instruction.
const twoOptMaxPasses = 2

// Greedy2Opt seeds with NearestNeighbour, then runs a bounded 2-opt
// improvement pass: repeatedly reverse a path segment whenever doing so
// shortens the total Manhattan length, until a full pass finds no
// improving swap or the pass budget is spent.
type Greedy2Opt struct{}

func (Greedy2Opt) Name() string { return NameGreedy2Opt }

func (Greedy2Opt) Plan(c canvas.Canvas) Path {
	path := NearestNeighbour{}.Plan(c)
	if len(path) < 4 {
		return path
	}

	for pass := 0; pass < twoOptMaxPasses; pass++ {
		improved := false
		for i := 0; i < len(path)-2; i++ {
			for j := i + 2; j < len(path)-1; j++ {
				before := canvas.ManhattanDistance(path[i], path[i+1]) +
					canvas.ManhattanDistance(path[j], path[j+1])
				after := canvas.ManhattanDistance(path[i], path[j]) +
					canvas.ManhattanDistance(path[i+1], path[j+1])
				if after < before {
					reverseSegment(path, i+1, j)
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return path
}

func reverseSegment(path Path, i, j int) {
	for i < j {
		path[i], path[j] = path[j], path[i]
		i++
		j--
	}
}

// TotalManhattanLength is the total Move count a Path implies: the sum of
// Manhattan distances between consecutive entries, plus the distance from
// the origin anchor (0,0) to the first entry (spec §4.3's single-cell edge
// case: "one Move-to-(x,y) from an origin anchor of (0,0)").
func TotalManhattanLength(p Path) int {
	if len(p) == 0 {
		return 0
	}
	total := canvas.ManhattanDistance(canvas.Coordinate{X: 0, Y: 0}, p[0])
	for i := 1; i < len(p); i++ {
		total += canvas.ManhattanDistance(p[i-1], p[i])
	}
	return total
}

// Estimate is the operation-count and duration projection of spec §4.3.
type Estimate struct {
	DrawOperations int
	MoveOperations int
	DurationSec    float64
}

// EstimateFor computes A = len(path) Draws and D = TotalManhattanLength(path)
// Moves, then applies
// duration = A·(press+release+wait)/1000·R + D·(press+release)/1000.
//
// The Move term uses press+release only, not the full triple: a Move's
// translation (§4.4) has no wait phase, only a Draw does. §4.3's prose
// formula states the Move term with the full triple, which the worked
// examples in §8 (S2, S3) contradict — S2's 0.92s and S3's 89.5s both
// only reproduce with a press+release-only Move term. The worked examples
// are taken as authoritative here; see DESIGN.md.
func EstimateFor(p Path, pressMs, releaseMs, waitMs, repeats int) Estimate {
	a := len(p)
	d := TotalManhattanLength(p)
	drawCycleSec := float64(pressMs+releaseMs+waitMs) / 1000.0
	moveCycleSec := float64(pressMs+releaseMs) / 1000.0
	duration := drawCycleSec*float64(a)*float64(repeats) + moveCycleSec*float64(d)
	return Estimate{DrawOperations: a, MoveOperations: d, DurationSec: duration}
}
