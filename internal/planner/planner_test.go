package planner

import (
	"testing"

	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/canvas"
)

func canvasOf(coords ...canvas.Coordinate) canvas.Canvas {
	c := canvas.New()
	for _, co := range coords {
		c.Set(co.X, co.Y, true)
	}
	return c
}

// Invariant 1: for any Canvas and any strategy, every on-cell appears
// exactly once, no off-cell appears, Path length equals the popcount.
func TestEveryStrategyVisitsEachOnCellExactlyOnce(t *testing.T) {
	c := canvasOf(
		canvas.Coordinate{X: 0, Y: 0}, canvas.Coordinate{X: 5, Y: 0},
		canvas.Coordinate{X: 2, Y: 3}, canvas.Coordinate{X: 2, Y: 1},
		canvas.Coordinate{X: 7, Y: 9},
	)
	for _, strat := range All() {
		path := strat.Plan(c)
		if len(path) != c.PopCount() {
			t.Errorf("%s: len(path)=%d, want popcount %d", strat.Name(), len(path), c.PopCount())
		}
		seen := map[canvas.Coordinate]bool{}
		for _, p := range path {
			if seen[p] {
				t.Errorf("%s: coordinate %v visited more than once", strat.Name(), p)
			}
			seen[p] = true
			if !c.At(p.X, p.Y) {
				t.Errorf("%s: visited off-cell %v", strat.Name(), p)
			}
		}
	}
}

func TestEmptyCanvasYieldsEmptyPath(t *testing.T) {
	c := canvas.New()
	for _, strat := range All() {
		path := strat.Plan(c)
		if len(path) != 0 {
			t.Errorf("%s: expected empty path on empty canvas, got %d", strat.Name(), len(path))
		}
	}
}

// S1: on-cells = {(0,0)}, Raster, (100,60,40), R=1 -> 0 Moves, 1 Draw.
func TestS1SingleCellRasterScan(t *testing.T) {
	c := canvasOf(canvas.Coordinate{X: 0, Y: 0})
	path := RasterScan{}.Plan(c)
	if len(path) != 1 {
		t.Fatalf("want 1 draw, got %d", len(path))
	}
	if got := TotalManhattanLength(path); got != 0 {
		t.Errorf("want 0 moves, got %d", got)
	}
	est := EstimateFor(path, 100, 60, 40, 1)
	if est.DurationSec < 0.199 || est.DurationSec > 0.201 {
		t.Errorf("duration = %v, want ~0.2", est.DurationSec)
	}
}

// S2: on-cells {(0,0),(0,1),(0,2)}, Raster, (100,60,40), R=1 ->
// 2 Moves, 3 Draws, duration ~0.92s.
func TestS2ThreeCellColumnRasterScan(t *testing.T) {
	c := canvasOf(canvas.Coordinate{X: 0, Y: 0}, canvas.Coordinate{X: 0, Y: 1}, canvas.Coordinate{X: 0, Y: 2})
	path := RasterScan{}.Plan(c)
	if len(path) != 3 {
		t.Fatalf("want 3 draws, got %d", len(path))
	}
	if got := TotalManhattanLength(path); got != 2 {
		t.Errorf("want 2 moves, got %d", got)
	}
	est := EstimateFor(path, 100, 60, 40, 1)
	if est.DurationSec < 0.91 || est.DurationSec > 0.93 {
		t.Errorf("duration = %v, want ~0.92", est.DurationSec)
	}
}

// S3: full row y=0 (320 cells), ZigZag, (50,30,20), R=2 -> 319 Moves,
// 320 Draws, duration ~89.5s.
func TestS3FullRowZigZag(t *testing.T) {
	c := canvas.New()
	for x := 0; x < canvas.Width; x++ {
		c.Set(x, 0, true)
	}
	path := ZigZag{}.Plan(c)
	if len(path) != 320 {
		t.Fatalf("want 320 draws, got %d", len(path))
	}
	if got := TotalManhattanLength(path); got != 319 {
		t.Errorf("want 319 moves, got %d", got)
	}
	est := EstimateFor(path, 50, 30, 20, 2)
	if est.DurationSec < 89.0 || est.DurationSec > 90.0 {
		t.Errorf("duration = %v, want ~89.5", est.DurationSec)
	}
}

// S4: diagonal 5 cells (0,0)..(4,4), NearestNeighbour, (100,60,40), R=1 ->
// each bridge costs 2 Moves, total Moves 8, Draws 5.
func TestS4DiagonalNearestNeighbour(t *testing.T) {
	c := canvasOf(
		canvas.Coordinate{X: 0, Y: 0}, canvas.Coordinate{X: 1, Y: 1},
		canvas.Coordinate{X: 2, Y: 2}, canvas.Coordinate{X: 3, Y: 3},
		canvas.Coordinate{X: 4, Y: 4},
	)
	path := NearestNeighbour{}.Plan(c)
	if len(path) != 5 {
		t.Fatalf("want 5 draws, got %d", len(path))
	}
	for i, want := range []canvas.Coordinate{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}, {X: 4, Y: 4}} {
		if path[i] != want {
			t.Errorf("path[%d] = %v, want %v", i, path[i], want)
		}
	}
	if got := TotalManhattanLength(path); got != 8 {
		t.Errorf("want 8 total moves, got %d", got)
	}
}

// S5: Greedy+2opt's total Manhattan length must never exceed
// NearestNeighbour's on the same canvas.
func TestS5Greedy2OptNeverWorseThanNearestNeighbour(t *testing.T) {
	c := canvas.New()
	coords := []canvas.Coordinate{
		{0, 0}, {9, 0}, {3, 5}, {9, 9}, {0, 9}, {5, 5}, {2, 8}, {8, 1}, {4, 4}, {6, 2},
	}
	for _, co := range coords {
		c.Set(co.X, co.Y, true)
	}
	nn := NearestNeighbour{}.Plan(c)
	g2 := Greedy2Opt{}.Plan(c)
	nnLen := TotalManhattanLength(nn)
	g2Len := TotalManhattanLength(g2)
	if g2Len > nnLen {
		t.Errorf("greedy+2opt length %d exceeds nearest-neighbour length %d", g2Len, nnLen)
	}
}

func TestNearestNeighbourTieBreakLowerYThenLowerX(t *testing.T) {
	// Two candidates equidistant from the current point; the lower-y,
	// lower-x one must be chosen.
	c := canvasOf(canvas.Coordinate{X: 0, Y: 0}, canvas.Coordinate{X: 1, Y: 0}, canvas.Coordinate{X: 0, Y: 1})
	path := NearestNeighbour{}.Plan(c)
	if path[0] != (canvas.Coordinate{X: 0, Y: 0}) {
		t.Fatalf("expected start at (0,0), got %v", path[0])
	}
	if path[1] != (canvas.Coordinate{X: 1, Y: 0}) {
		t.Errorf("expected tie-break to prefer (1,0) over (0,1), got %v", path[1])
	}
}

func TestByNameUnknownStrategy(t *testing.T) {
	if _, ok := ByName("not-a-strategy"); ok {
		t.Fatal("expected unknown strategy name to resolve to ok=false")
	}
}

// Exercises the "dense canvas terminates" boundary behaviour (spec §8) at
// a tractable scale — a full block rather than all 38,400 cells, since
// NearestNeighbour/Greedy+2opt are quadratic in cell count and the
// property under test (termination, correct cardinality) doesn't need the
// full grid to be exercised.
func TestDenseBlockTerminates(t *testing.T) {
	const blockW, blockH = 40, 40
	c := canvas.New()
	for y := 0; y < blockH; y++ {
		for x := 0; x < blockW; x++ {
			c.Set(x, y, true)
		}
	}
	for _, strat := range All() {
		path := strat.Plan(c)
		if len(path) != blockW*blockH {
			t.Errorf("%s: want %d cells, got %d", strat.Name(), blockW*blockH, len(path))
		}
	}
}
