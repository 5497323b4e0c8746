// Package jumpflood approximates a weighted Voronoi (power diagram)
// assignment on a 2d grid using the jump-flood algorithm: passes with
// halving step sizes compare every cell against candidates offset by the
// current step and keep the owner minimizing dist^2 - weight. The result
// is an approximation; boundaries can be off by about one cell versus a
// brute-force solve, which is acceptable for territory assignment.
package jumpflood

import (
	"fmt"
	"math"

	"github.com/gomgom50/Aethelgard-map-generator-sub001/spheremath"
)

// Unassigned is the owner value of cells no seed could reach. With at
// least one seed, no cell keeps this value after Solve.
const Unassigned = -1

// Config describes the grid the solver runs on.
type Config struct {
	Width  int
	Height int
	// WrapX treats the horizontal axis as cyclic (longitude wrap).
	// The vertical axis never wraps (clamped at the poles).
	WrapX bool
	// Spherical measures distances as great-circle arcs, interpreting
	// the grid as an equirectangular projection. Without it, distances
	// are Euclidean in cell units.
	Spherical bool
}

// Seed is a weighted Voronoi site. A larger weight lets the seed claim
// territory beyond its raw distance.
type Seed struct {
	X, Y   int
	ID     int
	Weight float64
}

type solver struct {
	cfg    Config
	seeds  []Seed
	latLon [][2]float64 // per-seed lat/lon, spherical mode only
}

// Solve assigns every grid cell the ID of the seed minimizing
// dist^2 - weight. With no seeds, every cell stays Unassigned; that is
// the documented no-op for parameter exploration, not an error.
func Solve(cfg Config, seeds []Seed) ([]int, error) {
	if cfg.Width < 1 || cfg.Height < 1 {
		return nil, fmt.Errorf("jumpflood: invalid grid size %dx%d", cfg.Width, cfg.Height)
	}
	for i, s := range seeds {
		if s.X < 0 || s.X >= cfg.Width || s.Y < 0 || s.Y >= cfg.Height {
			return nil, fmt.Errorf("jumpflood: seed %d at (%d,%d) outside %dx%d grid",
				i, s.X, s.Y, cfg.Width, cfg.Height)
		}
	}

	numCells := cfg.Width * cfg.Height
	owner := make([]int, numCells) // owner holds seed indices, not IDs
	for i := range owner {
		owner[i] = Unassigned
	}
	if len(seeds) == 0 {
		return owner, nil
	}

	sv := &solver{cfg: cfg, seeds: seeds}
	if cfg.Spherical {
		sv.latLon = make([][2]float64, len(seeds))
		for i, s := range seeds {
			sv.latLon[i] = [2]float64{sv.cellLat(s.Y), sv.cellLon(s.X)}
		}
	}

	// Plant the seeds. If two seeds land on the same cell, the better
	// power-metric candidate wins (ties go to the lower index).
	for i, s := range seeds {
		cell := s.Y*cfg.Width + s.X
		if cur := owner[cell]; cur == Unassigned || sv.metric(s.X, s.Y, i) < sv.metric(s.X, s.Y, cur) {
			owner[cell] = i
		}
	}

	// Halving-step passes with ping-pong buffers: pass k+1 only reads
	// the completed buffer of pass k, so each cell slot is written by
	// exactly one worker per pass.
	back := make([]int, numCells)
	for step := startStep(cfg.Width, cfg.Height); step >= 1; step /= 2 {
		sv.pass(owner, back, step)
		owner, back = back, owner
	}

	// Map seed indices to caller IDs.
	for i, o := range owner {
		if o != Unassigned {
			owner[i] = seeds[o].ID
		}
	}
	return owner, nil
}

// startStep returns the smallest power of two >= max(w,h)/2 so sparse
// seeds can reach every cell in the first pass.
func startStep(w, h int) int {
	need := w
	if h > need {
		need = h
	}
	need /= 2
	step := 1
	for step < need {
		step *= 2
	}
	return step
}

func (sv *solver) pass(cur, next []int, step int) {
	w, h := sv.cfg.Width, sv.cfg.Height
	spheremath.ChunkWorkers(h, func(startRow, endRow int) {
		for y := startRow; y < endRow; y++ {
			for x := 0; x < w; x++ {
				best := cur[y*w+x]
				bestScore := math.Inf(1)
				if best != Unassigned {
					bestScore = sv.metric(x, y, best)
				}
				for dy := -step; dy <= step; dy += step {
					ny := y + dy
					if ny < 0 || ny >= h {
						continue
					}
					for dx := -step; dx <= step; dx += step {
						nx := x + dx
						if sv.cfg.WrapX {
							nx = ((nx % w) + w) % w
						} else if nx < 0 || nx >= w {
							continue
						}
						cand := cur[ny*w+nx]
						if cand == Unassigned || cand == best {
							continue
						}
						// Lower index wins ties to keep output deterministic.
						if score := sv.metric(x, y, cand); score < bestScore ||
							(score == bestScore && cand < best) {
							best, bestScore = cand, score
						}
					}
				}
				next[y*w+x] = best
			}
		}
	})
}

// metric is the power-diagram score dist^2 - weight of a cell against a
// seed (by index).
func (sv *solver) metric(x, y, seedIdx int) float64 {
	s := sv.seeds[seedIdx]
	if sv.cfg.Spherical {
		d := spheremath.Haversine(sv.cellLat(y), sv.cellLon(x), sv.latLon[seedIdx][0], sv.latLon[seedIdx][1])
		return d*d - s.Weight
	}
	dx := math.Abs(float64(x - s.X))
	if sv.cfg.WrapX {
		if wrapped := float64(sv.cfg.Width) - dx; wrapped < dx {
			dx = wrapped
		}
	}
	dy := float64(y - s.Y)
	return dx*dx + dy*dy - s.Weight
}

// cellLat and cellLon interpret the grid as an equirectangular
// projection: row 0 is the north edge, column 0 is -180 degrees.
func (sv *solver) cellLat(y int) float64 {
	return 90 - (float64(y)+0.5)/float64(sv.cfg.Height)*180
}

func (sv *solver) cellLon(x int) float64 {
	return (float64(x)+0.5)/float64(sv.cfg.Width)*360 - 180
}
