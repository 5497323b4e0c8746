package aethelgard

import (
	"math"

	"github.com/gomgom50/Aethelgard-map-generator-sub001/spheremath"
)

// stageElevation composes the elevation field: per-plate base level,
// uplift around convergent boundaries, rift depressions around
// divergent ones, and domain-warped noise on top for micro-variation.
// Tiles with a locked elevation keep their pinned value.
func (m *Map) stageElevation(progress func(float64)) error {
	cfg := m.Cfg.Plates
	rng := m.stageRand("elevation")

	// Hop distance to the nearest boundary of each kind. The falloff
	// profiles below only look at tiles within BoundaryWidth hops.
	var convergent, divergent []int
	for t, b := range m.Boundary {
		switch b {
		case BoundaryConvergent:
			convergent = append(convergent, t)
		case BoundaryDivergent:
			divergent = append(divergent, t)
		}
	}
	distConv := m.assignDistanceField(convergent, nil, rng)
	distDiv := m.assignDistanceField(divergent, nil, rng)
	progress(0.3)

	width := float64(cfg.BoundaryWidth)
	falloff := func(d float64) float64 {
		if width <= 0 || d >= width || math.IsInf(d, 0) {
			return 0
		}
		return math.Pow(1-d/width, cfg.FalloffPower)
	}

	spheremath.ChunkWorkers(m.Sphere.NumTiles, func(start, end int) {
		for t := start; t < end; t++ {
			if locked, ok := m.Locks.TryGetLockedElevation(t); ok {
				m.Elevation[t] = locked
				continue
			}
			elev := m.Plates[m.PlateID[t]].BaseElevation
			elev += cfg.ConvergentUplift * falloff(distConv[t])
			elev -= cfg.DivergentRift * falloff(distDiv[t])
			elev += m.Cfg.NoiseStrength * m.sampleTerrain(m.Sphere.Centers[t])
			m.Elevation[t] = elev
		}
	})
	progress(1)
	return nil
}
