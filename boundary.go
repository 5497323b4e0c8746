package aethelgard

import (
	"sort"

	"github.com/gomgom50/Aethelgard-map-generator-sub001/spheremath"
)

// stageBoundaries classifies every tile that touches a foreign plate by
// the relative motion of the two plates across the shared edge. The
// relative velocity is projected onto the direction towards the foreign
// neighbor: approaching crust is convergent, separating crust is
// divergent and anything below the threshold counts as transform
// (shearing) motion.
func (m *Map) stageBoundaries(progress func(float64)) error {
	threshold := m.Cfg.Plates.TransformThreshold

	for _, p := range m.Plates {
		p.BoundaryTiles = make(map[BoundaryType][]int)
	}

	n := m.Sphere.NumTiles
	spheremath.ChunkWorkers(n, func(start, end int) {
		for t := start; t < end; t++ {
			m.Boundary[t] = m.classifyTile(t, threshold)
		}
	})

	// Membership lists per plate and type; tile order is ascending.
	for t := 0; t < n; t++ {
		if b := m.Boundary[t]; b != BoundaryNone {
			p := m.Plates[m.PlateID[t]]
			p.BoundaryTiles[b] = append(p.BoundaryTiles[b], t)
		}
	}
	for _, p := range m.Plates {
		for _, tiles := range p.BoundaryTiles {
			sort.Ints(tiles)
		}
	}
	progress(1)
	return nil
}

// classifyTile scores the tile against each foreign neighbor and keeps
// the strongest interaction. Convergence and divergence dominate over
// transform motion when both occur along the tile's border.
func (m *Map) classifyTile(t int, threshold float64) BoundaryType {
	myPlate := m.PlateID[t]
	myVel := m.plateVelocityAt(t)
	myPos := m.Sphere.Centers[t]

	result := BoundaryNone
	strongest := 0.0
	for _, nb := range m.Sphere.Neighbors[t] {
		if m.PlateID[nb] == myPlate {
			continue
		}
		// Unit direction from this tile towards the foreign neighbor,
		// tangent to the sphere.
		dir := m.Sphere.Centers[nb].Sub(myPos)
		dir = dir.Sub(myPos.Mul(dir.Dot(myPos))).Normalize()

		// Positive approach speed means the crust is closing.
		rel := myVel.Sub(m.plateVelocityAt(nb))
		approach := rel.Dot(dir)

		mag := approach
		if mag < 0 {
			mag = -mag
		}
		var b BoundaryType
		switch {
		case mag < threshold:
			b = BoundaryTransform
			// Transform is the weakest claim; any edge at all promotes the
			// tile out of BoundaryNone.
			mag = 0
		case approach > 0:
			b = BoundaryConvergent
		default:
			b = BoundaryDivergent
		}
		if result == BoundaryNone || mag > strongest {
			result = b
			strongest = mag
		}
	}
	return result
}
