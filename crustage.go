package aethelgard

import "math"

// stageCrustAge assigns a normalized crust age in [0,1] per tile: 0 at
// divergent boundaries where fresh crust wells up, growing with hop
// distance from the nearest ridge. With no divergent boundary anywhere
// on the planet, all crust is uniformly old.
func (m *Map) stageCrustAge(progress func(float64)) error {
	var ridges []int
	for t, b := range m.Boundary {
		if b == BoundaryDivergent {
			ridges = append(ridges, t)
		}
	}
	if len(ridges) == 0 {
		for i := range m.CrustAge {
			m.CrustAge[i] = 1
		}
		progress(1)
		return nil
	}

	dist := m.assignDistanceField(ridges, nil, m.stageRand("crustage"))
	maxDist := 0.0
	for _, d := range dist {
		if !math.IsInf(d, 0) && d > maxDist {
			maxDist = d
		}
	}
	if maxDist == 0 {
		// Every tile sits on a ridge.
		for i := range m.CrustAge {
			m.CrustAge[i] = 0
		}
		progress(1)
		return nil
	}
	progress(0.5)

	for t, d := range dist {
		switch {
		case math.IsInf(d, 0):
			m.CrustAge[t] = 1
		case m.Cfg.Plates.ExpCrustDecay:
			// Saturating growth, normalized so the farthest tile hits 1.
			m.CrustAge[t] = (1 - math.Exp(-3*d/maxDist)) / (1 - math.Exp(-3))
		default:
			m.CrustAge[t] = d / maxDist
		}
	}
	progress(1)
	return nil
}
