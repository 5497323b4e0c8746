package aethelgard

import (
	"container/heap"
	"math"
	"math/rand"
)

// stageMicroplates subdivides large continental plates into
// microplates: a secondary Voronoi growth confined to the parent
// plate's tiles. Microplates are an annotation layer; the top-level
// plate assignment of a tile never changes.
func (m *Map) stageMicroplates(progress func(float64)) error {
	cfg := m.Cfg.Plates
	rng := m.stageRand("microplates")

	m.Microplates = nil
	for i := range m.MicroplateID {
		m.MicroplateID[i] = -1
	}
	if cfg.MicroplateMinSize <= 0 || cfg.MicroplateSeeds < 2 {
		progress(1)
		return nil
	}

	for _, parent := range m.Plates {
		if parent.Type != PlateContinental || parent.TileCount() < cfg.MicroplateMinSize {
			continue
		}
		m.subdividePlate(parent, rng)
	}
	progress(1)
	return nil
}

// subdividePlate grows MicroplateSeeds sub-regions inside the parent
// plate with the same priority flood used for the top-level plates,
// except the frontier never leaves the parent.
func (m *Map) subdividePlate(parent *Plate, rng *rand.Rand) {
	numSeeds := m.Cfg.Plates.MicroplateSeeds
	if numSeeds > len(parent.Tiles) {
		numSeeds = len(parent.Tiles)
	}
	penalty := m.Cfg.Plates.DistancePenalty

	// Distinct random seed tiles from the parent's membership list.
	seedTiles := make([]int, 0, numSeeds)
	used := make(map[int]bool, numSeeds)
	for len(seedTiles) < numSeeds {
		t := parent.Tiles[rng.Intn(len(parent.Tiles))]
		if !used[t] {
			used[t] = true
			seedTiles = append(seedTiles, t)
		}
	}

	base := len(m.Microplates)
	for i, t := range seedTiles {
		m.Microplates = append(m.Microplates, &Plate{
			ID:       base + i,
			Type:     PlateMicro,
			SeedTile: t,
		})
	}

	pq := &ascPriorityQueue{}
	heap.Init(pq)
	claim := func(t, micro int, d float64) {
		m.MicroplateID[t] = micro
		for _, nb := range m.Sphere.Neighbors[t] {
			if m.MicroplateID[nb] >= 0 || m.PlateID[nb] != parent.ID {
				continue
			}
			nd := d + m.Sphere.Distance(t, nb)
			heap.Push(pq, &queueEntry{
				score: nd * nd * penalty,
				tile:  nb,
				plate: micro,
			})
		}
	}
	for i, t := range seedTiles {
		if m.MicroplateID[t] < 0 {
			claim(t, base+i, 0)
		}
	}
	for pq.Len() > 0 {
		e := heap.Pop(pq).(*queueEntry)
		if m.MicroplateID[e.tile] >= 0 {
			continue
		}
		claim(e.tile, e.plate, math.Sqrt(e.score/penalty))
	}

	for _, t := range parent.Tiles {
		if micro := m.MicroplateID[t]; micro >= 0 {
			m.Microplates[micro].Tiles = append(m.Microplates[micro].Tiles, t)
		}
	}
}
