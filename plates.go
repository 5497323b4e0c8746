package aethelgard

import (
	"container/heap"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/Flokey82/go_gens/vectors"

	"github.com/gomgom50/Aethelgard-map-generator-sub001/constraint"
	"github.com/gomgom50/Aethelgard-map-generator-sub001/spheremath"
)

// stagePlates rebuilds the tectonic plate set from scratch: seed
// placement, weighted flood growth over the tile graph, crust type
// assignment and plate velocities. Locked plate assignments act as
// immovable seeds, so a locked tile always ends up on its pinned plate.
func (m *Map) stagePlates(progress func(float64)) error {
	rng := m.stageRand("plates")
	numPlates := m.Cfg.Plates.Count

	for i := range m.PlateID {
		m.PlateID[i] = -1
		m.MicroplateID[i] = -1
	}
	m.Microplates = nil

	seeds, err := m.seedPlates(rng)
	if err != nil {
		return err
	}
	progress(0.25)

	m.growPlates(seeds)
	progress(0.75)

	// Collect the membership lists. Tiles are visited in id order, so
	// each plate's tile list comes out sorted.
	m.Plates = make([]*Plate, numPlates)
	for i, s := range seeds {
		m.Plates[i] = &Plate{
			ID:       i,
			SeedTile: s.tile,
			Weight:   s.weight,
		}
	}
	for t, p := range m.PlateID {
		if p < 0 {
			return fmt.Errorf("plates: tile %d left unassigned after flood", t)
		}
		m.Plates[p].Tiles = append(m.Plates[p].Tiles, t)
	}

	m.assignPlateTypes(numPlates)
	m.assignPlateVelocities(rng)
	progress(1)
	return nil
}

type plateSeed struct {
	tile   int
	weight float64
}

// seedPlates places one seed tile per plate. Plates that have locked
// member tiles seed on their first locked tile; the rest draw random
// positions by lat/lon rather than by tile id, so the layout is stable
// across resolutions for the same seed.
func (m *Map) seedPlates(rng *rand.Rand) ([]plateSeed, error) {
	numPlates := m.Cfg.Plates.Count
	seeds := make([]plateSeed, numPlates)
	for i := range seeds {
		seeds[i].tile = -1
		seeds[i].weight = rng.Float64() * m.Cfg.Plates.WeightVariance
	}

	// Locked tiles pin their plate's seed. Sorted ids keep the choice of
	// "first locked tile" deterministic.
	var lockedIDs []int
	m.Locks.ForEach(func(id int, flags constraint.Flag) {
		if flags&constraint.LockPlate != 0 {
			lockedIDs = append(lockedIDs, id)
		}
	})
	sort.Ints(lockedIDs)
	for _, id := range lockedIDs {
		p, _ := m.Locks.TryGetLockedPlate(id)
		if p < 0 || p >= numPlates {
			return nil, fmt.Errorf("plates: tile %d locked to plate %d, want [0,%d)", id, p, numPlates)
		}
		if seeds[p].tile < 0 {
			seeds[p].tile = id
		}
	}

	used := make(map[int]bool, numPlates)
	for _, s := range seeds {
		if s.tile >= 0 {
			used[s.tile] = true
		}
	}
	for i := range seeds {
		if seeds[i].tile >= 0 {
			continue
		}
		for {
			randLat, randLon := rng.Float64()*180-90, rng.Float64()*360-180
			t := m.Sphere.NearestTile(randLat, randLon)
			if !used[t] {
				seeds[i].tile = t
				used[t] = true
				break
			}
		}
	}
	return seeds, nil
}

// growPlates floods the tile graph from the seeds using a priority
// queue ordered by pathDist^2 * penalty - weight, a graph rendition of
// the power diagram. Locked tiles are pre-claimed for their plate and
// expand like any other frontier tile.
func (m *Map) growPlates(seeds []plateSeed) {
	penalty := m.Cfg.Plates.DistancePenalty

	dist := make([]float64, m.Sphere.NumTiles)
	pq := &ascPriorityQueue{}
	heap.Init(pq)

	claim := func(t, p int, d float64) {
		m.PlateID[t] = p
		dist[t] = d
		for _, nb := range m.Sphere.Neighbors[t] {
			if m.PlateID[nb] >= 0 {
				continue
			}
			nd := d + m.Sphere.Distance(t, nb)
			heap.Push(pq, &queueEntry{
				score: nd*nd*penalty - seeds[p].weight,
				tile:  nb,
				plate: p,
			})
		}
	}

	for p, s := range seeds {
		if m.PlateID[s.tile] < 0 {
			claim(s.tile, p, 0)
		}
	}
	m.Locks.ForEach(func(id int, flags constraint.Flag) {
		if flags&constraint.LockPlate == 0 {
			return
		}
		p, _ := m.Locks.TryGetLockedPlate(id)
		if m.PlateID[id] < 0 {
			claim(id, p, 0)
		}
	})

	for pq.Len() > 0 {
		e := heap.Pop(pq).(*queueEntry)
		if m.PlateID[e.tile] >= 0 {
			continue
		}
		// Recover the path distance from the score; cheaper than carrying
		// it in every queue entry.
		d := math.Sqrt((e.score + seeds[e.plate].weight) / penalty)
		claim(e.tile, e.plate, d)
	}
}

// assignPlateTypes splits the plates into continental and oceanic crust
// by size: the largest plates become continental until the configured
// ratio is reached. SizeTier 0 is the largest plate.
func (m *Map) assignPlateTypes(numPlates int) {
	order := make([]int, numPlates)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		pa, pb := m.Plates[order[a]], m.Plates[order[b]]
		if pa.TileCount() != pb.TileCount() {
			return pa.TileCount() > pb.TileCount()
		}
		return pa.ID < pb.ID
	})

	numContinental := int(math.Round(m.Cfg.Plates.ContinentalRatio * float64(numPlates)))
	if numContinental < 1 {
		numContinental = 1
	}
	if numContinental >= numPlates {
		numContinental = numPlates - 1
	}
	for tier, id := range order {
		p := m.Plates[id]
		p.SizeTier = tier
		if tier < numContinental {
			p.Type = PlateContinental
			p.BaseElevation = m.Cfg.Plates.ContinentalElevation
		} else {
			p.Type = PlateOceanic
			p.BaseElevation = m.Cfg.Plates.OceanicElevation
		}
	}
}

// assignPlateVelocities draws a random direction in the tangent plane
// of each plate's seed tile. Oceanic plates move faster, which is what
// drives most convergent margins onto continental coasts. Plates are
// visited in id order so the draws are reproducible.
func (m *Map) assignPlateVelocities(rng *rand.Rand) {
	for _, p := range m.Plates {
		e1, e2 := spheremath.TangentBasis(m.Sphere.Centers[p.SeedTile])
		angle := rng.Float64() * 2 * math.Pi
		var speed float64
		if p.Type == PlateOceanic {
			speed = 0.5 + rng.Float64()*0.5
		} else {
			speed = 0.3 + rng.Float64()*0.3
		}
		p.Velocity = e1.Mul(math.Cos(angle) * speed).
			Add(e2.Mul(math.Sin(angle) * speed))
	}
}

// plateVelocityAt returns the surface velocity of the plate owning the
// tile, re-projected into the tile's own tangent plane so velocities of
// distant tiles on the same plate stay tangent to the sphere.
func (m *Map) plateVelocityAt(tile int) vectors.Vec3 {
	v := m.Plates[m.PlateID[tile]].Velocity
	n := m.Sphere.Centers[tile]
	return v.Sub(n.Mul(v.Dot(n)))
}
