package aethelgard

import (
	"math"
	"math/rand"
)

// assignDistanceField calculates the hop distance from any tile in
// seeds to all other tiles, but doesn't expand past any tile in stop.
// Tiles that are unreachable keep +Inf.
//
// The search is a breadth first search with a randomized pick from the
// frontier, which roughens the otherwise perfectly circular wavefronts.
// The roughness comes at a price: a tile can be labeled through an
// overshooting branch before its shortest-path parent leaves the queue,
// so distances are an approximation of the true hop count. The callers
// all normalize or threshold the field, so the ragged look is worth
// more than exactness here.
func (m *Map) assignDistanceField(seeds []int, stop map[int]bool, rng *rand.Rand) []float64 {
	inf := math.Inf(0)
	numTiles := m.Sphere.NumTiles

	tileDistance := make([]float64, numTiles)
	for i := range tileDistance {
		tileDistance[i] = inf
	}

	queue := make([]int, len(seeds), numTiles)
	for i, t := range seeds {
		queue[i] = t
		tileDistance[t] = 0
	}

	for queueOut := 0; queueOut < len(queue); queueOut++ {
		pos := queueOut + rng.Intn(len(queue)-queueOut)
		currentTile := queue[pos]
		queue[pos] = queue[queueOut]
		for _, nb := range m.Sphere.Neighbors[currentTile] {
			if !math.IsInf(tileDistance[nb], 0) || stop[nb] {
				continue
			}
			tileDistance[nb] = tileDistance[currentTile] + 1
			queue = append(queue, nb)
		}
	}
	return tileDistance
}
