package spheremath

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatLonRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		lat := rng.Float64()*178 - 89
		lon := rng.Float64()*358 - 179
		v := LatLonToVec3(lat, lon)
		assert.InDelta(t, 1.0, v.Len(), 1e-12)
		gotLat, gotLon := LatLonFromVec3(v, 1.0)
		assert.InDelta(t, lat, gotLat, 1e-9)
		assert.InDelta(t, lon, gotLon, 1e-9)
	}
}

func TestHaversine(t *testing.T) {
	// Quarter circumference from equator to pole.
	assert.InDelta(t, math.Pi/2, Haversine(0, 0, 90, 0), 1e-9)
	// Antipodes on the equator.
	assert.InDelta(t, math.Pi, Haversine(0, 0, 0, 180), 1e-9)
	assert.InDelta(t, 0, Haversine(33, -70, 33, -70), 1e-12)
	// Symmetry.
	assert.InDelta(t, Haversine(12, 34, -56, 78), Haversine(-56, 78, 12, 34), 1e-12)
}

func TestTangentBasis(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		lat := rng.Float64()*180 - 90
		lon := rng.Float64()*360 - 180
		c := LatLonToVec3(lat, lon)
		e1, e2 := TangentBasis(c)
		assert.InDelta(t, 1.0, e1.Len(), 1e-9)
		assert.InDelta(t, 1.0, e2.Len(), 1e-9)
		assert.InDelta(t, 0, e1.Dot(e2), 1e-9)
		assert.InDelta(t, 0, e1.Dot(c), 1e-9)
		assert.InDelta(t, 0, e2.Dot(c), 1e-9)
	}
}

func TestChunkWorkersCoverage(t *testing.T) {
	seen := make([]int32, 1000)
	ChunkWorkers(len(seen), func(start, end int) {
		for i := start; i < end; i++ {
			seen[i]++
		}
	})
	for i, v := range seen {
		assert.Equal(t, int32(1), v, "item %d visited %d times", i, v)
	}

	// Degenerate sizes must not hang or panic.
	ChunkWorkers(0, func(start, end int) {
		assert.Equal(t, start, end, "empty input yields an empty range")
	})
	ChunkWorkers(1, func(start, end int) {
		assert.Equal(t, 0, start)
		assert.Equal(t, 1, end)
	})
}
