package aethelgard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig returns a config small enough to generate quickly.
func testConfig() *Config {
	cfg := NewConfig()
	cfg.Resolution = 6
	cfg.Plates.Count = 8
	cfg.Plates.MicroplateMinSize = 40
	cfg.PixelMap.Width = 180
	cfg.PixelMap.Height = 90
	return cfg
}

func generated(t *testing.T, seed int64, cfg *Config) *Map {
	t.Helper()
	m, err := NewMap(seed, cfg)
	require.NoError(t, err)
	require.NoError(t, m.Generate())
	return m
}

func TestPlateAssignmentCoversSphere(t *testing.T) {
	m := generated(t, 42, testConfig())

	require.Len(t, m.Plates, 8)
	total := 0
	for _, p := range m.Plates {
		assert.Greater(t, p.TileCount(), 0, "plate %d is empty", p.ID)
		total += p.TileCount()
		for _, tile := range p.Tiles {
			assert.Equal(t, p.ID, m.PlateID[tile])
		}
	}
	assert.Equal(t, m.Sphere.NumTiles, total, "plates must partition the sphere")

	for tile, p := range m.PlateID {
		require.True(t, p >= 0 && p < len(m.Plates), "tile %d has plate %d", tile, p)
	}
}

func TestContinentalSplit(t *testing.T) {
	m := generated(t, 7, testConfig())

	continental := 0
	var smallestContinental, largestOceanic int
	smallestContinental = m.Sphere.NumTiles + 1
	for _, p := range m.Plates {
		switch p.Type {
		case PlateContinental:
			continental++
			assert.Equal(t, m.Cfg.Plates.ContinentalElevation, p.BaseElevation)
			if p.TileCount() < smallestContinental {
				smallestContinental = p.TileCount()
			}
		case PlateOceanic:
			assert.Equal(t, m.Cfg.Plates.OceanicElevation, p.BaseElevation)
			if p.TileCount() > largestOceanic {
				largestOceanic = p.TileCount()
			}
		default:
			t.Fatalf("top-level plate %d has type %v", p.ID, p.Type)
		}
	}
	// 0.4 of 8 plates, rounded.
	assert.Equal(t, 3, continental)
	assert.GreaterOrEqual(t, smallestContinental, largestOceanic,
		"continental plates are chosen largest-first")
}

func TestPlateVelocities(t *testing.T) {
	m := generated(t, 11, testConfig())
	for _, p := range m.Plates {
		n := m.Sphere.Centers[p.SeedTile]
		assert.InDelta(t, 0, p.Velocity.Dot(n), 1e-9,
			"plate %d velocity must be tangent at its seed", p.ID)
		speed := p.Velocity.Len()
		assert.Greater(t, speed, 0.2)
		assert.Less(t, speed, 1.1)
	}
}

func TestPlateLockSurvivesRegeneration(t *testing.T) {
	cfg := testConfig()
	m, err := NewMap(99, cfg)
	require.NoError(t, err)

	const lockedTile, lockedPlate = 150, 3
	require.NoError(t, m.Locks.SetLockedPlate(lockedTile, lockedPlate))
	require.NoError(t, m.Generate())
	assert.Equal(t, lockedPlate, m.PlateID[lockedTile])

	require.NoError(t, m.Regenerate())
	assert.Equal(t, lockedPlate, m.PlateID[lockedTile])
}

func TestLockedPlateOutOfRange(t *testing.T) {
	m, err := NewMap(1, testConfig())
	require.NoError(t, err)
	require.NoError(t, m.Locks.SetLockedPlate(10, 99))
	assert.Error(t, m.Generate(), "lock to a nonexistent plate must fail the plate stage")
}

func TestGenerationDeterminism(t *testing.T) {
	a := generated(t, 1234, testConfig())
	b := generated(t, 1234, testConfig())
	assert.Equal(t, a.PlateID, b.PlateID)
	assert.Equal(t, a.Boundary, b.Boundary)
	assert.Equal(t, a.Elevation, b.Elevation)
	assert.Equal(t, a.CrustAge, b.CrustAge)
	assert.Equal(t, a.BiomeID, b.BiomeID)

	c := generated(t, 1235, testConfig())
	assert.NotEqual(t, a.PlateID, c.PlateID, "different seeds should move the plates")
}

func TestBoundaryClassification(t *testing.T) {
	m := generated(t, 5, testConfig())

	sawBoundary := false
	for tile, b := range m.Boundary {
		foreign := false
		for _, nb := range m.Sphere.Neighbors[tile] {
			if m.PlateID[nb] != m.PlateID[tile] {
				foreign = true
				break
			}
		}
		if b == BoundaryNone {
			assert.False(t, foreign, "tile %d touches a foreign plate but is unclassified", tile)
		} else {
			sawBoundary = true
			assert.True(t, foreign, "tile %d classified %v without foreign neighbors", tile, b)
		}
	}
	assert.True(t, sawBoundary, "8 plates cannot tile a sphere without boundaries")

	for _, p := range m.Plates {
		for bt, tiles := range p.BoundaryTiles {
			for _, tile := range tiles {
				assert.Equal(t, p.ID, m.PlateID[tile])
				assert.Equal(t, bt, m.Boundary[tile])
			}
		}
	}
}

func TestCrustAgeRange(t *testing.T) {
	m := generated(t, 21, testConfig())
	for tile, age := range m.CrustAge {
		assert.GreaterOrEqual(t, age, 0.0, "tile %d", tile)
		assert.LessOrEqual(t, age, 1.0, "tile %d", tile)
		if m.Boundary[tile] == BoundaryDivergent {
			assert.Equal(t, 0.0, age, "fresh crust at divergent tile %d", tile)
		}
	}
}

func TestElevationLockHonored(t *testing.T) {
	cfg := testConfig()
	m, err := NewMap(33, cfg)
	require.NoError(t, err)
	require.NoError(t, m.Locks.SetLockedElevation(42, 8848))
	require.NoError(t, m.Generate())
	assert.Equal(t, 8848.0, m.Elevation[42])
}

func TestElevationShape(t *testing.T) {
	m := generated(t, 3, testConfig())

	// Oceanic interiors should sit well below continental interiors on
	// average; noise alone cannot close a multi-km base gap.
	var sumCont, sumOcean float64
	var nCont, nOcean int
	for tile, p := range m.PlateID {
		if m.Boundary[tile] != BoundaryNone {
			continue
		}
		if m.Plates[p].Type == PlateContinental {
			sumCont += m.Elevation[tile]
			nCont++
		} else {
			sumOcean += m.Elevation[tile]
			nOcean++
		}
	}
	require.Greater(t, nCont, 0)
	require.Greater(t, nOcean, 0)
	assert.Greater(t, sumCont/float64(nCont), sumOcean/float64(nOcean)+1000)
}

func TestMicroplates(t *testing.T) {
	m := generated(t, 77, testConfig())

	subdivided := make(map[int]bool)
	for _, p := range m.Plates {
		if p.Type == PlateContinental && p.TileCount() >= m.Cfg.Plates.MicroplateMinSize {
			subdivided[p.ID] = true
		}
	}
	if len(subdivided) == 0 {
		t.Skip("no plate large enough to subdivide at this seed")
	}
	require.NotEmpty(t, m.Microplates)

	for tile, micro := range m.MicroplateID {
		if micro < 0 {
			assert.False(t, subdivided[m.PlateID[tile]],
				"tile %d inside a subdivided plate missing its microplate", tile)
			continue
		}
		require.Less(t, micro, len(m.Microplates))
		assert.True(t, subdivided[m.PlateID[tile]],
			"tile %d has a microplate outside any subdivided plate", tile)
	}
	for _, mp := range m.Microplates {
		assert.Equal(t, PlateMicro, mp.Type)
		assert.NotEmpty(t, mp.Tiles)
	}
}
