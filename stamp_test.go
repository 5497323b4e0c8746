package aethelgard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStampIdentityCases(t *testing.T) {
	m := generated(t, 1, testConfig())

	written, err := m.ApplyStamp(&Stamp{Seeds: []int{0}, Radius: 0, Magnitude: 100})
	require.NoError(t, err)
	assert.Zero(t, written)

	written, err = m.ApplyStamp(&Stamp{Radius: 5, Magnitude: 100})
	require.NoError(t, err)
	assert.Zero(t, written, "no seeds writes nothing")
}

func TestStampSeedValidation(t *testing.T) {
	m := generated(t, 1, testConfig())
	_, err := m.ApplyStamp(&Stamp{Seeds: []int{-1}, Radius: 2})
	assert.Error(t, err)
	_, err = m.ApplyStamp(&Stamp{Seeds: []int{m.Sphere.NumTiles}, Radius: 2})
	assert.Error(t, err)
}

func TestStampUnknownMask(t *testing.T) {
	m := generated(t, 1, testConfig())
	_, err := m.ApplyStamp(&Stamp{Seeds: []int{0}, Radius: 2, Mask: "nope"})
	assert.Error(t, err)
}

func TestStampAddRaisesElevation(t *testing.T) {
	m := generated(t, 2, testConfig())
	seed := 100
	before := m.Elevation[seed]
	beforeNb := m.Elevation[m.Sphere.Neighbors[seed][0]]

	written, err := m.ApplyStamp(&Stamp{
		Seeds:        []int{seed},
		Radius:       3,
		Action:       ActionAdd,
		Target:       TargetElevation,
		Magnitude:    2000,
		FalloffPower: 1,
		Feature:      FeatureMountains,
	})
	require.NoError(t, err)
	assert.Greater(t, written, 1)

	assert.InDelta(t, before+2000, m.Elevation[seed], 1e-9,
		"full magnitude at the seed tile")
	assert.Greater(t, m.Elevation[m.Sphere.Neighbors[seed][0]], beforeNb,
		"neighbors inside the radius get a partial boost")
	assert.NotZero(t, m.Features[seed]&FeatureMountains)
}

func TestStampFalloffDecreasesOutward(t *testing.T) {
	m := generated(t, 2, testConfig())
	seed := 50
	before := append([]float64(nil), m.Elevation...)

	_, err := m.ApplyStamp(&Stamp{
		Seeds:        []int{seed},
		Radius:       4,
		Action:       ActionAdd,
		Magnitude:    1000,
		FalloffPower: 2,
	})
	require.NoError(t, err)

	gainSeed := m.Elevation[seed] - before[seed]
	for _, nb := range m.Sphere.Neighbors[seed] {
		gainNb := m.Elevation[nb] - before[nb]
		assert.Greater(t, gainNb, 0.0)
		assert.Less(t, gainNb, gainSeed)
	}
}

func TestStampRespectsElevationLock(t *testing.T) {
	m := generated(t, 3, testConfig())
	seed := 10
	locked := m.Sphere.Neighbors[seed][0]
	require.NoError(t, m.Locks.SetLockedElevation(locked, -42))
	m.Elevation[locked] = -42

	// The lock blocks the write but not the expansion: the neighbor's
	// own neighbors must still receive the stamp.
	behind := -1
	for _, nb := range m.Sphere.Neighbors[locked] {
		if nb != seed && m.Sphere.Distance(seed, nb) > 0 {
			behind = nb
		}
	}
	require.GreaterOrEqual(t, behind, 0)
	beforeBehind := m.Elevation[behind]

	_, err := m.ApplyStamp(&Stamp{
		Seeds:     []int{seed},
		Radius:    3,
		Action:    ActionAdd,
		Magnitude: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, -42.0, m.Elevation[locked], "locked tile untouched")
	assert.Greater(t, m.Elevation[behind], beforeBehind, "fill passes through locked tiles")
}

func TestStampSamePlate(t *testing.T) {
	m := generated(t, 4, testConfig())

	// Pick a boundary tile so the radius definitely crosses the plate edge.
	seed := -1
	for tile, b := range m.Boundary {
		if b != BoundaryNone {
			seed = tile
			break
		}
	}
	require.GreaterOrEqual(t, seed, 0)
	before := append([]float64(nil), m.Elevation...)

	_, err := m.ApplyStamp(&Stamp{
		Seeds:     []int{seed},
		Radius:    4,
		Action:    ActionAdd,
		Magnitude: 999,
		SamePlate: true,
	})
	require.NoError(t, err)

	for tile := range m.Elevation {
		if m.Elevation[tile] != before[tile] {
			assert.Equal(t, m.PlateID[seed], m.PlateID[tile],
				"tile %d on a foreign plate was stamped", tile)
		}
	}
}

func TestStampFalloffZeroAtRadius(t *testing.T) {
	m := generated(t, 11, testConfig())
	seed := 70
	before := append([]float64(nil), m.Elevation...)

	// With unit steps and radius 1 the direct neighbors sit exactly at
	// the budget: full magnitude at the seed, zero at the rim.
	written, err := m.ApplyStamp(&Stamp{
		Seeds:        []int{seed},
		Radius:       1,
		Action:       ActionAdd,
		Magnitude:    1000,
		FalloffPower: 1,
		Feature:      FeatureHotspot,
	})
	require.NoError(t, err)
	assert.InDelta(t, before[seed]+1000, m.Elevation[seed], 1e-9)
	for _, nb := range m.Sphere.Neighbors[seed] {
		assert.Equal(t, before[nb], m.Elevation[nb],
			"tile %d at the radius budget must not move", nb)
		assert.NotZero(t, m.Features[nb]&FeatureHotspot,
			"rim tiles are still visited and marked")
	}
	assert.Greater(t, written, 1)

	// Same boundary at a larger radius: every tile three hops out
	// accumulates exactly the budget and must stay put.
	m = generated(t, 11, testConfig())
	seed = 70
	before = append([]float64(nil), m.Elevation...)
	_, err = m.ApplyStamp(&Stamp{
		Seeds:        []int{seed},
		Radius:       3,
		Action:       ActionAdd,
		Magnitude:    1000,
		FalloffPower: 1,
	})
	require.NoError(t, err)
	hops := map[int]int{seed: 0}
	frontier := []int{seed}
	for hop := 1; hop <= 3; hop++ {
		var next []int
		for _, tile := range frontier {
			for _, nb := range m.Sphere.Neighbors[tile] {
				if _, seen := hops[nb]; !seen {
					hops[nb] = hop
					next = append(next, nb)
				}
			}
		}
		frontier = next
	}
	for tile, hop := range hops {
		if hop == 3 {
			assert.Equal(t, before[tile], m.Elevation[tile],
				"tile %d at the radius budget must not move", tile)
		}
	}
}

func TestStampStepRange(t *testing.T) {
	_, err := generated(t, 7, testConfig()).ApplyStamp(&Stamp{
		Seeds: []int{0}, Radius: 3, MinStep: 3, MaxStep: 2,
	})
	assert.Error(t, err, "inverted step range")

	// Heavier steps exhaust the radius budget sooner, so the same stamp
	// covers fewer tiles.
	cheap, err := generated(t, 8, testConfig()).ApplyStamp(&Stamp{
		Seeds:     []int{60},
		Radius:    4,
		Action:    ActionAdd,
		Magnitude: 100,
	})
	require.NoError(t, err)
	costly, err := generated(t, 8, testConfig()).ApplyStamp(&Stamp{
		Seeds:     []int{60},
		Radius:    4,
		MinStep:   2,
		MaxStep:   2,
		Action:    ActionAdd,
		Magnitude: 100,
	})
	require.NoError(t, err)
	assert.Less(t, costly, cheap)
	assert.Greater(t, costly, 1, "the seed's direct neighbors stay in range")
}

func TestStampCrustAgeTarget(t *testing.T) {
	m := generated(t, 5, testConfig())
	seed := 30
	_, err := m.ApplyStamp(&Stamp{
		Seeds:     []int{seed},
		Radius:    2,
		Action:    ActionSet,
		Target:    TargetCrustAge,
		Magnitude: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, m.CrustAge[seed])
}

func TestStampUndo(t *testing.T) {
	m := generated(t, 6, testConfig())
	beforeElev := append([]float64(nil), m.Elevation...)
	beforeFeat := append([]FeatureFlag(nil), m.Features...)

	_, err := m.ApplyStamp(&Stamp{
		Seeds:     []int{5},
		Radius:    3,
		Action:    ActionAdd,
		Magnitude: 1234,
		Feature:   FeatureHotspot,
	})
	require.NoError(t, err)
	_, err = m.ApplyStamp(&Stamp{
		Seeds:     []int{200},
		Radius:    2,
		Action:    ActionSubtract,
		Magnitude: 500,
		Feature:   FeatureBasin,
	})
	require.NoError(t, err)

	assert.True(t, m.UndoLastStamp())
	assert.True(t, m.UndoLastStamp())
	assert.Equal(t, beforeElev, m.Elevation)
	assert.Equal(t, beforeFeat, m.Features)
	assert.False(t, m.UndoLastStamp(), "nothing left to undo")
}

func TestStampDeterminism(t *testing.T) {
	st := &Stamp{
		Seeds:         []int{123},
		Radius:        5,
		Action:        ActionAdd,
		Magnitude:     800,
		FalloffPower:  1.5,
		Mask:          "base",
		MaskThreshold: -0.4,
	}
	a := generated(t, 9, testConfig())
	b := generated(t, 9, testConfig())
	wa, err := a.ApplyStamp(st)
	require.NoError(t, err)
	wb, err := b.ApplyStamp(st)
	require.NoError(t, err)
	assert.Equal(t, wa, wb)
	assert.Equal(t, a.Elevation, b.Elevation)
}

func TestRegisterMask(t *testing.T) {
	m := generated(t, 10, testConfig())
	assert.Error(t, m.RegisterMask("", nil))
	require.NoError(t, m.RegisterMask("flat", func(x, y, z float64) float64 { return 1 }))
	written, err := m.ApplyStamp(&Stamp{
		Seeds:         []int{0},
		Radius:        1,
		Action:        ActionAdd,
		Magnitude:     10,
		Mask:          "flat",
		MaskThreshold: 0.5,
	})
	require.NoError(t, err)
	assert.Greater(t, written, 0)
}
