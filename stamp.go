package aethelgard

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/gomgom50/Aethelgard-map-generator-sub001/constraint"
)

// StampAction is how a stamp combines its magnitude with the target
// buffer's current value.
type StampAction int8

const (
	ActionSet StampAction = iota
	ActionAdd
	ActionSubtract
	ActionMax
	ActionMin
	// ActionLerp blends towards the magnitude by the falloff factor, so
	// the stamp's center converges on the magnitude and the rim barely
	// moves.
	ActionLerp
)

// StampTarget selects the per-tile buffer a stamp writes.
type StampTarget int8

const (
	TargetElevation StampTarget = iota
	TargetCrustAge
)

// Stamp is a masked flood-fill edit: starting from the seed tiles it
// expands over the tile graph until the accumulated step weight exceeds
// Radius, applying Action to Target with a magnitude that fades with
// distance. Masks, plate and land gates confine the fill; gated tiles
// are neither written nor expanded through.
type Stamp struct {
	Seeds  []int
	Radius int // expansion budget, in step weight

	// Each hop costs a random step in [MinStep, MaxStep], which makes the
	// stamp rim ragged instead of a perfect disk. Zero values mean a flat
	// cost of 1 per hop, so Radius counts plain tile hops.
	MinStep float64
	MaxStep float64

	Action    StampAction
	Target    StampTarget
	Magnitude float64

	// FalloffPower shapes the fade from full magnitude at the seeds to
	// zero at Radius hops. 0 means no fade.
	FalloffPower float64

	// Mask names a registered noise expression; tiles where the mask
	// value falls below MaskThreshold block the fill.
	Mask          string
	MaskThreshold float64

	// SamePlate keeps the fill on the plate(s) owning the seed tiles.
	// LandOnly keeps it above sea level.
	SamePlate bool
	LandOnly  bool

	// Feature bits to set on every written tile, if any.
	Feature FeatureFlag
}

// stampDelta is one tile's state before a stamp touched it, kept for
// undo.
type stampDelta struct {
	tile    int
	target  StampTarget
	old     float64
	feature FeatureFlag
}

// ApplyStamp runs the stamp and returns the number of tiles written.
// A non-positive radius or an empty seed list writes nothing; that is
// the identity stamp, not an error. Tiles whose target property is
// locked are skipped but still expanded through, so a lock never
// shadows the terrain behind it.
func (m *Map) ApplyStamp(st *Stamp) (int, error) {
	if st.Radius <= 0 || len(st.Seeds) == 0 {
		return 0, nil
	}
	for _, s := range st.Seeds {
		if s < 0 || s >= m.Sphere.NumTiles {
			return 0, fmt.Errorf("stamp: seed tile %d out of range [0,%d)", s, m.Sphere.NumTiles)
		}
	}
	minStep, maxStep := st.MinStep, st.MaxStep
	if maxStep <= 0 {
		minStep, maxStep = 1, 1
	}
	if minStep < 0 || maxStep < minStep {
		return 0, fmt.Errorf("stamp: bad step range [%f,%f]", st.MinStep, st.MaxStep)
	}
	var mask MaskFunc
	if st.Mask != "" {
		mask = m.masks[st.Mask]
		if mask == nil {
			return 0, fmt.Errorf("stamp: unknown mask %q", st.Mask)
		}
	}

	// Every stamp draws from its own salted source so replaying the same
	// stamp sequence on a fresh map reproduces the terrain exactly.
	m.stampCount++
	rng := rand.New(rand.NewSource(m.Seed ^ m.stampCount*0x9E3779B9))

	seedPlates := make(map[int]bool, len(st.Seeds))
	for _, s := range st.Seeds {
		seedPlates[m.PlateID[s]] = true
	}

	blocked := func(t int) bool {
		if st.SamePlate && !seedPlates[m.PlateID[t]] {
			return true
		}
		if st.LandOnly && !m.IsLand(t) {
			return true
		}
		if mask != nil {
			c := m.Sphere.Centers[t]
			if mask(c.X, c.Y, c.Z) < st.MaskThreshold {
				return true
			}
		}
		return false
	}

	dist := make(map[int]float64, len(st.Seeds)*st.Radius*6)
	queue := make([]int, 0, len(st.Seeds)*st.Radius*6)
	for _, s := range st.Seeds {
		if _, seen := dist[s]; seen || blocked(s) {
			continue
		}
		dist[s] = 0
		queue = append(queue, s)
	}

	var deltas []stampDelta
	written := 0
	for queueOut := 0; queueOut < len(queue); queueOut++ {
		// Randomized frontier pick, same trick as the distance field, so
		// the stamp rim comes out ragged instead of perfectly hexagonal.
		pos := queueOut + rng.Intn(len(queue)-queueOut)
		t := queue[pos]
		queue[pos] = queue[queueOut]
		queue[queueOut] = t
		d := dist[t]

		if delta, ok := m.writeStamp(st, t, d); ok {
			deltas = append(deltas, delta)
			written++
		}

		for _, nb := range m.Sphere.Neighbors[t] {
			if _, seen := dist[nb]; seen || blocked(nb) {
				continue
			}
			// The branch dies once its accumulated weight leaves the budget.
			nd := d + minStep + rng.Float64()*(maxStep-minStep)
			if nd > float64(st.Radius) {
				continue
			}
			dist[nb] = nd
			queue = append(queue, nb)
		}
	}

	m.undoLog = append(m.undoLog, deltas)
	return written, nil
}

// writeStamp applies the stamp to one tile at accumulated distance d.
// It reports false when the tile's target property is locked.
func (m *Map) writeStamp(st *Stamp, t int, d float64) (stampDelta, bool) {
	// Full magnitude at the seeds, zero at the radius budget. Tiles at
	// exactly the budget still count as visited for feature marking.
	fade := 1.0
	if st.FalloffPower > 0 {
		fade = math.Pow(1-d/float64(st.Radius), st.FalloffPower)
	}

	var buf []float64
	var lockFlag bool
	switch st.Target {
	case TargetCrustAge:
		buf = m.CrustAge
	default:
		buf = m.Elevation
		lockFlag = m.Locks.Has(t, constraint.LockElevation)
	}
	if lockFlag {
		return stampDelta{}, false
	}

	delta := stampDelta{tile: t, target: st.Target, old: buf[t], feature: m.Features[t]}
	mag := st.Magnitude * fade
	switch st.Action {
	case ActionAdd:
		buf[t] += mag
	case ActionSubtract:
		buf[t] -= mag
	case ActionMax:
		if v := st.Magnitude; v > buf[t] {
			buf[t] = delta.old + (v-delta.old)*fade
		}
	case ActionMin:
		if v := st.Magnitude; v < buf[t] {
			buf[t] = delta.old + (v-delta.old)*fade
		}
	case ActionLerp:
		buf[t] += (st.Magnitude - buf[t]) * fade
	default:
		buf[t] = mag
	}
	m.Features[t] |= st.Feature
	return delta, true
}

// UndoLastStamp reverts the most recent stamp. It reports whether there
// was a stamp to undo.
func (m *Map) UndoLastStamp() bool {
	if len(m.undoLog) == 0 {
		return false
	}
	deltas := m.undoLog[len(m.undoLog)-1]
	m.undoLog = m.undoLog[:len(m.undoLog)-1]
	// Reverse order, in case a stamp ever touches a tile twice.
	for i := len(deltas) - 1; i >= 0; i-- {
		d := deltas[i]
		switch d.target {
		case TargetCrustAge:
			m.CrustAge[d.tile] = d.old
		default:
			m.Elevation[d.tile] = d.old
		}
		m.Features[d.tile] = d.feature
	}
	return true
}
