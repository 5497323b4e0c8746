// Package constraint stores user-pinned tile properties ("locks") that
// the generation stages must not overwrite. It has no knowledge of the
// generation logic; the stages are the only callers that interpret the
// locked values. Locks outlive plate and tile regeneration until they
// are explicitly cleared.
package constraint

import "fmt"

// Flag selects which properties of a tile are locked.
type Flag uint8

const (
	LockPlate Flag = 1 << iota
	LockElevation
	LockBiome
	LockRiver
	LockFeature
)

// entry holds the locked values of one tile. Only the fields whose flag
// bit is set are meaningful.
type entry struct {
	flags     Flag
	plate     int
	elevation float64
	biome     int
}

// Manager is sparse per-tile lock storage. It is not safe for concurrent
// mutation; generation stages only read it while running.
type Manager struct {
	numTiles int
	entries  map[int]*entry
}

// New returns a Manager for a world of the given tile count.
func New(numTiles int) *Manager {
	return &Manager{
		numTiles: numTiles,
		entries:  make(map[int]*entry),
	}
}

func (m *Manager) checkID(id int) error {
	if id < 0 || id >= m.numTiles {
		return fmt.Errorf("constraint: tile id %d out of range [0,%d)", id, m.numTiles)
	}
	return nil
}

func (m *Manager) getOrCreate(id int) *entry {
	e := m.entries[id]
	if e == nil {
		e = &entry{}
		m.entries[id] = e
	}
	return e
}

// Lock sets the given flag bits on a tile without assigning values.
// Use the typed setters to lock a property together with its value.
func (m *Manager) Lock(id int, flags Flag) error {
	if err := m.checkID(id); err != nil {
		return err
	}
	m.getOrCreate(id).flags |= flags
	return nil
}

// Unlock clears the given flag bits; once a tile has no locked
// properties left, its entry is reclaimed.
func (m *Manager) Unlock(id int, flags Flag) error {
	if err := m.checkID(id); err != nil {
		return err
	}
	e := m.entries[id]
	if e == nil {
		return nil
	}
	e.flags &^= flags
	if e.flags == 0 {
		delete(m.entries, id)
	}
	return nil
}

// Has reports whether all of the given flags are locked on the tile.
// Out-of-range ids simply report false; reads are on hot generation
// paths and an invalid id there means the caller already holds a bogus
// tile reference.
func (m *Manager) Has(id int, flags Flag) bool {
	e := m.entries[id]
	return e != nil && e.flags&flags == flags
}

// SetLockedPlate locks the plate assignment of a tile.
func (m *Manager) SetLockedPlate(id, plate int) error {
	if err := m.checkID(id); err != nil {
		return err
	}
	e := m.getOrCreate(id)
	e.flags |= LockPlate
	e.plate = plate
	return nil
}

// TryGetLockedPlate returns the locked plate id of a tile, if any.
func (m *Manager) TryGetLockedPlate(id int) (int, bool) {
	e := m.entries[id]
	if e == nil || e.flags&LockPlate == 0 {
		return 0, false
	}
	return e.plate, true
}

// SetLockedElevation locks the elevation of a tile.
func (m *Manager) SetLockedElevation(id int, elevation float64) error {
	if err := m.checkID(id); err != nil {
		return err
	}
	e := m.getOrCreate(id)
	e.flags |= LockElevation
	e.elevation = elevation
	return nil
}

// TryGetLockedElevation returns the locked elevation of a tile, if any.
func (m *Manager) TryGetLockedElevation(id int) (float64, bool) {
	e := m.entries[id]
	if e == nil || e.flags&LockElevation == 0 {
		return 0, false
	}
	return e.elevation, true
}

// SetLockedBiome locks the biome of a tile.
func (m *Manager) SetLockedBiome(id, biome int) error {
	if err := m.checkID(id); err != nil {
		return err
	}
	e := m.getOrCreate(id)
	e.flags |= LockBiome
	e.biome = biome
	return nil
}

// TryGetLockedBiome returns the locked biome of a tile, if any.
func (m *Manager) TryGetLockedBiome(id int) (int, bool) {
	e := m.entries[id]
	if e == nil || e.flags&LockBiome == 0 {
		return 0, false
	}
	return e.biome, true
}

// ForEach calls fn for every locked tile. Iteration order is undefined;
// callers that need determinism must sort the ids themselves.
func (m *Manager) ForEach(fn func(id int, flags Flag)) {
	for id, e := range m.entries {
		fn(id, e.flags)
	}
}

// Count returns the number of tiles with at least one locked property.
func (m *Manager) Count() int {
	return len(m.entries)
}

// Clear drops all locks.
func (m *Manager) Clear() {
	m.entries = make(map[int]*entry)
}
