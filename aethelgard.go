// Package aethelgard procedurally synthesizes a planet surface on a
// subdivided-icosahedron tile sphere: tectonic plates grown with a
// weighted Voronoi flood, boundary classification, crust aging, noise
// shaped elevation and stamped feature layers, all driven by a single
// deterministic seed and sequenced by a resumable stage pipeline.
package aethelgard

import (
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/Flokey82/go_gens/vectors"

	"github.com/gomgom50/Aethelgard-map-generator-sub001/constraint"
	"github.com/gomgom50/Aethelgard-map-generator-sub001/hexsphere"
	"github.com/gomgom50/Aethelgard-map-generator-sub001/noise"
)

// BoundaryType classifies a tile that borders a different plate.
type BoundaryType int8

const (
	BoundaryNone BoundaryType = iota
	BoundaryConvergent
	BoundaryDivergent
	BoundaryTransform
)

func (b BoundaryType) String() string {
	switch b {
	case BoundaryConvergent:
		return "convergent"
	case BoundaryDivergent:
		return "divergent"
	case BoundaryTransform:
		return "transform"
	}
	return "none"
}

// FeatureFlag marks tiles as members of stamped feature layers.
type FeatureFlag uint8

const (
	FeatureHotspot FeatureFlag = 1 << iota
	FeatureBasin
	FeatureMountains
)

// PlateType is the crust type of a plate.
type PlateType int8

const (
	PlateOceanic PlateType = iota
	PlateContinental
	PlateMicro
)

func (t PlateType) String() string {
	switch t {
	case PlateContinental:
		return "continental"
	case PlateMicro:
		return "microplate"
	}
	return "oceanic"
}

// Plate is one tectonic plate. Plates are created fresh every time the
// plate stage runs; only locked tile properties survive regeneration.
type Plate struct {
	ID            int
	Type          PlateType
	SeedTile      int
	Weight        float64 // power-diagram weight of the Voronoi seed
	Velocity      vectors.Vec3
	SizeTier      int // 0 = largest plate
	BaseElevation float64
	Tiles         []int
	BoundaryTiles map[BoundaryType][]int
}

// TileCount returns the number of tiles owned by the plate.
func (p *Plate) TileCount() int {
	return len(p.Tiles)
}

// MaskFunc samples a named noise expression at a 3d position on the
// unit sphere. Stamps use masks to confine features to, for example,
// regions where a noise field exceeds a threshold.
type MaskFunc func(x, y, z float64) float64

// Map is the world state: the immutable topology plus the per-tile
// buffers every generation stage reads and writes. Buffers are
// allocated once at the world resolution and mutated in place.
type Map struct {
	Seed   int64
	Cfg    *Config
	Sphere *hexsphere.Sphere

	noiseTerrain *noise.Noise // stack A: elevation micro-variation
	noiseWarp    *noise.Noise // stack B: domain warp / plate shaping
	masks        map[string]MaskFunc

	// Per-tile buffers, indexed by tile id.
	Elevation    []float64 // meters; <= 0 is below sea level
	PlateID      []int     // -1 while unassigned
	Boundary     []BoundaryType
	MicroplateID []int // -1 outside any microplate
	CrustAge     []float64
	BiomeID      []int // -1 for water tiles
	Features     []FeatureFlag

	Plates      []*Plate
	Microplates []*Plate

	Locks    *constraint.Manager
	Pixels   *PixelMap
	Pipeline *Pipeline

	stampCount int64
	undoLog    [][]stampDelta
}

// NewMap builds the topology and the tile buffers for the given seed
// and config. Generation itself is explicit: call Generate, or drive
// the Pipeline stage by stage.
func NewMap(seed int64, cfg *Config) (*Map, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sphere, err := hexsphere.New(cfg.Resolution)
	if err != nil {
		return nil, err
	}
	noiseTerrain, err := noise.New(seed, cfg.TerrainNoise)
	if err != nil {
		return nil, err
	}
	// Offset the warp stack's seed so the two stacks decorrelate.
	noiseWarp, err := noise.New(seed+1, cfg.WarpNoise)
	if err != nil {
		return nil, err
	}

	n := sphere.NumTiles
	m := &Map{
		Seed:         seed,
		Cfg:          cfg,
		Sphere:       sphere,
		noiseTerrain: noiseTerrain,
		noiseWarp:    noiseWarp,
		Elevation:    make([]float64, n),
		PlateID:      make([]int, n),
		Boundary:     make([]BoundaryType, n),
		MicroplateID: make([]int, n),
		CrustAge:     make([]float64, n),
		BiomeID:      make([]int, n),
		Features:     make([]FeatureFlag, n),
		Locks:        constraint.New(n),
	}
	for i := 0; i < n; i++ {
		m.PlateID[i] = -1
		m.MicroplateID[i] = -1
		m.BiomeID[i] = -1
	}

	m.masks = map[string]MaskFunc{
		"base": m.noiseTerrain.Eval3,
		"warped": func(x, y, z float64) float64 {
			return m.noiseWarp.WarpedEval3(x, y, z, cfg.DomainWarpStrength)
		},
		"ridged": func(x, y, z float64) float64 {
			v := m.noiseTerrain.Eval3(x, y, z)
			if v < 0 {
				v = -v
			}
			return 1 - 2*v
		},
	}

	m.Pipeline = newPipeline(m, []*Stage{
		newStage("plates", (*Map).stagePlates),
		newStage("boundaries", (*Map).stageBoundaries),
		newStage("crustage", (*Map).stageCrustAge),
		newStage("elevation", (*Map).stageElevation),
		newStage("microplates", (*Map).stageMicroplates),
		newStage("biomes", (*Map).stageBiomes),
		newStage("pixelmap", (*Map).stagePixelMap),
	})
	return m, nil
}

// Generate runs all pipeline stages in order.
func (m *Map) Generate() error {
	return m.Pipeline.RunAll()
}

// Regenerate resets the pipeline and reruns every stage. The previous
// plate set and per-tile assignments are discarded and rebuilt, but
// locked tile properties are preserved.
func (m *Map) Regenerate() error {
	m.Pipeline.Reset()
	return m.Pipeline.RunAll()
}

// stageRand returns a deterministic random source for a named stage.
// Salting the seed with the stage name keeps out-of-order single-stage
// reruns reproducible regardless of what ran before.
func (m *Map) stageRand(name string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	return rand.New(rand.NewSource(m.Seed ^ int64(h.Sum64())))
}

// IsLand reports whether the tile is above sea level.
func (m *Map) IsLand(id int) bool {
	return m.Elevation[id] > 0
}

// RegisterMask adds a named noise expression for use by stamp commands.
func (m *Map) RegisterMask(name string, fn MaskFunc) error {
	if name == "" || fn == nil {
		return fmt.Errorf("aethelgard: mask needs a name and a function")
	}
	m.masks[name] = fn
	return nil
}

// Tile is a read-only snapshot of one tile, the shape consumed by
// renderers and the query endpoints.
type Tile struct {
	ID           int
	Lat, Lon     float64
	Elevation    float64
	Land         bool
	PlateID      int
	Boundary     BoundaryType
	MicroplateID int
	CrustAge     float64
	BiomeID      int
	Features     FeatureFlag
	Pentagon     bool
	Neighbors    []int
	Polygon      [][2]float64
}

// Tile returns a snapshot of the tile with the given id.
func (m *Map) Tile(id int) (Tile, error) {
	if id < 0 || id >= m.Sphere.NumTiles {
		return Tile{}, fmt.Errorf("aethelgard: tile id %d out of range [0,%d)", id, m.Sphere.NumTiles)
	}
	lat, lon := m.Sphere.TileLatLon(id)
	return Tile{
		ID:           id,
		Lat:          lat,
		Lon:          lon,
		Elevation:    m.Elevation[id],
		Land:         m.IsLand(id),
		PlateID:      m.PlateID[id],
		Boundary:     m.Boundary[id],
		MicroplateID: m.MicroplateID[id],
		CrustAge:     m.CrustAge[id],
		BiomeID:      m.BiomeID[id],
		Features:     m.Features[id],
		Pentagon:     m.Sphere.IsPentagon(id),
		Neighbors:    m.Sphere.Neighbors[id],
		Polygon:      m.Sphere.Polygons[id],
	}, nil
}

// sampleTerrain evaluates the domain-warped terrain noise at a tile
// center. Used for elevation micro-variation.
func (m *Map) sampleTerrain(center vectors.Vec3) float64 {
	return m.noiseTerrain.WarpedEval3(center.X, center.Y, center.Z, m.Cfg.DomainWarpStrength)
}
