// Package noise provides a seeded, multi-octave coherent noise source
// built on opensimplex, with optional domain warping.
package noise

import (
	"fmt"
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// offsetRange is the magnitude of the per-octave lattice offsets.
// Each octave is sampled at its own large random offset so that the
// octave lattices never line up at the origin. Without this, all octaves
// share a zero crossing at (0,0,0) which shows up as a star/grid artifact
// on tiles near the poles of the sphere.
const offsetRange = 100000.0

// Config holds the tunable parameters of a noise source.
type Config struct {
	Octaves     int     `yaml:"octaves"`
	Persistence float64 `yaml:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity"`
	BaseScale   float64 `yaml:"base_scale"`
}

// DefaultConfig returns the parameters used for terrain micro-variation.
func DefaultConfig() Config {
	return Config{
		Octaves:     6,
		Persistence: 2.0 / 3.0,
		Lacunarity:  2.0,
		BaseScale:   1.0,
	}
}

// Noise is a seeded multi-octave noise source. All fields are fixed at
// construction, so a single instance is safe for concurrent evaluation.
type Noise struct {
	cfg         Config
	seed        int64
	amplitudes  []float64
	offsets     [][3]float64 // per-octave lattice offsets
	warpOffsets [6][3]float64
	norm        float64 // 1 / sum of amplitudes
	os          opensimplex.Noise
}

// New returns a new Noise for the given seed and config. The config is
// validated up front; an invalid config is a programming error, not
// something we try to repair by clamping.
func New(seed int64, cfg Config) (*Noise, error) {
	if cfg.Octaves < 1 {
		return nil, fmt.Errorf("noise: octaves must be >= 1, got %d", cfg.Octaves)
	}
	if cfg.Persistence <= 0 {
		return nil, fmt.Errorf("noise: persistence must be > 0, got %f", cfg.Persistence)
	}
	if cfg.Lacunarity <= 0 {
		return nil, fmt.Errorf("noise: lacunarity must be > 0, got %f", cfg.Lacunarity)
	}
	if cfg.BaseScale <= 0 {
		return nil, fmt.Errorf("noise: base scale must be > 0, got %f", cfg.BaseScale)
	}

	n := &Noise{
		cfg:        cfg,
		seed:       seed,
		amplitudes: make([]float64, cfg.Octaves),
		offsets:    make([][3]float64, cfg.Octaves),
		os:         opensimplex.New(seed),
	}

	// Initialize the amplitudes and the normalization factor.
	var sum float64
	for i := range n.amplitudes {
		n.amplitudes[i] = math.Pow(cfg.Persistence, float64(i))
		sum += n.amplitudes[i]
	}
	n.norm = 1 / sum

	// Draw the per-octave and warp offsets from a seed-local generator.
	rnd := rand.New(rand.NewSource(seed))
	for i := range n.offsets {
		for j := 0; j < 3; j++ {
			n.offsets[i][j] = (rnd.Float64()*2 - 1) * offsetRange
		}
	}
	for i := range n.warpOffsets {
		for j := 0; j < 3; j++ {
			n.warpOffsets[i][j] = (rnd.Float64()*2 - 1) * offsetRange
		}
	}
	return n, nil
}

// Seed returns the seed the noise was constructed with.
func (n *Noise) Seed() int64 {
	return n.seed
}

// Config returns the construction config.
func (n *Noise) Config() Config {
	return n.cfg
}

// Eval3 returns the noise value at the given 3d point, approximately
// within [-1, 1].
func (n *Noise) Eval3(x, y, z float64) float64 {
	var sum float64
	freq := n.cfg.BaseScale
	for octave := 0; octave < n.cfg.Octaves; octave++ {
		off := n.offsets[octave]
		sum += n.amplitudes[octave] * n.os.Eval3(
			x*freq+off[0],
			y*freq+off[1],
			z*freq+off[2])
		freq *= n.cfg.Lacunarity
	}
	return sum * n.norm
}

// Eval2 returns the noise value at the given 2d point, approximately
// within [-1, 1].
func (n *Noise) Eval2(x, y float64) float64 {
	var sum float64
	freq := n.cfg.BaseScale
	for octave := 0; octave < n.cfg.Octaves; octave++ {
		off := n.offsets[octave]
		sum += n.amplitudes[octave] * n.os.Eval2(
			x*freq+off[0],
			y*freq+off[1])
		freq *= n.cfg.Lacunarity
	}
	return sum * n.norm
}

// WarpedEval3 evaluates the noise at a domain-warped position. Two warp
// rounds are applied: the base noise is sampled three times at offset
// inputs to build a warp vector, the warped position is fed through the
// same construction once more, and the final position is evaluated.
// This produces swirled, non-axis-aligned contours instead of the
// blobby look of plain fractal noise.
func (n *Noise) WarpedEval3(x, y, z, strength float64) float64 {
	qx := n.evalAt(x, y, z, n.warpOffsets[0])
	qy := n.evalAt(x, y, z, n.warpOffsets[1])
	qz := n.evalAt(x, y, z, n.warpOffsets[2])

	wx := x + strength*qx
	wy := y + strength*qy
	wz := z + strength*qz

	rx := n.evalAt(wx, wy, wz, n.warpOffsets[3])
	ry := n.evalAt(wx, wy, wz, n.warpOffsets[4])
	rz := n.evalAt(wx, wy, wz, n.warpOffsets[5])

	return n.Eval3(x+strength*rx, y+strength*ry, z+strength*rz)
}

func (n *Noise) evalAt(x, y, z float64, off [3]float64) float64 {
	return n.Eval3(x+off[0], y+off[1], z+off[2])
}

// PlusOneOctave returns a new Noise with one more octave.
func (n *Noise) PlusOneOctave() *Noise {
	cfg := n.cfg
	cfg.Octaves++
	nn, err := New(n.seed, cfg)
	if err != nil {
		// The receiver was already validated, only octaves changed.
		panic(err)
	}
	return nn
}
