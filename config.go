package aethelgard

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gomgom50/Aethelgard-map-generator-sub001/noise"
)

// Config holds all configuration options for planet generation.
type Config struct {
	// Resolution is the number of subdivisions per icosahedron edge;
	// the world ends up with 10*Resolution^2+2 tiles.
	Resolution int `yaml:"resolution"`

	Plates PlateConfig `yaml:"plates"`

	// TerrainNoise (stack A) drives elevation micro-variation; WarpNoise
	// (stack B) builds the domain-warp vectors used for plate shaping
	// and the "warped" stamp mask.
	TerrainNoise noise.Config `yaml:"terrain_noise"`
	WarpNoise    noise.Config `yaml:"warp_noise"`

	// NoiseStrength scales the noise contribution to tile elevation
	// (meters). DomainWarpStrength is the displacement magnitude of the
	// warp rounds in unit-sphere coordinates.
	NoiseStrength      float64 `yaml:"noise_strength"`
	DomainWarpStrength float64 `yaml:"domain_warp_strength"`

	PixelMap PixelMapConfig `yaml:"pixel_map"`
	Biomes   BiomeConfig    `yaml:"biomes"`
}

// PlateConfig holds the tunables of the tectonic plate generator.
type PlateConfig struct {
	Count            int     `yaml:"count"`
	ContinentalRatio float64 `yaml:"continental_ratio"` // fraction of plates that are continental, in (0,1)

	// WeightVariance spreads the per-plate Voronoi weights; 0 produces
	// an unweighted diagram. DistancePenalty scales the squared-distance
	// term of the power metric.
	WeightVariance  float64 `yaml:"weight_variance"`
	DistancePenalty float64 `yaml:"distance_penalty"`

	// TransformThreshold is the dot-product magnitude below which a
	// boundary counts as transform rather than convergent/divergent.
	TransformThreshold float64 `yaml:"transform_threshold"`

	// Elevation shaping along boundaries: uplift at convergent zones and
	// rift depression at divergent zones, both fading over BoundaryWidth
	// hops with FalloffPower controlling the profile.
	ConvergentUplift float64 `yaml:"convergent_uplift"` // meters
	DivergentRift    float64 `yaml:"divergent_rift"`    // meters
	BoundaryWidth    int     `yaml:"boundary_width"`    // in tile hops
	FalloffPower     float64 `yaml:"falloff_power"`

	ContinentalElevation float64 `yaml:"continental_elevation"` // base, meters
	OceanicElevation     float64 `yaml:"oceanic_elevation"`     // base, meters (negative)

	// ExpCrustDecay switches crust aging from linear to exponential
	// decay with distance from the nearest ridge.
	ExpCrustDecay bool `yaml:"exp_crust_decay"`

	// Microplate subdivision inside large continental plates.
	MicroplateMinSize int `yaml:"microplate_min_size"` // tiles; 0 disables
	MicroplateSeeds   int `yaml:"microplate_seeds"`
}

// PixelMapConfig sizes the equirectangular per-pixel tile lookup grid.
type PixelMapConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// BiomeConfig holds the tunables of the biome layer.
type BiomeConfig struct {
	// MaxPrecipitation is the precipitation (dm/year) assigned to a
	// moisture value of 1.0 when classifying Whittaker biomes.
	MaxPrecipitation int `yaml:"max_precipitation"`
}

// NewConfig returns a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Resolution: 24,
		Plates: PlateConfig{
			Count:                16,
			ContinentalRatio:     0.4,
			WeightVariance:       0.1,
			DistancePenalty:      1.0,
			TransformThreshold:   0.25,
			ConvergentUplift:     3000,
			DivergentRift:        1200,
			BoundaryWidth:        6,
			FalloffPower:         1.5,
			ContinentalElevation: 600,
			OceanicElevation:     -3800,
			ExpCrustDecay:        false,
			MicroplateMinSize:    200,
			MicroplateSeeds:      3,
		},
		TerrainNoise: noise.DefaultConfig(),
		WarpNoise: noise.Config{
			Octaves:     4,
			Persistence: 0.5,
			Lacunarity:  2.0,
			BaseScale:   1.5,
		},
		NoiseStrength:      900,
		DomainWarpStrength: 0.35,
		PixelMap: PixelMapConfig{
			Width:  720,
			Height: 360,
		},
		Biomes: BiomeConfig{
			MaxPrecipitation: 45,
		},
	}
}

// Validate checks the config for contract violations. Invalid values
// fail here, before any buffers are allocated.
func (c *Config) Validate() error {
	if c.Resolution < 1 {
		return fmt.Errorf("config: resolution must be >= 1, got %d", c.Resolution)
	}
	if c.Plates.Count < 1 {
		return fmt.Errorf("config: plate count must be >= 1, got %d", c.Plates.Count)
	}
	if c.Plates.ContinentalRatio <= 0 || c.Plates.ContinentalRatio >= 1 {
		return fmt.Errorf("config: continental ratio must be in (0,1), got %f", c.Plates.ContinentalRatio)
	}
	if c.Plates.DistancePenalty <= 0 {
		return fmt.Errorf("config: distance penalty must be > 0, got %f", c.Plates.DistancePenalty)
	}
	if c.Plates.Count > 10*c.Resolution*c.Resolution+2 {
		return fmt.Errorf("config: %d plates exceed %d tiles", c.Plates.Count, 10*c.Resolution*c.Resolution+2)
	}
	if c.PixelMap.Width < 1 || c.PixelMap.Height < 1 {
		return fmt.Errorf("config: invalid pixel map size %dx%d", c.PixelMap.Width, c.PixelMap.Height)
	}
	return nil
}

// LoadConfig reads a YAML config file, filling unset fields with the
// defaults from NewConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
