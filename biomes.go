package aethelgard

import (
	"math"

	"github.com/Flokey82/genbiome"
	"github.com/Flokey82/go_gens/gameconstants"

	"github.com/gomgom50/Aethelgard-map-generator-sub001/spheremath"
)

const (
	minTemp   = genbiome.MinTemperatureC
	maxTemp   = genbiome.MaxTemperatureC
	rangeTemp = maxTemp - minTemp
)

// getMeanAnnualTemp returns the temperature at a given latitude within
// the range the Whittaker biomes are defined for, assuming light hits
// the globe at a right angle to the planetary axis.
func getMeanAnnualTemp(lat float64) float64 {
	return math.Sin(spheremath.DegToRad(90-math.Abs(lat)))*rangeTemp + minTemp
}

// getTempFalloffFromAltitude returns the temperature falloff at a given
// altitude in meters above sea level (approx. 9.8 °C per 1000 m).
func getTempFalloffFromAltitude(height float64) float64 {
	if height < 0 {
		return 0.0
	}
	return gameconstants.EarthElevationTemperatureFalloff * height
}

// stageBiomes classifies every land tile into a Whittaker biome from
// its mean annual temperature and moisture. Water tiles keep -1.
// Moisture is a crude stand-in built from the warped noise stack; a
// proper rainfall simulation with wind transport is out of scope here.
func (m *Map) stageBiomes(progress func(float64)) error {
	maxPrecip := float64(m.Cfg.Biomes.MaxPrecipitation)

	spheremath.ChunkWorkers(m.Sphere.NumTiles, func(start, end int) {
		for t := start; t < end; t++ {
			if locked, ok := m.Locks.TryGetLockedBiome(t); ok {
				m.BiomeID[t] = locked
				continue
			}
			if !m.IsLand(t) {
				m.BiomeID[t] = -1
				continue
			}
			lat, _ := m.Sphere.TileLatLon(t)
			temp := getMeanAnnualTemp(lat) - getTempFalloffFromAltitude(m.Elevation[t])
			m.BiomeID[t] = genbiome.GetWhittakerModBiome(int(temp), int(m.tileMoisture(t)*maxPrecip))
		}
	})
	progress(1)
	return nil
}

// tileMoisture estimates moisture in [0,1]: wet along the equator,
// drier towards the horse latitudes, with the warped noise stack
// breaking up the zonal bands.
func (m *Map) tileMoisture(t int) float64 {
	lat, _ := m.Sphere.TileLatLon(t)
	zonal := 0.5 + 0.4*math.Cos(spheremath.DegToRad(2*lat))

	c := m.Sphere.Centers[t]
	n := m.noiseWarp.WarpedEval3(c.X, c.Y, c.Z, m.Cfg.DomainWarpStrength)

	moist := zonal + 0.3*n
	if moist < 0 {
		return 0
	}
	if moist > 1 {
		return 1
	}
	return moist
}
