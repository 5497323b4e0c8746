package aethelgard

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/Flokey82/genbiome"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/mazznoer/colorgrad"

	geojson "github.com/paulmach/go.geojson"
)

// DisplayMode selects the per-tile coloring of rendered images.
type DisplayMode int

const (
	ModeElevation DisplayMode = iota
	ModePlates
	ModeCrustAge
	ModeBiomes
	ModeMicroplates
)

// minMax returns the minimum and maximum of the given values.
func minMax(vals []float64) (float64, float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	min, max := vals[0], vals[0]
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// genBlue returns a blue color with the given intensity (0.0-1.0);
// deep water comes out dark, shallow water light.
func genBlue(intensity float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(intensity * 255),
		G: uint8(intensity * 255),
		B: 255,
		A: 255,
	}
}

// elevationGradient builds the blue-to-red gradient used by the
// elevation and crust age display modes.
func elevationGradient() colorgrad.Gradient {
	grad, err := colorgrad.NewGradient().
		Colors(
			color.RGBA{0, 0, 255, 255},
			color.RGBA{0, 255, 255, 255},
			color.RGBA{0, 255, 0, 255},
			color.RGBA{255, 255, 0, 255},
			color.RGBA{255, 0, 0, 255},
		).
		Build()
	if err != nil {
		panic(err)
	}
	return grad
}

// tileColorFunc returns the per-tile coloring for the given mode.
func (m *Map) tileColorFunc(mode DisplayMode) func(int) color.Color {
	switch mode {
	case ModePlates:
		cols := colorgrad.Rainbow().Colors(uint(len(m.Plates)))
		return func(t int) color.Color {
			return cols[m.PlateID[t]]
		}
	case ModeMicroplates:
		if len(m.Microplates) == 0 {
			return func(int) color.Color { return color.NRGBA{30, 30, 30, 255} }
		}
		cols := colorgrad.Rainbow().Colors(uint(len(m.Microplates)))
		return func(t int) color.Color {
			if micro := m.MicroplateID[t]; micro >= 0 {
				return cols[micro]
			}
			return color.NRGBA{30, 30, 30, 255}
		}
	case ModeCrustAge:
		grad := elevationGradient()
		return func(t int) color.Color {
			return grad.At(m.CrustAge[t])
		}
	case ModeBiomes:
		min, _ := minMax(m.Elevation)
		if min >= 0 {
			min = -1
		}
		maxPrecip := float64(m.Cfg.Biomes.MaxPrecipitation)
		return func(t int) color.Color {
			if m.BiomeID[t] < 0 {
				return genBlue(1 - m.Elevation[t]/min)
			}
			lat, _ := m.Sphere.TileLatLon(t)
			temp := getMeanAnnualTemp(lat) - getTempFalloffFromAltitude(m.Elevation[t])
			return genbiome.GetWhittakerModBiomeColor(int(temp), int(m.tileMoisture(t)*maxPrecip), 1.0)
		}
	default:
		grad := elevationGradient()
		min, max := minMax(m.Elevation)
		if min >= 0 {
			min = -1
		}
		if max <= min {
			max = min + 1
		}
		return func(t int) color.Color {
			if m.Elevation[t] <= 0 {
				return genBlue(1 - m.Elevation[t]/min)
			}
			return grad.At((m.Elevation[t] - min) / (max - min))
		}
	}
}

// RenderImage rasterizes the planet into an equirectangular image of
// the pixel map's size, with plate boundaries stroked on top. The
// pixel map stage must have run.
func (m *Map) RenderImage(mode DisplayMode) (image.Image, error) {
	if m.Pixels == nil {
		return nil, fmt.Errorf("export: pixel map not built yet")
	}
	w, h := m.Pixels.Width, m.Pixels.Height
	colorFunc := m.tileColorFunc(mode)

	dest := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dest.Set(x, y, colorFunc(m.Pixels.TileID[y*w+x]))
		}
	}

	// Stroke the tile polygons of boundary tiles on top.
	gc := draw2dimg.NewGraphicContext(dest)
	gc.SetLineWidth(1)
	for t, b := range m.Boundary {
		if b == BoundaryNone {
			continue
		}
		switch b {
		case BoundaryConvergent:
			gc.SetStrokeColor(color.NRGBA{255, 0, 0, 255})
		case BoundaryDivergent:
			gc.SetStrokeColor(color.NRGBA{0, 255, 0, 255})
		default:
			gc.SetStrokeColor(color.NRGBA{255, 255, 0, 255})
		}
		poly := m.Sphere.Polygons[t]
		if len(poly) == 0 {
			continue
		}
		_, tLon := m.Sphere.TileLatLon(t)
		px := func(p [2]float64) (float64, float64) {
			lon := p[1]
			// Keep polygons that straddle the date line on one side.
			if lon-tLon > 120 {
				lon -= 360
			} else if lon-tLon < -120 {
				lon += 360
			}
			return (lon + 180) / 360 * float64(w), (90 - p[0]) / 180 * float64(h)
		}
		x0, y0 := px(poly[0])
		gc.BeginPath()
		gc.MoveTo(x0, y0)
		for _, p := range poly[1:] {
			x, y := px(p)
			gc.LineTo(x, y)
		}
		gc.Close()
		gc.Stroke()
	}
	return dest, nil
}

// ExportPNG renders the planet in the given mode and writes it to path.
func (m *Map) ExportPNG(path string, mode DisplayMode) error {
	img, err := m.RenderImage(mode)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// GetGeoJSONPlateBorders returns the plate boundary tiles as GeoJSON
// line strings, one feature per plate and boundary type. Segments that
// cross the date line are split so viewers don't draw wrap-around
// artifacts.
func (m *Map) GetGeoJSONPlateBorders() ([]byte, error) {
	geoJSON := geojson.NewFeatureCollection()
	id := 0
	for _, p := range m.Plates {
		for _, b := range []BoundaryType{BoundaryConvergent, BoundaryDivergent, BoundaryTransform} {
			tiles := p.BoundaryTiles[b]
			if len(tiles) == 0 {
				continue
			}
			var coords [][]float64
			flush := func() {
				if len(coords) < 2 {
					coords = nil
					return
				}
				f := geojson.NewLineStringFeature(coords)
				f.ID = id
				id++
				f.SetProperty("plate", p.ID)
				f.SetProperty("boundary", b.String())
				geoJSON.AddFeature(f)
				coords = nil
			}
			for _, t := range tiles {
				la, lo := m.Sphere.TileLatLon(t)
				if len(coords) > 0 && math.Abs(coords[len(coords)-1][0]-lo) > 180 {
					flush()
				}
				coords = append(coords, []float64{lo, la})
			}
			flush()
		}
	}
	return geoJSON.MarshalJSON()
}

// GetGeoJSONFeatures returns all tiles carrying stamped feature flags
// as GeoJSON point features.
func (m *Map) GetGeoJSONFeatures() ([]byte, error) {
	geoJSON := geojson.NewFeatureCollection()
	for t, flags := range m.Features {
		if flags == 0 {
			continue
		}
		la, lo := m.Sphere.TileLatLon(t)
		f := geojson.NewPointFeature([]float64{lo, la})
		f.SetProperty("id", t)
		f.SetProperty("elevation", m.Elevation[t])
		var names []string
		if flags&FeatureHotspot != 0 {
			names = append(names, "hotspot")
		}
		if flags&FeatureBasin != 0 {
			names = append(names, "basin")
		}
		if flags&FeatureMountains != 0 {
			names = append(names, "mountains")
		}
		f.SetProperty("features", names)
		geoJSON.AddFeature(f)
	}
	return geoJSON.MarshalJSON()
}
