package aethelgard

import (
	"fmt"

	"github.com/gomgom50/Aethelgard-map-generator-sub001/jumpflood"
)

// PixelMap is an equirectangular grid mapping every pixel to the id of
// the nearest tile. Renderers and hit tests use it as a constant-time
// replacement for the nearest-tile query.
type PixelMap struct {
	Width, Height int
	TileID        []int // row-major, Width*Height entries
}

// stagePixelMap rasterizes the tile ownership into the pixel grid by
// running the jump-flood solver with one zero-weight seed per tile.
// Longitude wraps; distances are great-circle so ownership stays honest
// near the poles, where the projection stretches tiles wide.
func (m *Map) stagePixelMap(progress func(float64)) error {
	w, h := m.Cfg.PixelMap.Width, m.Cfg.PixelMap.Height

	seeds := make([]jumpflood.Seed, m.Sphere.NumTiles)
	for t := 0; t < m.Sphere.NumTiles; t++ {
		lat, lon := m.Sphere.TileLatLon(t)
		x := int((lon + 180) / 360 * float64(w))
		y := int((90 - lat) / 180 * float64(h))
		if x >= w {
			x = w - 1
		}
		if y >= h {
			y = h - 1
		}
		seeds[t] = jumpflood.Seed{X: x, Y: y, ID: t}
	}
	progress(0.2)

	owners, err := jumpflood.Solve(jumpflood.Config{
		Width:     w,
		Height:    h,
		WrapX:     true,
		Spherical: true,
	}, seeds)
	if err != nil {
		return err
	}
	m.Pixels = &PixelMap{Width: w, Height: h, TileID: owners}
	progress(1)
	return nil
}

// TileAt returns the tile owning the given pixel.
func (pm *PixelMap) TileAt(x, y int) (int, error) {
	if x < 0 || x >= pm.Width || y < 0 || y >= pm.Height {
		return 0, fmt.Errorf("pixelmap: pixel (%d,%d) outside %dx%d grid", x, y, pm.Width, pm.Height)
	}
	return pm.TileID[y*pm.Width+x], nil
}

// At returns the tile owning the given lat/lon (degrees).
func (pm *PixelMap) At(lat, lon float64) int {
	x := int((lon + 180) / 360 * float64(pm.Width))
	y := int((90 - lat) / 180 * float64(pm.Height))
	if x < 0 {
		x = 0
	} else if x >= pm.Width {
		x = pm.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= pm.Height {
		y = pm.Height - 1
	}
	return pm.TileID[y*pm.Width+x]
}
