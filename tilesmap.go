package aethelgard

import (
	"image"
	"math"

	"github.com/davvo/mercator"
	"github.com/llgcode/draw2d/draw2dimg"
)

const tileSize = 256

// sizeFromZoom returns the pixel size of the whole world at the given
// zoom level in the mercator projection used below.
func sizeFromZoom(zoom int) int {
	return int(math.Pow(2.0, float64(zoom)) * float64(tileSize))
}

// latLonToPixels flips the latitude before projecting; image y grows
// south while latitude grows north.
func latLonToPixels(lat, lon float64, zoom int) (float64, float64) {
	return mercator.LatLonToPixels(-1*lat, lon, zoom)
}

// wrapTileCoordinates wraps slippy tile coordinates at the edges.
func wrapTileCoordinates(x, y, zoom int) (int, int) {
	x = x % (1 << uint(zoom))
	if x < 0 {
		x += 1 << uint(zoom)
	}
	y = y % (1 << uint(zoom))
	if y < 0 {
		y += 1 << uint(zoom)
	}
	return x, y
}

// merc inverts the spherical mercator projection; the mercator package
// only offers the forward direction for pixel coordinates.
type merc struct {
	tileSize          float64
	initialResolution float64
	originShift       float64
}

func newMerc(tileSize float64) *merc {
	return &merc{
		tileSize:          tileSize,
		initialResolution: 2 * math.Pi * 6378137 / tileSize,
		originShift:       2 * math.Pi * 6378137 / 2,
	}
}

// Resolution calculates the resolution (meters/pixel) for the given
// zoom level, measured at the equator.
func (m *merc) Resolution(zoom int) float64 {
	return m.initialResolution / math.Pow(2, float64(zoom))
}

// PixelsToMeters converts pixel coordinates at the given zoom level to
// EPSG:900913 meters.
func (m *merc) PixelsToMeters(px, py float64, zoom int) (float64, float64) {
	res := m.Resolution(zoom)
	return px*res - m.originShift, py*res - m.originShift
}

// PixelsToLatLon converts pixel coordinates at the given zoom level to
// lat/lon in the WGS84 datum.
func (m *merc) PixelsToLatLon(px, py float64, zoom int) (float64, float64) {
	x, y := m.PixelsToMeters(px, py, zoom)
	return m.MetersToLatLon(x, y)
}

// MetersToLatLon converts an EPSG:900913 point to lat/lon in WGS84.
func (m *merc) MetersToLatLon(x, y float64) (float64, float64) {
	lon := (x / m.originShift) * 180
	lat := (y / m.originShift) * 180
	lat = 180 / math.Pi * (2*math.Atan(math.Exp(lat*math.Pi/180)) - math.Pi/2)
	return lat, lon
}

var merc256 = newMerc(tileSize)

// tileBoundingBox is the pixel-space bounding box of one slippy tile.
type tileBoundingBox struct {
	x1, y1 float64
	x2, y2 float64
	zoom   int
	*merc
}

// toLatLon returns the lat/lon coordinates of the north-west and
// south-east corners of the bounding box.
func (t *tileBoundingBox) toLatLon() (lat1, lon1, lat2, lon2 float64) {
	lat1, lon1 = t.PixelsToLatLon(t.x1, t.y1, t.zoom)
	lat2, lon2 = t.PixelsToLatLon(t.x2, t.y2, t.zoom)
	return
}

func newTileBoundingBox(tx, ty, zoom int) tileBoundingBox {
	return tileBoundingBox{
		x1:   float64(tx * tileSize),
		y1:   float64(ty * tileSize),
		x2:   float64((tx + 1) * tileSize),
		y2:   float64((ty + 1) * tileSize),
		zoom: zoom,
		merc: merc256,
	}
}

// GetTile renders the slippy-map tile at the given coordinates and
// zoom level, coloring tiles per the display mode. Tiles partially
// outside the requested square are still painted so the seams between
// adjacent map tiles close up.
func (m *Map) GetTile(x, y, zoom int, mode DisplayMode) image.Image {
	colorFunc := m.tileColorFunc(mode)

	x, y = wrapTileCoordinates(x, y, zoom)

	// Approximate tile footprint in degrees; the fetch margin keeps
	// polygons whose center sits just outside the tile.
	distTile := math.Sqrt(4 * math.Pi / float64(m.Sphere.NumTiles))
	distTileDeg := distTile * 180 / math.Pi

	tbb := newTileBoundingBox(x, y, zoom)
	la1, lo1, la2, lo2 := tbb.toLatLon()
	latLonMargin := math.Max(20/float64(zoom+1), distTileDeg*10)

	la1Margin := la1 - latLonMargin
	la2Margin := la2 + latLonMargin
	lo1Margin := lo1 - latLonMargin
	lo2Margin := lo2 + latLonMargin

	// The mercator conversion yields absolute pixel coordinates, so the
	// tile's own offset has to come off every path point.
	dx, _ := latLonToPixels(la1, lo1, zoom)
	_, dy2 := latLonToPixels(la2, lo2, zoom)

	dest := image.NewRGBA(image.Rect(0, 0, tileSize, tileSize))
	gc := draw2dimg.NewGraphicContext(dest)
	gc.SetLineWidth(1)

	for _, t := range m.Sphere.TilesInRect(la1Margin, la2Margin, lo1Margin, lo2Margin) {
		tLon := m.Sphere.LatLon[t][1]

		var path [][2]float64
		for _, p := range m.Sphere.Polygons[t] {
			pLat, pLon := p[0], p[1]

			// Check if the polygon wraps around the world.
			if pLon-tLon > 120 {
				pLon -= 360
			} else if pLon-tLon < -120 {
				pLon += 360
			}

			px, py := latLonToPixels(pLat, pLon, zoom)
			path = append(path, [2]float64{px - dx, py - dy2})
		}
		if len(path) == 0 {
			continue
		}

		// Shift tiles that sit on the far side of the +/- 180 line into
		// this map tile's frame.
		if lo1 < -175 && tLon > 175 {
			for i := range path {
				path[i][0] -= float64(sizeFromZoom(zoom))
			}
		} else if lo2 > 175 && tLon < -175 {
			for i := range path {
				path[i][0] += float64(sizeFromZoom(zoom))
			}
		}

		col := colorFunc(t)
		gc.SetStrokeColor(col)
		gc.SetFillColor(col)
		gc.BeginPath()
		gc.MoveTo(path[0][0], path[0][1])
		for _, p := range path[1:] {
			gc.LineTo(p[0], p[1])
		}
		gc.Close()
		gc.FillStroke()
	}
	return dest
}
