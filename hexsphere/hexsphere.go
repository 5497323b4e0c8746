// Package hexsphere builds the spherical tile topology of the planet:
// a subdivided icosahedron whose dual graph yields 10*r*r+2 tiles, of
// which exactly 12 are pentagons (the original icosahedron vertices)
// and the rest hexagons. The topology is pure geometry and immutable
// after construction.
package hexsphere

import (
	"fmt"
	"math"
	"sort"

	"github.com/Flokey82/geoquad"
	"github.com/Flokey82/go_gens/vectors"

	"github.com/gomgom50/Aethelgard-map-generator-sub001/spheremath"
)

// NumPentagons is a topology invariant: a subdivided icosahedron always
// keeps its 12 original 5-valence vertices.
const NumPentagons = 12

// Sphere is the tile topology. All slices are indexed by tile id and
// read-only after New returns. The 12 pentagon tiles occupy ids 0..11.
type Sphere struct {
	Resolution int
	NumTiles   int

	Centers   []vectors.Vec3 // unit-sphere tile centers
	LatLon    [][2]float64   // tile centers as lat/lon in degrees
	Neighbors [][]int        // ordered (counter-clockwise) neighbor ids
	Polygons  [][][2]float64 // tile boundary polygons, lat/lon, ccw

	qt *geoquad.QuadTree
}

// icosahedron returns the 12 vertices and 20 faces of a unit icosahedron.
func icosahedron() ([]vectors.Vec3, [][3]int) {
	t := (1.0 + math.Sqrt(5.0)) / 2.0
	raw := []vectors.Vec3{
		{X: -1, Y: t, Z: 0}, {X: 1, Y: t, Z: 0}, {X: -1, Y: -t, Z: 0}, {X: 1, Y: -t, Z: 0},
		{X: 0, Y: -1, Z: t}, {X: 0, Y: 1, Z: t}, {X: 0, Y: -1, Z: -t}, {X: 0, Y: 1, Z: -t},
		{X: t, Y: 0, Z: -1}, {X: t, Y: 0, Z: 1}, {X: -t, Y: 0, Z: -1}, {X: -t, Y: 0, Z: 1},
	}
	verts := make([]vectors.Vec3, len(raw))
	for i, v := range raw {
		verts[i] = v.Normalize()
	}
	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
	return verts, faces
}

// quantKey turns a unit vector into a dedup key. Lattice points on shared
// face edges are computed with commutative arithmetic on both sides, so
// they agree to well below the quantization step.
func quantKey(v vectors.Vec3) [3]int64 {
	const scale = 1e7
	return [3]int64{
		int64(math.Round(v.X * scale)),
		int64(math.Round(v.Y * scale)),
		int64(math.Round(v.Z * scale)),
	}
}

// New builds the topology for the given resolution (subdivisions per
// icosahedron edge). Tile count is 10*resolution^2+2.
func New(resolution int) (*Sphere, error) {
	if resolution < 1 {
		return nil, fmt.Errorf("hexsphere: resolution must be >= 1, got %d", resolution)
	}
	icoVerts, icoFaces := icosahedron()
	wantTiles := 10*resolution*resolution + 2

	// Dedup lattice vertices across faces. The 12 corners go in first so
	// the pentagon tiles always occupy ids 0..11.
	index := make(map[[3]int64]int, wantTiles)
	centers := make([]vectors.Vec3, 0, wantTiles)
	addVert := func(v vectors.Vec3) int {
		key := quantKey(v)
		if id, ok := index[key]; ok {
			return id
		}
		id := len(centers)
		index[key] = id
		centers = append(centers, v)
		return id
	}
	for _, v := range icoVerts {
		addVert(v)
	}

	// Subdivide each face into resolution^2 sub-triangles using a
	// barycentric lattice and collect the triangle list.
	r := resolution
	var triangles [][3]int
	latticeIDs := make([]int, (r+1)*(r+2)/2)
	for _, face := range icoFaces {
		va, vb, vc := icoVerts[face[0]], icoVerts[face[1]], icoVerts[face[2]]

		// Index the lattice rows i=0..r, j=0..r-i.
		idx := 0
		rowStart := make([]int, r+1)
		for i := 0; i <= r; i++ {
			rowStart[i] = idx
			for j := 0; j <= r-i; j++ {
				p := va.Mul(float64(r - i - j)).
					Add(vb.Mul(float64(i))).
					Add(vc.Mul(float64(j))).
					Normalize()
				latticeIDs[idx] = addVert(p)
				idx++
			}
		}

		// Emit the upward and downward sub-triangles of each lattice cell.
		at := func(i, j int) int { return latticeIDs[rowStart[i]+j] }
		for i := 0; i < r; i++ {
			for j := 0; j < r-i; j++ {
				triangles = append(triangles, [3]int{at(i, j), at(i+1, j), at(i, j+1)})
				if j < r-i-1 {
					triangles = append(triangles, [3]int{at(i+1, j), at(i+1, j+1), at(i, j+1)})
				}
			}
		}
	}

	if len(centers) != wantTiles {
		return nil, fmt.Errorf("hexsphere: vertex dedup produced %d tiles, expected %d", len(centers), wantTiles)
	}

	s := &Sphere{
		Resolution: resolution,
		NumTiles:   wantTiles,
		Centers:    centers,
	}
	s.buildDual(triangles)

	// Quadtree over the tile centers for the nearest-tile query.
	points := make([]geoquad.Point, len(s.LatLon))
	for i, ll := range s.LatLon {
		points[i] = geoquad.Point{Lat: ll[0], Lon: ll[1], Data: i}
	}
	s.qt = geoquad.NewQuadTree(points)
	return s, nil
}

// buildDual derives the tile adjacency and boundary polygons from the
// triangle list. Each tile's polygon is the ring of centroids of the
// triangles incident to its center vertex.
func (s *Sphere) buildDual(triangles [][3]int) {
	n := s.NumTiles

	// Triangle centroids, projected back onto the sphere.
	triCenters := make([]vectors.Vec3, len(triangles))
	for t, tri := range triangles {
		c := s.Centers[tri[0]].Add(s.Centers[tri[1]]).Add(s.Centers[tri[2]])
		triCenters[t] = c.Normalize()
	}

	// Incidence: neighbor sets from triangle edges, triangle ring per tile.
	nbSets := make([]map[int]struct{}, n)
	vertTris := make([][]int, n)
	for i := range nbSets {
		nbSets[i] = make(map[int]struct{}, 6)
	}
	for t, tri := range triangles {
		for k := 0; k < 3; k++ {
			a, b := tri[k], tri[(k+1)%3]
			nbSets[a][b] = struct{}{}
			nbSets[b][a] = struct{}{}
			vertTris[a] = append(vertTris[a], t)
		}
	}

	s.Neighbors = make([][]int, n)
	s.LatLon = make([][2]float64, n)
	s.Polygons = make([][][2]float64, n)

	spheremath.ChunkWorkers(n, func(start, end int) {
		for v := start; v < end; v++ {
			center := s.Centers[v]
			la, lo := spheremath.LatLonFromVec3(center, 1.0)
			s.LatLon[v] = [2]float64{la, lo}

			e1, e2 := spheremath.TangentBasis(center)
			angleOf := func(p vectors.Vec3) float64 {
				d := p.Sub(center)
				return math.Atan2(d.Dot(e2), d.Dot(e1))
			}

			// Sort the neighbors counter-clockwise around the center.
			nbs := make([]int, 0, len(nbSets[v]))
			for nb := range nbSets[v] {
				nbs = append(nbs, nb)
			}
			sort.Slice(nbs, func(a, b int) bool {
				return angleOf(s.Centers[nbs[a]]) < angleOf(s.Centers[nbs[b]])
			})
			s.Neighbors[v] = nbs

			// Sort the incident triangle centroids the same way; they form
			// the boundary polygon of the tile.
			tris := vertTris[v]
			sort.Slice(tris, func(a, b int) bool {
				return angleOf(triCenters[tris[a]]) < angleOf(triCenters[tris[b]])
			})
			poly := make([][2]float64, len(tris))
			for i, t := range tris {
				pla, plo := spheremath.LatLonFromVec3(triCenters[t], 1.0)
				poly[i] = [2]float64{pla, plo}
			}
			s.Polygons[v] = poly
		}
	})
}

// IsPentagon reports whether the tile is one of the 12 original
// icosahedron vertices.
func (s *Sphere) IsPentagon(id int) bool {
	return id < NumPentagons
}

// TileLatLon returns the tile center as lat/lon in degrees.
func (s *Sphere) TileLatLon(id int) (float64, float64) {
	ll := s.LatLon[id]
	return ll[0], ll[1]
}

// Distance returns the great arc distance between two tile centers on
// the unit sphere.
func (s *Sphere) Distance(a, b int) float64 {
	return spheremath.Haversine(s.LatLon[a][0], s.LatLon[a][1], s.LatLon[b][0], s.LatLon[b][1])
}

// NearestTile returns the id of the tile whose center is closest to the
// given lat/lon (degrees).
func (s *Sphere) NearestTile(lat, lon float64) int {
	return s.NearestTileVec(spheremath.LatLonToVec3(lat, lon))
}

// NearestTileVec returns the id of the tile whose center is closest to
// the given point. The quadtree supplies a starting guess in lat/lon
// space; a greedy descent over the tile graph then minimizes the true
// chord distance, which makes the result consistent with the adjacency
// structure even near the poles where the quadtree metric distorts.
func (s *Sphere) NearestTileVec(p vectors.Vec3) int {
	lat, lon := spheremath.LatLonFromVec3(p.Normalize(), 1.0)
	best := 0
	if nearest, ok := s.qt.FindNearestNeighbor(geoquad.Point{Lat: lat, Lon: lon}); ok {
		best = nearest.Data.(int)
	}
	bestDist := chordSq(p, s.Centers[best])
	for {
		improved := false
		for _, nb := range s.Neighbors[best] {
			if d := chordSq(p, s.Centers[nb]); d < bestDist {
				best, bestDist = nb, d
				improved = true
			}
		}
		if !improved {
			return best
		}
	}
}

// TilesInRect returns the ids of all tiles whose centers fall inside
// the given lat/lon rectangle.
func (s *Sphere) TilesInRect(minLat, maxLat, minLon, maxLon float64) []int {
	points := s.qt.FindPointsInRect(geoquad.Rect{
		MinLat: minLat,
		MaxLat: maxLat,
		MinLon: minLon,
		MaxLon: maxLon,
	})
	ids := make([]int, len(points))
	for i, p := range points {
		ids[i] = p.Data.(int)
	}
	return ids
}

func chordSq(a, b vectors.Vec3) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}
