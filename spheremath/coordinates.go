package spheremath

import (
	"math"

	"github.com/Flokey82/go_gens/vectors"
)

func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// LatLonToVec3 converts latitude and longitude (in degrees) to a point
// on the unit sphere.
// See: https://rbrundritt.wordpress.com/2008/10/14/conversion-between-spherical-and-cartesian-coordinates-systems/
func LatLonToVec3(latDeg, lonDeg float64) vectors.Vec3 {
	latRad := DegToRad(latDeg)
	lonRad := DegToRad(lonDeg)
	return vectors.Vec3{
		X: math.Cos(latRad) * math.Cos(lonRad),
		Y: math.Cos(latRad) * math.Sin(lonRad),
		Z: math.Sin(latRad),
	}
}

// LatLonFromVec3 converts a point on a sphere of the given radius back to
// latitude and longitude in degrees.
func LatLonFromVec3(position vectors.Vec3, sphereRadius float64) (float64, float64) {
	return RadToDeg(math.Asin(position.Z / sphereRadius)),
		RadToDeg(math.Atan2(position.Y, position.X))
}

// Haversine returns the great arc distance between two lat/long pairs
// on the unit sphere (in radians).
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLatSin := math.Sin(DegToRad(lat2-lat1) / 2)
	dLonSin := math.Sin(DegToRad(lon2-lon1) / 2)
	a := dLatSin*dLatSin + dLonSin*dLonSin*math.Cos(DegToRad(lat1))*math.Cos(DegToRad(lat2))
	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// ConvToVec3 converts a float slice containing 3 values into a vectors.Vec3.
func ConvToVec3(xyz []float64) vectors.Vec3 {
	return vectors.Vec3{
		X: xyz[0],
		Y: xyz[1],
		Z: xyz[2],
	}
}

// TangentBasis returns two orthonormal vectors spanning the tangent plane
// of the unit sphere at the given (normalized) center point. The basis is
// deterministic for a given center, which matters for reproducible
// velocity generation and polygon ordering.
func TangentBasis(center vectors.Vec3) (vectors.Vec3, vectors.Vec3) {
	up := vectors.Vec3{X: 0, Y: 0, Z: 1}
	if math.Abs(center.Dot(up)) > 0.9 {
		// Too close to the pole, use a different reference axis.
		up = vectors.Vec3{X: 1, Y: 0, Z: 0}
	}
	e1 := center.Cross(up).Normalize()
	e2 := center.Cross(e1).Normalize()
	return e1, e2
}
