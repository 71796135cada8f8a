package geo

import "math"

// Point is a bare coordinate pair, used for route polylines.
type Point struct {
	Latitude  float64
	Longitude float64
}

const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two coordinates.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	a1 := lat1 * math.Pi / 180
	a2 := lat2 * math.Pi / 180
	da := (lat2 - lat1) * math.Pi / 180
	db := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(da/2)*math.Sin(da/2) +
		math.Cos(a1)*math.Cos(a2)*math.Sin(db/2)*math.Sin(db/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// DistanceMeters returns the distance between two points.
func DistanceMeters(a, b Point) float64 {
	return HaversineMeters(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// PolylineLengthMeters sums the segment lengths of a polyline.
func PolylineLengthMeters(points []Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += DistanceMeters(points[i-1], points[i])
	}
	return total
}

// ProjectOnSegment projects p onto the segment a-b and returns the
// perpendicular distance in meters plus the clamped segment fraction t
// (0 at a, 1 at b). Uses a local equirectangular approximation, which is
// accurate at the sub-kilometer scales of off-route checks.
func ProjectOnSegment(p, a, b Point) (distMeters, t float64) {
	refLat := a.Latitude * math.Pi / 180
	mPerDegLat := earthRadiusMeters * math.Pi / 180
	mPerDegLon := mPerDegLat * math.Cos(refLat)

	px := (p.Longitude - a.Longitude) * mPerDegLon
	py := (p.Latitude - a.Latitude) * mPerDegLat
	bx := (b.Longitude - a.Longitude) * mPerDegLon
	by := (b.Latitude - a.Latitude) * mPerDegLat

	segLenSq := bx*bx + by*by
	if segLenSq == 0 {
		return math.Hypot(px, py), 0
	}

	t = (px*bx + py*by) / segLenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	dx := px - t*bx
	dy := py - t*by
	return math.Hypot(dx, dy), t
}
