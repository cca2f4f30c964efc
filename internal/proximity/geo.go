package proximity

import "math"

// EarthRadiusMeters is the mean Earth radius used for haversine distances.
const EarthRadiusMeters = 6371008.8

// Position is a WGS84 coordinate pair in degrees.
type Position struct {
	Lat float64
	Lng float64
}

// Valid reports whether p is a finite coordinate within WGS84 bounds.
func (p Position) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Position) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Geofence is a venue boundary: a polygon when Vertices has at least three
// points, otherwise a circle of RadiusMeters around Center.
type Geofence struct {
	Vertices     []Position
	Center       Position
	RadiusMeters float64
}

// IsPolygon reports whether the fence is described by vertices.
func (g *Geofence) IsPolygon() bool {
	return len(g.Vertices) >= 3
}

// Valid reports whether the fence describes a usable boundary.
func (g *Geofence) Valid() bool {
	if g == nil {
		return false
	}
	if g.IsPolygon() {
		for _, v := range g.Vertices {
			if !v.Valid() {
				return false
			}
		}
		return true
	}
	return g.Center.Valid() && g.RadiusMeters > 0
}

// Contains reports whether p lies inside the fence. Points on a circle's
// boundary count as inside.
func (g *Geofence) Contains(p Position) bool {
	if !g.Valid() || !p.Valid() {
		return false
	}
	if g.IsPolygon() {
		return pointInPolygon(p, g.Vertices)
	}
	return Distance(g.Center, p) <= g.RadiusMeters
}

// pointInPolygon runs the even-odd ray casting test in the lat/lng plane,
// casting a ray towards increasing longitude.
func pointInPolygon(p Position, vertices []Position) bool {
	inside := false
	j := len(vertices) - 1
	for i := range vertices {
		vi, vj := vertices[i], vertices[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) {
			crossLng := (vj.Lng-vi.Lng)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat) + vi.Lng
			if p.Lng < crossLng {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
