// Package astro provides the spherical geometry and solar math behind the globe.
package astro

import "math"

// GeoPoint is a geographic position in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"` // degrees, -90 to +90
	Lng float64 `json:"lng"` // degrees, -180 to +180, east positive
}

// Clamp returns p with latitude clamped to [-90, 90] and longitude wrapped
// into [-180, 180]. Non-finite components collapse to 0.
func (p GeoPoint) Clamp() GeoPoint {
	lat, lng := p.Lat, p.Lng
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		lat = 0
	}
	if math.IsNaN(lng) || math.IsInf(lng, 0) {
		lng = 0
	}
	if lat > 90 {
		lat = 90
	} else if lat < -90 {
		lat = -90
	}
	if lng < -180 || lng > 180 {
		lng = NormalizeLng(lng)
	}
	return GeoPoint{Lat: lat, Lng: lng}
}

// Antipode returns the point diametrically opposite p.
func (p GeoPoint) Antipode() GeoPoint {
	return GeoPoint{Lat: -p.Lat, Lng: NormalizeLng(p.Lng + 180)}
}

// NormalizeLng wraps a longitude into [-180, 180).
func NormalizeLng(lng float64) float64 {
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	return lng - 180
}

// AngularDistance returns the great-circle separation between two points in
// degrees, in the range [0, 180].
func AngularDistance(a, b GeoPoint) float64 {
	ax, ay, az := unitVector(a)
	bx, by, bz := unitVector(b)

	// atan2 of |a×b| and a·b stays well conditioned at 0 and at 180.
	cx := ay*bz - az*by
	cy := az*bx - ax*bz
	cz := ax*by - ay*bx
	cross := math.Sqrt(cx*cx + cy*cy + cz*cz)
	dot := ax*bx + ay*by + az*bz
	return RadToDeg(math.Atan2(cross, dot))
}

func unitVector(p GeoPoint) (x, y, z float64) {
	lat, lng := DegToRad(p.Lat), DegToRad(p.Lng)
	return math.Cos(lat) * math.Cos(lng), math.Cos(lat) * math.Sin(lng), math.Sin(lat)
}

// Destination returns the point reached by travelling distDeg along the
// great circle leaving p at the given bearing (degrees clockwise from north).
func Destination(p GeoPoint, bearingDeg, distDeg float64) GeoPoint {
	lat1 := DegToRad(p.Lat)
	lng1 := DegToRad(p.Lng)
	brg := DegToRad(bearingDeg)
	d := DegToRad(distDeg)

	sinLat2 := math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brg)
	if sinLat2 > 1 {
		sinLat2 = 1
	} else if sinLat2 < -1 {
		sinLat2 = -1
	}
	lat2 := math.Asin(sinLat2)
	lng2 := lng1 + math.Atan2(
		math.Sin(brg)*math.Sin(d)*math.Cos(lat1),
		math.Cos(d)-math.Sin(lat1)*sinLat2,
	)

	return GeoPoint{Lat: RadToDeg(lat2), Lng: NormalizeLng(RadToDeg(lng2))}
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
