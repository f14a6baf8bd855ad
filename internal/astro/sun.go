package astro

import (
	"math"
	"time"
)

// SubSolarPoint returns the geographic point directly beneath the Sun at t.
//
// Declination and right ascension come from the Astronomical Almanac
// low-precision solar ephemeris; the sub-solar meridian is the Sun's right
// ascension less Greenwich mean sidereal time. Accuracy is about 0.01
// degrees, well below what a rendered terminator can show.
func SubSolarPoint(t time.Time) GeoPoint {
	ra, dec := sunEquatorial(t)
	return GeoPoint{Lat: dec, Lng: NormalizeLng(ra - greenwichSiderealTime(t))}
}

// sunEquatorial returns the Sun's apparent right ascension and declination
// in degrees.
func sunEquatorial(t time.Time) (raDeg, decDeg float64) {
	T := (julianDate(t) - j2000) / 36525

	// Mean longitude and mean anomaly.
	L0 := math.Mod(280.46646+36000.76983*T+0.0003032*T*T, 360)
	M := DegToRad(math.Mod(357.52911+35999.05029*T-0.0001537*T*T, 360))

	// Equation of center.
	C := (1.914602-0.004817*T-0.000014*T*T)*math.Sin(M) +
		(0.019993-0.000101*T)*math.Sin(2*M) +
		0.000289*math.Sin(3*M)

	// Apparent longitude, corrected for aberration and nutation.
	omega := DegToRad(125.04 - 1934.136*T)
	lambda := DegToRad(L0 + C - 0.00569 - 0.00478*math.Sin(omega))

	eps := 23.439291 - 0.0130042*T - 0.00000016*T*T + 0.000000504*T*T*T
	epsRad := DegToRad(eps + 0.00256*math.Cos(omega))

	raDeg = RadToDeg(math.Atan2(math.Cos(epsRad)*math.Sin(lambda), math.Cos(lambda)))
	if raDeg < 0 {
		raDeg += 360
	}
	decDeg = RadToDeg(math.Asin(math.Sin(epsRad) * math.Sin(lambda)))
	return raDeg, decDeg
}

const j2000 = 2451545.0

// greenwichSiderealTime returns GMST in degrees (IAU 1982).
func greenwichSiderealTime(t time.Time) float64 {
	d := julianDate(t) - j2000
	T := d / 36525
	gmst := math.Mod(280.46061837+360.98564736629*d+0.000387933*T*T-T*T*T/38710000, 360)
	if gmst < 0 {
		gmst += 360
	}
	return gmst
}

// julianDate returns the Julian Date of t.
func julianDate(t time.Time) float64 {
	return float64(t.UnixNano())/86400e9 + 2440587.5
}

// SunSeparation returns the angular distance in degrees between p and the
// sub-solar point at t. Values above 90 are on the night side.
func SunSeparation(p GeoPoint, t time.Time) float64 {
	return AngularDistance(SubSolarPoint(t), p)
}

// DaylightTier categorizes a point's illumination for display.
type DaylightTier int

const (
	Daylight DaylightTier = iota // sun above the horizon
	Twilight                     // sun up to 18 degrees below the horizon
	Night                        // astronomical night
)

// GetDaylightTier returns the tier for a given sun separation in degrees.
func GetDaylightTier(sepDeg float64) DaylightTier {
	switch {
	case sepDeg < 90:
		return Daylight
	case sepDeg < 108:
		return Twilight
	default:
		return Night
	}
}

// String returns the tier name.
func (d DaylightTier) String() string {
	switch d {
	case Daylight:
		return "day"
	case Twilight:
		return "twilight"
	default:
		return "night"
	}
}
