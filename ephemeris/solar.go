package ephemeris

import (
	"context"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/gnomonworks/sundial-forge/model"
)

// Source is any sun-position provider: the real solar model, a fixed
// test sun, or a cache in front of either.
type Source interface {
	SunAt(ctx context.Context, loc model.Location, t time.Time) (model.SunPosition, error)
}

// Solar computes apparent sun positions from the low-accuracy solar
// series (Astronomical Almanac pages C24), good to about 0.01 deg for a
// couple of centuries around J2000. No atmospheric refraction is
// applied; positions are geometric.
type Solar struct{}

// NewSolar returns the standard solar position source.
func NewSolar() *Solar { return &Solar{} }

// j2000 is the series epoch, JD 2451545.0 (2000-01-01 12:00 TT).
const j2000 = 2451545.0

// SunAt returns the sun as seen from loc at instant t.
func (s *Solar) SunAt(ctx context.Context, loc model.Location, t time.Time) (model.SunPosition, error) {
	if err := ctx.Err(); err != nil {
		return model.SunPosition{}, err
	}
	if err := loc.Validate(); err != nil {
		return model.SunPosition{}, err
	}

	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	d := jd - j2000

	// Ecliptic position of the sun.
	g := radians(wrap360(357.529 + 0.98560028*d)) // mean anomaly
	q := wrap360(280.459 + 0.98564736*d)          // mean longitude
	l := radians(wrap360(q + 1.915*math.Sin(g) + 0.020*math.Sin(2*g)))
	e := radians(23.439 - 0.00000036*d) // obliquity of the ecliptic

	ra := math.Atan2(math.Cos(e)*math.Sin(l), math.Cos(l))
	dec := math.Asin(math.Sin(e) * math.Sin(l))

	// Local hour angle from sidereal time.
	gmst := satellite.ThetaG_JD(jd)
	lst := gmst + radians(loc.Longitude)
	ha := wrapPi(lst - ra)

	// Equatorial to horizontal.
	lat := radians(loc.Latitude)
	sinAlt := math.Sin(lat)*math.Sin(dec) + math.Cos(lat)*math.Cos(dec)*math.Cos(ha)
	alt := math.Asin(clamp1(sinAlt))

	cosAz := (math.Sin(dec) - sinAlt*math.Sin(lat)) / (math.Cos(alt) * math.Cos(lat))
	az := math.Acos(clamp1(cosAz))
	// The arccosine is symmetric about the meridian: western hour angles
	// mirror the azimuth past south.
	if math.Sin(ha) > 0 {
		az = 2*math.Pi - az
	}

	return model.SunPosition{
		Altitude:    degrees(alt),
		Azimuth:     degrees(az),
		Declination: degrees(dec),
		HourAngle:   degrees(ha),
	}, nil
}

func radians(deg float64) float64 { return deg * math.Pi / 180.0 }

func degrees(rad float64) float64 { return rad * 180.0 / math.Pi }

// wrap360 folds an angle into [0, 360).
func wrap360(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// wrapPi folds an angle into [-pi, pi).
func wrapPi(rad float64) float64 {
	r := math.Mod(rad+math.Pi, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	return r - math.Pi
}

// clamp1 guards inverse trig against rounding just past the domain.
func clamp1(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
