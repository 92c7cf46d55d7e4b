package model

import "time"

// SunPosition is a topocentric solar position at one instant.
// All angles are decimal degrees.
type SunPosition struct {
	// Altitude above the horizon, [-90, 90]. Negative means below.
	Altitude float64 `json:"altitude"`
	// Azimuth clockwise from true north, [0, 360).
	Azimuth float64 `json:"azimuth"`
	// Declination of the sun, [-23.45, 23.45] over the year.
	Declination float64 `json:"declination"`
	// HourAngle west-positive from the local meridian, [-180, 180).
	// Negative before local solar noon.
	HourAngle float64 `json:"hour_angle"`
}

// Visible reports whether the sun is above the geometric horizon.
func (s SunPosition) Visible() bool { return s.Altitude > 0 }

// SunPathPoint is one sample of a day's solar track.
type SunPathPoint struct {
	Time     time.Time `json:"time"`
	Altitude float64   `json:"altitude"`
	Azimuth  float64   `json:"azimuth"`
	Visible  bool      `json:"visible"`
}

// SunPath is a sampled solar track across one UTC day together with the
// day summary derived from the samples. Sunrise, Sunset and SolarNoon are
// nil on days where the sun never rises at the site.
type SunPath struct {
	Points    []SunPathPoint `json:"points"`
	Sunrise   *time.Time     `json:"sunrise,omitempty"`
	Sunset    *time.Time     `json:"sunset,omitempty"`
	SolarNoon *time.Time     `json:"solar_noon,omitempty"`
	// DayLength is the sunlit fraction of the day in hours, derived from
	// the sample count rather than exact rise/set roots.
	DayLength float64 `json:"day_length_hours"`
}
