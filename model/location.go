package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameter reports a caller-visible constraint violated before
// any computation begins. Wrapped errors carry the offending field and value.
var ErrInvalidParameter = errors.New("invalid parameter")

// Location is an observer site on the WGS84 ellipsoid.
type Location struct {
	// Latitude in decimal degrees, north positive, [-90, 90].
	Latitude float64 `json:"latitude"`
	// Longitude in decimal degrees, east positive, [-180, 180].
	Longitude float64 `json:"longitude"`
	// Elevation above mean sea level in metres, [-500, 9000].
	Elevation float64 `json:"elevation"`
}

// Normalize returns a copy with latitude and longitude rounded to six
// decimal places (about 0.11 m on the ground). Elevation passes through.
func (l Location) Normalize() Location {
	return Location{
		Latitude:  roundPlaces(l.Latitude, 6),
		Longitude: roundPlaces(l.Longitude, 6),
		Elevation: l.Elevation,
	}
}

// Validate checks the coordinate ranges.
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %.6f outside [-90, 90]", ErrInvalidParameter, l.Latitude)
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %.6f outside [-180, 180]", ErrInvalidParameter, l.Longitude)
	}
	if math.IsNaN(l.Elevation) || l.Elevation < -500 || l.Elevation > 9000 {
		return fmt.Errorf("%w: elevation %.1f m outside [-500, 9000]", ErrInvalidParameter, l.Elevation)
	}
	return nil
}

func roundPlaces(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
