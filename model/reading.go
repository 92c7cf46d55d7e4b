package model

// InstrumentKind names one of the supported instrument families.
type InstrumentKind string

const (
	InstrumentEquatorialDial InstrumentKind = "equatorial_dial"
	InstrumentAltAzimuth     InstrumentKind = "altazimuth"
)

// Valid reports whether k names a known instrument.
func (k InstrumentKind) Valid() bool {
	return k == InstrumentEquatorialDial || k == InstrumentAltAzimuth
}

// Quadrant identifies the readout surface a shadow falls on.
type Quadrant string

const (
	QuadrantEast Quadrant = "east"
	QuadrantWest Quadrant = "west"
	SectorA      Quadrant = "sector_a"
	SectorB      Quadrant = "sector_b"
	QuadrantNone Quadrant = ""
)

// InstrumentReading is the output of an instrument's inverse function:
// what an observer at the instrument would read off for a given true sun
// position. An unreadable sun position (below the horizon, too close to
// zenith, shadow off the graduated surfaces) sets Readable to false; it is
// never an error.
type InstrumentReading struct {
	Readable bool `json:"readable"`
	// LocalSolarTime is the dial's time readout in decimal hours, 12.0 at
	// local solar noon. Zero for instruments that do not measure time.
	LocalSolarTime float64 `json:"local_solar_time"`
	// HourAngle backing the time readout, degrees west-positive from the
	// meridian. Zero for instruments that do not measure time.
	HourAngle float64 `json:"hour_angle"`
	// Quadrant is the active readout surface.
	Quadrant Quadrant `json:"quadrant"`
	// ShadowLength along the floor or quadrant surface, metres.
	ShadowLength float64 `json:"shadow_length"`
	// ShadowAzimuth is the direction the shadow falls, degrees from north.
	ShadowAzimuth float64 `json:"shadow_azimuth"`
	// ShadowHeight up the sector wall, metres. Zero for the dial.
	ShadowHeight float64 `json:"shadow_height"`
	// ShadowTipX, ShadowTipY locate the floor shadow tip in instrument
	// coordinates (x east, y north), metres.
	ShadowTipX float64 `json:"shadow_tip_x"`
	ShadowTipY float64 `json:"shadow_tip_y"`
	// PredictedAltitude and PredictedAzimuth are the sun position the
	// instrument itself reports, used to grade accuracy against the truth.
	PredictedAltitude float64 `json:"predicted_altitude"`
	PredictedAzimuth  float64 `json:"predicted_azimuth"`
}
