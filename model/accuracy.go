package model

import "time"

// AccuracyTier grades an instrument's worst angular error. The band edges
// are fixed by convention, not tunable.
type AccuracyTier string

const (
	TierExcellent  AccuracyTier = "excellent"  // max error < 0.1 deg
	TierGood       AccuracyTier = "good"       // max error < 0.5 deg
	TierAcceptable AccuracyTier = "acceptable" // max error < 1.0 deg
	TierPoor       AccuracyTier = "poor"       // anything worse
)

// TierForError maps a worst-case angular error in degrees to its tier.
func TierForError(maxErrDeg float64) AccuracyTier {
	switch {
	case maxErrDeg < 0.1:
		return TierExcellent
	case maxErrDeg < 0.5:
		return TierGood
	case maxErrDeg < 1.0:
		return TierAcceptable
	default:
		return TierPoor
	}
}

// ValidationResult is one comparison between the oracle truth and the
// instrument's self-reported sun position. Created once per validation
// call, never mutated. All errors are degrees.
type ValidationResult struct {
	Time    time.Time         `json:"time"`
	Truth   SunPosition       `json:"truth"`
	Reading InstrumentReading `json:"reading"`
	// AltitudeError is the absolute altitude difference.
	AltitudeError float64 `json:"altitude_error"`
	// AzimuthError is the smallest angular separation on the azimuth
	// circle, [0, 180].
	AzimuthError float64 `json:"azimuth_error"`
	// RMSError combines the two axis errors; MaxError is the larger one.
	RMSError float64      `json:"rms_error"`
	MaxError float64      `json:"max_error"`
	Tier     AccuracyTier `json:"accuracy_tier"`
}

// ValidationReport aggregates a sweep of validation results across a day.
type ValidationReport struct {
	Instrument InstrumentKind `json:"instrument"`
	Samples    int            `json:"samples"`
	// Unreadable counts samples where the instrument had no reading;
	// they are excluded from the error statistics.
	Unreadable        int          `json:"unreadable"`
	MeanAltitudeError float64      `json:"mean_altitude_error"`
	MeanAzimuthError  float64      `json:"mean_azimuth_error"`
	RMSError          float64      `json:"rms_error"`
	MaxError          float64      `json:"max_error"`
	Tier              AccuracyTier `json:"accuracy_tier"`
}
