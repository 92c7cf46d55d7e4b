package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gnomonworks/sundial-forge/model"
)

// Oracle yields the true sun position for a site and instant. It is
// treated as ground truth. Implementations may be slow (network or
// table-backed ephemerides), so calls carry a context; oracle failures
// propagate unchanged.
type Oracle interface {
	SunAt(ctx context.Context, loc model.Location, t time.Time) (model.SunPosition, error)
}

// ErrNoReadableSamples reports a validation sweep in which the
// instrument never produced a reading (polar night, for instance).
var ErrNoReadableSamples = errors.New("no readable samples")

// DefaultDaySamples is the day-sweep resolution: 96 samples, one per
// 15 minutes.
const DefaultDaySamples = 96

// DefaultValidationTime is the reference instant for single-shot
// accuracy checks: solar noon UTC on the June solstice, when the sun is
// readable at every mid-latitude site.
var DefaultValidationTime = time.Date(2024, time.June, 21, 12, 0, 0, 0, time.UTC)

// Validator grades instrument readings against oracle truth. Stateless
// and idempotent: identical inputs yield identical reports.
type Validator struct {
	oracle     Oracle
	daySamples int
}

// ValidatorOption adjusts a Validator.
type ValidatorOption func(*Validator)

// WithDaySamples overrides the day-sweep resolution.
func WithDaySamples(n int) ValidatorOption {
	return func(v *Validator) {
		if n > 0 {
			v.daySamples = n
		}
	}
}

// NewValidator wires a validator to its truth source.
func NewValidator(oracle Oracle, opts ...ValidatorOption) (*Validator, error) {
	if oracle == nil {
		return nil, fmt.Errorf("%w: oracle is required", model.ErrInvalidParameter)
	}
	v := &Validator{oracle: oracle, daySamples: DefaultDaySamples}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Compare scores one reading against the truth. Altitude error is the
// absolute difference; azimuth error is the smallest separation on the
// circle so wrap-around near north never inflates it past 180.
func Compare(at time.Time, truth model.SunPosition, reading model.InstrumentReading) model.ValidationResult {
	altErr := math.Abs(reading.PredictedAltitude - truth.Altitude)
	azErr := azimuthSeparation(reading.PredictedAzimuth, truth.Azimuth)
	maxErr := math.Max(altErr, azErr)
	return model.ValidationResult{
		Time:          at,
		Truth:         truth,
		Reading:       reading,
		AltitudeError: altErr,
		AzimuthError:  azErr,
		RMSError:      math.Hypot(altErr, azErr),
		MaxError:      maxErr,
		Tier:          model.TierForError(maxErr),
	}
}

// ValidateAt runs one oracle-truth-versus-reading comparison.
func (v *Validator) ValidateAt(ctx context.Context, gen Generator, loc model.Location, at time.Time) (model.ValidationResult, error) {
	truth, err := v.oracle.SunAt(ctx, loc, at)
	if err != nil {
		return model.ValidationResult{}, fmt.Errorf("oracle: %w", err)
	}
	reading, err := gen.PredictReading(truth.Altitude, truth.Azimuth)
	if err != nil {
		return model.ValidationResult{}, err
	}
	return Compare(at, truth, reading), nil
}

// ValidateAtReference runs ValidateAt at the fixed reference instant.
func (v *Validator) ValidateAtReference(ctx context.Context, gen Generator, loc model.Location) (model.ValidationResult, error) {
	return v.ValidateAt(ctx, gen, loc, DefaultValidationTime)
}

// ValidateDay sweeps one UTC day at the validator's sample resolution
// and aggregates the readable samples. Unreadable instants are counted,
// never treated as failures. A day with no readable sample at all
// returns ErrNoReadableSamples.
func (v *Validator) ValidateDay(ctx context.Context, gen Generator, loc model.Location, date time.Time) (model.ValidationReport, error) {
	report := model.ValidationReport{Instrument: gen.Kind()}

	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	step := 24 * time.Hour / time.Duration(v.daySamples)

	var (
		sumAlt, sumAz, sumSq float64
		readable             int
	)
	for i := 0; i < v.daySamples; i++ {
		if err := ctx.Err(); err != nil {
			return model.ValidationReport{}, err
		}
		at := start.Add(time.Duration(i) * step)

		result, err := v.ValidateAt(ctx, gen, loc, at)
		if err != nil {
			return model.ValidationReport{}, err
		}
		report.Samples++
		if !result.Reading.Readable {
			report.Unreadable++
			continue
		}
		readable++
		sumAlt += result.AltitudeError
		sumAz += result.AzimuthError
		sumSq += result.RMSError * result.RMSError
		if result.MaxError > report.MaxError {
			report.MaxError = result.MaxError
		}
	}

	if readable == 0 {
		return model.ValidationReport{}, fmt.Errorf("%w: %d samples over %s", ErrNoReadableSamples, report.Samples, start.Format("2006-01-02"))
	}

	report.MeanAltitudeError = sumAlt / float64(readable)
	report.MeanAzimuthError = sumAz / float64(readable)
	report.RMSError = math.Sqrt(sumSq / float64(readable))
	report.Tier = model.TierForError(report.MaxError)
	return report, nil
}
