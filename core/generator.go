package core

import (
	"errors"
	"fmt"

	"github.com/gnomonworks/sundial-forge/model"
)

// ErrInvalidState reports a derived query invoked before Generate, or a
// generator constructed with state that cannot produce a design. It marks
// a caller sequencing bug and is never retried.
var ErrInvalidState = errors.New("invalid state")

// Generator is the contract shared by the two instrument variants:
// produce a geometry once, then answer derived queries and inverse
// readings against it. Implementations are deterministic and safe for
// concurrent readers after Generate.
type Generator interface {
	// Kind names the instrument variant.
	Kind() model.InstrumentKind
	// Generate derives every structural dimension. Derived queries fail
	// with ErrInvalidState until it has run.
	Generate() error
	// PredictReading is the inverse function: what the instrument would
	// read for a true sun position, degrees. Unreadable positions set the
	// Readable flag, never an error.
	PredictReading(altitudeDeg, azimuthDeg float64) (model.InstrumentReading, error)
	// Dimensions returns the dimension summary as nested maps, metres
	// rounded to 4 decimal places.
	Dimensions() (map[string]any, error)
	// BillOfMaterials lists the fabrication line items with volumes and
	// masses for the generator's material.
	BillOfMaterials() ([]model.BOMItem, error)
	// MarkingLines returns the instrument's graduation line work in
	// instrument coordinates, for drawing and mesh export.
	MarkingLines() ([]Line, error)
}

// NewGenerator builds the variant named by kind. It validates the
// location and parameters and normalizes the location; the returned
// generator still needs Generate called on it.
func NewGenerator(kind model.InstrumentKind, loc model.Location, params model.BuildParameters, material Material) (Generator, error) {
	switch kind {
	case model.InstrumentEquatorialDial:
		return NewEquatorialDial(loc, params, material)
	case model.InstrumentAltAzimuth:
		return NewAltAzimuth(loc, params, material)
	default:
		return nil, fmt.Errorf("%w: unknown instrument kind %q", model.ErrInvalidParameter, kind)
	}
}
