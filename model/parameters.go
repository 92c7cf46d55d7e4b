package model

import (
	"fmt"
	"math"
)

// BuildParameters control the fabricated size of an instrument.
// All linear dimensions are metres.
type BuildParameters struct {
	// Scale is the principal dimension multiplier: gnomon height for the
	// equatorial dial, pillar radius for the altitude-azimuth instrument.
	// Valid range (0.1, 1000].
	Scale float64 `json:"scale"`
	// MaterialThickness is the stock thickness used for plates and walls,
	// in metres. Valid range (0, 1].
	MaterialThickness float64 `json:"material_thickness"`
	// Kerf is the cutting-tool allowance added to compensated dimensions,
	// in metres. Valid range [0, 0.01]. Kerf only ever widens a dimension.
	Kerf float64 `json:"kerf"`
	// IncludeBase adds the mounting base to the design. When false the
	// base dimensions are zero and the base is omitted from the BOM.
	IncludeBase bool `json:"include_base"`
}

// DefaultBuildParameters returns the stock 1 m build: 5 cm plate, no
// kerf, base included.
func DefaultBuildParameters() BuildParameters {
	return BuildParameters{Scale: 1.0, MaterialThickness: 0.05, Kerf: 0, IncludeBase: true}
}

// Validate checks the fabrication ranges.
func (p BuildParameters) Validate() error {
	if math.IsNaN(p.Scale) || p.Scale <= 0.1 || p.Scale > 1000 {
		return fmt.Errorf("%w: scale %.4f outside (0.1, 1000]", ErrInvalidParameter, p.Scale)
	}
	if math.IsNaN(p.MaterialThickness) || p.MaterialThickness <= 0 || p.MaterialThickness > 1 {
		return fmt.Errorf("%w: material thickness %.4f m outside (0, 1]", ErrInvalidParameter, p.MaterialThickness)
	}
	if math.IsNaN(p.Kerf) || p.Kerf < 0 || p.Kerf > 0.01 {
		return fmt.Errorf("%w: kerf %.5f m outside [0, 0.01]", ErrInvalidParameter, p.Kerf)
	}
	return nil
}
