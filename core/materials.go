package core

import (
	"fmt"
	"strings"

	"github.com/gnomonworks/sundial-forge/model"
)

// Material is a fabrication stock with the density used to turn BOM
// volumes into masses.
type Material struct {
	Name    string
	Density float64 // kg/m^3
}

// Stock materials for masonry instrument builds.
var (
	MaterialMarble   = Material{Name: "marble", Density: 2700}
	MaterialBrass    = Material{Name: "brass", Density: 8500}
	MaterialSteel    = Material{Name: "steel", Density: 7850}
	MaterialAluminum = Material{Name: "aluminum", Density: 2700}
)

// DefaultMaterial is what the classical instruments were actually built
// from.
var DefaultMaterial = MaterialMarble

var materialCatalog = map[string]Material{
	MaterialMarble.Name:   MaterialMarble,
	MaterialBrass.Name:    MaterialBrass,
	MaterialSteel.Name:    MaterialSteel,
	MaterialAluminum.Name: MaterialAluminum,
}

// MaterialByName looks up a stock material, case-insensitively.
func MaterialByName(name string) (Material, error) {
	m, ok := materialCatalog[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Material{}, fmt.Errorf("%w: unknown material %q", model.ErrInvalidParameter, name)
	}
	return m, nil
}

// MaterialNames lists the stock catalog, for CLI help and API errors.
func MaterialNames() []string {
	return []string{
		MaterialAluminum.Name,
		MaterialBrass.Name,
		MaterialMarble.Name,
		MaterialSteel.Name,
	}
}

// Mass returns the mass in kilograms of the given volume of this
// material, rounded to grams.
func (m Material) Mass(volume float64) float64 {
	return roundTo(volume*m.Density, 3)
}
