package sites

import "github.com/gnomonworks/sundial-forge/model"

// builtinSites are the five classical Jantar Mantar observatories.
// Coordinates are the instrument courtyards, elevations in metres;
// magnetic declinations are the 2024 epoch values.
var builtinSites = []Site{
	{
		Name:                "Jaipur Jantar Mantar",
		Location:            model.Location{Latitude: 26.9124, Longitude: 75.7873, Elevation: 431},
		Timezone:            "Asia/Kolkata",
		MagneticDeclination: 1.2,
		Description:         "Historic observatory in Jaipur, Rajasthan; holds the largest stone sundial",
	},
	{
		Name:                "Delhi Jantar Mantar",
		Location:            model.Location{Latitude: 28.6270, Longitude: 77.2166, Elevation: 216},
		Timezone:            "Asia/Kolkata",
		MagneticDeclination: 1.0,
		Description:         "First of the five observatories, built 1724 near Connaught Place",
	},
	{
		Name:                "Ujjain Jantar Mantar",
		Location:            model.Location{Latitude: 23.1793, Longitude: 75.7849, Elevation: 494},
		Timezone:            "Asia/Kolkata",
		MagneticDeclination: 0.6,
		Description:         "Ved Shala on the classical Indian prime meridian, still in active use",
	},
	{
		Name:                "Varanasi Jantar Mantar",
		Location:            model.Location{Latitude: 25.3109, Longitude: 83.0107, Elevation: 81},
		Timezone:            "Asia/Kolkata",
		MagneticDeclination: 0.5,
		Description:         "Rooftop observatory above Man Mandir Ghat on the Ganges",
	},
	{
		Name:                "Mathura Jantar Mantar",
		Location:            model.Location{Latitude: 27.5036, Longitude: 77.6822, Elevation: 174},
		Timezone:            "Asia/Kolkata",
		MagneticDeclination: 1.1,
		Description:         "Observatory at the old fort, dismantled in the 19th century; site record kept for reconstruction studies",
	},
}

// Builtin returns a catalog seeded with the classical observatories.
func Builtin() *Catalog {
	c := NewCatalog()
	for _, s := range builtinSites {
		if err := c.Add(s); err != nil {
			panic(err)
		}
	}
	return c
}
