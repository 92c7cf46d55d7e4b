package core

import (
	"fmt"
	"math"

	"github.com/gnomonworks/sundial-forge/model"
)

// Fixed structural ratios of the equatorial dial, relative to the gnomon
// height. They reproduce the proportions of the classical masonry
// instruments and are not tunable.
const (
	gnomonBaseWidthRatio = 0.15
	quadrantRadiusRatio  = 0.7
	dialBaseSpanRatio    = 2.5  // base length/width over quadrant radius
	dialBaseHeightRatio  = 0.05 // base height over gnomon height
	dialScaleDivisions   = 60   // per hour, 1-minute resolution
)

// minDialLatitude is the latitude band, degrees either side of the
// equator, where the quadrant surface goes vertical and the hour-line
// projection degenerates (its z grows with cot(latitude)).
const minDialLatitude = 0.5

// readableAltitudeMax bounds the readable band for both instruments:
// above it the shadow foreshortens into the gnomon root, below 0 there
// is no shadow at all. Degrees.
const readableAltitudeMax = 85.0

// EquatorialGeometry is the derived dimension set of one dial build.
// All lengths are metres, angles degrees. Value object: computed once by
// Generate and never mutated.
type EquatorialGeometry struct {
	GnomonHeight    float64
	GnomonBaseWidth float64
	GnomonThickness float64
	// InclinationAngle of the gnomon hypotenuse over the base plane.
	// Equals the site latitude so the edge points at the celestial pole.
	InclinationAngle float64
	QuadrantRadius   float64
	// HourAngles are the 13 quadrant graduations, -90..+90 in 15 deg
	// steps (6:00 to 18:00 local solar).
	HourAngles     []float64
	ScaleDivisions int
	BaseLength     float64
	BaseWidth      float64
	BaseHeight     float64
}

// HourLine is one graduation line on a quadrant surface.
type HourLine struct {
	Line
	Quadrant model.Quadrant
	// HourAngle in degrees from solar noon; SolarHour = HourAngle/15.
	HourAngle float64
	SolarHour float64
}

// EquatorialDial generates the gnomon-and-quadrant sundial: a triangular
// wedge aligned with the earth's axis casting onto two graduated
// quadrants. The zero-mutation contract: construct, Generate once, then
// query from any number of goroutines.
type EquatorialDial struct {
	loc      model.Location
	params   model.BuildParameters
	material Material
	latRad   float64

	geom *EquatorialGeometry
}

// NewEquatorialDial validates the inputs and prepares a generator.
// Latitudes within half a degree of the equator are rejected: the
// quadrant surface stands vertical there and the design degenerates.
func NewEquatorialDial(loc model.Location, params model.BuildParameters, material Material) (*EquatorialDial, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	loc = loc.Normalize()
	if math.Abs(loc.Latitude) < minDialLatitude {
		return nil, fmt.Errorf("%w: latitude %.4f within %.1f deg of the equator, dial quadrant degenerates",
			model.ErrInvalidParameter, loc.Latitude, minDialLatitude)
	}
	if material.Density <= 0 {
		material = DefaultMaterial
	}
	return &EquatorialDial{
		loc:      loc,
		params:   params,
		material: material,
		latRad:   radians(loc.Latitude),
	}, nil
}

// Kind implements Generator.
func (d *EquatorialDial) Kind() model.InstrumentKind { return model.InstrumentEquatorialDial }

// Location returns the normalized site.
func (d *EquatorialDial) Location() model.Location { return d.loc }

// Generate derives the dial dimensions from the scale and latitude.
func (d *EquatorialDial) Generate() error {
	if d.params.Scale <= 0 {
		return fmt.Errorf("%w: scale %.4f must be positive before generating", ErrInvalidState, d.params.Scale)
	}

	h := d.params.Scale
	geom := EquatorialGeometry{
		GnomonHeight:     h,
		GnomonBaseWidth:  h * gnomonBaseWidthRatio,
		GnomonThickness:  d.params.MaterialThickness,
		InclinationAngle: d.loc.Latitude,
		QuadrantRadius:   h * quadrantRadiusRatio,
		ScaleDivisions:   dialScaleDivisions,
	}

	geom.HourAngles = make([]float64, 0, 13)
	for hour := -6; hour <= 6; hour++ {
		geom.HourAngles = append(geom.HourAngles, float64(hour)*15.0)
	}

	if d.params.IncludeBase {
		geom.BaseLength = geom.QuadrantRadius * dialBaseSpanRatio
		geom.BaseWidth = geom.QuadrantRadius * dialBaseSpanRatio
		geom.BaseHeight = h * dialBaseHeightRatio
	}

	// Cutting allowance widens the gnomon base and the quadrant plates;
	// everything else is cast or poured and needs none.
	if d.params.Kerf > 0 {
		geom.GnomonBaseWidth += d.params.Kerf
		geom.QuadrantRadius += d.params.Kerf
	}

	d.geom = &geom
	return nil
}

// Geometry returns a copy of the derived dimensions.
func (d *EquatorialDial) Geometry() (EquatorialGeometry, error) {
	if d.geom == nil {
		return EquatorialGeometry{}, fmt.Errorf("%w: Generate has not run", ErrInvalidState)
	}
	g := *d.geom
	g.HourAngles = append([]float64(nil), d.geom.HourAngles...)
	return g, nil
}

// HourLines lays every hour graduation onto the inclined quadrant
// surfaces: 13 angles on the east quadrant and 13 on the west. Lines run
// from the gnomon edge out to the quadrant rim; their height follows the
// surface tilt (90 deg - latitude), so y carries z = y * tan(tilt).
func (d *EquatorialDial) HourLines() ([]HourLine, error) {
	if d.geom == nil {
		return nil, fmt.Errorf("%w: Generate has not run", ErrInvalidState)
	}

	startRadius := d.geom.GnomonBaseWidth / 2
	endRadius := d.geom.QuadrantRadius
	surfaceTan := math.Tan(math.Pi/2 - d.latRad)

	lines := make([]HourLine, 0, len(d.geom.HourAngles)*2)
	for _, angleDeg := range d.geom.HourAngles {
		a := radians(angleDeg)
		for _, q := range []model.Quadrant{model.QuadrantEast, model.QuadrantWest} {
			side := 1.0
			if q == model.QuadrantWest {
				side = -1.0
			}
			startY := startRadius * math.Sin(a)
			endY := endRadius * math.Sin(a)
			lines = append(lines, HourLine{
				Line: Line{
					Start: Vec3{X: side * startRadius * math.Cos(a), Y: startY, Z: startY * surfaceTan},
					End:   Vec3{X: side * endRadius * math.Cos(a), Y: endY, Z: endY * surfaceTan},
				},
				Quadrant:  q,
				HourAngle: angleDeg,
				SolarHour: angleDeg / 15.0,
			})
		}
	}
	return lines, nil
}

// GnomonVertices returns the eight corners of the triangular wedge: four
// on the ground, four at the apex ridge pointing at the celestial pole.
func (d *EquatorialDial) GnomonVertices() ([]Vec3, error) {
	if d.geom == nil {
		return nil, fmt.Errorf("%w: Generate has not run", ErrInvalidState)
	}

	h := d.geom.GnomonHeight
	w := d.geom.GnomonBaseWidth
	t := d.geom.GnomonThickness

	apexY := h * math.Cos(d.latRad)
	apexZ := h * math.Sin(d.latRad)

	return []Vec3{
		{X: -w / 2, Y: -t / 2, Z: 0},
		{X: w / 2, Y: -t / 2, Z: 0},
		{X: -w / 2, Y: t / 2, Z: 0},
		{X: w / 2, Y: t / 2, Z: 0},
		{X: -t / 4, Y: apexY - t/2, Z: apexZ},
		{X: t / 4, Y: apexY - t/2, Z: apexZ},
		{X: -t / 4, Y: apexY + t/2, Z: apexZ},
		{X: t / 4, Y: apexY + t/2, Z: apexZ},
	}, nil
}

// MarkingLines implements Generator for exporters.
func (d *EquatorialDial) MarkingLines() ([]Line, error) {
	hls, err := d.HourLines()
	if err != nil {
		return nil, err
	}
	lines := make([]Line, len(hls))
	for i, hl := range hls {
		lines[i] = hl.Line
	}
	return lines, nil
}

// Dimensions returns the dimension summary, metres rounded to 4 places.
func (d *EquatorialDial) Dimensions() (map[string]any, error) {
	if d.geom == nil {
		return nil, fmt.Errorf("%w: Generate has not run", ErrInvalidState)
	}
	g := d.geom
	return map[string]any{
		"instrument": string(model.InstrumentEquatorialDial),
		"latitude":   d.loc.Latitude,
		"scale":      d.params.Scale,
		"gnomon": map[string]float64{
			"height":            roundTo(g.GnomonHeight, 4),
			"base_width":        roundTo(g.GnomonBaseWidth, 4),
			"thickness":         roundTo(g.GnomonThickness, 4),
			"inclination_angle": roundTo(g.InclinationAngle, 4),
		},
		"quadrants": map[string]any{
			"radius":          roundTo(g.QuadrantRadius, 4),
			"hour_lines":      len(g.HourAngles),
			"scale_divisions": g.ScaleDivisions,
		},
		"base": map[string]float64{
			"length": roundTo(g.BaseLength, 4),
			"width":  roundTo(g.BaseWidth, 4),
			"height": roundTo(g.BaseHeight, 4),
		},
		"overall": map[string]float64{
			"length": roundTo(g.BaseLength, 4),
			"width":  roundTo(g.BaseWidth, 4),
			"height": roundTo(g.GnomonHeight+g.BaseHeight, 4),
		},
	}, nil
}

// BillOfMaterials prices out the dial build in the generator's material.
func (d *EquatorialDial) BillOfMaterials() ([]model.BOMItem, error) {
	if d.geom == nil {
		return nil, fmt.Errorf("%w: Generate has not run", ErrInvalidState)
	}
	g := d.geom

	gnomonVolume := 0.5 * g.GnomonHeight * g.GnomonBaseWidth * g.GnomonThickness
	quadrantVolume := math.Pi * g.QuadrantRadius * g.QuadrantRadius / 4 * g.GnomonThickness * 2

	bom := []model.BOMItem{
		{
			Item:       "Gnomon plate (triangular)",
			Quantity:   1,
			Material:   d.material.Name,
			Dimensions: fmt.Sprintf("%.3fm x %.3fm x %.3fm, inclined %.1f deg", g.GnomonHeight, g.GnomonBaseWidth, g.GnomonThickness, g.InclinationAngle),
			Volume:     gnomonVolume,
			Mass:       d.material.Mass(gnomonVolume),
		},
		{
			Item:       "Quadrant scales (east and west)",
			Quantity:   2,
			Material:   d.material.Name,
			Dimensions: fmt.Sprintf("radius %.3fm, %.3fm plate, hour lines at 15 deg", g.QuadrantRadius, g.GnomonThickness),
			Volume:     quadrantVolume,
			Mass:       d.material.Mass(quadrantVolume),
		},
	}

	if d.params.IncludeBase {
		baseVolume := g.BaseLength * g.BaseWidth * g.BaseHeight
		bom = append(bom, model.BOMItem{
			Item:       "Base platform",
			Quantity:   1,
			Material:   d.material.Name,
			Dimensions: fmt.Sprintf("%.3fm x %.3fm x %.3fm, levelled", g.BaseLength, g.BaseWidth, g.BaseHeight),
			Volume:     baseVolume,
			Mass:       d.material.Mass(baseVolume),
		})
	}

	bom = append(bom, model.BOMItem{
		Item:       "Anchor bolts",
		Quantity:   4,
		Material:   "stainless steel",
		Dimensions: "M12 x 150mm",
	})
	return bom, nil
}

// PredictReading inverts the dial: from a true sun position, the hour
// angle the shadow would indicate and the solar time an observer would
// read. The hour angle comes from the alt-az to equatorial identity
//
//	tan H = sin Az / (cos Az * sin lat - tan alt * cos lat)
//
// resolved with atan2 so that morning suns (eastern azimuths) give
// negative hour angles.
func (d *EquatorialDial) PredictReading(altitudeDeg, azimuthDeg float64) (model.InstrumentReading, error) {
	if d.geom == nil {
		return model.InstrumentReading{}, fmt.Errorf("%w: Generate has not run", ErrInvalidState)
	}

	azimuthDeg = normalizeDegrees(azimuthDeg)
	reading := model.InstrumentReading{
		ShadowAzimuth:     normalizeDegrees(azimuthDeg + 180),
		PredictedAltitude: altitudeDeg,
		PredictedAzimuth:  azimuthDeg,
	}
	if altitudeDeg <= 0 {
		return reading, nil
	}

	alt := radians(altitudeDeg)
	az := radians(azimuthDeg)

	hourAngle := degrees(math.Atan2(
		-math.Sin(az),
		math.Tan(alt)*math.Cos(d.latRad)-math.Cos(az)*math.Sin(d.latRad),
	))

	reading.HourAngle = hourAngle
	reading.LocalSolarTime = 12.0 + hourAngle/15.0
	if hourAngle < 0 {
		reading.Quadrant = model.QuadrantEast
	} else {
		reading.Quadrant = model.QuadrantWest
	}

	reading.ShadowLength = math.Min(d.geom.GnomonHeight/math.Tan(alt), d.geom.QuadrantRadius)
	shadowAz := radians(reading.ShadowAzimuth)
	reading.ShadowTipX = reading.ShadowLength * math.Sin(shadowAz)
	reading.ShadowTipY = reading.ShadowLength * math.Cos(shadowAz)

	reading.Readable = altitudeDeg < readableAltitudeMax
	return reading, nil
}
