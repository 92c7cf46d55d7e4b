package core

import (
	"fmt"
	"math"

	"github.com/gnomonworks/sundial-forge/model"
)

// Fixed structural ratios of the dual-pillar instrument, relative to the
// pillar radius (except where noted).
const (
	pillarHeightRatio  = 2.0  // height over radius, covers altitude 0-90
	separationRatio    = 0.5  // pillar separation over radius
	wallThicknessRatio = 0.1  // minimum wall over radius
	platformRatio      = 0.4  // central platform over separation
	centralGnomonRatio = 0.3  // gnomon over pillar height
	baseDiameterRatio  = 1.3  // base over the two-pillar envelope
	baseHeightRatio    = 0.03 // base height over pillar height

	wallSegments     = 60  // arc discretization per sector
	azimuthDivisions = 360 // one floor line per degree
)

var cardinalNames = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// AltAzimuthGeometry is the derived dimension set of one dual-pillar
// build. All lengths are metres. Value object: computed once by Generate
// and never mutated.
type AltAzimuthGeometry struct {
	PillarRadius     float64
	PillarHeight     float64
	PillarSeparation float64
	WallThickness    float64
	AzimuthDivisions int
	// AltitudeScaleHeight is the wall span the 0-90 deg scale maps onto.
	AltitudeScaleHeight float64
	PlatformRadius      float64
	// GnomonHeight of the central vertical rod.
	GnomonHeight float64
	BaseDiameter float64
	BaseHeight   float64
}

// SectorWall is the discretized shell of one pillar sector: matched
// outer and inner arcs sampled at the floor and the crown. Ring i of one
// arc pairs with ring i of the others.
type SectorWall struct {
	Sector model.Quadrant
	// StartAngle, EndAngle of the arc in degrees, math convention
	// (0 = east axis, counterclockwise).
	StartAngle float64
	EndAngle   float64
	// XOffset shifts the sector centre off the shared origin.
	XOffset     float64
	OuterBottom []Vec3
	OuterTop    []Vec3
	InnerBottom []Vec3
	InnerTop    []Vec3
}

// AzimuthMarking is one radial graduation line on the floor.
type AzimuthMarking struct {
	Line
	// Azimuth in whole degrees from north, 0-359.
	Azimuth  float64
	Sector   model.Quadrant
	Major    bool // every 10 degrees
	Cardinal string
}

// AltitudeMark is one graduation on a sector's inner wall.
type AltitudeMark struct {
	// Altitude in whole degrees, 0-90.
	Altitude float64
	// WallHeight is the engraved mark height: a linear mapping of the
	// altitude onto the scale span.
	WallHeight float64
	// TheoreticalHeight is the gnomon-shadow height tan cross-check,
	// clamped to the pillar height.
	TheoreticalHeight float64
	Sector            model.Quadrant
	Major             bool // every 5 degrees
}

// AltAzimuth generates the dual-pillar altitude-azimuth instrument: two
// complementary semicircular sectors around a central vertical gnomon.
// Sector A opens along the north-south axis, sector B along east-west,
// so between them every shadow azimuth lands on a graduated wall.
type AltAzimuth struct {
	loc      model.Location
	params   model.BuildParameters
	material Material

	geom *AltAzimuthGeometry
}

// NewAltAzimuth validates the inputs and prepares a generator. The
// design is latitude-independent; the location is kept for reporting and
// validation sweeps.
func NewAltAzimuth(loc model.Location, params model.BuildParameters, material Material) (*AltAzimuth, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if material.Density <= 0 {
		material = DefaultMaterial
	}
	return &AltAzimuth{
		loc:      loc.Normalize(),
		params:   params,
		material: material,
	}, nil
}

// Kind implements Generator.
func (a *AltAzimuth) Kind() model.InstrumentKind { return model.InstrumentAltAzimuth }

// Location returns the normalized site.
func (a *AltAzimuth) Location() model.Location { return a.loc }

// Generate derives the pillar dimensions from the scale.
func (a *AltAzimuth) Generate() error {
	if a.params.Scale <= 0 {
		return fmt.Errorf("%w: scale %.4f must be positive before generating", ErrInvalidState, a.params.Scale)
	}

	r := a.params.Scale
	geom := AltAzimuthGeometry{
		PillarRadius:        r,
		PillarHeight:        r * pillarHeightRatio,
		PillarSeparation:    r * separationRatio,
		WallThickness:       math.Max(a.params.MaterialThickness, r*wallThicknessRatio),
		AzimuthDivisions:    azimuthDivisions,
		AltitudeScaleHeight: r * pillarHeightRatio,
	}
	geom.PlatformRadius = geom.PillarSeparation * platformRatio
	geom.GnomonHeight = geom.PillarHeight * centralGnomonRatio

	if a.params.IncludeBase {
		geom.BaseDiameter = (r*2 + geom.PillarSeparation) * baseDiameterRatio
		geom.BaseHeight = geom.PillarHeight * baseHeightRatio
	}

	// Cutting allowance widens the pillar shell; the inner floor radius
	// (radius minus wall) is unchanged by it.
	if a.params.Kerf > 0 {
		geom.PillarRadius += a.params.Kerf
		geom.WallThickness += a.params.Kerf
	}

	a.geom = &geom
	return nil
}

// Geometry returns a copy of the derived dimensions.
func (a *AltAzimuth) Geometry() (AltAzimuthGeometry, error) {
	if a.geom == nil {
		return AltAzimuthGeometry{}, fmt.Errorf("%w: Generate has not run", ErrInvalidState)
	}
	return *a.geom, nil
}

// sectorArc returns the arc span and centre offset for a sector.
// Sector A closes the east-west half (arc -90..+90 about east), sector B
// closes north-south (arc 0..180).
func (a *AltAzimuth) sectorArc(sector model.Quadrant) (startDeg, endDeg, xOffset float64, err error) {
	switch sector {
	case model.SectorA:
		return -90, 90, -a.geom.PillarSeparation / 2, nil
	case model.SectorB:
		return 0, 180, a.geom.PillarSeparation / 2, nil
	default:
		return 0, 0, 0, fmt.Errorf("%w: unknown sector %q", model.ErrInvalidParameter, sector)
	}
}

// SectorWalls discretizes both pillar shells at wallSegments arc steps.
func (a *AltAzimuth) SectorWalls() ([]SectorWall, error) {
	if a.geom == nil {
		return nil, fmt.Errorf("%w: Generate has not run", ErrInvalidState)
	}

	walls := make([]SectorWall, 0, 2)
	for _, sector := range []model.Quadrant{model.SectorA, model.SectorB} {
		startDeg, endDeg, xOffset, err := a.sectorArc(sector)
		if err != nil {
			return nil, err
		}

		wall := SectorWall{
			Sector:      sector,
			StartAngle:  startDeg,
			EndAngle:    endDeg,
			XOffset:     xOffset,
			OuterBottom: make([]Vec3, 0, wallSegments+1),
			OuterTop:    make([]Vec3, 0, wallSegments+1),
			InnerBottom: make([]Vec3, 0, wallSegments+1),
			InnerTop:    make([]Vec3, 0, wallSegments+1),
		}

		start := radians(startDeg)
		end := radians(endDeg)
		inner := a.geom.PillarRadius - a.geom.WallThickness
		for i := 0; i <= wallSegments; i++ {
			t := float64(i) / wallSegments
			angle := start + t*(end-start)
			cos, sin := math.Cos(angle), math.Sin(angle)

			ox := xOffset + a.geom.PillarRadius*cos
			oy := a.geom.PillarRadius * sin
			wall.OuterBottom = append(wall.OuterBottom, Vec3{X: ox, Y: oy, Z: 0})
			wall.OuterTop = append(wall.OuterTop, Vec3{X: ox, Y: oy, Z: a.geom.PillarHeight})

			ix := xOffset + inner*cos
			iy := inner * sin
			wall.InnerBottom = append(wall.InnerBottom, Vec3{X: ix, Y: iy, Z: 0})
			wall.InnerTop = append(wall.InnerTop, Vec3{X: ix, Y: iy, Z: a.geom.PillarHeight})
		}
		walls = append(walls, wall)
	}
	return walls, nil
}

// sectorFor classifies an azimuth: the bands closed by sector A's wall
// are [45,135] and [225,315]; everything else reads on sector B.
func sectorFor(azimuthDeg float64) model.Quadrant {
	az := normalizeDegrees(azimuthDeg)
	if (az >= 45 && az <= 135) || (az >= 225 && az <= 315) {
		return model.SectorA
	}
	return model.SectorB
}

// cardinalFor names the nearest of the 16 compass winds.
func cardinalFor(azimuthDeg float64) string {
	idx := int(math.Round(normalizeDegrees(azimuthDeg)/22.5)) % 16
	return cardinalNames[idx]
}

// AzimuthMarkings lays the 360 radial floor lines, one per degree, from
// the central platform rim out to the inner wall.
func (a *AltAzimuth) AzimuthMarkings() ([]AzimuthMarking, error) {
	if a.geom == nil {
		return nil, fmt.Errorf("%w: Generate has not run", ErrInvalidState)
	}

	startRadius := a.geom.PlatformRadius
	endRadius := a.geom.PillarRadius - a.geom.WallThickness

	markings := make([]AzimuthMarking, 0, a.geom.AzimuthDivisions)
	for az := 0; az < a.geom.AzimuthDivisions; az++ {
		azDeg := float64(az)
		rad := radians(azDeg)
		sin, cos := math.Sin(rad), math.Cos(rad)

		markings = append(markings, AzimuthMarking{
			Line: Line{
				Start: Vec3{X: startRadius * sin, Y: startRadius * cos, Z: 0},
				End:   Vec3{X: endRadius * sin, Y: endRadius * cos, Z: 0},
			},
			Azimuth:  azDeg,
			Sector:   sectorFor(azDeg),
			Major:    az%10 == 0,
			Cardinal: cardinalFor(azDeg),
		})
	}
	return markings, nil
}

// AltitudeScale graduates one sector's inner wall from horizon to
// zenith. The engraved scale is linear in altitude; the theoretical
// column is the exact shadow height for the central gnomon, kept as a
// fabrication cross-check.
func (a *AltAzimuth) AltitudeScale(sector model.Quadrant) ([]AltitudeMark, error) {
	if a.geom == nil {
		return nil, fmt.Errorf("%w: Generate has not run", ErrInvalidState)
	}
	if sector != model.SectorA && sector != model.SectorB {
		return nil, fmt.Errorf("%w: unknown sector %q", model.ErrInvalidParameter, sector)
	}

	marks := make([]AltitudeMark, 0, 91)
	for alt := 0; alt <= 90; alt++ {
		altDeg := float64(alt)
		linear := altDeg / 90.0 * a.geom.AltitudeScaleHeight

		theoretical := a.geom.AltitudeScaleHeight
		if alt < 89 {
			theoretical = a.geom.GnomonHeight * math.Tan(radians(altDeg))
		}

		marks = append(marks, AltitudeMark{
			Altitude:          altDeg,
			WallHeight:        math.Min(linear, a.geom.PillarHeight),
			TheoreticalHeight: math.Min(theoretical, a.geom.PillarHeight),
			Sector:            sector,
			Major:             alt%5 == 0,
		})
	}
	return marks, nil
}

// MarkingLines implements Generator for exporters.
func (a *AltAzimuth) MarkingLines() ([]Line, error) {
	ms, err := a.AzimuthMarkings()
	if err != nil {
		return nil, err
	}
	lines := make([]Line, len(ms))
	for i, m := range ms {
		lines[i] = m.Line
	}
	return lines, nil
}

// Dimensions returns the dimension summary, metres rounded to 4 places.
func (a *AltAzimuth) Dimensions() (map[string]any, error) {
	if a.geom == nil {
		return nil, fmt.Errorf("%w: Generate has not run", ErrInvalidState)
	}
	g := a.geom
	return map[string]any{
		"instrument": string(model.InstrumentAltAzimuth),
		"latitude":   a.loc.Latitude,
		"scale":      a.params.Scale,
		"pillars": map[string]any{
			"radius":         roundTo(g.PillarRadius, 4),
			"height":         roundTo(g.PillarHeight, 4),
			"separation":     roundTo(g.PillarSeparation, 4),
			"wall_thickness": roundTo(g.WallThickness, 4),
			"sectors":        []string{"A (north-south open)", "B (east-west open)"},
		},
		"scales": map[string]any{
			"azimuth_divisions":     g.AzimuthDivisions,
			"altitude_range":        "0-90 deg",
			"altitude_scale_height": roundTo(g.AltitudeScaleHeight, 4),
		},
		"central_gnomon": map[string]float64{
			"platform_radius": roundTo(g.PlatformRadius, 4),
			"height":          roundTo(g.GnomonHeight, 4),
		},
		"base": map[string]float64{
			"diameter": roundTo(g.BaseDiameter, 4),
			"height":   roundTo(g.BaseHeight, 4),
		},
		"overall": map[string]float64{
			"diameter": roundTo(g.BaseDiameter, 4),
			"height":   roundTo(g.PillarHeight+g.BaseHeight, 4),
		},
	}, nil
}

// BillOfMaterials prices out the dual-pillar build.
func (a *AltAzimuth) BillOfMaterials() ([]model.BOMItem, error) {
	if a.geom == nil {
		return nil, fmt.Errorf("%w: Generate has not run", ErrInvalidState)
	}
	g := a.geom

	inner := g.PillarRadius - g.WallThickness
	// Each sector is a half-annulus shell.
	wallVolume := (math.Pi*g.PillarRadius*g.PillarRadius - math.Pi*inner*inner) * g.PillarHeight / 2
	floorVolume := math.Pi * inner * inner * a.params.MaterialThickness
	gnomonVolume := math.Pi * 0.025 * 0.025 * g.GnomonHeight // 50 mm rod
	platformVolume := math.Pi * g.PlatformRadius * g.PlatformRadius * a.params.MaterialThickness

	bom := []model.BOMItem{
		{
			Item:       "Pillar sector wall (A, north-south open)",
			Quantity:   1,
			Material:   a.material.Name,
			Dimensions: fmt.Sprintf("R=%.3fm, H=%.3fm, t=%.3fm semicircular", g.PillarRadius, g.PillarHeight, g.WallThickness),
			Volume:     wallVolume,
			Mass:       a.material.Mass(wallVolume),
		},
		{
			Item:       "Pillar sector wall (B, east-west open)",
			Quantity:   1,
			Material:   a.material.Name,
			Dimensions: fmt.Sprintf("R=%.3fm, H=%.3fm, t=%.3fm semicircular", g.PillarRadius, g.PillarHeight, g.WallThickness),
			Volume:     wallVolume,
			Mass:       a.material.Mass(wallVolume),
		},
		{
			Item:       "Floor surface with azimuth graduations",
			Quantity:   2,
			Material:   a.material.Name,
			Dimensions: fmt.Sprintf("diameter %.3fm, %d lines engraved", inner*2, g.AzimuthDivisions),
			Volume:     floorVolume,
			Mass:       a.material.Mass(floorVolume),
		},
		{
			Item:       "Central gnomon (vertical rod)",
			Quantity:   1,
			Material:   "steel",
			Dimensions: fmt.Sprintf("height %.3fm, 50mm diameter, plumb", g.GnomonHeight),
			Volume:     gnomonVolume,
			Mass:       MaterialSteel.Mass(gnomonVolume),
		},
		{
			Item:       "Central platform",
			Quantity:   1,
			Material:   a.material.Name,
			Dimensions: fmt.Sprintf("radius %.3fm", g.PlatformRadius),
			Volume:     platformVolume,
			Mass:       a.material.Mass(platformVolume),
		},
	}

	if a.params.IncludeBase {
		baseVolume := math.Pi * (g.BaseDiameter / 2) * (g.BaseDiameter / 2) * g.BaseHeight
		bom = append(bom, model.BOMItem{
			Item:       "Base slab",
			Quantity:   1,
			Material:   a.material.Name,
			Dimensions: fmt.Sprintf("diameter %.3fm, H=%.3fm, levelled", g.BaseDiameter, g.BaseHeight),
			Volume:     baseVolume,
			Mass:       a.material.Mass(baseVolume),
		})
	}

	bom = append(bom, model.BOMItem{
		Item:       "Altitude scale graduation sets",
		Quantity:   2,
		Material:   "engraved",
		Dimensions: fmt.Sprintf("0-90 deg over %.3fm, one per sector", g.AltitudeScaleHeight),
	})
	return bom, nil
}

// PredictReading inverts the instrument: the central gnomon's shadow
// falls antipodal to the sun; its floor line gives azimuth and its wall
// intercept gives altitude. The reading is only usable while the shadow
// tip stays on the graduated floor inside the wall.
func (a *AltAzimuth) PredictReading(altitudeDeg, azimuthDeg float64) (model.InstrumentReading, error) {
	if a.geom == nil {
		return model.InstrumentReading{}, fmt.Errorf("%w: Generate has not run", ErrInvalidState)
	}

	azimuthDeg = normalizeDegrees(azimuthDeg)
	shadowAz := normalizeDegrees(azimuthDeg + 180)
	reading := model.InstrumentReading{
		ShadowAzimuth:     shadowAz,
		Quadrant:          sectorFor(shadowAz),
		PredictedAltitude: altitudeDeg,
		PredictedAzimuth:  azimuthDeg,
	}
	if altitudeDeg <= 0 {
		return reading, nil
	}

	alt := radians(altitudeDeg)
	floorLength := a.geom.GnomonHeight / math.Tan(alt)
	maxFloor := a.geom.PillarRadius - a.geom.WallThickness

	shadowRad := radians(shadowAz)
	reading.ShadowLength = math.Min(floorLength, maxFloor)
	reading.ShadowTipX = floorLength * math.Sin(shadowRad)
	reading.ShadowTipY = floorLength * math.Cos(shadowRad)
	reading.ShadowHeight = math.Min(a.geom.GnomonHeight*math.Tan(alt), a.geom.PillarHeight)

	reading.Readable = altitudeDeg < readableAltitudeMax && floorLength <= maxFloor
	return reading, nil
}
