package core

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gnomonworks/sundial-forge/model"
)

func newTestAltAzimuth(t *testing.T, params model.BuildParameters) *AltAzimuth {
	t.Helper()
	a, err := NewAltAzimuth(jaipur, params, DefaultMaterial)
	if err != nil {
		t.Fatalf("NewAltAzimuth error: %v", err)
	}
	if err := a.Generate(); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	return a
}

func TestAltAzimuthGenerate_ReferenceBuild(t *testing.T) {
	a := newTestAltAzimuth(t, model.DefaultBuildParameters())
	g, err := a.Geometry()
	if err != nil {
		t.Fatalf("Geometry error: %v", err)
	}

	if g.PillarRadius != 1.0 {
		t.Errorf("pillar radius = %v, want 1.0", g.PillarRadius)
	}
	if g.PillarHeight != 2.0 {
		t.Errorf("pillar height = %v, want 2.0", g.PillarHeight)
	}
	if g.PillarSeparation != 0.5 {
		t.Errorf("pillar separation = %v, want 0.5", g.PillarSeparation)
	}
	// Default 0.05 m stock is thinner than the structural minimum, so the
	// wall takes the 0.1*radius floor.
	if math.Abs(g.WallThickness-0.1) > 1e-12 {
		t.Errorf("wall thickness = %v, want 0.1", g.WallThickness)
	}
	if math.Abs(g.GnomonHeight-0.6) > 1e-12 {
		t.Errorf("gnomon height = %v, want 0.6", g.GnomonHeight)
	}
	if math.Abs(g.PlatformRadius-0.2) > 1e-12 {
		t.Errorf("platform radius = %v, want 0.2", g.PlatformRadius)
	}
	if g.AzimuthDivisions != 360 {
		t.Errorf("azimuth divisions = %d, want 360", g.AzimuthDivisions)
	}
	if math.Abs(g.BaseDiameter-3.25) > 1e-12 {
		t.Errorf("base diameter = %v, want 3.25", g.BaseDiameter)
	}
	if math.Abs(g.BaseHeight-0.06) > 1e-12 {
		t.Errorf("base height = %v, want 0.06", g.BaseHeight)
	}
}

func TestAltAzimuthGenerate_Deterministic(t *testing.T) {
	a1 := newTestAltAzimuth(t, model.DefaultBuildParameters())
	a2 := newTestAltAzimuth(t, model.DefaultBuildParameters())

	g1, _ := a1.Geometry()
	g2, _ := a2.Geometry()
	if diff := cmp.Diff(g1, g2); diff != "" {
		t.Fatalf("geometry differs between identical builds (-first +second):\n%s", diff)
	}

	w1, _ := a1.SectorWalls()
	w2, _ := a2.SectorWalls()
	if diff := cmp.Diff(w1, w2); diff != "" {
		t.Fatalf("sector walls differ between identical builds (-first +second):\n%s", diff)
	}
}

func TestAltAzimuthGenerate_KerfWidensShellOnly(t *testing.T) {
	plain := model.DefaultBuildParameters()
	cut := plain
	cut.Kerf = 0.01

	g0, _ := newTestAltAzimuth(t, plain).Geometry()
	g1, _ := newTestAltAzimuth(t, cut).Geometry()

	if g1.PillarRadius < g0.PillarRadius || g1.WallThickness < g0.WallThickness {
		t.Errorf("kerf shrank the shell: R %v->%v, t %v->%v",
			g0.PillarRadius, g1.PillarRadius, g0.WallThickness, g1.WallThickness)
	}
	// Inner floor radius is the reading surface and must not move.
	inner0 := g0.PillarRadius - g0.WallThickness
	inner1 := g1.PillarRadius - g1.WallThickness
	if math.Abs(inner0-inner1) > 1e-12 {
		t.Errorf("kerf moved the inner floor radius: %v -> %v", inner0, inner1)
	}
	if g1.PillarHeight != g0.PillarHeight || g1.GnomonHeight != g0.GnomonHeight {
		t.Errorf("kerf leaked into vertical dimensions")
	}
}

func TestAltAzimuthSectorWalls(t *testing.T) {
	a := newTestAltAzimuth(t, model.DefaultBuildParameters())
	walls, err := a.SectorWalls()
	if err != nil {
		t.Fatalf("SectorWalls error: %v", err)
	}
	if len(walls) != 2 {
		t.Fatalf("walls = %d, want 2", len(walls))
	}

	sa, sb := walls[0], walls[1]
	if sa.Sector != model.SectorA || sb.Sector != model.SectorB {
		t.Fatalf("wall order = %q,%q, want A,B", sa.Sector, sb.Sector)
	}
	if sa.XOffset != -0.25 || sb.XOffset != 0.25 {
		t.Errorf("offsets = %v,%v, want -0.25,+0.25", sa.XOffset, sb.XOffset)
	}
	if sa.StartAngle != -90 || sa.EndAngle != 90 {
		t.Errorf("sector A arc = %v..%v, want -90..90", sa.StartAngle, sa.EndAngle)
	}
	if sb.StartAngle != 0 || sb.EndAngle != 180 {
		t.Errorf("sector B arc = %v..%v, want 0..180", sb.StartAngle, sb.EndAngle)
	}

	for _, w := range walls {
		for _, ring := range [][]Vec3{w.OuterBottom, w.OuterTop, w.InnerBottom, w.InnerTop} {
			if len(ring) != 61 {
				t.Fatalf("sector %q ring has %d points, want 61", w.Sector, len(ring))
			}
		}
		for i := range w.OuterBottom {
			ob, ot := w.OuterBottom[i], w.OuterTop[i]
			if ob.Z != 0 || ot.Z != 2.0 {
				t.Fatalf("sector %q ring %d heights: bottom z=%v top z=%v", w.Sector, i, ob.Z, ot.Z)
			}
			if ob.X != ot.X || ob.Y != ot.Y {
				t.Fatalf("sector %q ring %d: top not plumb over bottom", w.Sector, i)
			}
			outerR := math.Hypot(ob.X-w.XOffset, ob.Y)
			if math.Abs(outerR-1.0) > 1e-9 {
				t.Errorf("sector %q outer radius = %v, want 1.0", w.Sector, outerR)
			}
			innerR := math.Hypot(w.InnerBottom[i].X-w.XOffset, w.InnerBottom[i].Y)
			if math.Abs(innerR-0.9) > 1e-9 {
				t.Errorf("sector %q inner radius = %v, want 0.9", w.Sector, innerR)
			}
		}
	}
}

func TestSectorFor(t *testing.T) {
	tests := []struct {
		azimuth float64
		want    model.Quadrant
	}{
		{azimuth: 0, want: model.SectorB},
		{azimuth: 44.9, want: model.SectorB},
		{azimuth: 45, want: model.SectorA},
		{azimuth: 90, want: model.SectorA},
		{azimuth: 135, want: model.SectorA},
		{azimuth: 135.1, want: model.SectorB},
		{azimuth: 180, want: model.SectorB},
		{azimuth: 224.9, want: model.SectorB},
		{azimuth: 225, want: model.SectorA},
		{azimuth: 270, want: model.SectorA},
		{azimuth: 315, want: model.SectorA},
		{azimuth: 315.1, want: model.SectorB},
		{azimuth: 359.9, want: model.SectorB},
		{azimuth: -45, want: model.SectorA}, // wraps to 315
		{azimuth: 405, want: model.SectorA}, // wraps to 45
	}
	for _, tc := range tests {
		if got := sectorFor(tc.azimuth); got != tc.want {
			t.Errorf("sectorFor(%v) = %q, want %q", tc.azimuth, got, tc.want)
		}
	}
}

func TestCardinalFor(t *testing.T) {
	tests := []struct {
		azimuth float64
		want    string
	}{
		{azimuth: 0, want: "N"},
		{azimuth: 11, want: "N"},
		{azimuth: 12, want: "NNE"},
		{azimuth: 45, want: "NE"},
		{azimuth: 90, want: "E"},
		{azimuth: 180, want: "S"},
		{azimuth: 270, want: "W"},
		{azimuth: 348, want: "NNW"},
		{azimuth: 355, want: "N"}, // wraps past the top of the rose
	}
	for _, tc := range tests {
		if got := cardinalFor(tc.azimuth); got != tc.want {
			t.Errorf("cardinalFor(%v) = %q, want %q", tc.azimuth, got, tc.want)
		}
	}
}

func TestAltAzimuthAzimuthMarkings(t *testing.T) {
	a := newTestAltAzimuth(t, model.DefaultBuildParameters())
	ms, err := a.AzimuthMarkings()
	if err != nil {
		t.Fatalf("AzimuthMarkings error: %v", err)
	}
	if len(ms) != 360 {
		t.Fatalf("markings = %d, want 360", len(ms))
	}

	majors := 0
	for _, m := range ms {
		if m.Major {
			majors++
		}
		if m.Line.Start.Z != 0 || m.Line.End.Z != 0 {
			t.Fatalf("marking %v not on the floor plane", m.Azimuth)
		}
		startR := math.Hypot(m.Line.Start.X, m.Line.Start.Y)
		endR := math.Hypot(m.Line.End.X, m.Line.End.Y)
		if math.Abs(startR-0.2) > 1e-9 || math.Abs(endR-0.9) > 1e-9 {
			t.Errorf("marking %v spans %v..%v, want 0.2..0.9", m.Azimuth, startR, endR)
		}
	}
	if majors != 36 {
		t.Errorf("major markings = %d, want 36", majors)
	}

	north := ms[0]
	if north.Cardinal != "N" || north.Line.End.X != 0 || math.Abs(north.Line.End.Y-0.9) > 1e-12 {
		t.Errorf("north marking = %+v", north)
	}
	east := ms[90]
	if east.Cardinal != "E" || math.Abs(east.Line.End.X-0.9) > 1e-9 || east.Sector != model.SectorA {
		t.Errorf("east marking = %+v", east)
	}
}

func TestAltAzimuthAltitudeScale(t *testing.T) {
	a := newTestAltAzimuth(t, model.DefaultBuildParameters())

	marks, err := a.AltitudeScale(model.SectorA)
	if err != nil {
		t.Fatalf("AltitudeScale error: %v", err)
	}
	if len(marks) != 91 {
		t.Fatalf("marks = %d, want 91 (0..90 inclusive)", len(marks))
	}

	if marks[0].WallHeight != 0 || marks[0].TheoreticalHeight != 0 {
		t.Errorf("horizon mark heights = %v/%v, want 0/0", marks[0].WallHeight, marks[0].TheoreticalHeight)
	}
	if marks[90].WallHeight != 2.0 {
		t.Errorf("zenith wall height = %v, want full scale 2.0", marks[90].WallHeight)
	}

	m45 := marks[45]
	if math.Abs(m45.WallHeight-1.0) > 1e-12 {
		t.Errorf("45 deg linear height = %v, want 1.0", m45.WallHeight)
	}
	// tan(45) puts the true shadow height exactly at the gnomon height.
	if math.Abs(m45.TheoreticalHeight-0.6) > 1e-9 {
		t.Errorf("45 deg theoretical height = %v, want 0.6", m45.TheoreticalHeight)
	}
	if !m45.Major || marks[44].Major {
		t.Errorf("major flags wrong around 45: %v/%v", m45.Major, marks[44].Major)
	}

	// Near the zenith the tan column saturates at the pillar height.
	for _, m := range marks[85:] {
		if m.TheoreticalHeight > 2.0 {
			t.Errorf("alt %v theoretical height %v exceeds the pillar", m.Altitude, m.TheoreticalHeight)
		}
	}

	if _, err := a.AltitudeScale(model.QuadrantEast); !errors.Is(err, model.ErrInvalidParameter) {
		t.Errorf("AltitudeScale(east) err = %v, want ErrInvalidParameter", err)
	}
}

func TestAltAzimuthPredictReading(t *testing.T) {
	a := newTestAltAzimuth(t, model.DefaultBuildParameters())

	r, err := a.PredictReading(45, 90)
	if err != nil {
		t.Fatalf("PredictReading error: %v", err)
	}
	if !r.Readable {
		t.Fatalf("45 deg sun unreadable: %+v", r)
	}
	if r.ShadowAzimuth != 270 {
		t.Errorf("shadow azimuth = %v, want 270 (antipodal)", r.ShadowAzimuth)
	}
	if r.Quadrant != model.SectorA {
		t.Errorf("sector = %q, want A", r.Quadrant)
	}
	if math.Abs(r.ShadowLength-0.6) > 1e-9 {
		t.Errorf("shadow length = %v, want 0.6 (gnomon/tan 45)", r.ShadowLength)
	}
	if math.Abs(r.ShadowHeight-0.6) > 1e-9 {
		t.Errorf("shadow wall height = %v, want 0.6", r.ShadowHeight)
	}
	if math.Abs(r.ShadowTipX+0.6) > 1e-9 {
		t.Errorf("shadow tip x = %v, want -0.6 (due west)", r.ShadowTipX)
	}
	// The instrument reads back the sun, not the shadow.
	if r.PredictedAzimuth != 90 || r.PredictedAltitude != 45 {
		t.Errorf("predicted alt/az = %v/%v, want 45/90", r.PredictedAltitude, r.PredictedAzimuth)
	}
}

func TestAltAzimuthPredictReading_ReadableBand(t *testing.T) {
	a := newTestAltAzimuth(t, model.DefaultBuildParameters())

	// floor length = 0.6/tan(alt), floor runs out at 0.9 m, so the
	// low-sun cutoff sits at atan(0.6/0.9) = 33.69 deg.
	tests := []struct {
		name     string
		alt      float64
		readable bool
	}{
		{name: "below horizon", alt: -5, readable: false},
		{name: "horizon", alt: 0, readable: false},
		{name: "low sun shadow past wall", alt: 20, readable: false},
		{name: "just below cutoff", alt: 33, readable: false},
		{name: "just above cutoff", alt: 34, readable: true},
		{name: "midday", alt: 60, readable: true},
		{name: "near zenith", alt: 84.9, readable: true},
		{name: "zenith band", alt: 85, readable: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := a.PredictReading(tc.alt, 180)
			if err != nil {
				t.Fatalf("PredictReading error: %v", err)
			}
			if r.Readable != tc.readable {
				t.Errorf("alt %v readable = %v, want %v", tc.alt, r.Readable, tc.readable)
			}
		})
	}

	// Past the wall the reported shadow length clamps to the floor edge
	// while the tip keeps the true geometric position.
	r, _ := a.PredictReading(20, 180)
	if math.Abs(r.ShadowLength-0.9) > 1e-9 {
		t.Errorf("clamped shadow length = %v, want 0.9", r.ShadowLength)
	}
	trueLen := 0.6 / math.Tan(radians(20))
	if math.Abs(r.ShadowTipY-trueLen) > 1e-9 {
		t.Errorf("shadow tip y = %v, want unclamped %v", r.ShadowTipY, trueLen)
	}
}

func TestAltAzimuthPredictReading_ShadowAntisymmetry(t *testing.T) {
	a := newTestAltAzimuth(t, model.DefaultBuildParameters())
	for _, az := range []float64{0, 45, 100, 200, 300, 359.5} {
		p, _ := a.PredictReading(50, az)
		q, _ := a.PredictReading(50, az+180)
		diff := azimuthSeparation(p.ShadowAzimuth, q.ShadowAzimuth)
		if math.Abs(diff-180) > 1e-9 {
			t.Errorf("shadow azimuths at az=%v and az+180 separated by %v, want 180", az, diff)
		}
	}
}

func TestAltAzimuthBillOfMaterials(t *testing.T) {
	a := newTestAltAzimuth(t, model.DefaultBuildParameters())
	bom, err := a.BillOfMaterials()
	if err != nil {
		t.Fatalf("BillOfMaterials error: %v", err)
	}
	if len(bom) != 7 {
		t.Fatalf("BOM items = %d, want 7", len(bom))
	}

	wantWall := (math.Pi*1.0 - math.Pi*0.81) * 2.0 / 2
	if math.Abs(bom[0].Volume-wantWall) > 1e-9 {
		t.Errorf("sector wall volume = %v, want %v", bom[0].Volume, wantWall)
	}
	if bom[0].Volume != bom[1].Volume {
		t.Errorf("sector walls differ in volume: %v vs %v", bom[0].Volume, bom[1].Volume)
	}

	var gnomon *model.BOMItem
	for i := range bom {
		if bom[i].Item == "Central gnomon (vertical rod)" {
			gnomon = &bom[i]
		}
	}
	if gnomon == nil {
		t.Fatalf("BOM missing the central gnomon")
	}
	if gnomon.Material != "steel" {
		t.Errorf("gnomon material = %q, want steel regardless of build stock", gnomon.Material)
	}

	params := model.DefaultBuildParameters()
	params.IncludeBase = false
	bomNoBase, _ := newTestAltAzimuth(t, params).BillOfMaterials()
	if len(bomNoBase) != 6 {
		t.Errorf("BOM without base = %d items, want 6", len(bomNoBase))
	}
}

func TestAltAzimuthQueriesBeforeGenerate(t *testing.T) {
	a, err := NewAltAzimuth(jaipur, model.DefaultBuildParameters(), DefaultMaterial)
	if err != nil {
		t.Fatalf("NewAltAzimuth error: %v", err)
	}

	if _, err := a.SectorWalls(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SectorWalls before Generate err = %v, want ErrInvalidState", err)
	}
	if _, err := a.AzimuthMarkings(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("AzimuthMarkings before Generate err = %v, want ErrInvalidState", err)
	}
	if _, err := a.AltitudeScale(model.SectorA); !errors.Is(err, ErrInvalidState) {
		t.Errorf("AltitudeScale before Generate err = %v, want ErrInvalidState", err)
	}
	if _, err := a.PredictReading(45, 90); !errors.Is(err, ErrInvalidState) {
		t.Errorf("PredictReading before Generate err = %v, want ErrInvalidState", err)
	}
}

func TestNewGeneratorFactory(t *testing.T) {
	params := model.DefaultBuildParameters()

	dial, err := NewGenerator(model.InstrumentEquatorialDial, jaipur, params, DefaultMaterial)
	if err != nil {
		t.Fatalf("NewGenerator(dial) error: %v", err)
	}
	if dial.Kind() != model.InstrumentEquatorialDial {
		t.Errorf("dial kind = %q", dial.Kind())
	}

	altaz, err := NewGenerator(model.InstrumentAltAzimuth, jaipur, params, DefaultMaterial)
	if err != nil {
		t.Fatalf("NewGenerator(altaz) error: %v", err)
	}
	if altaz.Kind() != model.InstrumentAltAzimuth {
		t.Errorf("altaz kind = %q", altaz.Kind())
	}

	if _, err := NewGenerator("astrolabe", jaipur, params, DefaultMaterial); !errors.Is(err, model.ErrInvalidParameter) {
		t.Errorf("unknown kind err = %v, want ErrInvalidParameter", err)
	}
}
