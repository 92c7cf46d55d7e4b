package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gnomonworks/sundial-forge/core"
	"github.com/gnomonworks/sundial-forge/model"
)

// ErrUnsupportedFormat reports an export format this package cannot encode.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Supported format names, lower case.
const (
	FormatDXF = "dxf"
	FormatSTL = "stl"
	FormatSVG = "svg"
)

// Drawing is the geometry hand-off from a generator to the encoders. Lines
// carry the graduation line work shared by every format; the solid fields
// are populated per instrument and drive the mesh export.
type Drawing struct {
	Instrument model.InstrumentKind
	Lines      []core.Line

	// GnomonWedge holds the eight corners of the dial gnomon, base ring
	// first, apex ridge second.
	GnomonWedge []core.Vec3

	// Walls holds the discretized sector shells of the dual-pillar
	// instrument.
	Walls []core.SectorWall

	Dimensions map[string]any
}

// FromGenerator assembles a Drawing from a generated instrument. The
// generator must have run Generate; the ErrInvalidState of the underlying
// queries passes through otherwise.
func FromGenerator(g core.Generator) (Drawing, error) {
	lines, err := g.MarkingLines()
	if err != nil {
		return Drawing{}, err
	}
	dims, err := g.Dimensions()
	if err != nil {
		return Drawing{}, err
	}

	d := Drawing{Instrument: g.Kind(), Lines: lines, Dimensions: dims}
	switch gen := g.(type) {
	case *core.EquatorialDial:
		verts, err := gen.GnomonVertices()
		if err != nil {
			return Drawing{}, err
		}
		d.GnomonWedge = verts
	case *core.AltAzimuth:
		walls, err := gen.SectorWalls()
		if err != nil {
			return Drawing{}, err
		}
		d.Walls = walls
	}
	return d, nil
}

// Encode dispatches to the encoder named by format.
func Encode(format string, d Drawing) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatDXF:
		return EncodeDXF(d)
	case FormatSTL:
		return EncodeSTL(d)
	case FormatSVG:
		return EncodeSVG(d)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ContentType returns the MIME type served with an encoded drawing.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatDXF:
		return "application/dxf"
	case FormatSTL:
		return "model/stl"
	case FormatSVG:
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}

// Filename builds the attachment name for an encoded drawing.
func Filename(format string, kind model.InstrumentKind) string {
	name := string(kind)
	if name == "" {
		name = "instrument"
	}
	return fmt.Sprintf("%s.%s", name, strings.ToLower(format))
}

// crossLines is the placeholder line work drawn when a drawing carries no
// graduations, keeping the output loadable in CAD viewers.
func crossLines() []core.Line {
	return []core.Line{
		{Start: core.Vec3{X: -0.5}, End: core.Vec3{X: 0.5}},
		{Start: core.Vec3{Y: -0.5}, End: core.Vec3{Y: 0.5}},
	}
}
