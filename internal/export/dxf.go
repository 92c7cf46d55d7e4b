package export

import (
	"bytes"
	"strconv"

	"github.com/gnomonworks/sundial-forge/core"
)

// EncodeDXF renders the drawing's line work as a minimal ASCII DXF: an R12
// ENTITIES section of LINE entities on a single layer. Coordinates are
// metres in instrument axes.
func EncodeDXF(d Drawing) ([]byte, error) {
	lines := d.Lines
	if len(lines) == 0 {
		lines = crossLines()
	}

	var b bytes.Buffer
	dxfTag(&b, 0, "SECTION")
	dxfTag(&b, 2, "ENTITIES")
	for _, ln := range lines {
		dxfLine(&b, ln)
	}
	dxfTag(&b, 0, "ENDSEC")
	dxfTag(&b, 0, "EOF")
	return b.Bytes(), nil
}

func dxfLine(b *bytes.Buffer, ln core.Line) {
	dxfTag(b, 0, "LINE")
	dxfTag(b, 8, "MARKINGS")
	dxfFloat(b, 10, ln.Start.X)
	dxfFloat(b, 20, ln.Start.Y)
	dxfFloat(b, 30, ln.Start.Z)
	dxfFloat(b, 11, ln.End.X)
	dxfFloat(b, 21, ln.End.Y)
	dxfFloat(b, 31, ln.End.Z)
}

func dxfTag(b *bytes.Buffer, code int, value string) {
	b.WriteString(strconv.Itoa(code))
	b.WriteByte('\n')
	b.WriteString(value)
	b.WriteByte('\n')
}

func dxfFloat(b *bytes.Buffer, code int, v float64) {
	dxfTag(b, code, strconv.FormatFloat(v, 'f', 6, 64))
}
