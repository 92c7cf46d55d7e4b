package export

import (
	"bytes"
	"fmt"
	"math"

	"github.com/gnomonworks/sundial-forge/core"
)

// EncodeSTL renders the drawing's solid geometry as ASCII STL, metres. The
// dial contributes its gnomon wedge, the dual-pillar instrument its sector
// wall shells. A drawing with no solids encodes as an empty solid.
func EncodeSTL(d Drawing) ([]byte, error) {
	name := string(d.Instrument)
	if name == "" {
		name = "instrument"
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "solid %s\n", name)
	if len(d.GnomonWedge) == 8 {
		stlWedge(&b, d.GnomonWedge)
	}
	for _, wall := range d.Walls {
		stlWallShell(&b, wall)
	}
	fmt.Fprintf(&b, "endsolid %s\n", name)
	return b.Bytes(), nil
}

// stlWedge triangulates the eight-corner gnomon: base ring 0-3, apex ridge
// 4-7. Quads are wound so the right-hand normal points out of the solid.
func stlWedge(b *bytes.Buffer, v []core.Vec3) {
	stlQuad(b, v[0], v[2], v[3], v[1]) // base, facing down
	stlQuad(b, v[4], v[5], v[7], v[6]) // ridge crown
	stlQuad(b, v[0], v[1], v[5], v[4]) // south slope
	stlQuad(b, v[3], v[2], v[6], v[7]) // north slope
	stlQuad(b, v[2], v[0], v[4], v[6]) // west edge
	stlQuad(b, v[1], v[3], v[7], v[5]) // east edge
}

// stlWallShell strips the matched arc rings of one sector into quads:
// outer face, inner face, and the crown between them. Two triangles per
// segment per face.
func stlWallShell(b *bytes.Buffer, w core.SectorWall) {
	for i := 0; i+1 < len(w.OuterBottom) && i+1 < len(w.OuterTop); i++ {
		stlQuad(b, w.OuterBottom[i], w.OuterBottom[i+1], w.OuterTop[i+1], w.OuterTop[i])
	}
	for i := 0; i+1 < len(w.InnerBottom) && i+1 < len(w.InnerTop); i++ {
		stlQuad(b, w.InnerBottom[i+1], w.InnerBottom[i], w.InnerTop[i], w.InnerTop[i+1])
	}
	for i := 0; i+1 < len(w.OuterTop) && i+1 < len(w.InnerTop); i++ {
		stlQuad(b, w.OuterTop[i], w.OuterTop[i+1], w.InnerTop[i+1], w.InnerTop[i])
	}
}

func stlQuad(b *bytes.Buffer, p0, p1, p2, p3 core.Vec3) {
	stlTriangle(b, p0, p1, p2)
	stlTriangle(b, p0, p2, p3)
}

func stlTriangle(b *bytes.Buffer, p1, p2, p3 core.Vec3) {
	n := unitNormal(p1, p2, p3)
	fmt.Fprintf(b, "  facet normal %e %e %e\n", n.X, n.Y, n.Z)
	b.WriteString("    outer loop\n")
	for _, p := range []core.Vec3{p1, p2, p3} {
		fmt.Fprintf(b, "      vertex %e %e %e\n", p.X, p.Y, p.Z)
	}
	b.WriteString("    endloop\n")
	b.WriteString("  endfacet\n")
}

// unitNormal returns the right-hand normal of the triangle's winding, or
// the zero vector for a degenerate triangle, which ASCII STL permits.
func unitNormal(p1, p2, p3 core.Vec3) core.Vec3 {
	u := p2.Sub(p1)
	w := p3.Sub(p1)
	n := core.Vec3{
		X: u.Y*w.Z - u.Z*w.Y,
		Y: u.Z*w.X - u.X*w.Z,
		Z: u.X*w.Y - u.Y*w.X,
	}
	norm := n.Norm()
	if norm == 0 || math.IsNaN(norm) {
		return core.Vec3{}
	}
	return core.Vec3{X: n.X / norm, Y: n.Y / norm, Z: n.Z / norm}
}
