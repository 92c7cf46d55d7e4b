package export

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/gnomonworks/sundial-forge/core"
)

const (
	svgSheetWidth = 800.0
	svgMargin     = 40.0
	svgTextLine   = 16.0
)

// EncodeSVG renders a plan-view dimension sheet: the line work projected
// onto the base plane, north up, with the dimension summary printed below
// the drawing.
func EncodeSVG(d Drawing) ([]byte, error) {
	lines := d.Lines
	if len(lines) == 0 {
		lines = crossLines()
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, ln := range lines {
		for _, p := range []core.Vec3{ln.Start, ln.End} {
			minX = math.Min(minX, p.X)
			maxX = math.Max(maxX, p.X)
			minY = math.Min(minY, p.Y)
			maxY = math.Max(maxY, p.Y)
		}
	}
	extX := maxX - minX
	extY := maxY - minY
	if extX <= 0 {
		extX = 1
	}
	if extY <= 0 {
		extY = 1
	}

	scale := (svgSheetWidth - 2*svgMargin) / extX
	drawHeight := extY*scale + 2*svgMargin

	dims := dimensionLines(d.Dimensions)
	sheetHeight := drawHeight + float64(len(dims))*svgTextLine + svgMargin

	sx := func(x float64) float64 { return (x-minX)*scale + svgMargin }
	sy := func(y float64) float64 { return (maxY-y)*scale + svgMargin }

	var b bytes.Buffer
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%s\" height=\"%s\" viewBox=\"0 0 %s %s\">\n",
		svgNum(svgSheetWidth), svgNum(sheetHeight), svgNum(svgSheetWidth), svgNum(sheetHeight))
	fmt.Fprintf(&b, "  <title>%s plan view</title>\n", d.Instrument)
	b.WriteString("  <g stroke=\"#1f2933\" stroke-width=\"0.75\" fill=\"none\">\n")
	for _, ln := range lines {
		fmt.Fprintf(&b, "    <line x1=\"%s\" y1=\"%s\" x2=\"%s\" y2=\"%s\"/>\n",
			svgNum(sx(ln.Start.X)), svgNum(sy(ln.Start.Y)), svgNum(sx(ln.End.X)), svgNum(sy(ln.End.Y)))
	}
	b.WriteString("  </g>\n")
	if len(dims) > 0 {
		b.WriteString("  <g font-family=\"monospace\" font-size=\"12\" fill=\"#1f2933\">\n")
		for i, row := range dims {
			fmt.Fprintf(&b, "    <text x=\"%s\" y=\"%s\">%s</text>\n",
				svgNum(svgMargin), svgNum(drawHeight+float64(i+1)*svgTextLine), row)
		}
		b.WriteString("  </g>\n")
	}
	b.WriteString("</svg>\n")
	return b.Bytes(), nil
}

// dimensionLines flattens the nested dimension summary into sorted
// "section.key: value" rows so the sheet is stable across runs.
func dimensionLines(dims map[string]any) []string {
	var out []string
	for _, sec := range sortedKeys(dims) {
		switch v := dims[sec].(type) {
		case map[string]float64:
			for _, k := range sortedKeys(v) {
				out = append(out, fmt.Sprintf("%s.%s: %s", sec, k, dimValue(v[k])))
			}
		case map[string]any:
			for _, k := range sortedKeys(v) {
				out = append(out, fmt.Sprintf("%s.%s: %s", sec, k, dimValue(v[k])))
			}
		default:
			out = append(out, fmt.Sprintf("%s: %s", sec, dimValue(v)))
		}
	}
	return out
}

func dimValue(v any) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func svgNum(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
