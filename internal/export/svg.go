// Package export renders run data for use outside the terminal.
package export

import (
	"fmt"
	"math"
	"strings"
)

// Series is one line of a chart.
type Series struct {
	Name  string
	Color string
	Data  []float64
}

const margin = 40

// ChartSVG draws every series as a polyline against a shared y range, with
// sample i at the same x in each. It returns "" when there is nothing to draw.
func ChartSVG(series []Series, width, height int) string {
	n := 0
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		n = max(n, len(s.Data))
		for _, v := range s.Data {
			minY = math.Min(minY, v)
			maxY = math.Max(maxY, v)
		}
	}
	if n < 2 {
		return ""
	}
	if maxY == minY {
		maxY = minY + 1
	}

	plotW := float64(width - 2*margin)
	plotH := float64(height - 2*margin)
	x := func(i int) float64 { return margin + float64(i)/float64(n-1)*plotW }
	y := func(v float64) float64 { return margin + (maxY-v)/(maxY-minY)*plotH }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	fmt.Fprintf(&sb, `<g stroke="#444444" stroke-width="1">
<line x1="%d" y1="%d" x2="%d" y2="%d"/>
<line x1="%d" y1="%d" x2="%d" y2="%d"/>
</g>
`, margin, margin, margin, height-margin, margin, height-margin, width-margin, height-margin)
	fmt.Fprintf(&sb, `<g fill="#aaaaaa" font-family="monospace" font-size="11">
<text x="4" y="%d">%.4g</text>
<text x="4" y="%d">%.4g</text>
</g>
`, margin+4, maxY, height-margin, minY)

	for i, s := range series {
		if len(s.Data) < 2 {
			continue
		}
		points := make([]string, len(s.Data))
		for j, v := range s.Data {
			points[j] = fmt.Sprintf("%.1f,%.1f", x(j), y(v))
		}
		fmt.Fprintf(&sb, `<polyline fill="none" stroke="%s" stroke-width="1.5" points="%s"/>
`, s.Color, strings.Join(points, " "))
		fmt.Fprintf(&sb, `<text x="%d" y="%d" fill="%s" font-family="monospace" font-size="11">%s</text>
`, width-margin-120, margin+14*(i+1), s.Color, s.Name)
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}
