package export

import (
	"strings"
	"testing"
)

func TestChartSVG(t *testing.T) {
	svg := ChartSVG([]Series{
		{Name: "duration", Color: "#00ff00", Data: []float64{300, 250, 280, 200}},
		{Name: "best", Color: "#ffaa00", Data: []float64{300, 250, 250, 200}},
	}, 400, 200)

	if !strings.HasPrefix(svg, "<?xml") {
		t.Fatalf("expected xml header, got %q", svg[:min(20, len(svg))])
	}
	if got := strings.Count(svg, "<polyline"); got != 2 {
		t.Errorf("expected 2 polylines, got %d", got)
	}
	if !strings.Contains(svg, `stroke="#ffaa00"`) {
		t.Error("expected series color in output")
	}
	// First sample of the highest series sits on the top margin.
	if !strings.Contains(svg, "40.0,40.0") {
		t.Error("expected max value at the top-left of the plot")
	}
}

func TestChartSVGTooShort(t *testing.T) {
	if svg := ChartSVG([]Series{{Data: []float64{1}}}, 400, 200); svg != "" {
		t.Errorf("expected empty output for a single sample, got %d bytes", len(svg))
	}
	if svg := ChartSVG(nil, 400, 200); svg != "" {
		t.Error("expected empty output with no series")
	}
}

func TestChartSVGFlatSeries(t *testing.T) {
	svg := ChartSVG([]Series{{Name: "flat", Color: "#fff", Data: []float64{5, 5, 5}}}, 200, 100)
	if strings.Contains(svg, "NaN") {
		t.Error("flat series produced NaN coordinates")
	}
}
