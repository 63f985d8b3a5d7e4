// Package charts renders the per-file report charts: a strand-break bar chart
// for DBSCAN summaries and a DSB/SSB pie pair for Step-by-Step summaries.
//
// Charts are rendered to PNG bytes in memory. Writing them next to the source
// files is left to the report, so nothing reaches disk before the report is
// committed.
package charts

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/analysis"
	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/phsp"
)

// GatePolicy decides how the two Step-by-Step pie panels are gated.
type GatePolicy string

const (
	// GateEach renders every panel whose distribution passes on its own.
	GateEach GatePolicy = "each"
	// GateBoth renders the pair only when both distributions pass.
	GateBoth GatePolicy = "both"
)

// ParseGatePolicy accepts "each" or "both" (case-insensitive).
func ParseGatePolicy(s string) (GatePolicy, error) {
	switch GatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case GateEach:
		return GateEach, nil
	case GateBoth:
		return GateBoth, nil
	}
	return "", fmt.Errorf("unknown pie gate policy %q (want each or both)", s)
}

// Options sizes the rendered charts.
type Options struct {
	BarWidth  int
	BarHeight int
	// PieWidth and PieHeight size one pie panel; the pair is twice as wide.
	PieWidth  int
	PieHeight int
	Gate      GatePolicy
}

// DefaultOptions returns 8x6 and 7x7 inch figures at 100 dpi.
func DefaultOptions() Options {
	return Options{BarWidth: 800, BarHeight: 600, PieWidth: 700, PieHeight: 700, Gate: GateEach}
}

// Artifact is one rendered chart and the file name it is saved under.
// Panels lists the pie panels drawn ("DSBs", "SSBs") and is empty for bar
// charts.
type Artifact struct {
	Name   string
	PNG    []byte
	Panels []string
}

// BarChartName is the image name for a DBSCAN source file.
func BarChartName(file string) string { return file + ".png" }

// PieChartName is the image name for a Step-by-Step source file.
func PieChartName(file string) string {
	return "DSBs_SSBs_PieChart_" + strings.TrimSuffix(file, phsp.DefaultExtension) + ".png"
}

// GateOK reports whether a 3-part distribution is worth a pie: no NaN or
// infinite part and a strictly positive total.
func GateOK(parts [3]float64) bool {
	total := 0.0
	for _, v := range parts {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		total += v
	}
	return total > 0
}

// Render draws the chart for sum according to its mode. A nil artifact with
// a nil error means the distribution was degenerate and no chart applies.
func Render(sum analysis.FileSummary, opts Options) (*Artifact, error) {
	switch sum.Mode() {
	case phsp.ModeDBSCAN:
		return RenderStrandBreaks(sum, opts)
	case phsp.ModeStepByStep:
		return RenderDamagePies(sum, opts)
	}
	return nil, fmt.Errorf("no chart for mode %q", sum.Mode())
}

// RenderStrandBreaks draws the single/double/complex bar chart. It never gates.
func RenderStrandBreaks(sum analysis.FileSummary, opts Options) (*Artifact, error) {
	vals := sum.StrandBreaks()
	labels := []string{analysis.MetricSingleStrandBreaks, analysis.MetricDoubleStrandBreaks, analysis.MetricComplexStrandBreaks}
	bars := make([]chart.Value, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		bars[i] = chart.Value{Value: v, Label: labels[i]}
	}
	yr, ticks := barRange(vals[:])
	barW := (opts.BarWidth - 160) / (2 * len(bars))
	if barW > 150 {
		barW = 150
	}
	if barW < 10 {
		barW = 10
	}
	bc := chart.BarChart{
		Title:      fmt.Sprintf("Sum of Strand Breaks for %s", sum.File()),
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 56}},
		Width:      opts.BarWidth,
		Height:     opts.BarHeight,
		BarWidth:   barW,
		YAxis:      chart.YAxis{Name: "Sum", Range: yr, Ticks: ticks},
		Bars:       bars,
	}
	bc.Elements = []chart.Renderable{gridLines(yr, ticks), xAxisLabel("Strand Break Type")}
	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render bar chart %s: %w", sum.File(), err)
	}
	return &Artifact{Name: BarChartName(sum.File()), PNG: buf.Bytes()}, nil
}

// gridLines draws dashed horizontal lines at each y tick.
func gridLines(yr *chart.ContinuousRange, ticks []chart.Tick) chart.Renderable {
	return func(r chart.Renderer, box chart.Box, _ chart.Style) {
		span := yr.Max - yr.Min
		if span <= 0 {
			return
		}
		style := chart.Style{StrokeColor: drawing.ColorFromHex("b0b0b0"), StrokeWidth: 1, StrokeDashArray: []float64{4, 4}}
		style.WriteDrawingOptionsToRenderer(r)
		for _, t := range ticks {
			if t.Value <= yr.Min || t.Value > yr.Max {
				continue
			}
			y := box.Bottom - int((t.Value-yr.Min)/span*float64(box.Height()))
			r.MoveTo(box.Left, y)
			r.LineTo(box.Right, y)
			r.Stroke()
		}
	}
}

// xAxisLabel centres label under the plot area. BarChart has no x axis name.
func xAxisLabel(label string) chart.Renderable {
	return func(r chart.Renderer, box chart.Box, defaults chart.Style) {
		style := chart.Style{Font: defaults.Font, FontSize: 11, FontColor: drawing.ColorBlack}
		style.WriteTextOptionsToRenderer(r)
		tb := r.MeasureText(label)
		r.Text(label, box.Left+(box.Width()-tb.Width())/2, box.Bottom+40+tb.Height())
	}
}

type piePanel struct {
	title  string
	labels [3]string
	parts  [3]float64
}

// RenderDamagePies draws the DSB and SSB decomposition pies side by side.
// Panels whose distribution fails GateOK are left out (GateEach) or suppress
// the whole image (GateBoth).
func RenderDamagePies(sum analysis.FileSummary, opts Options) (*Artifact, error) {
	panelsIn := []piePanel{
		{title: "DSBs", labels: [3]string{"Direct", "Indirect", "Hybrid"}, parts: sum.DSBShares()},
		{title: "SSBs", labels: [3]string{"Direct", "QuasiDirect", "Indirect"}, parts: sum.SSBShares()},
	}
	var pass []piePanel
	for _, s := range panelsIn {
		if GateOK(s.parts) {
			pass = append(pass, s)
		} else {
			phsp.Debugf("[charts] %s: %s distribution %v is degenerate, no pie", sum.File(), s.title, s.parts)
		}
	}
	if len(pass) == 0 || (opts.Gate == GateBoth && len(pass) != len(panelsIn)) {
		phsp.Infof("[charts] %s: skipped pie chart (degenerate distribution)", sum.File())
		return nil, nil
	}
	panels := make([]image.Image, 0, len(pass))
	names := make([]string, 0, len(pass))
	for _, s := range pass {
		img, err := renderPie(s, sum.File(), opts.PieWidth, opts.PieHeight)
		if err != nil {
			return nil, err
		}
		panels = append(panels, img)
		names = append(names, s.title)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, sideBySide(panels)); err != nil {
		return nil, fmt.Errorf("encode pie chart %s: %w", sum.File(), err)
	}
	return &Artifact{Name: PieChartName(sum.File()), PNG: buf.Bytes(), Panels: names}, nil
}

func renderPie(s piePanel, file string, w, h int) (image.Image, error) {
	total := s.parts[0] + s.parts[1] + s.parts[2]
	var vals []chart.Value
	for i, v := range s.parts {
		if v <= 0 {
			continue
		}
		vals = append(vals, chart.Value{Value: v, Label: fmt.Sprintf("%s %.1f%%", s.labels[i], v/total*100)})
	}
	pc := chart.PieChart{
		Title:      fmt.Sprintf("%s for %s", s.title, file),
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		Width:      w,
		Height:     h,
		Values:     vals,
	}
	var buf bytes.Buffer
	if err := pc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %s pie %s: %w", s.title, file, err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode %s pie %s: %w", s.title, file, err)
	}
	return img, nil
}

// sideBySide lays panels out left to right on a white canvas.
func sideBySide(panels []image.Image) image.Image {
	if len(panels) == 1 {
		return panels[0]
	}
	w, h := 0, 0
	for _, p := range panels {
		b := p.Bounds()
		w += b.Dx()
		if b.Dy() > h {
			h = b.Dy()
		}
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	x := 0
	for _, p := range panels {
		b := p.Bounds()
		draw.Draw(out, image.Rect(x, 0, x+b.Dx(), b.Dy()), p, b.Min, draw.Over)
		x += b.Dx()
	}
	return out
}
