package views

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strconv"

	"riego/internal/modules/dashboard/types"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	chartWidth   = 560
	chartHeight  = 360
	wideWidth    = 1140
	wideHeight   = 420
	maxLineTicks = 6
	noDataLabel  = "Sin datos"
)

var (
	outlineColor = drawing.Color{R: 25, G: 20, B: 20, A: 255}
	textColor    = drawing.Color{R: 60, G: 60, B: 60, A: 255}
)

// palette colors treemap tiles and histogram segments by category.
var palette = []drawing.Color{
	{R: 99, G: 110, B: 250, A: 255},
	{R: 239, G: 85, B: 59, A: 255},
	{R: 0, G: 204, B: 150, A: 255},
	{R: 171, G: 99, B: 250, A: 255},
	{R: 255, G: 161, B: 90, A: 255},
	{R: 25, G: 211, B: 243, A: 255},
	{R: 255, G: 102, B: 146, A: 255},
	{R: 182, G: 232, B: 128, A: 255},
	{R: 255, G: 151, B: 255, A: 255},
	{R: 254, G: 203, B: 82, A: 255},
}

// IsWide reports whether a chart kind spans the full grid width.
func IsWide(kind types.ChartKind) bool {
	return kind == types.KindTreemap || kind == types.KindHistogram
}

func chartSize(kind types.ChartKind) (int, int) {
	if IsWide(kind) {
		return wideWidth, wideHeight
	}
	return chartWidth, chartHeight
}

// RenderSVG draws spec as an inline SVG document. Charts without data
// render a titled placeholder.
func RenderSVG(spec types.ChartSpec) (template.HTML, error) {
	var buf bytes.Buffer
	var err error
	switch {
	case spec.Empty():
		err = renderPlaceholder(&buf, spec)
	case spec.Kind == types.KindBar:
		err = renderBar(&buf, spec)
	case spec.Kind == types.KindLine:
		err = renderLine(&buf, spec)
	case spec.Kind == types.KindTreemap:
		err = renderTreemap(&buf, spec)
	case spec.Kind == types.KindHistogram:
		err = renderHistogram(&buf, spec)
	default:
		err = fmt.Errorf("unknown chart kind %q", spec.Kind)
	}
	if err != nil {
		return "", fmt.Errorf("render %s: %w", spec.ID, err)
	}
	// Every string drawn into the SVG is a chart title, a formatted number or a normalized date.
	return template.HTML(buf.String()), nil
}

func parseColor(s string) drawing.Color {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "rgb(%d, %d, %d)", &r, &g, &b); err != nil {
		return palette[0]
	}
	return drawing.Color{R: r, G: g, B: b, A: 255}
}

func paletteColor(i int) drawing.Color {
	return palette[i%len(palette)]
}

func background() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
}

// countRange starts at zero and leaves headroom above the tallest bar.
func countRange(top float64) *chart.ContinuousRange {
	if top <= 0 {
		top = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: math.Ceil(top * 1.1)}
}

func renderBar(buf *bytes.Buffer, spec types.ChartSpec) error {
	color := parseColor(spec.Color)
	bars := make([]chart.Value, 0, len(spec.Points))
	var top float64
	for _, p := range spec.Points {
		bars = append(bars, chart.Value{
			Label: p.Label,
			Value: p.Value,
			Style: chart.Style{
				FillColor:   color,
				StrokeColor: outlineColor,
				StrokeWidth: 1,
			},
		})
		top = math.Max(top, p.Value)
	}
	bc := chart.BarChart{
		Title:      spec.Title,
		Width:      chartWidth,
		Height:     chartHeight,
		Background: background(),
		BarWidth:   50,
		BarSpacing: 30,
		YAxis: chart.YAxis{
			Name:  spec.YLabel,
			Range: countRange(top),
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return strconv.FormatFloat(f, 'f', 0, 64)
				}
				return ""
			},
		},
		Bars: bars,
	}
	return bc.Render(chart.SVG, buf)
}

// indexAxis places points at 1..n so that row order, not time, drives the x axis.
// Only a handful of ticks carry labels.
func indexAxis(name string, labels []string) (chart.XAxis, []float64) {
	n := len(labels)
	xs := make([]float64, n)
	ticks := make([]chart.Tick, 0, maxLineTicks+1)
	step := 1
	if n > maxLineTicks {
		step = int(math.Ceil(float64(n) / maxLineTicks))
	}
	for i := range labels {
		xs[i] = float64(i + 1)
		if i%step == 0 {
			ticks = append(ticks, chart.Tick{Value: xs[i], Label: labels[i]})
		}
	}
	minR := 0.5
	maxR := float64(n) + 0.5
	if n == 1 {
		maxR = 2.0
		ticks = append(ticks, chart.Tick{Value: 2, Label: ""})
	}
	return chart.XAxis{Name: name, Ticks: ticks, Range: &chart.ContinuousRange{Min: minR, Max: maxR}}, xs
}

// valueRange pads the data range; a flat series gets ±1 so the delta is never zero.
func valueRange(values []float64) *chart.ContinuousRange {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func renderLine(buf *bytes.Buffer, spec types.ChartSpec) error {
	labels := make([]string, len(spec.Points))
	ys := make([]float64, len(spec.Points))
	for i, p := range spec.Points {
		labels[i] = p.Label
		ys[i] = p.Value
	}
	xAxis, xs := indexAxis(spec.XLabel, labels)
	color := parseColor(spec.Color)
	style := chart.Style{StrokeColor: color, StrokeWidth: 2}
	if len(xs) == 1 {
		style = chart.Style{StrokeWidth: 0, DotWidth: 4, DotColor: color}
	}
	ch := chart.Chart{
		Title:      spec.Title,
		Width:      chartWidth,
		Height:     chartHeight,
		Background: background(),
		XAxis:      xAxis,
		YAxis:      chart.YAxis{Name: spec.YLabel, Range: valueRange(ys)},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: spec.YLabel, XValues: xs, YValues: ys, Style: style},
		},
	}
	return ch.Render(chart.SVG, buf)
}

func renderPlaceholder(buf *bytes.Buffer, spec types.ChartSpec) error {
	w, h := chartSize(spec.Kind)
	r, err := chart.SVG(w, h)
	if err != nil {
		return err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return err
	}
	r.SetFont(font)
	r.SetStrokeColor(drawing.Color{R: 220, G: 220, B: 220, A: 255})
	r.SetStrokeWidth(1)
	r.SetFillColor(drawing.ColorWhite)
	rect(r, 0, 0, w-1, h-1)
	r.FillStroke()

	r.SetFontColor(textColor)
	r.SetFontSize(14)
	title := r.MeasureText(spec.Title)
	r.Text(spec.Title, (w-title.Width())/2, 28)

	r.SetFontSize(18)
	label := r.MeasureText(noDataLabel)
	r.Text(noDataLabel, (w-label.Width())/2, h/2)
	return r.Save(buf)
}

func rect(r chart.Renderer, x0, y0, x1, y1 int) {
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.LineTo(x0, y0)
	r.Close()
}
